// Package sample defines the sampler seam a Session is configured with.
// The executor itself only ever greedy-argmaxes (spec.md §4.4.4); this
// package exists so Session's configuration surface has the same shape the
// teacher's Sequence.sampler field does (runner_sequence.go), for a future
// sampler implementation to slot into without changing Session's API.
package sample

// Sampler selects a token id from a row of logits. Greedy is the only
// implementation the core currently honors; Session.Config carries this
// seam but does not yet dispatch through it (spec.md §4.4.4 "Sampling
// policy").
type Sampler interface {
	Sample(logits []float32) (int32, error)
}

// Greedy selects the highest-scoring logit, breaking ties to the lowest
// index, matching the executor's own int16-logits argmax.
type Greedy struct{}

func (Greedy) Sample(logits []float32) (int32, error) {
	best := int32(0)
	bestVal := logits[0]
	for i, v := range logits[1:] {
		if v > bestVal {
			bestVal = v
			best = int32(i + 1)
		}
	}
	return best, nil
}
