// Package response implements the response container of spec.md §4.6: a
// fixed set of candidate strings with an optional parallel scores vector.
package response

import (
	"math"

	"github.com/edgegemma/runtime/kerrors"
)

// Container holds num_candidates response strings and a lazily-allocated
// parallel scores vector, default-filled with negative infinity until a
// caller sets a score.
type Container struct {
	candidates []string
	scores     []float32
}

// NewContainer builds a Container holding a copy of candidates. Scores are
// not allocated until the first call to SetScore.
func NewContainer(candidates []string) *Container {
	c := &Container{candidates: append([]string(nil), candidates...)}
	return c
}

// NumCandidates returns the number of response strings the container holds.
func (c *Container) NumCandidates() int { return len(c.candidates) }

// Candidate returns the candidate string at index i.
func (c *Container) Candidate(i int) (string, error) {
	if i < 0 || i >= len(c.candidates) {
		return "", kerrors.Newf(kerrors.InvalidArgument, "response.Candidate", "index %d out of range [0,%d)", i, len(c.candidates))
	}
	return c.candidates[i], nil
}

// Score returns the score at index i, or negative infinity if no score has
// ever been set for this container.
func (c *Container) Score(i int) (float32, error) {
	if i < 0 || i >= len(c.candidates) {
		return 0, kerrors.Newf(kerrors.InvalidArgument, "response.Score", "index %d out of range [0,%d)", i, len(c.candidates))
	}
	if c.scores == nil {
		return float32(math.Inf(-1)), nil
	}
	return c.scores[i], nil
}

// SetScore sets the score at index i, allocating and negative-infinity
// filling the scores vector on first use.
func (c *Container) SetScore(i int, score float32) error {
	if i < 0 || i >= len(c.candidates) {
		return kerrors.Newf(kerrors.InvalidArgument, "response.SetScore", "index %d out of range [0,%d)", i, len(c.candidates))
	}
	if c.scores == nil {
		c.scores = make([]float32, len(c.candidates))
		neg := float32(math.Inf(-1))
		for i := range c.scores {
			c.scores[i] = neg
		}
	}
	c.scores[i] = score
	return nil
}
