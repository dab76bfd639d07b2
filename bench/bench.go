// Package bench implements the benchmark recorder of spec.md §6: a
// named-phase stopwatch plus per-turn token-rate bookkeeping, logged the
// way the teacher logs load timings (runner/ollamarunner/runner_load.go:
// "slog.Debug(..., "duration", time.Since(start))").
package bench

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgegemma/runtime/kerrors"
)

// Recorder times named phases (e.g. "load", "warmup") that start once and
// end once. Starting an already-open phase, or ending one that was never
// started, is an Internal error (spec.md §8 S6).
type Recorder struct {
	id uuid.UUID

	mu     sync.Mutex
	open   map[string]time.Time
	closed map[string]time.Duration
}

// NewRecorder builds a Recorder tagged with a fresh id for log correlation.
func NewRecorder() *Recorder {
	return &Recorder{
		id:     uuid.New(),
		open:   map[string]time.Time{},
		closed: map[string]time.Duration{},
	}
}

// PhaseStart marks name as started at the current time.
func (r *Recorder) PhaseStart(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.open[name]; ok {
		return kerrors.Wrap(kerrors.Internal, "bench.PhaseStart", kerrors.ErrPhaseAlreadyStarted)
	}
	r.open[name] = time.Now()
	return nil
}

// PhaseEnd closes name and records its elapsed duration.
func (r *Recorder) PhaseEnd(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start, ok := r.open[name]
	if !ok {
		return kerrors.Wrap(kerrors.Internal, "bench.PhaseEnd", kerrors.ErrPhaseNotStarted)
	}
	delete(r.open, name)
	d := time.Since(start)
	r.closed[name] = d

	slog.Debug("phase timing", "recorder", r.id, "phase", name, "duration", d)
	return nil
}

// PhaseDuration returns the recorded duration for a closed phase, and
// whether that phase has been closed.
func (r *Recorder) PhaseDuration(name string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.closed[name]
	return d, ok
}

// turn is one (token count, duration) measurement.
type turn struct {
	numTokens int
	duration  time.Duration
}

// TurnRecorder records prefill and decode turns separately, in index
// order, so TokensPerSecond can answer for any single turn rather than
// only an aggregate (spec.md §9 Open Questions: "preserve per-turn
// semantics; do not synthesize an average").
type TurnRecorder struct {
	id uuid.UUID

	mu      sync.Mutex
	prefill []turn
	decode  []turn
}

// NewTurnRecorder builds a TurnRecorder tagged with a fresh id.
func NewTurnRecorder() *TurnRecorder {
	return &TurnRecorder{id: uuid.New()}
}

// RecordPrefillTurn appends a prefill-turn measurement.
func (t *TurnRecorder) RecordPrefillTurn(numTokens int, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefill = append(t.prefill, turn{numTokens, d})
	slog.Debug("prefill turn recorded", "recorder", t.id, "turn", len(t.prefill)-1, "numTokens", numTokens, "duration", d)
}

// RecordDecodeTurn appends a decode-turn measurement.
func (t *TurnRecorder) RecordDecodeTurn(numTokens int, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decode = append(t.decode, turn{numTokens, d})
	slog.Debug("decode turn recorded", "recorder", t.id, "turn", len(t.decode)-1, "numTokens", numTokens, "duration", d)
}

// TokensPerSecond returns the token rate of one specific decode turn, not
// an average across turns — the teacher's GetDecodeTokensPerSec computes
// exactly this single-turn rate despite its name suggesting otherwise, and
// this recorder preserves that semantic rather than silently averaging.
func (t *TurnRecorder) TokensPerSecond(turnIndex int) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if turnIndex < 0 || turnIndex >= len(t.decode) {
		return 0, kerrors.Newf(kerrors.InvalidArgument, "bench.TokensPerSecond", "turn index %d out of range [0,%d)", turnIndex, len(t.decode))
	}
	tn := t.decode[turnIndex]
	if tn.duration <= 0 {
		return 0, nil
	}
	return float64(tn.numTokens) / tn.duration.Seconds(), nil
}

// NumPrefillTurns returns the number of recorded prefill turns.
func (t *TurnRecorder) NumPrefillTurns() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.prefill)
}

// NumDecodeTurns returns the number of recorded decode turns.
func (t *TurnRecorder) NumDecodeTurns() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.decode)
}
