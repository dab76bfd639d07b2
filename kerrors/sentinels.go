package kerrors

import "errors"

// ErrDecompositionIncomplete is wrapped into an Internal error when the
// greedy prefill work-group decomposition fails to cover the requested
// token count exactly.
var ErrDecompositionIncomplete = errors.New("prefill work-group decomposition did not cover the full token count")

// ErrNoCarryToken is wrapped into an InvalidArgument error when Decode is
// called with neither an explicit input token nor a pending carry-over
// token from the previous Prefill/Decode call.
var ErrNoCarryToken = errors.New("no input token available: caller supplied none and none is pending")

// ErrPhaseAlreadyStarted is wrapped into an Internal error by
// bench.Recorder.PhaseStart when the same phase name is started twice
// without an intervening PhaseEnd.
var ErrPhaseAlreadyStarted = errors.New("benchmark phase already started")

// ErrPhaseNotStarted is wrapped into an Internal error by
// bench.Recorder.PhaseEnd when ending a phase that was never started.
var ErrPhaseNotStarted = errors.New("benchmark phase was not started")

// ErrLockHeld is returned by Buffer.Lock when a second lock is attempted on
// a buffer whose previous lock has not yet been released.
var ErrLockHeld = errors.New("tensor buffer is already locked")
