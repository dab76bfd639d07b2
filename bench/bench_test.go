package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgegemma/runtime/kerrors"
)

func TestPhaseStartEndRecordsDuration(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.PhaseStart("load"))
	time.Sleep(time.Millisecond)
	require.NoError(t, r.PhaseEnd("load"))

	d, ok := r.PhaseDuration("load")
	require.True(t, ok)
	require.Greater(t, d, time.Duration(0))
}

// TestPhaseDoubleStartFails exercises scenario S6: starting the same phase
// twice without an intervening end must fail on the second call.
func TestPhaseDoubleStartFails(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.PhaseStart("load"))
	err := r.PhaseStart("load")
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.Internal))
	require.ErrorIs(t, err, kerrors.ErrPhaseAlreadyStarted)
}

func TestPhaseEndWithoutStartFails(t *testing.T) {
	r := NewRecorder()

	err := r.PhaseEnd("load")
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.Internal))
	require.ErrorIs(t, err, kerrors.ErrPhaseNotStarted)
}

func TestPhaseCanRestartAfterEnd(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.PhaseStart("load"))
	require.NoError(t, r.PhaseEnd("load"))
	require.NoError(t, r.PhaseStart("load"))
	require.NoError(t, r.PhaseEnd("load"))
}

func TestTokensPerSecondIsPerTurnNotAverage(t *testing.T) {
	tr := NewTurnRecorder()

	tr.RecordDecodeTurn(10, 1*time.Second)
	tr.RecordDecodeTurn(100, 1*time.Second)

	rate0, err := tr.TokensPerSecond(0)
	require.NoError(t, err)
	require.InDelta(t, 10.0, rate0, 0.001)

	rate1, err := tr.TokensPerSecond(1)
	require.NoError(t, err)
	require.InDelta(t, 100.0, rate1, 0.001, "second turn's rate must not be averaged with the first")
}

func TestTokensPerSecondOutOfRange(t *testing.T) {
	tr := NewTurnRecorder()
	_, err := tr.TokensPerSecond(0)
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.InvalidArgument))
}

func TestRecordPrefillAndDecodeTurnsAreIndependent(t *testing.T) {
	tr := NewTurnRecorder()
	tr.RecordPrefillTurn(256, 2*time.Second)
	tr.RecordDecodeTurn(1, 10*time.Millisecond)

	require.Equal(t, 1, tr.NumPrefillTurns())
	require.Equal(t, 1, tr.NumDecodeTurns())
}
