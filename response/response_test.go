package response

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgegemma/runtime/kerrors"
)

func TestScoreDefaultsToNegativeInfinity(t *testing.T) {
	c := NewContainer([]string{"a", "b"})

	s, err := c.Score(0)
	require.NoError(t, err)
	require.True(t, math.IsInf(float64(s), -1))
}

func TestSetScoreAllocatesLazily(t *testing.T) {
	c := NewContainer([]string{"a", "b", "c"})

	require.NoError(t, c.SetScore(1, 0.5))

	s0, err := c.Score(0)
	require.NoError(t, err)
	require.True(t, math.IsInf(float64(s0), -1), "untouched indices stay at -inf after the first mutation")

	s1, err := c.Score(1)
	require.NoError(t, err)
	require.Equal(t, float32(0.5), s1)
}

func TestCandidateOutOfRange(t *testing.T) {
	c := NewContainer([]string{"only"})

	_, err := c.Candidate(1)
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.InvalidArgument))

	_, err = c.Candidate(-1)
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.InvalidArgument))
}

func TestSetScoreOutOfRange(t *testing.T) {
	c := NewContainer([]string{"a"})

	err := c.SetScore(5, 1.0)
	require.Error(t, err)
	require.True(t, kerrors.Is(err, kerrors.InvalidArgument))
}

func TestNumCandidates(t *testing.T) {
	c := NewContainer([]string{"a", "b", "c"})
	require.Equal(t, 3, c.NumCandidates())
}
