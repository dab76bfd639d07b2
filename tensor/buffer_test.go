package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDuplicateAliasesStorage(t *testing.T) {
	ctx := NewContext()
	a := ctx.Empty(Float32, 4)
	b := a.Duplicate()
	defer b.Close()

	require.NoError(t, a.WriteFloats([]float32{1, 2, 3, 4}))
	require.Equal(t, []float32{1, 2, 3, 4}, b.Floats(), "write via a must be visible via its duplicate b without a copy")

	require.NoError(t, b.WriteFloats([]float32{9, 9, 9, 9}))
	require.Equal(t, []float32{9, 9, 9, 9}, a.Floats())
}

func TestWriteTooLargeFails(t *testing.T) {
	ctx := NewContext()
	b := ctx.Empty(Float32, 2)
	err := b.WriteFloats([]float32{1, 2, 3})
	require.Error(t, err)
}

func TestLockIsExclusive(t *testing.T) {
	ctx := NewContext()
	b := ctx.Empty(Float32, 1)

	_, release, err := b.Lock()
	require.NoError(t, err)

	_, _, err = b.Lock()
	require.Error(t, err, "a second concurrent lock on the same buffer must fail")

	release()

	_, release2, err := b.Lock()
	require.NoError(t, err, "lock must be re-acquirable once released")
	release2()
}

func TestDuplicateSharesLock(t *testing.T) {
	ctx := NewContext()
	a := ctx.Empty(Float32, 1)
	b := a.Duplicate()
	defer b.Close()

	_, release, err := a.Lock()
	require.NoError(t, err)
	defer release()

	_, _, err = b.Lock()
	require.Error(t, err, "locking an alias of an already-locked buffer must fail")
}
