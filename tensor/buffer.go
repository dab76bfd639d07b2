package tensor

import "github.com/edgegemma/runtime/kerrors"

// Buffer is a handle to a fixed-shape, fixed-dtype region of memory.
// Handles produced by Duplicate alias the same underlying storage: writes
// through one are visible through every other handle derived from it.
type Buffer struct {
	s *storage
}

// Dims returns the buffer's shape.
func (b *Buffer) Dims() []int { return append([]int(nil), b.s.shape...) }

// DType returns the buffer's element type.
func (b *Buffer) DType() DType { return b.s.dtype }

// Size returns the buffer's size in bytes.
func (b *Buffer) Size() int {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return len(b.s.bytes)
}

// Duplicate returns a new handle aliasing the same storage as b. The
// storage's lifetime is extended until every duplicate (including b) is
// closed.
func (b *Buffer) Duplicate() *Buffer {
	b.s.retain()
	return &Buffer{s: b.s}
}

// Close releases this handle's reference to the underlying storage. It is
// safe to call once per handle returned by Duplicate or a Context
// allocator.
func (b *Buffer) Close() {
	b.s.release()
}

// Lock acquires exclusive host access to the buffer's bytes and returns
// them along with a release function that must be called to unlock,
// typically via defer. Concurrent locks on the same (or an aliased) buffer
// are forbidden and return kerrors.ErrLockHeld.
func (b *Buffer) Lock() ([]byte, func(), error) {
	b.s.mu.Lock()
	if b.s.locked {
		b.s.mu.Unlock()
		return nil, nil, kerrors.Wrap(kerrors.Internal, "tensor.Lock", kerrors.ErrLockHeld)
	}
	b.s.locked = true
	bytes := b.s.bytes
	b.s.mu.Unlock()

	release := func() {
		b.s.mu.Lock()
		b.s.locked = false
		b.s.mu.Unlock()
	}
	return bytes, release, nil
}

// Write bulk-overwrites the buffer's contents from a host byte span. It
// fails with InvalidArgument if data is larger than the buffer.
func (b *Buffer) Write(data []byte) error {
	bytes, release, err := b.Lock()
	if err != nil {
		return err
	}
	defer release()

	if len(data) > len(bytes) {
		return kerrors.Newf(kerrors.InvalidArgument, "tensor.Write", "write of %d bytes exceeds buffer size %d", len(data), len(bytes))
	}
	copy(bytes, data)
	return nil
}

// Zero overwrites the buffer with zero bytes.
func (b *Buffer) Zero() error {
	return b.Write(make([]byte, b.Size()))
}

// Bytes returns a read-only snapshot copy of the buffer's contents.
func (b *Buffer) Bytes() []byte {
	bytes, release, err := b.Lock()
	if err != nil {
		// Mirrors the documented invariant that scoped locks are held only
		// for brief, non-reentrant intervals; a caller hitting this has a
		// bug elsewhere in the pipeline wiring.
		panic(err)
	}
	defer release()
	out := make([]byte, len(bytes))
	copy(out, bytes)
	return out
}

// WriteFloats is a convenience wrapper over Write for Float32 buffers.
func (b *Buffer) WriteFloats(v []float32) error {
	return b.Write(float32sToBytes(v))
}

// WriteInts is a convenience wrapper over Write for Int32 buffers.
func (b *Buffer) WriteInts(v []int32) error {
	return b.Write(int32sToBytes(v))
}

// Floats reinterprets the buffer's bytes as float32.
func (b *Buffer) Floats() []float32 {
	return bytesToFloat32s(b.Bytes())
}

// Ints reinterprets the buffer's bytes as int32.
func (b *Buffer) Ints() []int32 {
	return bytesToInt32s(b.Bytes())
}

// Int16s reinterprets the buffer's bytes as int16, used to read back
// logits on accelerators that quantize them (spec §4.4.4 step 5).
func (b *Buffer) Int16s() []int16 {
	return bytesToInt16s(b.Bytes())
}
