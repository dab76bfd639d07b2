package tensor

import "sync"

// storage is the shared backing memory for one or more aliased Buffer
// handles. It is reference-counted: the bytes are only eligible for
// collection once every Buffer derived from it (via Duplicate) has been
// closed. There is no weak-reference path — every handle holds a strong
// count, per the no-weak-references rule for the buffer graph.
type storage struct {
	mu       sync.Mutex
	bytes    []byte
	shape    []int
	dtype    DType
	refCount int

	locked bool
}

func newStorage(dtype DType, shape []int) *storage {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &storage{
		bytes:    make([]byte, n*dtype.Size()),
		shape:    append([]int(nil), shape...),
		dtype:    dtype,
		refCount: 1,
	}
}

func (s *storage) retain() {
	s.mu.Lock()
	s.refCount++
	s.mu.Unlock()
}

func (s *storage) release() {
	s.mu.Lock()
	s.refCount--
	n := s.refCount
	s.mu.Unlock()
	if n <= 0 {
		// Drop the reference so the backing array can be collected once
		// every Buffer derived from it has gone out of scope too.
		s.bytes = nil
	}
}
