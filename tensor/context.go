package tensor

// Context is an allocation scope for buffers. The executor keeps one
// Context for all of its stages; it does not itself run compute (that
// happens behind subgraph.Handle.Run), it only owns allocation.
type Context struct {
	allocated []*Buffer
}

// NewContext returns an empty allocation scope.
func NewContext() *Context {
	return &Context{}
}

// Empty allocates a zero-valued buffer of the given dtype and shape.
func (c *Context) Empty(dtype DType, shape ...int) *Buffer {
	b := &Buffer{s: newStorage(dtype, shape)}
	c.allocated = append(c.allocated, b)
	return b
}

// Zeros is an alias for Empty: freshly allocated storage is always
// zero-filled.
func (c *Context) Zeros(dtype DType, shape ...int) *Buffer {
	return c.Empty(dtype, shape...)
}

// FromBytes allocates a buffer and fills it from a host byte span.
func (c *Context) FromBytes(dtype DType, data []byte, shape ...int) *Buffer {
	b := c.Empty(dtype, shape...)
	if err := b.Write(data); err != nil {
		panic(err)
	}
	return b
}

// FromFloats allocates a Float32 buffer and fills it from host floats.
func (c *Context) FromFloats(data []float32, shape ...int) *Buffer {
	b := c.Empty(Float32, shape...)
	if err := b.WriteFloats(data); err != nil {
		panic(err)
	}
	return b
}

// FromInts allocates an Int32 buffer and fills it from host ints.
func (c *Context) FromInts(data []int32, shape ...int) *Buffer {
	b := c.Empty(Int32, shape...)
	if err := b.WriteInts(data); err != nil {
		panic(err)
	}
	return b
}

// Close releases every buffer this context allocated directly (not
// duplicates taken from them elsewhere, which are owned by their own
// holder).
func (c *Context) Close() {
	for _, b := range c.allocated {
		b.Close()
	}
	c.allocated = nil
}
