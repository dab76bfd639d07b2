// Package tensor implements the tensor-buffer façade: fixed-shape,
// fixed-dtype regions of host memory that can be duplicated (aliased),
// locked for scoped access, and bulk-overwritten.
//
// Aliasing is the mechanism the executor uses to wire the output of one
// compiled subgraph directly into the input of the next without a copy: two
// Buffer handles produced by Duplicate share the same backing storage, and
// a write through either one is visible through the other.
package tensor

// DType is the element type of a buffer.
type DType int

const (
	Other DType = iota
	Float32
	Float16
	Int32
	Int16
	Int8
)

// Size reports the size in bytes of one element of the given type, or 0 for
// Other.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float16, Int16:
		return 2
	case Int8:
		return 1
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "f32"
	case Float16:
		return "f16"
	case Int32:
		return "i32"
	case Int16:
		return "i16"
	case Int8:
		return "i8"
	default:
		return "other"
	}
}
