// Package dataset describes the input/output dataset descriptors that cross
// the host-core interface: a name, an element type tag, a dimension tuple,
// an element storage size, and a pointer to the backing buffer.
package dataset

import "golang.org/x/xerrors"

// Type is the symbolic element data type tag exposed to a UDF, e.g.
// "int32" or "float64". The core never interprets the tag beyond sizing
// and naming; it is the template's job to map a tag to a native type.
type Type string

// Known type tags and their storage size in bytes. A UDF artifact's
// runtime type table entries must name one of these.
const (
	Int8    Type = "int8"
	Int16   Type = "int16"
	Int32   Type = "int32"
	Int64   Type = "int64"
	Uint8   Type = "uint8"
	Uint16  Type = "uint16"
	Uint32  Type = "uint32"
	Uint64  Type = "uint64"
	Float32 Type = "float32"
	Float64 Type = "float64"
)

var sizes = map[Type]int64{
	Int8: 1, Uint8: 1,
	Int16: 2, Uint16: 2,
	Int32: 4, Uint32: 4, Float32: 4,
	Int64: 8, Uint64: 8, Float64: 8,
}

// Size returns the storage size in bytes of one element of t, or 0 if t is
// not a recognized tag.
func (t Type) Size() int64 { return sizes[t] }

// Valid reports whether t is a recognized type tag.
func (t Type) Valid() bool { _, ok := sizes[t]; return ok }

// Descriptor describes one input or output dataset as the executor wires it
// into the runtime tables a compiled UDF reads.
type Descriptor struct {
	// Name identifies the dataset within the container file.
	Name string
	// DType is the element type tag.
	DType Type
	// Dims is the ordered tuple of dimension extents.
	Dims []int64
	// ElemSize is the storage size in bytes of one element; it must equal
	// DType.Size() for descriptors constructed via New, but is carried
	// separately because the wire format the host supplies may predate the
	// type tag being authoritative.
	ElemSize int64
	// Data is the backing buffer in row-major order. For input descriptors
	// it is read-only from a UDF's perspective; for the output descriptor
	// it is writable and is the executor's shared-region mapping during a
	// run.
	Data []byte
}

// New builds a Descriptor, computing ElemSize from dtype and validating
// that Data (when non-nil) is sized exactly GridSize()*ElemSize.
func New(name string, dtype Type, dims []int64, data []byte) (*Descriptor, error) {
	if !dtype.Valid() {
		return nil, xerrors.Errorf("dataset %q: unknown data type tag %q", name, dtype)
	}
	d := &Descriptor{
		Name:     name,
		DType:    dtype,
		Dims:     append([]int64(nil), dims...),
		ElemSize: dtype.Size(),
		Data:     data,
	}
	if data != nil {
		if want := d.BufferLen(); int64(len(data)) != want {
			return nil, xerrors.Errorf("dataset %q: buffer length %d, want grid_size*storage_size=%d", name, len(data), want)
		}
	}
	return d, nil
}

// GridSize returns the product of the dimension extents.
func (d *Descriptor) GridSize() int64 {
	n := int64(1)
	for _, dim := range d.Dims {
		n *= dim
	}
	return n
}

// BufferLen returns GridSize()*ElemSize, the required buffer length.
func (d *Descriptor) BufferLen() int64 {
	return d.GridSize() * d.ElemSize
}

// ShallowCopy returns a copy of d with a new Data slice header (the backing
// array is shared) and its own copy of Dims. The executor uses this to retarget the output
// descriptor's data pointer at the shared region without mutating the
// caller's original descriptor.
func (d *Descriptor) ShallowCopy() *Descriptor {
	cp := *d
	cp.Dims = append([]int64(nil), d.Dims...)
	return &cp
}
