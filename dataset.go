package udfrun

import "github.com/gridsynth/udfrun/internal/dataset"

// Dataset describes one input or output dataset crossing the host-core
// interface: a name, an element type tag, a dimension tuple, and a
// backing buffer.
type Dataset = dataset.Descriptor

// DType is the element type tag a Dataset carries, e.g. Int32 or
// Float64.
type DType = dataset.Type

const (
	Int8    = dataset.Int8
	Int16   = dataset.Int16
	Int32   = dataset.Int32
	Int64   = dataset.Int64
	Uint8   = dataset.Uint8
	Uint16  = dataset.Uint16
	Uint32  = dataset.Uint32
	Uint64  = dataset.Uint64
	Float32 = dataset.Float32
	Float64 = dataset.Float64
)

// NewDataset builds a Dataset, validating that data (when non-nil) is
// sized exactly grid_size*storage_size for dtype and dims.
func NewDataset(name string, dtype DType, dims []int64, data []byte) (*Dataset, error) {
	return dataset.New(name, dtype, dims, data)
}
