// Package rtabi defines the binary layout of the four runtime tables a
// compiled UDF artifact exports, and the unsafe pointer arithmetic the
// executor uses to populate them before invoking the entry symbol.
//
// The tables are plain C arrays inside the loaded shared object (global
// data, not heap allocations), sized to a fixed maximum so the default
// runtime template (internal/assemble/templates) can declare them without
// a dynamic allocator. Index 0 is always the output dataset; indices
// 1..count-1 are inputs in caller-supplied order.
package rtabi

import (
	"unsafe"

	"github.com/gridsynth/udfrun/internal/errs"
	"github.com/gridsynth/udfrun/internal/loader"
)

// MaxDatasets bounds how many entries (output + inputs) a single UDF
// invocation may wire up. It must match UDFRUN_MAX_DATASETS in the
// default template.
const MaxDatasets = 32

// MaxDims bounds the dimensionality of any one dataset. It must match
// UDFRUN_MAX_DIMS in the default template.
const MaxDims = 8

// Symbol names the executor resolves in the loaded shared object.
const (
	SymEntry = "udf_run"
	SymCount = "udf_count"
	SymData  = "udf_data"
	SymName  = "udf_name"
	SymDType = "udf_dtype"
	SymDims  = "udf_dims"
	SymNDims = "udf_ndims"
)

// Tables is the set of resolved table addresses plus the entry point,
// ready to be populated.
type Tables struct {
	Entry uintptr
	Count uintptr // *int32
	Data  uintptr // [MaxDatasets]unsafe.Pointer
	Name  uintptr // [MaxDatasets]*byte (NUL-terminated)
	DType uintptr // [MaxDatasets]*byte (NUL-terminated)
	Dims  uintptr // [MaxDatasets][MaxDims]int64
	NDims uintptr // [MaxDatasets]int32
}

// Resolve looks up the entry symbol, the four runtime tables, and the
// udf_count and udf_ndims length symbols in h. It returns an errs.Load
// error naming the first missing symbol.
func Resolve(h *loader.Handle) (*Tables, error) {
	t := &Tables{}
	for _, sym := range []struct {
		name string
		dst  *uintptr
	}{
		{SymEntry, &t.Entry},
		{SymCount, &t.Count},
		{SymData, &t.Data},
		{SymName, &t.Name},
		{SymDType, &t.DType},
		{SymDims, &t.Dims},
		{SymNDims, &t.NDims},
	} {
		addr, ok := h.Symbol(sym.name)
		if !ok {
			return nil, errs.LoadError("resolve", errMissing(sym.name))
		}
		*sym.dst = addr
	}
	return t, nil
}

type missingSymbolError string

func (e missingSymbolError) Error() string { return "missing required symbol " + string(e) }

func errMissing(name string) error { return missingSymbolError(name) }

// SetCount writes the number of populated dataset slots (output + inputs).
func (t *Tables) SetCount(n int32) {
	*(*int32)(unsafe.Pointer(t.Count)) = n
}

// SetData writes the raw data pointer for dataset index i.
func (t *Tables) SetData(i int, p unsafe.Pointer) {
	slot := t.Data + uintptr(i)*unsafe.Sizeof(uintptr(0))
	*(*unsafe.Pointer)(unsafe.Pointer(slot)) = p
}

// SetName writes the address of a NUL-terminated name string for index i.
// The caller owns the lifetime of the backing bytes (pin with
// runtime.Pinner for the duration of the call).
func (t *Tables) SetName(i int, cstr unsafe.Pointer) {
	slot := t.Name + uintptr(i)*unsafe.Sizeof(uintptr(0))
	*(*unsafe.Pointer)(unsafe.Pointer(slot)) = cstr
}

// SetDType writes the address of a NUL-terminated type-tag string for index i.
func (t *Tables) SetDType(i int, cstr unsafe.Pointer) {
	slot := t.DType + uintptr(i)*unsafe.Sizeof(uintptr(0))
	*(*unsafe.Pointer)(unsafe.Pointer(slot)) = cstr
}

// SetDims writes the dimension tuple for index i, padding with zero up to
// MaxDims, and records its length in NDims[i].
func (t *Tables) SetDims(i int, dims []int64) error {
	if len(dims) > MaxDims {
		return errs.MapError("set-dims", xerrorsDimsTooMany(len(dims)))
	}
	base := t.Dims + uintptr(i)*MaxDims*unsafe.Sizeof(int64(0))
	for j := 0; j < MaxDims; j++ {
		v := int64(0)
		if j < len(dims) {
			v = dims[j]
		}
		slot := base + uintptr(j)*unsafe.Sizeof(int64(0))
		*(*int64)(unsafe.Pointer(slot)) = v
	}
	ndimsSlot := t.NDims + uintptr(i)*unsafe.Sizeof(int32(0))
	*(*int32)(unsafe.Pointer(ndimsSlot)) = int32(len(dims))
	return nil
}

type dimsTooManyError int

func (e dimsTooManyError) Error() string {
	return "dimension tuple exceeds MaxDims"
}

func xerrorsDimsTooMany(n int) error { return dimsTooManyError(n) }
