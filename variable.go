// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"unicode/utf8"

	"github.com/ctessum/sparse"
)

// Variable is a named, typed, multi-dimensional array with an optional unit,
// an optional inclusive valid range, and an optional enumeration vocabulary.
// Its data buffer is contiguous and row-major (the last axis varies
// fastest), modeled on the `values interface{}` convention of
// bitbucket.org/ctessum/cdf's NetCDF variable, holding one of []int8,
// []int16, []int32, []float32, []float64 or []string depending on DataType.
type Variable struct {
	Name          string
	DataType      DataType
	Unit          string
	HasValidRange bool
	ValidMin      float64
	ValidMax      float64
	Description   string
	Enumeration   []string

	numDimensions int
	dimensionType [MaxDims]DimensionKind
	dimensionLen  [MaxDims]int

	data interface{} // []int8 | []int16 | []int32 | []float32 | []float64 | []string

	product *Product // set while owned by a product; nil otherwise
}

// NumDimensions returns the number of axes of v.
func (v *Variable) NumDimensions() int { return v.numDimensions }

// DimensionType returns the dimension kind of axis i.
func (v *Variable) DimensionType(i int) DimensionKind { return v.dimensionType[i] }

// DimensionLength returns the length of axis i.
func (v *Variable) DimensionLength(i int) int { return v.dimensionLen[i] }

// DimensionTypes returns a copy of the variable's dimension-kind signature.
func (v *Variable) DimensionTypes() []DimensionKind {
	out := make([]DimensionKind, v.numDimensions)
	copy(out, v.dimensionType[:v.numDimensions])
	return out
}

// DimensionLengths returns a copy of the variable's per-axis lengths.
func (v *Variable) DimensionLengths() []int {
	out := make([]int, v.numDimensions)
	copy(out, v.dimensionLen[:v.numDimensions])
	return out
}

// NumElements returns the product of all dimension lengths (1 for a scalar).
func (v *Variable) NumElements() int {
	n := 1
	for i := 0; i < v.numDimensions; i++ {
		n *= v.dimensionLen[i]
	}
	return n
}

func numElements(lengths []int) int {
	n := 1
	for _, l := range lengths {
		n *= l
	}
	return n
}

// NewVariable allocates a zeroed Variable. Fails with InvalidArgument if name
// is empty, num_dimensions exceeds MaxDims, or dims/lengths disagree in
// length; fails with OutOfMemory if the implied buffer cannot be allocated
// (only possible in practice for pathologically large shapes).
func NewVariable(name string, dtype DataType, dims []DimensionKind, lengths []int) (*Variable, error) {
	if name == "" {
		return nil, newError(ErrInvalidArgument, "variable name must not be empty")
	}
	if len(dims) != len(lengths) {
		return nil, newError(ErrInvalidArgument, "dimension kinds and lengths must have equal length")
	}
	if len(dims) > MaxDims {
		return nil, newError(ErrInvalidArgument, "num_dimensions %d exceeds MAX_DIMS %d", len(dims), MaxDims)
	}
	for _, l := range lengths {
		if l < 0 {
			return nil, newError(ErrInvalidArgument, "dimension length must be non-negative, got %d", l)
		}
	}

	v := &Variable{Name: name, DataType: dtype}
	v.numDimensions = len(dims)
	copy(v.dimensionType[:], dims)
	copy(v.dimensionLen[:], lengths)

	n := numElements(lengths)
	buf, err := allocateBuffer(dtype, n)
	if err != nil {
		return nil, err
	}
	v.data = buf
	return v, nil
}

func allocateBuffer(dtype DataType, n int) (interface{}, error) {
	if n < 0 {
		return nil, newError(ErrOutOfMemory, "negative buffer length %d", n)
	}
	switch dtype {
	case Int8:
		return make([]int8, n), nil
	case Int16:
		return make([]int16, n), nil
	case Int32:
		return make([]int32, n), nil
	case Float32:
		return make([]float32, n), nil
	case Float64:
		return make([]float64, n), nil
	case String:
		return make([]string, n), nil
	default:
		return nil, newError(ErrInvalidArgument, "unknown data type %d", dtype)
	}
}

// Copy performs a deep copy of v, including its string/enumeration data. The
// copy is detached from any product.
func (v *Variable) Copy() *Variable {
	out := *v
	out.product = nil
	out.data = copyBuffer(v.data)
	if v.Enumeration != nil {
		out.Enumeration = append([]string(nil), v.Enumeration...)
	}
	return &out
}

func copyBuffer(data interface{}) interface{} {
	switch b := data.(type) {
	case []int8:
		return append([]int8(nil), b...)
	case []int16:
		return append([]int16(nil), b...)
	case []int32:
		return append([]int32(nil), b...)
	case []float32:
		return append([]float32(nil), b...)
	case []float64:
		return append([]float64(nil), b...)
	case []string:
		return append([]string(nil), b...)
	default:
		return nil
	}
}

// Float64At returns element i as a float64; only valid for numeric dtypes.
func (v *Variable) Float64At(i int) float64 {
	switch b := v.data.(type) {
	case []int8:
		return float64(b[i])
	case []int16:
		return float64(b[i])
	case []int32:
		return float64(b[i])
	case []float32:
		return float64(b[i])
	case []float64:
		return b[i]
	default:
		panic("harp: Float64At called on non-numeric variable")
	}
}

// SetFloat64At sets element i from a float64, truncating to the variable's
// integer dtype when applicable; only valid for numeric dtypes.
func (v *Variable) SetFloat64At(i int, val float64) {
	switch b := v.data.(type) {
	case []int8:
		b[i] = int8(val)
	case []int16:
		b[i] = int16(val)
	case []int32:
		b[i] = int32(val)
	case []float32:
		b[i] = float32(val)
	case []float64:
		b[i] = val
	default:
		panic("harp: SetFloat64At called on non-numeric variable")
	}
}

// StringAt returns element i of a String-typed variable.
func (v *Variable) StringAt(i int) string {
	b, ok := v.data.([]string)
	if !ok {
		panic("harp: StringAt called on non-string variable")
	}
	return b[i]
}

// SetStringAt sets element i of a String-typed variable.
func (v *Variable) SetStringAt(i int, s string) {
	b, ok := v.data.([]string)
	if !ok {
		panic("harp: SetStringAt called on non-string variable")
	}
	b[i] = s
}

// Float64Data returns the variable's backing buffer as a []float64, copying
// if necessary to surface a uniform view. It is a helper for kernels and
// must not be used to mutate the original variable's storage when the
// underlying dtype is not already Float64.
func (v *Variable) Float64Data() []float64 {
	if b, ok := v.data.([]float64); ok {
		return b
	}
	n := v.NumElements()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = v.Float64At(i)
	}
	return out
}

// SetUnit syntactically replaces the variable's unit string, with no
// numeric conversion.
func (v *Variable) SetUnit(unit string) { v.Unit = unit }

// HasUnit reports whether v's unit string is syntactically equal to unit.
func (v *Variable) HasUnit(unit string) bool { return v.Unit == unit }

// SetEnumeration attaches a categorical vocabulary to v. Requires an integer
// dtype.
func (v *Variable) SetEnumeration(labels []string) error {
	switch v.DataType {
	case Int8, Int16, Int32:
	default:
		return newError(ErrInvalidArgument, "enumeration requires an integer data type, got %s", v.DataType)
	}
	v.Enumeration = append([]string(nil), labels...)
	return nil
}

// AddDimension inserts a new axis at index, replicating the existing data
// length times along the new axis. The total element count multiplies by
// length.
func (v *Variable) AddDimension(index int, kind DimensionKind, length int) error {
	if index < 0 || index > v.numDimensions {
		return newError(ErrInvalidArgument, "dimension index %d out of range [0,%d]", index, v.numDimensions)
	}
	if v.numDimensions+1 > MaxDims {
		return newError(ErrInvalidArgument, "adding a dimension would exceed MAX_DIMS %d", MaxDims)
	}
	if length < 0 {
		return newError(ErrInvalidArgument, "dimension length must be non-negative, got %d", length)
	}

	oldLen := v.DimensionLengths()
	oldN := v.NumElements()

	outer := 1
	for i := 0; i < index; i++ {
		outer *= oldLen[i]
	}
	inner := oldN / max1(outer)

	newData, err := allocateBuffer(v.DataType, oldN*length)
	if err != nil {
		return err
	}
	for o := 0; o < outer; o++ {
		for r := 0; r < length; r++ {
			for in := 0; in < inner; in++ {
				srcIdx := o*inner + in
				dstIdx := (o*length+r)*inner + in
				copyElement(v.data, srcIdx, newData, dstIdx)
			}
		}
	}

	newTypes := make([]DimensionKind, 0, v.numDimensions+1)
	newLens := make([]int, 0, v.numDimensions+1)
	newTypes = append(newTypes, v.DimensionTypes()[:index]...)
	newTypes = append(newTypes, kind)
	newTypes = append(newTypes, v.DimensionTypes()[index:]...)
	newLens = append(newLens, oldLen[:index]...)
	newLens = append(newLens, length)
	newLens = append(newLens, oldLen[index:]...)

	v.numDimensions = len(newTypes)
	copy(v.dimensionType[:], newTypes)
	copy(v.dimensionLen[:], newLens)
	v.data = newData
	return nil
}

func max1(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

func copyElement(src interface{}, si int, dst interface{}, di int) {
	switch s := src.(type) {
	case []int8:
		dst.([]int8)[di] = s[si]
	case []int16:
		dst.([]int16)[di] = s[si]
	case []int32:
		dst.([]int32)[di] = s[si]
	case []float32:
		dst.([]float32)[di] = s[si]
	case []float64:
		dst.([]float64)[di] = s[si]
	case []string:
		dst.([]string)[di] = s[si]
	}
}

// RemoveDimension drops axis index, only legal when its length is 1.
func (v *Variable) RemoveDimension(index int) error {
	if index < 0 || index >= v.numDimensions {
		return newError(ErrInvalidArgument, "dimension index %d out of range", index)
	}
	if v.dimensionLen[index] != 1 {
		return newError(ErrInvalidArgument, "cannot remove dimension %d with length %d != 1", index, v.dimensionLen[index])
	}
	newTypes := append(v.DimensionTypes()[:index], v.DimensionTypes()[index+1:]...)
	newLens := append(v.DimensionLengths()[:index], v.DimensionLengths()[index+1:]...)
	v.numDimensions = len(newTypes)
	copy(v.dimensionType[:], newTypes)
	copy(v.dimensionLen[:], newLens)
	// data buffer is unaffected: length-1 axis contributes no extra elements.
	return nil
}

// ResizeDimension truncates or zero-extends v along axis index to
// new_length.
func (v *Variable) ResizeDimension(index int, newLength int) error {
	if index < 0 || index >= v.numDimensions {
		return newError(ErrInvalidArgument, "dimension index %d out of range", index)
	}
	if newLength < 0 {
		return newError(ErrInvalidArgument, "new length must be non-negative, got %d", newLength)
	}
	ids := make([]int, newLength)
	oldLen := v.dimensionLen[index]
	for i := range ids {
		if i < oldLen {
			ids[i] = i
		} else {
			ids[i] = -1 // marks a zero-fill slot
		}
	}
	return v.rearrangeAllowMissing(index, ids)
}

// RearrangeDimension permutes/selects slices along axis index, producing a
// buffer of length len(ids) along that axis. Fails if any id is out of
// range.
func (v *Variable) RearrangeDimension(index int, ids []int) error {
	if index < 0 || index >= v.numDimensions {
		return newError(ErrInvalidArgument, "dimension index %d out of range", index)
	}
	for _, id := range ids {
		if id < 0 || id >= v.dimensionLen[index] {
			return newError(ErrInvalidArgument, "id %d out of range [0,%d)", id, v.dimensionLen[index])
		}
	}
	return v.rearrangeAllowMissing(index, ids)
}

// rearrangeAllowMissing is the shared implementation of RearrangeDimension
// and ResizeDimension; an id of -1 means "zero-fill this slot" and is only
// produced internally by ResizeDimension.
func (v *Variable) rearrangeAllowMissing(index int, ids []int) error {
	oldLen := v.DimensionLengths()
	oldN := v.NumElements()
	outer := 1
	for i := 0; i < index; i++ {
		outer *= oldLen[i]
	}
	inner := oldN / max1(outer*max1(oldLen[index]))

	newLen := len(ids)
	newData, err := allocateBuffer(v.DataType, outer*newLen*inner)
	if err != nil {
		return err
	}
	for o := 0; o < outer; o++ {
		for r, id := range ids {
			for in := 0; in < inner; in++ {
				dstIdx := (o*newLen+r)*inner + in
				if id < 0 {
					continue // already zero from allocateBuffer
				}
				srcIdx := (o*oldLen[index]+id)*inner + in
				copyElement(v.data, srcIdx, newData, dstIdx)
			}
		}
	}
	v.dimensionLen[index] = newLen
	v.data = newData
	return nil
}

// Transpose reorders v's axes according to order (a permutation of
// [0,num_dimensions)).
func (v *Variable) Transpose(order []int) error {
	if len(order) != v.numDimensions {
		return newError(ErrInvalidArgument, "transpose order length %d does not match num_dimensions %d", len(order), v.numDimensions)
	}
	seen := make([]bool, v.numDimensions)
	for _, o := range order {
		if o < 0 || o >= v.numDimensions || seen[o] {
			return newError(ErrInvalidArgument, "transpose order is not a valid permutation")
		}
		seen[o] = true
	}

	oldLen := v.DimensionLengths()
	oldType := v.DimensionTypes()
	newLen := make([]int, v.numDimensions)
	newType := make([]DimensionKind, v.numDimensions)
	for i, o := range order {
		newLen[i] = oldLen[o]
		newType[i] = oldType[o]
	}

	oldShape := arrayShape(oldLen)
	newShape := arrayShape(newLen)
	n := v.NumElements()
	newData, err := allocateBuffer(v.DataType, n)
	if err != nil {
		return err
	}
	newIdx := make([]int, v.numDimensions)
	for flat := 0; flat < n; flat++ {
		idx := oldShape.IndexNd(flat)
		for i, o := range order {
			newIdx[i] = idx[o]
		}
		dst := newShape.Index1d(newIdx...)
		copyElement(v.data, flat, newData, dst)
	}

	copy(v.dimensionType[:], newType)
	copy(v.dimensionLen[:], newLen)
	v.data = newData
	return nil
}

// arrayShape builds a ctessum/sparse.DenseArray index header purely for its
// row-major flat<->multi-index arithmetic (Index1d/IndexNd); Variable's own
// buffer is never a sparse.DenseArray itself, since it must also hold
// int8/16/32, float32 and string elements that DenseArray's float64
// Elements slice cannot represent.
func arrayShape(lengths []int) *sparse.DenseArray {
	h := &sparse.DenseArray{Shape: append([]int(nil), lengths...)}
	h.Fix()
	return h
}

// Append concatenates other onto v along the first axis; requires identical
// non-time dim signatures and compatible dtype/unit.
func (v *Variable) Append(other *Variable) error {
	if v.DataType != other.DataType {
		return newError(ErrInvalidArgument, "cannot append variable of type %s onto %s", other.DataType, v.DataType)
	}
	if v.Unit != other.Unit {
		return newError(ErrInvalidArgument, "cannot append variable with unit %q onto %q", other.Unit, v.Unit)
	}
	if v.numDimensions != other.numDimensions {
		return newError(ErrInvalidArgument, "cannot append variable with %d dimensions onto %d", other.numDimensions, v.numDimensions)
	}
	for i := 1; i < v.numDimensions; i++ {
		if v.dimensionType[i] != other.dimensionType[i] || v.dimensionLen[i] != other.dimensionLen[i] {
			return newError(ErrInvalidArgument, "non-first dimensions must match exactly to append")
		}
	}

	tailN := 1
	for i := 1; i < v.numDimensions; i++ {
		tailN *= v.dimensionLen[i]
	}
	oldFirst := v.dimensionLen[0]
	newFirst := oldFirst + other.dimensionLen[0]
	newData, err := allocateBuffer(v.DataType, newFirst*tailN)
	if err != nil {
		return err
	}
	for i := 0; i < oldFirst*tailN; i++ {
		copyElement(v.data, i, newData, i)
	}
	for i := 0; i < other.dimensionLen[0]*tailN; i++ {
		copyElement(other.data, i, newData, oldFirst*tailN+i)
	}
	v.dimensionLen[0] = newFirst
	v.data = newData
	return nil
}

// Verify checks v's structural invariants (non-empty name, non-negative
// lengths, element count consistency, valid UTF-8 for string data).
func (v *Variable) Verify() error {
	if v.Name == "" {
		return newError(ErrInvalidVariable, "variable has an empty name")
	}
	if v.numDimensions < 0 || v.numDimensions > MaxDims {
		return newError(ErrInvalidVariable, "variable %q has invalid num_dimensions %d", v.Name, v.numDimensions)
	}
	for i := 0; i < v.numDimensions; i++ {
		if v.dimensionLen[i] < 0 {
			return newError(ErrInvalidVariable, "variable %q has negative length on axis %d", v.Name, i)
		}
	}
	if v.DataType == String {
		strs, ok := v.data.([]string)
		if !ok {
			return newError(ErrInvalidVariable, "variable %q declared string but buffer is not []string", v.Name)
		}
		for _, s := range strs {
			if !utf8.ValidString(s) {
				return newError(ErrInvalidVariable, "variable %q contains invalid UTF-8", v.Name)
			}
		}
	}
	if n := v.NumElements(); !bufferHasLen(v.data, n) {
		return newError(ErrInvalidVariable, "variable %q buffer length does not match dimension product %d", v.Name, n)
	}
	return nil
}

func bufferHasLen(data interface{}, n int) bool {
	switch b := data.(type) {
	case []int8:
		return len(b) == n
	case []int16:
		return len(b) == n
	case []int32:
		return len(b) == n
	case []float32:
		return len(b) == n
	case []float64:
		return len(b) == n
	case []string:
		return len(b) == n
	default:
		return false
	}
}

// hasDimensionTypes reports whether v's dimension-kind signature matches
// dims exactly, and (when independentLength >= 0) whether every
// DimIndependent axis has that exact length.
func (v *Variable) hasDimensionTypes(dims []DimensionKind, independentLength int) bool {
	if v.numDimensions != len(dims) {
		return false
	}
	for i, d := range dims {
		if v.dimensionType[i] != d {
			return false
		}
		if d == DimIndependent && independentLength >= 0 && v.dimensionLen[i] != independentLength {
			return false
		}
	}
	return true
}
