// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"reflect"
	"testing"
)

func mustVariable(t *testing.T, name string, dtype DataType, dims []DimensionKind, lengths []int) *Variable {
	t.Helper()
	v, err := NewVariable(name, dtype, dims, lengths)
	if err != nil {
		t.Fatalf("NewVariable(%q): %v", name, err)
	}
	return v
}

func TestNewVariableRejectsOversizeDims(t *testing.T) {
	dims := make([]DimensionKind, MaxDims+1)
	lengths := make([]int, MaxDims+1)
	if _, err := NewVariable("x", Float64, dims, lengths); err == nil {
		t.Error("NewVariable should reject more than MaxDims dimensions")
	}
}

func TestNewVariableElementCount(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime, DimVertical}, []int{2, 3})
	if n := v.NumElements(); n != 6 {
		t.Errorf("NumElements() = %d, want 6", n)
	}
}

func TestVariableCopyIsDeep(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{3})
	v.SetFloat64At(0, 1)
	v.SetFloat64At(1, 2)
	v.SetFloat64At(2, 3)

	cp := v.Copy()
	cp.SetFloat64At(0, 99)
	if v.Float64At(0) != 1 {
		t.Errorf("mutating the copy changed the original: got %v, want 1", v.Float64At(0))
	}
	if cp.product != nil {
		t.Error("Copy() should detach from the product")
	}
}

func TestAddDimensionReplicates(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimVertical}, []int{2})
	v.SetFloat64At(0, 10)
	v.SetFloat64At(1, 20)

	if err := v.AddDimension(0, DimTime, 3); err != nil {
		t.Fatalf("AddDimension: %v", err)
	}
	if v.NumElements() != 6 {
		t.Fatalf("NumElements() = %d, want 6", v.NumElements())
	}
	want := []float64{10, 20, 10, 20, 10, 20}
	if got := v.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

func TestRemoveDimensionRejectsNonUnitLength(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimVertical}, []int{2})
	if err := v.RemoveDimension(0); err == nil {
		t.Error("RemoveDimension should reject a length != 1 axis")
	}
}

func TestResizeDimensionZeroFills(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimVertical}, []int{2})
	v.SetFloat64At(0, 1)
	v.SetFloat64At(1, 2)

	if err := v.ResizeDimension(0, 4); err != nil {
		t.Fatalf("ResizeDimension: %v", err)
	}
	want := []float64{1, 2, 0, 0}
	if got := v.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

func TestRearrangeDimensionPermutes(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimVertical}, []int{3})
	v.SetFloat64At(0, 10)
	v.SetFloat64At(1, 20)
	v.SetFloat64At(2, 30)

	if err := v.RearrangeDimension(0, []int{2, 0}); err != nil {
		t.Fatalf("RearrangeDimension: %v", err)
	}
	want := []float64{30, 10}
	if got := v.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

func TestRearrangeDimensionRejectsOutOfRange(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimVertical}, []int{2})
	if err := v.RearrangeDimension(0, []int{5}); err == nil {
		t.Error("RearrangeDimension should reject an out-of-range id")
	}
}

func TestTransposeSwapsAxes(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime, DimVertical}, []int{2, 3})
	for i := 0; i < 6; i++ {
		v.SetFloat64At(i, float64(i))
	}
	if err := v.Transpose([]int{1, 0}); err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	if v.DimensionLength(0) != 3 || v.DimensionLength(1) != 2 {
		t.Fatalf("unexpected shape after transpose: %v", v.DimensionLengths())
	}
	want := []float64{0, 3, 1, 4, 2, 5}
	if got := v.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() after transpose = %v, want %v", got, want)
	}
}

func TestVariableAppend(t *testing.T) {
	a := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{2})
	a.SetFloat64At(0, 1)
	a.SetFloat64At(1, 2)
	b := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{1})
	b.SetFloat64At(0, 3)

	if err := a.Append(b); err != nil {
		t.Fatalf("Append: %v", err)
	}
	want := []float64{1, 2, 3}
	if got := a.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

func TestVariableAppendRejectsTypeMismatch(t *testing.T) {
	a := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{1})
	b := mustVariable(t, "v", Int32, []DimensionKind{DimTime}, []int{1})
	if err := a.Append(b); err == nil {
		t.Error("Append should reject mismatched data types")
	}
}

func TestVerifyCatchesBufferLengthMismatch(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{3})
	v.data = []float64{1, 2} // corrupt on purpose
	if err := v.Verify(); err == nil {
		t.Error("Verify should catch a buffer/length mismatch")
	}
}

func TestHasDimensionTypes(t *testing.T) {
	v := mustVariable(t, "v", Float64, []DimensionKind{DimIndependent, DimVertical}, []int{2, 3})
	if !v.hasDimensionTypes([]DimensionKind{DimIndependent, DimVertical}, 2) {
		t.Error("hasDimensionTypes should match exact independent length")
	}
	if v.hasDimensionTypes([]DimensionKind{DimIndependent, DimVertical}, 5) {
		t.Error("hasDimensionTypes should reject a mismatched independent length")
	}
	if !v.hasDimensionTypes([]DimensionKind{DimIndependent, DimVertical}, -1) {
		t.Error("hasDimensionTypes should accept -1 (any length) for independent axis")
	}
}
