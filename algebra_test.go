// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"reflect"
	"testing"
	"time"
)

// TestFlattenDimension is scenario S5.
func TestFlattenDimension(t *testing.T) {
	p := NewProduct()
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime, DimVertical}, []int{2, 3})
	for i := 0; i < 6; i++ {
		v.SetFloat64At(i, float64(i))
	}
	if err := p.AddVariable(v); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	if err := p.FlattenDimension(DimVertical); err != nil {
		t.Fatalf("FlattenDimension: %v", err)
	}

	if got := p.Dimension(DimTime); got != 6 {
		t.Errorf("Dimension(DimTime) = %d, want 6", got)
	}
	if got := p.Dimension(DimVertical); got != 0 {
		t.Errorf("Dimension(DimVertical) = %d, want 0", got)
	}

	flat, err := p.GetVariableByName("v")
	if err != nil {
		t.Fatalf("GetVariableByName: %v", err)
	}
	if flat.NumDimensions() != 1 || flat.DimensionType(0) != DimTime {
		t.Fatalf("flattened variable has shape %v/%v, want single time axis", flat.DimensionTypes(), flat.DimensionLengths())
	}
	want := []float64{0, 1, 2, 3, 4, 5}
	if got := flat.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

func TestFlattenDimensionNoOpWhenAbsent(t *testing.T) {
	p := NewProduct()
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{2})
	if err := p.AddVariable(v); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}
	if err := p.FlattenDimension(DimVertical); err != nil {
		t.Fatalf("FlattenDimension on an unused dimension should be a no-op, got %v", err)
	}
}

func TestSortStable(t *testing.T) {
	p := NewProduct()
	key := mustVariable(t, "key", Float64, []DimensionKind{DimTime}, []int{3})
	// Elements 0 and 2 share a key, so a stable sort must keep 0 before 2.
	key.SetFloat64At(0, 2)
	key.SetFloat64At(1, 1)
	key.SetFloat64At(2, 2)
	other := mustVariable(t, "other", Float64, []DimensionKind{DimTime}, []int{3})
	other.SetFloat64At(0, 30)
	other.SetFloat64At(1, 10)
	other.SetFloat64At(2, 20)
	if err := p.AddVariable(key); err != nil {
		t.Fatalf("AddVariable(key): %v", err)
	}
	if err := p.AddVariable(other); err != nil {
		t.Fatalf("AddVariable(other): %v", err)
	}

	if err := p.Sort("key"); err != nil {
		t.Fatalf("Sort: %v", err)
	}

	wantKey := []float64{1, 2, 2}
	if got := key.Float64Data(); !reflect.DeepEqual(got, wantKey) {
		t.Errorf("key after sort = %v, want %v", got, wantKey)
	}
	wantOther := []float64{10, 30, 20}
	if got := other.Float64Data(); !reflect.DeepEqual(got, wantOther) {
		t.Errorf("other after sort = %v, want %v", got, wantOther)
	}
}

func TestAppendConcatenatesTime(t *testing.T) {
	p := NewProduct()
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{2})
	v.SetFloat64At(0, 1)
	v.SetFloat64At(1, 2)
	if err := p.AddVariable(v); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	q := NewProduct()
	w := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{1})
	w.SetFloat64At(0, 3)
	if err := q.AddVariable(w); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	if err := p.Append(q); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := p.Dimension(DimTime); got != 3 {
		t.Errorf("Dimension(DimTime) = %d, want 3", got)
	}
	merged, err := p.GetVariableByName("v")
	if err != nil {
		t.Fatalf("GetVariableByName: %v", err)
	}
	want := []float64{1, 2, 3}
	if got := merged.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

func TestAppendRejectsMismatchedVariableSets(t *testing.T) {
	p := NewProduct()
	v := mustVariable(t, "v", Float64, []DimensionKind{DimTime}, []int{1})
	if err := p.AddVariable(v); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}
	q := NewProduct()
	w := mustVariable(t, "different", Float64, []DimensionKind{DimTime}, []int{1})
	if err := q.AddVariable(w); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}
	if err := p.Append(q); err == nil {
		t.Error("Append should reject products with different variable sets")
	}
}

func TestGetDatetimeRangeFromMidpoint(t *testing.T) {
	p := NewProduct()
	dt := mustVariable(t, "datetime", Float64, []DimensionKind{DimTime}, []int{3})
	dt.SetFloat64At(0, 1)
	dt.SetFloat64At(1, 3)
	dt.SetFloat64At(2, 2)
	if err := p.AddVariable(dt); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	start, stop, err := p.GetDatetimeRange(nil)
	if err != nil {
		t.Fatalf("GetDatetimeRange: %v", err)
	}
	if start != 1 || stop != 3 {
		t.Errorf("GetDatetimeRange() = (%v, %v), want (1, 3)", start, stop)
	}
}

func TestUpdateHistoryQuotesArguments(t *testing.T) {
	p := NewProduct()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.UpdateHistory(now, "harp-go", "0.1.0", "harp-doc", []string{"list-conversions", "--name foo"})
	if p.History == "" {
		t.Fatal("UpdateHistory should set History")
	}
	want := "2026-01-02T03:04:05Z [harp-go-0.1.0] harp-doc list-conversions '--name foo'"
	if p.History != want {
		t.Errorf("History = %q, want %q", p.History, want)
	}
}
