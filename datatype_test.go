// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"math"
	"testing"
)

func TestSaturate(t *testing.T) {
	cases := []struct {
		v     float64
		dtype DataType
		want  float64
	}{
		{1000, Int8, 127},
		{-1000, Int8, -128},
		{10, Int8, 10},
		{math.NaN(), Int8, math.NaN()},
	}
	for _, c := range cases {
		got := saturate(c.v, c.dtype)
		if math.IsNaN(c.want) {
			if !math.IsNaN(got) {
				t.Errorf("saturate(%v, %v) = %v, want NaN", c.v, c.dtype, got)
			}
			continue
		}
		if got != c.want {
			t.Errorf("saturate(%v, %v) = %v, want %v", c.v, c.dtype, got, c.want)
		}
	}
}

func TestSizeOf(t *testing.T) {
	if n, err := SizeOf(Float64); err != nil || n != 8 {
		t.Errorf("SizeOf(Float64) = %d, %v; want 8, nil", n, err)
	}
	if _, err := SizeOf(String); err == nil {
		t.Error("SizeOf(String) should fail")
	}
}

func TestDataTypeString(t *testing.T) {
	if Int32.String() != "int32" {
		t.Errorf("Int32.String() = %q, want int32", Int32.String())
	}
	if DataType(99).String() != "unknown" {
		t.Errorf("DataType(99).String() = %q, want unknown", DataType(99).String())
	}
}
