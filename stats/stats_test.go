// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"
	"testing"
)

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != (ProfileSummary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero value", got)
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	got := Summarize(values)
	if math.Abs(got.Mean-2.5) > 1e-9 {
		t.Errorf("Mean = %v, want 2.5", got.Mean)
	}
	if got.Min != 1 {
		t.Errorf("Min = %v, want 1", got.Min)
	}
	if got.Max != 4 {
		t.Errorf("Max = %v, want 4", got.Max)
	}
	wantVariance := 5.0 / 3.0
	if math.Abs(got.Variance-wantVariance) > 1e-9 {
		t.Errorf("Variance = %v, want %v", got.Variance, wantVariance)
	}
}

func TestCorrelationPerfectLinearFit(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}
	slope, intercept, rSquared := Correlation(x, y)
	if math.Abs(slope-2) > 1e-9 {
		t.Errorf("slope = %v, want 2", slope)
	}
	if math.Abs(intercept) > 1e-9 {
		t.Errorf("intercept = %v, want 0", intercept)
	}
	if math.Abs(rSquared-1) > 1e-9 {
		t.Errorf("rSquared = %v, want 1", rSquared)
	}
}
