// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"math"
	"reflect"
	"testing"
)

// TestAltitudeBoundsFromMidpoints is scenario S2 ("bounds from midpoints,
// linear, extrapolate").
func TestAltitudeBoundsFromMidpoints(t *testing.T) {
	opts := NewOptions()
	opts.Set("BoundsExtrapolation", "extrapolate")
	r := NewRegistry()
	RegisterCatalogue(r, opts)

	p := NewProduct()
	altitude := mustVariable(t, "altitude", Float64, []DimensionKind{DimVertical}, []int{3})
	altitude.Unit = "m"
	for i, val := range []float64{1, 2, 4} {
		altitude.SetFloat64At(i, val)
	}
	if err := p.AddVariable(altitude); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	ex := NewExecutor(r, p)
	out, err := ex.Derive("altitude_bounds", nil, nil, []DimensionKind{DimVertical, DimIndependent}, 2)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	want := []float64{0.5, 1.5, 1.5, 3.0, 3.0, 5.0}
	if got := out.Float64Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("Float64Data() = %v, want %v", got, want)
	}
}

// TestMassMixingRatioFromVolumeMixingRatio is scenario S3.
func TestMassMixingRatioFromVolumeMixingRatio(t *testing.T) {
	r := NewRegistry()
	RegisterCatalogue(r, NewOptions())

	p := NewProduct()
	vmr := mustVariable(t, "CO_volume_mixing_ratio", Float64, []DimensionKind{DimTime}, []int{1})
	vmr.Unit = "mol/mol"
	vmr.SetFloat64At(0, 1.0)
	molarMass := mustVariable(t, "molar_mass", Float64, []DimensionKind{DimTime}, []int{1})
	molarMass.Unit = "kg/mol"
	molarMass.SetFloat64At(0, 0.0289)
	if err := p.AddVariable(vmr); err != nil {
		t.Fatalf("AddVariable(vmr): %v", err)
	}
	if err := p.AddVariable(molarMass); err != nil {
		t.Fatalf("AddVariable(molarMass): %v", err)
	}

	ex := NewExecutor(r, p)
	out, err := ex.Derive("CO_mass_mixing_ratio", nil, nil, []DimensionKind{DimTime}, -1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	want := 28.0 / 28.9
	if got := out.Float64At(0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Float64At(0) = %v, want %v", got, want)
	}
}

// TestColumnFromPartialColumn is scenario S4.
func TestColumnFromPartialColumn(t *testing.T) {
	r := NewRegistry()
	RegisterCatalogue(r, NewOptions())

	p := NewProduct()
	partial := mustVariable(t, "CO_column_number_density", Float64, []DimensionKind{DimTime, DimVertical}, []int{1, 3})
	partial.Unit = "molec/m2"
	for i, val := range []float64{1, 2, 4} {
		partial.SetFloat64At(i, val)
	}
	if err := p.AddVariable(partial); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	ex := NewExecutor(r, p)
	out, err := ex.Derive("CO_column_number_density", nil, nil, []DimensionKind{DimTime}, -1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if got := out.Float64At(0); got != 7 {
		t.Errorf("Float64At(0) = %v, want 7", got)
	}
}

// TestColumnFromAVK exercises the averaging-kernel-weighted column rule
// (spec.md's "column <-> partial column <-> AVK" catalogue family), backed
// by gonum/mat's dense matrix-vector product.
func TestColumnFromAVK(t *testing.T) {
	r := NewRegistry()
	RegisterCatalogue(r, NewOptions())

	p := NewProduct()
	profile := mustVariable(t, "CO_partial_column_profile", Float64, []DimensionKind{DimTime, DimVertical}, []int{1, 2})
	profile.Unit = "molec/m2"
	for i, val := range []float64{2, 3} {
		profile.SetFloat64At(i, val)
	}
	avk := mustVariable(t, "CO_column_averaging_kernel", Float64, []DimensionKind{DimTime, DimVertical, DimVertical}, []int{1, 2, 2})
	avk.Unit = "1"
	for i, val := range []float64{1, 0.5, 0, 1} {
		avk.SetFloat64At(i, val)
	}
	if err := p.AddVariable(profile); err != nil {
		t.Fatalf("AddVariable(profile): %v", err)
	}
	if err := p.AddVariable(avk); err != nil {
		t.Fatalf("AddVariable(avk): %v", err)
	}

	ex := NewExecutor(r, p)
	out, err := ex.Derive("CO_column_number_density", nil, nil, []DimensionKind{DimTime}, -1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	// row0: 1*2 + 0.5*3 = 3.5; row1: 0*2 + 1*3 = 3; sum = 6.5
	want := 6.5
	if got := out.Float64At(0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Float64At(0) = %v, want %v", got, want)
	}
}

func TestNumberDensityFromMassDensity(t *testing.T) {
	r := NewRegistry()
	RegisterCatalogue(r, NewOptions())

	p := NewProduct()
	massDensity := mustVariable(t, "mass_density", Float64, []DimensionKind{DimTime, DimVertical}, []int{1, 1})
	massDensity.Unit = "kg/m3"
	massDensity.SetFloat64At(0, 0.028)
	molarMass := mustVariable(t, "molar_mass", Float64, []DimensionKind{DimTime, DimVertical}, []int{1, 1})
	molarMass.Unit = "kg/mol"
	molarMass.SetFloat64At(0, 0.028)
	if err := p.AddVariable(massDensity); err != nil {
		t.Fatalf("AddVariable(massDensity): %v", err)
	}
	if err := p.AddVariable(molarMass); err != nil {
		t.Fatalf("AddVariable(molarMass): %v", err)
	}

	ex := NewExecutor(r, p)
	out, err := ex.Derive("number_density", nil, nil, []DimensionKind{DimTime, DimVertical}, -1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if got := out.Float64At(0); math.Abs(got-avogadro) > 1 {
		t.Errorf("Float64At(0) = %v, want avogadro's constant %v", got, avogadro)
	}
}

func TestSpectralWavelengthWavenumberCycle(t *testing.T) {
	r := NewRegistry()
	RegisterCatalogue(r, NewOptions())

	p := NewProduct()
	wavelength := mustVariable(t, "wavelength", Float64, []DimensionKind{DimSpectral}, []int{1})
	wavelength.Unit = "m"
	wavelength.SetFloat64At(0, 0.5)
	if err := p.AddVariable(wavelength); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	ex := NewExecutor(r, p)
	out, err := ex.Derive("wavenumber", nil, nil, []DimensionKind{DimSpectral}, -1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if got := out.Float64At(0); got != 2 {
		t.Errorf("Float64At(0) = %v, want 2", got)
	}
}

func TestClimatologyRuleGatedByOption(t *testing.T) {
	r := NewRegistry()
	opts := NewOptions()
	lookup := func(species string, latitude, datetimeDays float64, length int) ([]float64, error) {
		profile := make([]float64, length)
		for i := range profile {
			profile[i] = latitude
		}
		return profile, nil
	}
	RegisterClimatologyRules(r, opts, lookup)

	p := NewProduct()
	lat := mustVariable(t, "latitude", Float64, []DimensionKind{DimTime}, []int{1})
	lat.Unit = "deg"
	lat.SetFloat64At(0, 42)
	dt := mustVariable(t, "datetime", Float64, []DimensionKind{DimTime}, []int{1})
	dt.Unit = "days since 2000-01-01"
	// Establishes the product's vertical axis length so the executor knows
	// how large a target buffer the climatology kernel should fill.
	marker := mustVariable(t, "pressure", Float64, []DimensionKind{DimVertical}, []int{2})
	if err := p.AddVariable(lat); err != nil {
		t.Fatalf("AddVariable(lat): %v", err)
	}
	if err := p.AddVariable(dt); err != nil {
		t.Fatalf("AddVariable(dt): %v", err)
	}
	if err := p.AddVariable(marker); err != nil {
		t.Fatalf("AddVariable(marker): %v", err)
	}

	ex := NewExecutor(r, p)
	if _, err := ex.Derive("O3_volume_mixing_ratio", nil, nil, []DimensionKind{DimTime, DimVertical}, -1); err == nil {
		t.Error("climatology rule should be disabled by default")
	}

	opts.Set("AllowClimatology", true)
	out, err := ex.Derive("O3_volume_mixing_ratio", nil, nil, []DimensionKind{DimTime, DimVertical}, -1)
	if err != nil {
		t.Fatalf("Derive with climatology enabled: %v", err)
	}
	if got := out.Float64At(0); got != 42 {
		t.Errorf("Float64At(0) = %v, want 42 (the lookup's latitude echo)", got)
	}
}
