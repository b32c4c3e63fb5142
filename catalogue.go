// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// avogadro is Avogadro's constant, mol^-1.
const avogadro = 6.02214076e23

// speciesMolarMass gives the molar mass, in kg/mol, of the trace gases the
// catalogue's mixing-ratio rules convert. CO's value (0.028) matches
// scenario S3 exactly; the rest are representative IUPAC values, not
// exercised by a pinned scenario.
var speciesMolarMass = map[string]float64{
	"CO":   0.028,
	"O3":   0.048,
	"NO2":  0.04601,
	"SO2":  0.06406,
	"CO2":  0.04401,
	"CH4":  0.01604,
	"H2O":  0.01802,
	"HCHO": 0.03003,
}

// RegisterCatalogue populates r with the engine's built-in conversion
// rules: unit/type coercion is handled by the executor directly (spec.md
// §4.4) and needs no rule, so everything here derives a variable from one
// or more other variables, grounded on the kernels documented in
// harp-derived-variable.c and the convert_* routines scattered across
// libharp's operation/*.c files. opts is read by kernels whose behaviour
// depends on process-wide configuration (bounds extrapolation mode); none
// of these rules is gated on it.
func RegisterCatalogue(r *Registry, opts *Options) {
	registerMixingRatioRules(r)
	registerColumnRules(r)
	registerAVKRules(r)
	registerDensityRules(r)
	registerBoundsRules(r, opts)
	registerSpectralRules(r)
	registerTropopauseRule(r)
}

// registerMixingRatioRules adds <species>_mass_mixing_ratio <->
// <species>_volume_mixing_ratio conversions, grounded on
// harp-derived-variable.c's convert_mass_mixing_ratio_to_volume_mixing_ratio
// and its inverse: mmr = vmr * species_molar_mass / molar_mass.
func registerMixingRatioRules(r *Registry) {
	for species, molarMass := range speciesMolarMass {
		mm := molarMass
		vmrName := species + "_volume_mixing_ratio"
		mmrName := species + "_mass_mixing_ratio"

		r.Register(mmrName, Float64, "kg/kg", []DimensionKind{DimTime}, -1, mmrFromVmr(mm)).
			AddSource(SourceSlot{Name: vmrName, DataType: Float64, Unit: "mol/mol", Dimensions: []DimensionKind{DimTime}, IndependentDimensionLength: -1}).
			AddSource(SourceSlot{Name: "molar_mass", DataType: Float64, Unit: "kg/mol", Dimensions: []DimensionKind{DimTime}, IndependentDimensionLength: -1}).
			SetDescription("derived from volume mixing ratio and total air molar mass")

		r.Register(vmrName, Float64, "mol/mol", []DimensionKind{DimTime}, -1, vmrFromMmr(mm)).
			AddSource(SourceSlot{Name: mmrName, DataType: Float64, Unit: "kg/kg", Dimensions: []DimensionKind{DimTime}, IndependentDimensionLength: -1}).
			AddSource(SourceSlot{Name: "molar_mass", DataType: Float64, Unit: "kg/mol", Dimensions: []DimensionKind{DimTime}, IndependentDimensionLength: -1}).
			SetDescription("derived from mass mixing ratio and total air molar mass")
	}
}

func mmrFromVmr(speciesMolarMass float64) Kernel {
	return func(target *Variable, sources []*Variable) error {
		vmr := sources[0].Float64Data()
		molarMass := sources[1].Float64Data()
		for i := range vmr {
			target.SetFloat64At(i, vmr[i]*speciesMolarMass/molarMass[i])
		}
		return nil
	}
}

func vmrFromMmr(speciesMolarMass float64) Kernel {
	return func(target *Variable, sources []*Variable) error {
		mmr := sources[0].Float64Data()
		molarMass := sources[1].Float64Data()
		for i := range mmr {
			target.SetFloat64At(i, mmr[i]*molarMass[i]/speciesMolarMass)
		}
		return nil
	}
}

// registerColumnRules adds <species>_column_number_density {time} from
// <species>_column_number_density {time,vertical}, summing the partial
// columns along the vertical axis (spec.md scenario S4, grounded on
// harp-product-column-operations.c's column-from-partial-column kernel).
func registerColumnRules(r *Registry) {
	species := []string{"O3", "NO2", "SO2", "HCHO", "CO", "H2O", "CO2", "X"}
	for _, sp := range species {
		name := sp + "_column_number_density"
		r.Register(name, Float64, "molec/m2", []DimensionKind{DimTime}, -1, columnFromPartialColumn).
			AddSource(SourceSlot{Name: name, DataType: Float64, Unit: "molec/m2", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
			SetDescription("summed from the partial column profile")
	}
}

func columnFromPartialColumn(target *Variable, sources []*Variable) error {
	src := sources[0]
	dims := src.DimensionLengths()
	if len(dims) != 2 {
		return newError(ErrInvalidVariable, "partial column source must have exactly 2 dimensions, got %d", len(dims))
	}
	timeLen, vertLen := dims[0], dims[1]
	data := src.Float64Data()
	for t := 0; t < timeLen; t++ {
		sum := 0.0
		for v := 0; v < vertLen; v++ {
			sum += data[t*vertLen+v]
		}
		target.SetFloat64At(t, sum)
	}
	return nil
}

// registerAVKRules adds <species>_column_number_density {time} from a
// partial column profile smoothed by its averaging-kernel matrix (spec.md
// §2's "column <-> partial column <-> AVK" catalogue family, §9 glossary:
// "AVK - averaging-kernel matrix ... treated as a square matrix along the
// vertical axis"). column = sum_i sum_j AVK[i,j] * partial_column[j]: the
// smoothed profile is computed per time step with gonum/mat's dense
// matrix-vector product, then summed over the vertical axis.
func registerAVKRules(r *Registry) {
	species := []string{"O3", "NO2", "CO"}
	for _, sp := range species {
		columnName := sp + "_column_number_density"
		profileName := sp + "_partial_column_profile"
		avkName := sp + "_column_averaging_kernel"

		r.Register(columnName, Float64, "molec/m2", []DimensionKind{DimTime}, -1, columnFromAVK).
			AddSource(SourceSlot{Name: profileName, DataType: Float64, Unit: "molec/m2", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
			AddSource(SourceSlot{Name: avkName, DataType: Float64, Unit: "1", Dimensions: []DimensionKind{DimTime, DimVertical, DimVertical}, IndependentDimensionLength: -1}).
			SetDescription("partial column profile smoothed by its averaging kernel, then summed")
	}
}

func columnFromAVK(target *Variable, sources []*Variable) error {
	profile, avk := sources[0], sources[1]
	dims := profile.DimensionLengths()
	if len(dims) != 2 {
		return newError(ErrInvalidVariable, "partial column profile source must have exactly 2 dimensions, got %d", len(dims))
	}
	timeLen, vertLen := dims[0], dims[1]
	if got := avk.DimensionLengths(); len(got) != 3 || got[0] != timeLen || got[1] != vertLen || got[2] != vertLen {
		return newError(ErrInvalidVariable, "averaging kernel source must have shape {%d,%d,%d}, got %v", timeLen, vertLen, vertLen, got)
	}

	pdata := profile.Float64Data()
	adata := avk.Float64Data()
	for t := 0; t < timeLen; t++ {
		kernel := mat.NewDense(vertLen, vertLen, append([]float64(nil), adata[t*vertLen*vertLen:(t+1)*vertLen*vertLen]...))
		x := mat.NewVecDense(vertLen, append([]float64(nil), pdata[t*vertLen:(t+1)*vertLen]...))
		var smoothed mat.VecDense
		smoothed.MulVec(kernel, x)

		sum := 0.0
		for v := 0; v < vertLen; v++ {
			sum += smoothed.AtVec(v)
		}
		target.SetFloat64At(t, sum)
	}
	return nil
}

// registerDensityRules adds number_density <-> mass_density, grounded on
// harp-derived-variable.c's density conversions: number_density =
// mass_density / molar_mass * avogadro.
func registerDensityRules(r *Registry) {
	r.Register("number_density", Float64, "molec/m3", []DimensionKind{DimTime, DimVertical}, -1, numberDensityFromMassDensity).
		AddSource(SourceSlot{Name: "mass_density", DataType: Float64, Unit: "kg/m3", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
		AddSource(SourceSlot{Name: "molar_mass", DataType: Float64, Unit: "kg/mol", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
		SetDescription("derived from mass density and molar mass via Avogadro's constant")

	r.Register("mass_density", Float64, "kg/m3", []DimensionKind{DimTime, DimVertical}, -1, massDensityFromNumberDensity).
		AddSource(SourceSlot{Name: "number_density", DataType: Float64, Unit: "molec/m3", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
		AddSource(SourceSlot{Name: "molar_mass", DataType: Float64, Unit: "kg/mol", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
		SetDescription("derived from number density and molar mass via Avogadro's constant")
}

func numberDensityFromMassDensity(target *Variable, sources []*Variable) error {
	massDensity := sources[0].Float64Data()
	molarMass := sources[1].Float64Data()
	for i := range massDensity {
		target.SetFloat64At(i, massDensity[i]/molarMass[i]*avogadro)
	}
	return nil
}

func massDensityFromNumberDensity(target *Variable, sources []*Variable) error {
	numberDensity := sources[0].Float64Data()
	molarMass := sources[1].Float64Data()
	for i := range numberDensity {
		target.SetFloat64At(i, numberDensity[i]*molarMass[i]/avogadro)
	}
	return nil
}

// registerBoundsRules adds altitude_bounds {vertical,independent(2)} from
// altitude {vertical} (spec.md scenario S2), grounded on
// harp-derived-variable.c's bounds-from-midpoint conversions. The rule is
// always enabled; opts.BoundsExtrapolation selects its edge behaviour.
func registerBoundsRules(r *Registry, opts *Options) {
	r.Register("altitude_bounds", Float64, "m", []DimensionKind{DimVertical, DimIndependent}, 2, boundsFromMidpoints(opts)).
		AddSource(SourceSlot{Name: "altitude", DataType: Float64, Unit: "m", Dimensions: []DimensionKind{DimVertical}, IndependentDimensionLength: -1}).
		SetDescription("midpoint bounds, edge behaviour controlled by BoundsExtrapolation")
}

func boundsFromMidpoints(opts *Options) Kernel {
	return func(target *Variable, sources []*Variable) error {
		m := sources[0].Float64Data()
		n := len(m)
		mode := opts.BoundsExtrapolation()
		for i := 0; i < n; i++ {
			var lower, upper float64
			if i == 0 {
				lower = edgeBound(m, mode, true)
			} else {
				lower = (m[i-1] + m[i]) / 2
			}
			if i == n-1 {
				upper = edgeBound(m, mode, false)
			} else {
				upper = (m[i] + m[i+1]) / 2
			}
			target.SetFloat64At(i*2+0, lower)
			target.SetFloat64At(i*2+1, upper)
		}
		return nil
	}
}

// edgeBound computes the outer bound for the first (isLower) or last axis
// element, per the three modes described at ExtrapolationMode. Scenario S2
// pins ExtrapolationLinear: midpoints {1,2,4} yield outer bounds {0.5, 5.0},
// i.e. half the width of the nearest interior interval.
func edgeBound(m []float64, mode ExtrapolationMode, isLower bool) float64 {
	n := len(m)
	if n < 2 {
		return m[0]
	}
	switch mode {
	case ExtrapolationNaN:
		return math.NaN()
	case ExtrapolationEdge:
		if isLower {
			return m[0]
		}
		return m[n-1]
	default: // ExtrapolationLinear
		var gap float64
		if isLower {
			gap = m[1] - m[0]
		} else {
			gap = m[n-1] - m[n-2]
		}
		if isLower {
			return m[0] - gap/2
		}
		return m[n-1] + gap/2
	}
}

// speedOfLight is exact by SI definition, m/s.
const speedOfLight = 299792458.0

// registerSpectralRules adds the wavelength/wavenumber/frequency cycle
// (spec.md §6's spectral-axis conversions), grounded on
// harp-derived-variable.c's convert_wavelength_to_wavenumber and
// convert_wavelength_to_frequency.
func registerSpectralRules(r *Registry) {
	r.Register("wavenumber", Float64, "m-1", []DimensionKind{DimSpectral}, -1, reciprocalKernel).
		AddSource(SourceSlot{Name: "wavelength", DataType: Float64, Unit: "m", Dimensions: []DimensionKind{DimSpectral}, IndependentDimensionLength: -1}).
		SetDescription("wavenumber = 1 / wavelength")

	r.Register("wavelength", Float64, "m", []DimensionKind{DimSpectral}, -1, reciprocalKernel).
		AddSource(SourceSlot{Name: "wavenumber", DataType: Float64, Unit: "m-1", Dimensions: []DimensionKind{DimSpectral}, IndependentDimensionLength: -1}).
		SetDescription("wavelength = 1 / wavenumber")

	r.Register("frequency", Float64, "Hz", []DimensionKind{DimSpectral}, -1, frequencyFromWavelength).
		AddSource(SourceSlot{Name: "wavelength", DataType: Float64, Unit: "m", Dimensions: []DimensionKind{DimSpectral}, IndependentDimensionLength: -1}).
		SetDescription("frequency = c / wavelength")

	r.Register("wavelength", Float64, "m", []DimensionKind{DimSpectral}, -1, frequencyFromWavelength).
		AddSource(SourceSlot{Name: "frequency", DataType: Float64, Unit: "Hz", Dimensions: []DimensionKind{DimSpectral}, IndependentDimensionLength: -1}).
		SetDescription("wavelength = c / frequency")
}

func reciprocalKernel(target *Variable, sources []*Variable) error {
	src := sources[0].Float64Data()
	for i, x := range src {
		if x == 0 {
			target.SetFloat64At(i, math.Inf(1))
			continue
		}
		target.SetFloat64At(i, 1/x)
	}
	return nil
}

func frequencyFromWavelength(target *Variable, sources []*Variable) error {
	src := sources[0].Float64Data()
	for i, x := range src {
		if x == 0 {
			target.SetFloat64At(i, math.Inf(1))
			continue
		}
		target.SetFloat64At(i, speedOfLight/x)
	}
	return nil
}

// registerTropopauseRule adds tropopause_altitude {time} from temperature
// and altitude profiles, using a simplified single-pass WMO lapse-rate
// crossing (the exact WMO definition's secondary 2 km-mean-lapse check is
// deliberately not reproduced; see DESIGN.md).
func registerTropopauseRule(r *Registry) {
	r.Register("tropopause_altitude", Float64, "m", []DimensionKind{DimTime}, -1, tropopauseAltitude).
		AddSource(SourceSlot{Name: "temperature", DataType: Float64, Unit: "K", Dimensions: []DimensionKind{DimTime, DimVertical}, IndependentDimensionLength: -1}).
		AddSource(SourceSlot{Name: "altitude", DataType: Float64, Unit: "m", Dimensions: []DimensionKind{DimVertical}, IndependentDimensionLength: -1}).
		SetDescription("first altitude where the lapse rate drops below 2 K/km (simplified WMO crossing)")
}

func tropopauseAltitude(target *Variable, sources []*Variable) error {
	temp := sources[0]
	altitude := sources[1].Float64Data()
	dims := temp.DimensionLengths()
	if len(dims) != 2 {
		return newError(ErrInvalidVariable, "temperature source must have exactly 2 dimensions, got %d", len(dims))
	}
	timeLen, vertLen := dims[0], dims[1]
	tdata := temp.Float64Data()
	for t := 0; t < timeLen; t++ {
		trop := altitude[vertLen-1]
		for i := 0; i < vertLen-1; i++ {
			dz := altitude[i+1] - altitude[i]
			if dz == 0 {
				continue
			}
			lapseKPerKm := -(tdata[t*vertLen+i+1] - tdata[t*vertLen+i]) / dz * 1000
			if lapseKPerKm < 2 {
				trop = altitude[i]
				break
			}
		}
		target.SetFloat64At(t, trop)
	}
	return nil
}

// ClimatologyLookup resolves an auxiliary climatological profile for a
// species at a given latitude and time, expressed as days since the
// engine's epoch (spec.md §4.5's opaque get_profile collaborator). It is
// implemented outside this package, typically backed by a NetCDF
// climatology file, so the core engine never performs I/O itself.
type ClimatologyLookup func(species string, latitude, datetimeDays float64, length int) ([]float64, error)

// RegisterClimatologyRules adds rules that fall back to lookup for
// variables with no other source, gated on opts.AllowClimatology. Callers
// wire a concrete lookup (see the climatology sub-package) rather than the
// registry importing a storage backend directly.
func RegisterClimatologyRules(r *Registry, opts *Options, lookup ClimatologyLookup) {
	r.Register("O3_volume_mixing_ratio", Float64, "mol/mol", []DimensionKind{DimTime, DimVertical}, -1, climatologyKernel("O3", lookup)).
		AddSource(SourceSlot{Name: "latitude", DataType: Float64, Unit: "deg", Dimensions: []DimensionKind{DimTime}, IndependentDimensionLength: -1}).
		AddSource(SourceSlot{Name: "datetime", DataType: Float64, Unit: "days since 2000-01-01", Dimensions: []DimensionKind{DimTime}, IndependentDimensionLength: -1}).
		SetEnabled(opts.AllowClimatology).
		SetDescription("auxiliary climatology fallback, only enabled via Options.AllowClimatology")
}

func climatologyKernel(species string, lookup ClimatologyLookup) Kernel {
	return func(target *Variable, sources []*Variable) error {
		lat := sources[0].Float64Data()
		datetime := sources[1].Float64Data()
		vertLen := target.DimensionLength(1)
		for t := range lat {
			profile, err := lookup(species, lat[t], datetime[t], vertLen)
			if err != nil {
				return err
			}
			for v := 0; v < vertLen; v++ {
				target.SetFloat64At(t*vertLen+v, profile[v])
			}
		}
		return nil
	}
}
