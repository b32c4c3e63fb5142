// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"github.com/ctessum/unit"
)

// affineUnit describes a unit string as an affine function of an SI base
// unit: si_value = value*scale + offset. dims gives the SI dimension
// vector against which compatibility with another unit is checked (see
// github.com/ctessum/unit, a multiplicative-only SI algebra; the affine
// scale/offset here is bespoke, see DESIGN.md).
type affineUnit struct {
	scale, offset float64
	dims          unit.Dimensions
}

// unitTable is a small, representative set of the unit conversions the
// catalogue's rules exercise. It is not an exhaustive unit-string parser
// (that is the opaque external collaborator of spec.md §4.4); ConvertUnit
// rejects an unknown unit string unless source and target are the same
// string, in which case it does nothing.
var unitTable = map[string]affineUnit{
	"K":          {1, 0, unit.Dimensions{unit.TemperatureDim: 1}},
	"degC":       {1, 273.15, unit.Dimensions{unit.TemperatureDim: 1}},
	"1":          {1, 0, unit.Dimensions{}},
	"":           {1, 0, unit.Dimensions{}},
	"m":          {1, 0, unit.Dimensions{unit.LengthDim: 1}},
	"km":         {1000, 0, unit.Dimensions{unit.LengthDim: 1}},
	"rad":        {1, 0, unit.Dimensions{unit.AngleDim: 1}},
	"deg":        {3.14159265358979323846 / 180, 0, unit.Dimensions{unit.AngleDim: 1}},
	"Hz":         {1, 0, unit.Dimensions{unit.TimeDim: -1}},
	"s":          {1, 0, unit.Dimensions{unit.TimeDim: 1}},
	"mol/mol":    {1, 0, unit.Dimensions{}},
	"kg/kg":      {1, 0, unit.Dimensions{}},
	"molec/cm3":  {1e6, 0, unit.Dimensions{unit.LengthDim: -3}},
	"molec/m3":   {1, 0, unit.Dimensions{unit.LengthDim: -3}},
	"molec/cm2":  {1e4, 0, unit.Dimensions{unit.LengthDim: -2}},
	"molec/m2":   {1, 0, unit.Dimensions{unit.LengthDim: -2}},
	"DU":         {2.6867e20, 0, unit.Dimensions{unit.LengthDim: -2}}, // Dobson Unit, molec/m2
	"hPa":        {100, 0, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2}},
	"Pa":         {1, 0, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2}},
	"m-1":        {1, 0, unit.Dimensions{unit.LengthDim: -1}},
	"kg/m3":      {1, 0, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -3}},
	"kg/mol":     {1, 0, unit.Dimensions{}},
	"days since 2000-01-01": {86400, 0, unit.Dimensions{unit.TimeDim: 1}},
}

// unitIsValid reports whether unit string s is recognised.
func unitIsValid(s string) bool {
	_, ok := unitTable[s]
	return ok
}

// UnitIsValid reports whether s is a recognised unit string. The backing
// unitTable above is a package-level literal with no lazy initialisation,
// so the returned error is always nil; the error result matches spec.md
// §4.4's `unit_is_valid(s) -> bool` and its "first call may fail" allowance.
func UnitIsValid(s string) (bool, error) {
	return unitIsValid(s), nil
}

// ConvertUnit mutates v's data and unit in place, converting from v.Unit to
// to. Numeric dtypes only. to == v.Unit is a no-op. Fails with
// UnitConversion for dimensionally incompatible or unrecognised units.
func ConvertUnit(v *Variable, to string) error {
	if !v.DataType.IsNumeric() {
		return newError(ErrInvalidArgument, "cannot convert unit of non-numeric variable %q", v.Name)
	}
	if v.Unit == to {
		return nil
	}
	from, ok := unitTable[v.Unit]
	if !ok {
		return newError(ErrUnitConversion, "unrecognised source unit %q", v.Unit)
	}
	target, ok := unitTable[to]
	if !ok {
		return newError(ErrUnitConversion, "unrecognised target unit %q", to)
	}
	if !unit.DimensionsMatch(unit.New(1, from.dims), unit.New(1, target.dims)) {
		return newError(ErrUnitConversion, "cannot convert %q to %q: incompatible dimensions", v.Unit, to)
	}

	n := v.NumElements()
	for i := 0; i < n; i++ {
		val := v.Float64At(i)
		si := val*from.scale + from.offset
		converted := (si - target.offset) / target.scale
		v.SetFloat64At(i, converted)
	}
	v.Unit = to
	return nil
}

// ConvertType converts v's data buffer to dtype in place, with saturating
// casts for out-of-range values. Numeric dtypes only (string <-> numeric
// conversion fails).
func ConvertType(v *Variable, dtype DataType) error {
	if v.DataType == dtype {
		return nil
	}
	if v.DataType == String || dtype == String {
		return newError(ErrInvalidArgument, "cannot convert between string and numeric data types")
	}
	n := v.NumElements()
	newData, err := allocateBuffer(dtype, n)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		val := v.Float64At(i)
		setElementSaturating(newData, i, val, dtype)
	}
	v.data = newData
	v.DataType = dtype
	if v.HasValidRange {
		min, _ := ValidMin(dtype)
		max, _ := ValidMax(dtype)
		v.ValidMin = saturate(v.ValidMin, dtype)
		v.ValidMax = saturate(v.ValidMax, dtype)
		if v.ValidMin < min {
			v.ValidMin = min
		}
		if v.ValidMax > max {
			v.ValidMax = max
		}
	}
	return nil
}

func setElementSaturating(data interface{}, i int, val float64, dtype DataType) {
	v := saturate(val, dtype)
	switch b := data.(type) {
	case []int8:
		b[i] = int8(v)
	case []int16:
		b[i] = int16(v)
	case []int32:
		b[i] = int32(v)
	case []float32:
		b[i] = float32(v)
	case []float64:
		b[i] = v
	}
}

// ConvertUnit is a method form of the package-level ConvertUnit, matching
// the Variable-receiver style of variable.go.
func (v *Variable) ConvertUnit(to string) error { return ConvertUnit(v, to) }

// ConvertType is a method form of the package-level ConvertType.
func (v *Variable) ConvertType(dtype DataType) error { return ConvertType(v, dtype) }
