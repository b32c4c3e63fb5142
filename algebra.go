// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// epochReference is 2000-01-01T00:00:00Z, the reference epoch for
// get_datetime_range (spec.md §4.3).
var epochReference = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// DaysSinceEpoch converts t to the fractional number of days since
// epochReference, the unit datetime variables are expected to carry.
func DaysSinceEpoch(t time.Time) float64 {
	return t.Sub(epochReference).Hours() / 24
}

// MakeTimeDependent ensures p has a time dimension (length 1 if absent) and
// that every variable has time as its first axis; variables lacking it get
// it prepended with existing rows replicated.
func (p *Product) MakeTimeDependent() error {
	if p.dimension[DimTime] == 0 {
		p.dimension[DimTime] = 1
	}
	for _, v := range p.variables {
		if v.numDimensions == 0 || v.dimensionType[0] != DimTime {
			if err := v.AddDimension(0, DimTime, p.dimension[DimTime]); err != nil {
				return err
			}
		}
	}
	return nil
}

// RearrangeDimension applies Variable.RearrangeDimension to every variable
// depending on kind. If ids is empty the product is emptied instead. Fails
// for DimIndependent or an unused kind.
func (p *Product) RearrangeDimension(kind DimensionKind, ids []int) error {
	if kind == DimIndependent {
		return newError(ErrInvalidArgument, "cannot rearrange the independent dimension")
	}
	if p.dimension[kind] == 0 {
		return newError(ErrInvalidArgument, "product does not depend on dimension %s", kind)
	}
	if len(ids) == 0 {
		p.RemoveAll()
		return nil
	}
	for _, v := range p.variables {
		for i := 0; i < v.numDimensions; i++ {
			if v.dimensionType[i] == kind {
				if err := v.RearrangeDimension(i, ids); err != nil {
					return err
				}
			}
		}
	}
	p.dimension[kind] = len(ids)
	return nil
}

// FilterDimension applies Variable.FilterDimension (RearrangeDimension from
// a boolean mask) to every variable depending on kind. An all-zero mask
// empties the product.
func (p *Product) FilterDimension(kind DimensionKind, mask []bool) error {
	if kind == DimIndependent {
		return newError(ErrInvalidArgument, "cannot filter the independent dimension")
	}
	if p.dimension[kind] == 0 {
		return newError(ErrInvalidArgument, "product does not depend on dimension %s", kind)
	}
	ids := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			ids = append(ids, i)
		}
	}
	if len(ids) == 0 {
		p.RemoveAll()
		return nil
	}
	for _, v := range p.variables {
		for i := 0; i < v.numDimensions; i++ {
			if v.dimensionType[i] == kind {
				if err := v.RearrangeDimension(i, ids); err != nil {
					return err
				}
			}
		}
	}
	p.dimension[kind] = len(ids)
	return nil
}

// ResizeDimension truncates or zero-extends every variable depending on
// kind, then updates the product's length for kind.
func (p *Product) ResizeDimension(kind DimensionKind, length int) error {
	for _, v := range p.variables {
		for i := 0; i < v.numDimensions; i++ {
			if v.dimensionType[i] == kind {
				if err := v.ResizeDimension(i, length); err != nil {
					return err
				}
			}
		}
	}
	p.dimension[kind] = length
	return nil
}

// RemoveDimension drops every variable depending on kind and zeroes its
// length.
func (p *Product) RemoveDimension(kind DimensionKind) error {
	if kind == DimIndependent {
		return newError(ErrInvalidArgument, "cannot remove the independent dimension")
	}
	if p.dimension[kind] == 0 {
		return nil
	}
	for i := len(p.variables) - 1; i >= 0; i-- {
		v := p.variables[i]
		for d := 0; d < v.numDimensions; d++ {
			if v.dimensionType[d] == kind {
				if err := p.RemoveVariable(v); err != nil {
					return err
				}
				break
			}
		}
	}
	p.dimension[kind] = 0
	return nil
}

// Sort finds the variable named byName, which must be one-dimensional on a
// non-independent axis, and stable-sorts along that axis so the variable is
// ascending under the natural comparison of its dtype (lexicographic for
// strings). Every variable sharing that dimension is permuted identically.
func (p *Product) Sort(byName string) error {
	v, err := p.GetVariableByName(byName)
	if err != nil {
		return err
	}
	if v.numDimensions != 1 {
		return newError(ErrInvalidArgument, "variable for sorting must be one-dimensional, %q has %d dimensions", byName, v.numDimensions)
	}
	kind := v.dimensionType[0]
	if kind == DimIndependent {
		return newError(ErrInvalidArgument, "cannot sort along the independent dimension")
	}

	n := v.NumElements()
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	if v.DataType == String {
		sort.SliceStable(ids, func(a, b int) bool { return v.StringAt(ids[a]) < v.StringAt(ids[b]) })
	} else {
		sort.SliceStable(ids, func(a, b int) bool { return v.Float64At(ids[a]) < v.Float64At(ids[b]) })
	}
	return p.RearrangeDimension(kind, ids)
}

// FlattenDimension collapses kind into time for every variable (spec.md
// §4.3, ported verbatim from harp_product_flatten_dimension).
func (p *Product) FlattenDimension(kind DimensionKind) error {
	if kind == DimIndependent {
		return newError(ErrInvalidArgument, "cannot flatten the independent dimension")
	}
	dimLength := p.dimension[kind]
	if dimLength == 0 || kind == DimTime {
		return nil
	}

	if dimLength != 1 {
		if p.HasVariable("index") {
			if err := p.RemoveByName("index"); err != nil {
				return err
			}
		}
		if p.HasVariable("collocation_index") {
			if err := p.RemoveByName("collocation_index"); err != nil {
				return err
			}
		}
	}

	for i := len(p.variables) - 1; i >= 0; i-- {
		v := p.variables[i]

		dimIndex := -1
		count := 0
		for j := 0; j < v.numDimensions; j++ {
			if v.dimensionType[j] == kind {
				count++
				dimIndex = j
			}
		}

		if count == 0 {
			if v.numDimensions > 0 && v.dimensionType[0] == DimTime {
				if err := v.AddDimension(1, kind, dimLength); err != nil {
					return err
				}
				dimIndex = 1
				count = 1
			} else {
				continue
			}
		} else if count >= 2 {
			if err := p.RemoveVariable(v); err != nil {
				return err
			}
			continue
		}

		if v.dimensionType[0] != DimTime {
			if p.dimension[DimTime] == 0 {
				p.dimension[DimTime] = 1
			}
			if err := v.AddDimension(0, DimTime, p.dimension[DimTime]); err != nil {
				return err
			}
			dimIndex++
		}

		if dimIndex != 1 {
			order := make([]int, v.numDimensions)
			order[0] = 0
			order[1] = dimIndex
			for j := 2; j < v.numDimensions; j++ {
				if j <= dimIndex {
					order[j] = j - 1
				} else {
					order[j] = j
				}
			}
			if err := v.Transpose(order); err != nil {
				return err
			}
		}

		v.dimensionLen[0] *= v.dimensionLen[1]
		for j := 1; j < v.numDimensions-1; j++ {
			v.dimensionLen[j] = v.dimensionLen[j+1]
			v.dimensionType[j] = v.dimensionType[j+1]
		}
		v.numDimensions--
	}

	p.dimension[DimTime] *= dimLength
	p.dimension[kind] = 0
	return nil
}

// Append merges other into p. If other is nil, p is simply (i) stripped of
// its "index" variable, (ii) made time-dependent, and (iii) has
// source_product cleared. Otherwise both products are brought to that
// merge-ready form, the variable sets must match by name, every non-time
// named dimension is resized up to the larger operand, each variable is
// concatenated along time, and p's time length is summed.
func (p *Product) Append(other *Product) error {
	if p.HasVariable("index") {
		if err := p.RemoveByName("index"); err != nil {
			return err
		}
	}
	if err := p.MakeTimeDependent(); err != nil {
		return err
	}
	p.SourceProduct = ""

	if other == nil {
		return nil
	}

	if other.HasVariable("index") {
		if err := other.RemoveByName("index"); err != nil {
			return err
		}
	}

	if len(p.variables) != len(other.variables) {
		return newError(ErrInvalidArgument, "products don't have the same number of variables")
	}
	for _, v := range p.variables {
		if !other.HasVariable(v.Name) {
			return newError(ErrInvalidArgument, "products don't both have variable %q", v.Name)
		}
	}

	if err := other.MakeTimeDependent(); err != nil {
		return err
	}

	for kind := DimTime + 1; int(kind) < numDimensionKinds; kind++ {
		if p.dimension[kind] > other.dimension[kind] {
			if err := other.ResizeDimension(kind, p.dimension[kind]); err != nil {
				return err
			}
		} else if p.dimension[kind] < other.dimension[kind] {
			if err := p.ResizeDimension(kind, other.dimension[kind]); err != nil {
				return err
			}
		}
	}

	for _, v := range p.variables {
		ov, err := other.GetVariableByName(v.Name)
		if err != nil {
			return err
		}
		if err := v.Append(ov); err != nil {
			return err
		}
	}
	p.dimension[DimTime] += other.dimension[DimTime]

	return nil
}

// GetDatetimeRange returns the (start, stop) datetime range covered by p,
// in days since the reference epoch 2000-01-01, preferring
// datetime_start/datetime_stop over datetime (spec.md §4.3).
func (p *Product) GetDatetimeRange(derive func(p *Product, name string) (*Variable, error)) (start, stop float64, err error) {
	startVar, usedMid, err := datetimeSource(p, derive, "datetime_start")
	if err != nil {
		return 0, 0, err
	}
	start, err = extremum(startVar, false)
	if err != nil {
		return 0, 0, err
	}

	var stopVar *Variable
	if v, serr := deriveDatetime(p, derive, "datetime_stop"); serr == nil {
		stopVar = v
	} else if usedMid {
		stopVar = startVar
	} else if v, merr := deriveDatetime(p, derive, "datetime"); merr == nil {
		stopVar = v
	} else {
		return 0, 0, merr
	}
	stop, err = extremum(stopVar, true)
	if err != nil {
		return 0, 0, err
	}
	return start, stop, nil
}

// datetimeSource resolves the variable used as the start-of-range source,
// preferring datetime_start and falling back to datetime. usedMid reports
// whether the fallback (datetime, the "mid" variable in the original C
// implementation) was used, so the stop lookup can reuse it.
func datetimeSource(p *Product, derive func(p *Product, name string) (*Variable, error), name string) (v *Variable, usedMid bool, err error) {
	if v, err = deriveDatetime(p, derive, name); err == nil {
		return v, false, nil
	}
	v, err = deriveDatetime(p, derive, "datetime")
	return v, err == nil, err
}

func deriveDatetime(p *Product, derive func(p *Product, name string) (*Variable, error), name string) (*Variable, error) {
	if derive != nil {
		return derive(p, name)
	}
	return p.GetVariableByName(name)
}

func extremum(v *Variable, wantMax bool) (float64, error) {
	best := math.Inf(1)
	if wantMax {
		best = math.Inf(-1)
	}
	min, max := -math.MaxFloat64, math.MaxFloat64
	if v.HasValidRange {
		min, max = v.ValidMin, v.ValidMax
	}
	n := v.NumElements()
	vals := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := v.Float64At(i)
		if math.IsNaN(val) || val < min || val > max {
			continue
		}
		vals = append(vals, val)
	}
	if len(vals) == 0 {
		return 0, newError(ErrInvalidArgument, "cannot determine valid %s value for datetime range", map[bool]string{true: "stop", false: "start"}[wantMax])
	}
	if wantMax {
		best = floats.Max(vals)
	} else {
		best = floats.Min(vals)
	}
	return best, nil
}

// needsQuoting reports whether arg must be single-quoted when embedded in a
// history line (spec.md §6).
func needsQuoting(arg string) bool {
	return strings.ContainsAny(arg, " ;[]<>=!")
}

// UpdateHistory prepends a history line to p.History in the form
// "YYYY-MM-DDThh:mm:ssZ [<engine>-<version>] <executable> <args...>",
// quoting arguments that need it.
func (p *Product) UpdateHistory(now time.Time, engine, version, executable string, args []string) {
	var b strings.Builder
	b.WriteString(now.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(&b, " [%s-%s] %s", engine, version, executable)
	for _, a := range args {
		b.WriteByte(' ')
		if needsQuoting(a) {
			fmt.Fprintf(&b, "'%s'", a)
		} else {
			b.WriteString(a)
		}
	}
	if p.History == "" {
		p.History = b.String()
	} else {
		p.History = b.String() + "\n" + p.History
	}
}
