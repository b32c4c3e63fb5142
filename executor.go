// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

// Executor walks a Plan, materialising intermediate variables, driving unit
// and data-type coercions, and invoking kernels (spec.md §4.7).
type Executor struct {
	Registry *Registry
	Product  *Product
	MaxDepth int
}

// NewExecutor returns an Executor over registry operating on product.
func NewExecutor(registry *Registry, product *Product) *Executor {
	return &Executor{Registry: registry, Product: product}
}

func (ex *Executor) planner() *Planner {
	pl := NewPlanner(ex.Registry, ex.Product)
	if ex.MaxDepth > 0 {
		pl.MaxDepth = ex.MaxDepth
	}
	return pl
}

// Derive returns a variable named name with dimensions dims (and, for an
// independent axis, independentLength when >= 0). dtype and unit are the
// caller's requested output type/unit; either may be nil to accept whatever
// the source variable or winning rule already produces. If the product
// already contains name with the requested dimensions, a coerced copy is
// returned. Otherwise the engine
// plans and executes a derivation, never mutating the original product's
// existing variables; an already-present source is coerced into a temporary
// copy before being handed to a kernel.
func (ex *Executor) Derive(name string, dtype *DataType, unit *string, dims []DimensionKind, independentLength int) (*Variable, error) {
	if v, err := ex.Product.GetVariableByName(name); err == nil && v.hasDimensionTypes(dims, independentLength) {
		out := v.Copy()
		if err := coerceIfNeeded(out, dtype, unit); err != nil {
			return nil, err
		}
		return out, nil
	}

	plan, err := ex.planner().Plan(name, dims, independentLength)
	if err != nil {
		return nil, err
	}
	out, err := ex.execute(plan)
	if err != nil {
		return nil, err
	}
	if err := coerceIfNeeded(out, dtype, unit); err != nil {
		return nil, err
	}
	return out, nil
}

// execute recursively materialises the variable described by plan.
func (ex *Executor) execute(plan *Plan) (*Variable, error) {
	if plan.IsLeaf() {
		v, err := ex.Product.GetVariableByName(plan.VariableName)
		if err != nil {
			return nil, err
		}
		return v.Copy(), nil
	}

	rule := plan.Rule
	sources := make([]*Variable, len(rule.Sources))
	for i, slot := range rule.Sources {
		src, err := ex.execute(plan.Sources[i])
		if err != nil {
			return nil, NewErrorContext(err).WithRule(rule.Description).Err()
		}
		if err := coerceSlot(src, slot.DataType, slot.Unit); err != nil {
			return nil, NewErrorContext(err).WithVariable(slot.Name).Err()
		}
		sources[i] = src
	}

	lengths := make([]int, len(rule.TargetDimensions))
	for i, kind := range rule.TargetDimensions {
		switch kind {
		case DimIndependent:
			lengths[i] = rule.TargetIndependentDimensionLength
		case DimTime:
			l := ex.Product.Dimension(kind)
			if l == 0 {
				l = 1
			}
			lengths[i] = l
		default:
			lengths[i] = ex.Product.Dimension(kind)
		}
	}

	target, err := NewVariable(rule.TargetName, rule.TargetType, rule.TargetDimensions, lengths)
	if err != nil {
		return nil, err
	}
	target.Unit = rule.TargetUnit

	if err := rule.Kernel(target, sources); err != nil {
		return nil, NewErrorContext(err).WithVariable(rule.TargetName).WithRule(rule.Description).Err()
	}
	return target, nil
}

func coerceIfNeeded(v *Variable, dtype *DataType, unit *string) error {
	if dtype != nil && v.DataType != *dtype {
		if err := v.ConvertType(*dtype); err != nil {
			return err
		}
	}
	if unit != nil && !v.HasUnit(*unit) {
		if err := v.ConvertUnit(*unit); err != nil {
			return err
		}
	}
	return nil
}

// coerceSlot coerces v to a rule source slot's declared (dtype, unit),
// which are always concrete (rules don't declare optional slots).
func coerceSlot(v *Variable, dtype DataType, unit string) error {
	return coerceIfNeeded(v, &dtype, &unit)
}

// AddDerived ensures product contains name with the given dim signature,
// deriving and inserting it if necessary. If a variable of that name
// already exists with the exact dim signature, it is coerced in place;
// otherwise the variable is derived, any differently-shaped variable of the
// same name is removed, and the new one is inserted.
func (ex *Executor) AddDerived(name string, dtype *DataType, unit *string, dims []DimensionKind, independentLength int) error {
	if v, err := ex.Product.GetVariableByName(name); err == nil {
		if v.hasDimensionTypes(dims, independentLength) {
			return coerceIfNeeded(v, dtype, unit)
		}
		if err := ex.Product.RemoveVariable(v); err != nil {
			return err
		}
	}

	derived, err := ex.Derive(name, dtype, unit, dims, independentLength)
	if err != nil {
		return err
	}
	return ex.Product.AddVariable(derived)
}
