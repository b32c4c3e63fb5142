// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

// Product is an ordered collection of Variables plus a per-dimension length
// table and two free-form text attributes. It maintains the invariant that
// every variable's non-independent dimension lengths equal the product's
// (spec.md §3).
type Product struct {
	SourceProduct string
	History       string

	variables []*Variable
	index     map[string]int // name -> index, grounded on harp-product.c's variable_index hash
	dimension [numDimensionKinds]int
}

// NewProduct returns an empty product.
func NewProduct() *Product {
	return &Product{index: make(map[string]int)}
}

// Variables returns the product's variables in insertion order (P4). The
// returned slice must not be mutated by the caller.
func (p *Product) Variables() []*Variable { return p.variables }

// Dimension returns the product's length for kind (0 means "not present").
func (p *Product) Dimension(kind DimensionKind) int { return p.dimension[kind] }

// IsEmpty reports whether p has no variables, or any variable has zero
// elements.
func (p *Product) IsEmpty() bool {
	if len(p.variables) == 0 {
		return true
	}
	for _, v := range p.variables {
		if v.NumElements() == 0 {
			return true
		}
	}
	return false
}

// HasVariable reports whether a variable named name exists in p.
func (p *Product) HasVariable(name string) bool {
	_, ok := p.index[name]
	return ok
}

// GetVariableByName returns the variable named name.
func (p *Product) GetVariableByName(name string) (*Variable, error) {
	i, ok := p.index[name]
	if !ok {
		return nil, newError(ErrVariableNotFound, "product has no variable named %q", name)
	}
	return p.variables[i], nil
}

// GetVariableIndexByName returns the slot index of the variable named name.
func (p *Product) GetVariableIndexByName(name string) (int, error) {
	i, ok := p.index[name]
	if !ok {
		return -1, newError(ErrVariableNotFound, "product has no variable named %q", name)
	}
	return i, nil
}

// AddVariable appends v to p. Rejects with InvalidArgument if a variable of
// that name already exists, or if any non-independent dimension length of v
// disagrees with an already-set product dimension. A fresh named dimension
// is lazily registered.
func (p *Product) AddVariable(v *Variable) error {
	if p.HasVariable(v.Name) {
		return newError(ErrInvalidArgument, "product already has a variable named %q", v.Name)
	}
	for i := 0; i < v.numDimensions; i++ {
		kind := v.dimensionType[i]
		if kind == DimIndependent {
			continue
		}
		if p.dimension[kind] != 0 && p.dimension[kind] != v.dimensionLen[i] {
			return newError(ErrInvalidArgument, "variable %q dimension %s length %d does not match product length %d",
				v.Name, kind, v.dimensionLen[i], p.dimension[kind])
		}
	}
	for i := 0; i < v.numDimensions; i++ {
		kind := v.dimensionType[i]
		if kind != DimIndependent {
			p.dimension[kind] = v.dimensionLen[i]
		}
	}
	v.product = p
	p.index[v.Name] = len(p.variables)
	p.variables = append(p.variables, v)
	return nil
}

// zeroDimensionsIfUnreferenced zeroes any named dimension that no remaining
// variable depends on, mirroring harp_product_remove_variable's bookkeeping.
func (p *Product) zeroDimensionsIfUnreferenced() {
	var used [numDimensionKinds]bool
	for _, v := range p.variables {
		for i := 0; i < v.numDimensions; i++ {
			used[v.dimensionType[i]] = true
		}
	}
	for kind := DimTime; int(kind) < numDimensionKinds; kind++ {
		if !used[kind] {
			p.dimension[kind] = 0
		}
	}
}

// reindex rebuilds the name->index map after structural changes.
func (p *Product) reindex() {
	p.index = make(map[string]int, len(p.variables))
	for i, v := range p.variables {
		p.index[v.Name] = i
	}
}

// DetachVariable removes v from p without freeing it, transferring
// ownership back to the caller.
func (p *Product) DetachVariable(v *Variable) error {
	i, ok := p.index[v.Name]
	if !ok || p.variables[i] != v {
		return newError(ErrInvalidArgument, "variable %q is not owned by this product", v.Name)
	}
	p.variables = append(p.variables[:i], p.variables[i+1:]...)
	v.product = nil
	p.reindex()
	p.zeroDimensionsIfUnreferenced()
	return nil
}

// RemoveVariable removes and discards v.
func (p *Product) RemoveVariable(v *Variable) error { return p.DetachVariable(v) }

// RemoveByName removes and discards the variable named name.
func (p *Product) RemoveByName(name string) error {
	v, err := p.GetVariableByName(name)
	if err != nil {
		return err
	}
	return p.RemoveVariable(v)
}

// RemoveAll removes and discards every variable.
func (p *Product) RemoveAll() {
	p.variables = nil
	p.index = make(map[string]int)
	for i := range p.dimension {
		p.dimension[i] = 0
	}
}

// ReplaceVariable performs an atomic remove-then-add of v in the slot of
// the existing variable with the same name, preserving order. Rejects if no
// variable of that name exists, or if v's dimensions conflict with those
// implied by the product's other variables.
func (p *Product) ReplaceVariable(v *Variable) error {
	i, ok := p.index[v.Name]
	if !ok {
		return newError(ErrInvalidArgument, "product has no variable named %q to replace", v.Name)
	}
	old := p.variables[i]

	// Lengths implied by every variable other than the one being replaced.
	var otherLen [numDimensionKinds]int
	for j, other := range p.variables {
		if j == i {
			continue
		}
		for d := 0; d < other.numDimensions; d++ {
			kind := other.dimensionType[d]
			if kind != DimIndependent {
				otherLen[kind] = other.dimensionLen[d]
			}
		}
	}
	for d := 0; d < v.numDimensions; d++ {
		kind := v.dimensionType[d]
		if kind == DimIndependent {
			continue
		}
		if otherLen[kind] != 0 && otherLen[kind] != v.dimensionLen[d] {
			return newError(ErrInvalidArgument, "variable %q dimension %s length %d does not match product length %d",
				v.Name, kind, v.dimensionLen[d], otherLen[kind])
		}
	}

	old.product = nil
	v.product = p
	p.variables[i] = v
	p.reindex()
	for d := 0; d < v.numDimensions; d++ {
		kind := v.dimensionType[d]
		if kind != DimIndependent {
			p.dimension[kind] = v.dimensionLen[d]
		}
	}
	p.zeroDimensionsIfUnreferenced()
	return nil
}
