// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import "math"

// PlanStatus is the outcome of a planner search for a single key, matching
// spec.md §4.6's find() return states.
type PlanStatus int

const (
	// StatusFound means a feasible plan (possibly a zero-cost leaf, the
	// variable already being present) was located.
	StatusFound PlanStatus = iota
	// StatusMissing means no rule or existing variable can satisfy the key.
	StatusMissing
	// StatusCycle means no rule succeeded, none was cut off by budget or
	// depth, and at least one recursed back into a key already on the
	// search stack.
	StatusCycle
	// StatusOverBudget means the search exhausted its budget or max depth
	// before resolving.
	StatusOverBudget
)

// skip-map states, named after spec.md §4.8's planner state machine.
const (
	skipUnvisited    = 0
	skipUnavailable  = 1
	skipOnStack      = 2
)

// Plan is a tree of rules rooted at a target key, in which every leaf
// corresponds to a variable already present in the product (spec.md
// GLOSSARY).
type Plan struct {
	VariableName string
	Dimensions   []DimensionKind
	Rule         *Rule   // nil if the variable is already present (a leaf)
	Sources      []*Plan // populated when Rule != nil, in source order
}

// IsLeaf reports whether p is satisfied directly from the product, with no
// derivation required.
func (p *Plan) IsLeaf() bool { return p.Rule == nil }

// Planner searches a Registry's rule graph for the cheapest feasible
// derivation of a requested variable from what a given Product already
// contains (spec.md §4.6).
type Planner struct {
	Registry *Registry
	Product  *Product
	MaxDepth int // default 8 when zero

	skip  map[string]int
	depth int
}

const defaultMaxDepth = 8

// NewPlanner returns a Planner over registry searching product, with the
// default max search depth.
func NewPlanner(registry *Registry, product *Product) *Planner {
	return &Planner{Registry: registry, Product: product, MaxDepth: defaultMaxDepth}
}

func (pl *Planner) maxDepth() int {
	if pl.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return pl.MaxDepth
}

// Plan runs find with an infinite budget and a fresh visited map, rooted at
// the requested (name, dims, independentLength) key.
func (pl *Planner) Plan(name string, dims []DimensionKind, independentLength int) (*Plan, error) {
	pl.skip = make(map[string]int)
	pl.depth = 0
	_, status, plan := pl.find(name, dims, independentLength, math.Inf(1))
	if status != StatusFound {
		return nil, variableNotFoundError(name, dims)
	}
	return plan, nil
}

// find is the recursive search described in spec.md §4.6 and ported from
// harp-derived-variable.c's find_source_variables/find_and_execute_conversion.
func (pl *Planner) find(name string, dims []DimensionKind, independentLength int, budget float64) (cost float64, status PlanStatus, plan *Plan) {
	if v, err := pl.Product.GetVariableByName(name); err == nil && v.hasDimensionTypes(dims, independentLength) {
		return 0, StatusFound, &Plan{VariableName: name, Dimensions: dims}
	}

	if budget < 1 {
		return 0, StatusOverBudget, nil
	}
	if pl.depth == pl.maxDepth() {
		return 0, StatusOverBudget, nil
	}

	key := dimsvarKey(name, dims)
	rules := pl.Registry.Lookup(key)
	if len(rules) == 0 {
		pl.skip[key] = skipUnavailable
		return 0, StatusMissing, nil
	}

	switch pl.skip[key] {
	case skipOnStack:
		return 0, StatusCycle, nil
	case skipUnavailable:
		return 0, StatusMissing, nil
	}

	pl.skip[key] = skipOnStack
	pl.depth++

	var best *Rule
	var bestCost float64
	var bestSources []*Plan
	isOutOfBudget := false
	hasCycle := false

	for _, rule := range rules {
		if !rule.enabled() {
			continue
		}
		if !independentLengthsCompatible(rule.TargetDimensions, rule.TargetIndependentDimensionLength, dims, independentLength) {
			continue
		}

		localBudget := budget - 1
		localCost := 1.0
		sourcePlans := make([]*Plan, 0, len(rule.Sources))

		ok := true
		for _, src := range rule.Sources {
			srcCost, srcStatus, srcPlan := pl.find(src.Name, src.Dimensions, src.IndependentDimensionLength, localBudget)
			if srcStatus != StatusFound {
				if srcStatus == StatusOverBudget {
					isOutOfBudget = true
				} else if srcStatus == StatusCycle {
					hasCycle = true
				}
				ok = false
				break
			}
			localBudget -= srcCost
			localCost += srcCost
			sourcePlans = append(sourcePlans, srcPlan)
		}

		if ok && (best == nil || localCost < bestCost) {
			best = rule
			bestCost = localCost
			bestSources = sourcePlans
		}
	}

	pl.depth--
	pl.skip[key] = skipUnvisited

	if best != nil {
		return bestCost, StatusFound, &Plan{VariableName: name, Dimensions: dims, Rule: best, Sources: bestSources}
	}

	if isOutOfBudget {
		return 0, StatusOverBudget, nil
	}
	if hasCycle {
		return 0, StatusCycle, nil
	}
	pl.skip[key] = skipUnavailable
	return 0, StatusMissing, nil
}

// independentLengthsCompatible reports whether a rule whose target carries
// dims/independentLength can satisfy a request for wantDims/wantLength: the
// dimension-kind signatures must match position-for-position, and when both
// sides fix a concrete independent-axis length, the lengths must agree.
func independentLengthsCompatible(dims []DimensionKind, ruleLength int, wantDims []DimensionKind, wantLength int) bool {
	if len(dims) != len(wantDims) {
		return false
	}
	for i, d := range dims {
		if d != wantDims[i] {
			return false
		}
	}
	if ruleLength >= 0 && wantLength >= 0 && ruleLength != wantLength {
		return false
	}
	return true
}

// variableNotFoundError builds the canonical "not derivable" error, printed
// as "name {dim,dim,...}" (spec.md §7, scenario S6).
func variableNotFoundError(name string, dims []DimensionKind) *Error {
	b := name + " {"
	for i, d := range dims {
		if i > 0 {
			b += ","
		}
		b += d.String()
	}
	b += "}"
	return newError(ErrVariableNotFound, "could not derive variable '%s'", b)
}
