// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"sort"
	"strings"
)

// SourceSlot describes one ordered input a conversion rule's kernel expects.
type SourceSlot struct {
	Name                       string
	DataType                   DataType
	Unit                       string
	Dimensions                 []DimensionKind
	IndependentDimensionLength int // -1 means "any"
}

// dimsvarKey returns the canonical (dim-signature, name) identifier for s.
func (s SourceSlot) dimsvarKey() string { return dimsvarKey(s.Name, s.Dimensions) }

// Kernel fills target's buffer from sources, which have already been
// coerced to their declared (DataType, Unit). Implementations must tolerate
// being called with a zero-length target.
type Kernel func(target *Variable, sources []*Variable) error

// Rule is a registered conversion: a target signature, an ordered list of
// source slots, an optional gate, an optional human-readable note, and a
// kernel.
type Rule struct {
	TargetName                     string
	TargetType                     DataType
	TargetUnit                     string
	TargetDimensions                []DimensionKind
	TargetIndependentDimensionLength int // -1 means n/a or "any"

	Sources     []SourceSlot
	Description string
	IsEnabled   func() bool
	Kernel      Kernel

	order int // registration order, used to break planner cost ties
}

// dimsvarKey returns the canonical key this rule is registered under.
func (r *Rule) dimsvarKey() string { return dimsvarKey(r.TargetName, r.TargetDimensions) }

// AddSource appends an ordered source slot to r.
func (r *Rule) AddSource(slot SourceSlot) *Rule {
	r.Sources = append(r.Sources, slot)
	return r
}

// SetDescription attaches a human-readable note to r.
func (r *Rule) SetDescription(text string) *Rule {
	r.Description = text
	return r
}

// SetEnabled attaches a gating predicate to r.
func (r *Rule) SetEnabled(predicate func() bool) *Rule {
	r.IsEnabled = predicate
	return r
}

// enabled reports whether r is currently available (no gate means always
// available).
func (r *Rule) enabled() bool {
	return r.IsEnabled == nil || r.IsEnabled()
}

// dimsvarKey builds the fixed-width tag of spec.md §3: codes for the first
// len(dims) positions, spaces out to MaxDims, followed by name. Grounded on
// harp-derived-variable.c's get_dimsvar_name.
func dimsvarKey(name string, dims []DimensionKind) string {
	var b strings.Builder
	b.Grow(MaxDims + len(name))
	for _, d := range dims {
		b.WriteByte(codeOf(d))
	}
	for i := len(dims); i < MaxDims; i++ {
		b.WriteByte(' ')
	}
	b.WriteString(name)
	return b.String()
}

// Registry stores conversion rules keyed by dimsvar key.
type Registry struct {
	rules    map[string][]*Rule
	nextOrder int
}

// NewRegistry returns an empty registry. Callers needing isolation (tests,
// plug-in hosts) construct their own instead of using a shared global one.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string][]*Rule)}
}

// Register inserts a new rule for the given target spec and returns it so
// the caller can attach source slots via Rule.AddSource.
func (r *Registry) Register(targetName string, targetType DataType, targetUnit string, targetDims []DimensionKind, independentLength int, kernel Kernel) *Rule {
	rule := &Rule{
		TargetName:                      targetName,
		TargetType:                      targetType,
		TargetUnit:                      targetUnit,
		TargetDimensions:                append([]DimensionKind(nil), targetDims...),
		TargetIndependentDimensionLength: independentLength,
		Kernel:                          kernel,
		order:                           r.nextOrder,
	}
	r.nextOrder++
	key := rule.dimsvarKey()
	r.rules[key] = append(r.rules[key], rule)
	return rule
}

// Lookup returns the rules registered for dimsvar key key, in registration
// order (or insertion order after Sort groups/sorts them).
func (r *Registry) Lookup(key string) []*Rule {
	return r.rules[key]
}

// lookupFor is a convenience wrapper computing the key from name+dims.
func (r *Registry) lookupFor(name string, dims []DimensionKind) []*Rule {
	return r.Lookup(dimsvarKey(name, dims))
}

// Iterate calls fn for every registered rule, grouped by dimsvar key.
func (r *Registry) Iterate(fn func(key string, rules []*Rule)) {
	for _, key := range r.sortedKeys() {
		fn(key, r.rules[key])
	}
}

// Sort orders each dimsvar key's rule list by registration order. Iterate
// separately visits keys by (variable_name, dimsvar_key), so together they
// make documentation and planning deterministic, matching spec.md §4.5.
func (r *Registry) Sort() {
	for _, list := range r.rules {
		sort.SliceStable(list, func(i, j int) bool { return list[i].order < list[j].order })
	}
}

func (r *Registry) sortedKeys() []string {
	keys := make([]string, 0, len(r.rules))
	for k := range r.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := nameFromKey(keys[i]), nameFromKey(keys[j])
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func nameFromKey(key string) string {
	if len(key) <= MaxDims {
		return key
	}
	return key[MaxDims:]
}
