// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"fmt"
	"io"
	"strings"
)

// ListConversions is the engine's public help surface (spec.md §6). If
// product is nil, it prints every registered rule (optionally filtered by
// name): a header line with the target signature, each source on its own
// indented line, then the rule's description if any. If product is
// non-nil, it prints only rules whose plan succeeds given product, using
// the chosen rule tree.
func ListConversions(w io.Writer, registry *Registry, product *Product, name string) {
	if product == nil {
		listAllConversions(w, registry, name)
		return
	}
	listPlannedConversions(w, registry, product, name)
}

func listAllConversions(w io.Writer, registry *Registry, name string) {
	registry.Sort()
	registry.Iterate(func(key string, rules []*Rule) {
		for _, r := range rules {
			if name != "" && r.TargetName != name {
				continue
			}
			printRuleHeader(w, r.TargetName, r.TargetDimensions, r.TargetIndependentDimensionLength, r.TargetUnit, &r.TargetType)
			if len(r.Sources) == 0 {
				fmt.Fprint(w, "\n  derived without input variables\n")
			} else {
				fmt.Fprint(w, " from\n")
				for _, s := range r.Sources {
					fmt.Fprint(w, "  ")
					printSlot(w, s)
					fmt.Fprint(w, "\n")
				}
			}
			if r.Description != "" {
				fmt.Fprintf(w, "  %s\n", r.Description)
			}
		}
	})
}

func listPlannedConversions(w io.Writer, registry *Registry, product *Product, name string) {
	pl := NewPlanner(registry, product)
	registry.Sort()
	registry.Iterate(func(key string, rules []*Rule) {
		for _, r := range rules {
			if name != "" && r.TargetName != name {
				continue
			}
			plan, err := pl.Plan(r.TargetName, r.TargetDimensions, r.TargetIndependentDimensionLength)
			if err != nil {
				continue
			}
			printPlan(w, plan, 0)
		}
	})
}

func printPlan(w io.Writer, plan *Plan, indent int) {
	writeIndent(w, indent)
	if plan.IsLeaf() {
		printRuleHeader(w, plan.VariableName, plan.Dimensions, -1, "", nil)
		fmt.Fprint(w, "\n")
		return
	}
	r := plan.Rule
	printRuleHeader(w, r.TargetName, r.TargetDimensions, r.TargetIndependentDimensionLength, r.TargetUnit, &r.TargetType)
	if len(plan.Sources) == 0 {
		fmt.Fprint(w, "\n  derived without input variables\n")
		return
	}
	fmt.Fprint(w, " from\n")
	for _, s := range plan.Sources {
		printPlan(w, s, indent+1)
	}
}

func printRuleHeader(w io.Writer, name string, dims []DimensionKind, independentLength int, unit string, dtype *DataType) {
	fmt.Fprint(w, name)
	if len(dims) > 0 {
		fmt.Fprint(w, " {")
		for i, d := range dims {
			fmt.Fprint(w, d.String())
			if d == DimIndependent && independentLength >= 0 {
				fmt.Fprintf(w, "(%d)", independentLength)
			}
			if i < len(dims)-1 {
				fmt.Fprint(w, ",")
			}
		}
		fmt.Fprint(w, "}")
	}
	if unit != "" {
		fmt.Fprintf(w, " [%s]", unit)
	}
	if dtype != nil {
		fmt.Fprintf(w, " (%s)", dtype)
	}
}

func printSlot(w io.Writer, s SourceSlot) {
	fmt.Fprint(w, s.Name)
	if len(s.Dimensions) > 0 {
		fmt.Fprint(w, " {")
		for i, d := range s.Dimensions {
			fmt.Fprint(w, d.String())
			if d == DimIndependent && s.IndependentDimensionLength >= 0 {
				fmt.Fprintf(w, "(%d)", s.IndependentDimensionLength)
			}
			if i < len(s.Dimensions)-1 {
				fmt.Fprint(w, ",")
			}
		}
		fmt.Fprint(w, "}")
	}
	if s.Unit != "" {
		fmt.Fprintf(w, " [%s]", s.Unit)
	}
	fmt.Fprintf(w, " (%s)", s.DataType)
}

func writeIndent(w io.Writer, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
}
