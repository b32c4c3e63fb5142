// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import "testing"

func TestDimsvarKeyFixedWidthPrefix(t *testing.T) {
	key := dimsvarKey("temperature", []DimensionKind{DimTime, DimVertical})
	if len(key) != MaxDims+len("temperature") {
		t.Fatalf("dimsvarKey length = %d, want %d", len(key), MaxDims+len("temperature"))
	}
	if key[:2] != "TV" {
		t.Errorf("dimsvarKey prefix = %q, want %q", key[:2], "TV")
	}
	if key[MaxDims:] != "temperature" {
		t.Errorf("dimsvarKey name suffix = %q, want %q", key[MaxDims:], "temperature")
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	rule := r.Register("foo", Float64, "K", []DimensionKind{DimTime}, -1, noopKernel)
	got := r.Lookup(rule.dimsvarKey())
	if len(got) != 1 || got[0] != rule {
		t.Fatalf("Lookup returned %v, want [%v]", got, rule)
	}
	if r.lookupFor("foo", []DimensionKind{DimTime})[0] != rule {
		t.Error("lookupFor should resolve the same rule as Lookup(dimsvarKey)")
	}
}

func TestRegisterPreservesInsertionOrder(t *testing.T) {
	r := NewRegistry()
	first := r.Register("foo", Float64, "", []DimensionKind{DimTime}, -1, noopKernel)
	second := r.Register("foo", Float64, "", []DimensionKind{DimTime}, -1, noopKernel)
	rules := r.Lookup(first.dimsvarKey())
	if len(rules) != 2 || rules[0] != first || rules[1] != second {
		t.Fatalf("rules = %v, want [first, second] in registration order", rules)
	}
	if first.order >= second.order {
		t.Errorf("first.order = %d should be < second.order = %d", first.order, second.order)
	}
}

func TestIterateVisitsKeysInNameOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("zzz", Float64, "", nil, -1, noopKernel)
	r.Register("aaa", Float64, "", nil, -1, noopKernel)
	r.Register("mmm", Float64, "", nil, -1, noopKernel)

	var names []string
	r.Iterate(func(key string, rules []*Rule) {
		names = append(names, nameFromKey(key))
	})
	want := []string{"aaa", "mmm", "zzz"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q (full order %v)", i, names[i], n, names)
		}
	}
}

func TestRuleEnabledDefaultsTrue(t *testing.T) {
	r := NewRegistry()
	rule := r.Register("foo", Float64, "", nil, -1, noopKernel)
	if !rule.enabled() {
		t.Error("a rule with no gate should be enabled by default")
	}
	rule.SetEnabled(func() bool { return false })
	if rule.enabled() {
		t.Error("SetEnabled(false) should disable the rule")
	}
}
