// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harp implements the derived-variable engine of a scientific
// data-processing library for atmospheric remote-sensing products.
//
// A Product is an in-memory bundle of multi-dimensional numeric Variables
// (measurements, auxiliary fields, axes) sharing a small set of named
// dimensions. Callers request a variable by name, data type, unit and
// dimensionality; the engine either returns a copy of an existing variable
// (coercing unit and type as needed) or synthesises it by composing
// registered conversion rules from other variables already present in the
// product, recursively. See Registry, Planner and Executor.
//
// The package performs no I/O of its own and is not safe for concurrent
// mutating use on the same Product from multiple goroutines.
package harp

// Version is the engine's release version, reported by the harp-doc CLI's
// version subcommand.
const Version = "0.1.0"
