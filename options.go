// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import (
	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
)

// ExtrapolationMode controls how bounds<->midpoint kernels behave at the
// edges of an axis (spec.md §6).
type ExtrapolationMode int

const (
	// ExtrapolationNaN fills edge bounds with NaN.
	ExtrapolationNaN ExtrapolationMode = iota
	// ExtrapolationEdge clamps the edge bound to the outermost midpoint
	// itself, with no extrapolation.
	ExtrapolationEdge
	// ExtrapolationLinear extrapolates the edge bound half an interval
	// past the outermost midpoint, using the width of the nearest
	// interior interval.
	ExtrapolationLinear
)

func parseExtrapolationMode(s string) ExtrapolationMode {
	switch s {
	case "edge":
		return ExtrapolationEdge
	case "extrapolate":
		return ExtrapolationLinear
	default:
		return ExtrapolationNaN
	}
}

// Options is the process-wide accessor consulted by rule is_enabled
// predicates and by bounds/midpoint kernels (spec.md §6: "read via an
// injected accessor, not stored by the engine"). It wraps a *viper.Viper
// the same way the teacher's CLI wraps configuration in inmaputil/cmd.go's
// Cfg struct.
type Options struct {
	*viper.Viper
}

// NewOptions returns an Options with the engine's defaults set: auxiliary
// climatology lookups disabled, NaN-filled bounds extrapolation.
func NewOptions() *Options {
	v := viper.New()
	v.SetDefault("AllowClimatology", false)
	v.SetDefault("BoundsExtrapolation", "nan")
	v.SetEnvPrefix("HARP")
	v.AutomaticEnv()
	return &Options{Viper: v}
}

// LoadOptionsFile reads process-wide options from a TOML file, following
// the teacher's dependency on github.com/BurntSushi/toml for its own
// configuration files.
func LoadOptionsFile(path string) (*Options, error) {
	opts := NewOptions()
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, wrapError(ErrInvalidArgument, err, "could not read options file %q", path)
	}
	for k, v := range raw {
		opts.Set(k, v)
	}
	return opts, nil
}

// AllowClimatology reports whether auxiliary climatology lookups (e.g.
// AFGL86/USSTD76 profile fallbacks) are permitted.
func (o *Options) AllowClimatology() bool { return o.GetBool("AllowClimatology") }

// BoundsExtrapolation reports how bounds<->midpoint kernels should behave
// at axis edges.
func (o *Options) BoundsExtrapolation() ExtrapolationMode {
	return parseExtrapolationMode(o.GetString("BoundsExtrapolation"))
}
