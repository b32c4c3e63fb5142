// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harputil wires the harp engine's built-in conversion catalogue up
// to a cobra/viper command-line interface, in the same style as the
// teacher's inmaputil package wires up InMAP's.
package harputil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stcorp/harp-go"
)

// Cfg holds the CLI's command tree and process-wide options, mirroring the
// teacher's inmaputil.Cfg.
type Cfg struct {
	*viper.Viper

	Root, versionCmd, listConversionsCmd *cobra.Command

	registry *harp.Registry
	options  *harp.Options
}

var log = logrus.New()

// InitializeConfig builds the command tree over registry, matching
// inmaputil.InitializeConfig's construction order: build Root and its
// subcommands first, wire the tree together, then register the shared
// option table against their flag sets.
func InitializeConfig(registry *harp.Registry) *Cfg {
	cfg := &Cfg{
		Viper:    viper.New(),
		registry: registry,
		options:  harp.NewOptions(),
	}

	cfg.Root = &cobra.Command{
		Use:   "harp-doc",
		Short: "Documentation and diagnostic tool for the derived-variable engine.",
		Long: `harp-doc prints the set of variable conversions the engine's built-in
catalogue knows how to perform.

Configuration can be changed with a configuration file (--config flag) or by
setting environment variables in the format 'HARP_var'.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(cfg)
		},
	}

	cfg.versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		Long:              "version prints the version number of this build of the engine.",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("harp-go v%s\n", harp.Version)
		},
	}

	var filterName string
	cfg.listConversionsCmd = &cobra.Command{
		Use:   "list-conversions",
		Short: "List the engine's built-in variable conversions.",
		Long: `list-conversions prints every rule registered in the built-in catalogue:
a header line with the rule's target signature, followed by its source
variables, indented one level.

Pass --name to restrict output to rules producing a single variable name.`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			harp.ListConversions(os.Stdout, cfg.registry, nil, filterName)
			return nil
		},
	}
	cfg.listConversionsCmd.Flags().StringVar(&filterName, "name", "", "only list conversions producing this variable name")

	cfg.Root.AddCommand(cfg.versionCmd, cfg.listConversionsCmd)

	// options mirrors inmaputil.InitializeConfig's flag table: each entry is
	// registered on every one of its flagsets and bound into cfg.Viper under
	// the same name, so a value can come from a flag, an environment
	// variable (HARP_<name>), or a loaded config file, in that order of
	// precedence.
	options := []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "path to a TOML configuration file",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "AllowClimatology",
			usage:      "permit the climatology fallback rule for variables with no other source",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "BoundsExtrapolation",
			usage:      `edge-of-axis behaviour for bounds<->midpoint conversions: "nan", "edge", or "extrapolate"`,
			defaultVal: "nan",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
	}

	for _, option := range options {
		set := option.flagsets[0]
		switch v := option.defaultVal.(type) {
		case string:
			set.String(option.name, v, option.usage)
		case bool:
			set.Bool(option.name, v, option.usage)
		default:
			panic(fmt.Errorf("harputil: unsupported option default type %T", option.defaultVal))
		}
		for _, extra := range option.flagsets[1:] {
			extra.AddFlag(set.Lookup(option.name))
		}
		cfg.BindPFlag(option.name, set.Lookup(option.name))
	}

	return cfg
}

// setConfig reads the --config file (if any) and then the flags and
// environment variables bound in cfg.Viper into a new Options stored as
// cfg.options, mirroring the teacher's setConfig(cfg *Cfg). The rules
// already registered in cfg.registry keep the Options they were registered
// with; cfg.options is not applied to them.
func setConfig(cfg *Cfg) error {
	cfg.SetEnvPrefix("HARP")
	cfg.AutomaticEnv()

	opts := harp.NewOptions()
	cfgFile := cfg.GetString("config")
	if cfgFile != "" {
		fromFile, err := harp.LoadOptionsFile(cfgFile)
		if err != nil {
			return err
		}
		opts = fromFile
	}
	flags := cfg.Root.PersistentFlags()
	for _, o := range []struct{ name, env string }{
		{"AllowClimatology", "HARP_ALLOWCLIMATOLOGY"},
		{"BoundsExtrapolation", "HARP_BOUNDSEXTRAPOLATION"},
	} {
		// A config-file value is kept unless a flag or environment variable sets it.
		if cfgFile != "" && !flags.Changed(o.name) && os.Getenv(o.env) == "" {
			continue
		}
		opts.Set(o.name, cfg.Get(o.name))
	}
	cfg.options = opts

	log.WithField("allow_climatology", cfg.options.AllowClimatology()).Debug("configuration loaded")
	return nil
}
