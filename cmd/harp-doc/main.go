// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command harp-doc is a command-line interface for inspecting the
// derived-variable engine's built-in conversion catalogue.
package main

import (
	"fmt"
	"os"

	"github.com/stcorp/harp-go"
	"github.com/stcorp/harp-go/harputil"
)

func main() {
	registry := harp.NewRegistry()
	harp.RegisterCatalogue(registry, harp.NewOptions())

	cfg := harputil.InitializeConfig(registry)
	if err := cfg.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
