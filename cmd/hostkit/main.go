// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// hostkit serves a configuration-driven web server. Any `--key=value`
// argument after `serve` becomes a configuration override, the highest
// precedence layer.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hostkit/hostkit"
)

const defaultApplicationName = "hostkit"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hostkit",
		Short: "Configuration-driven web server host",
	}

	serveCmd := &cobra.Command{
		Use:   "serve [--key=value ...]",
		Short: "Start the server",

		// Arguments are configuration overrides, not CLI flags. They flow
		// to the configuration layers untouched.
		DisableFlagParsing: true,

		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(hostkit.Run(defaultApplicationName, args))
		},
	}

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(hostkit.ExitCodeFailure)
	}
}
