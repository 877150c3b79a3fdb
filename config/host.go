// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

//////
// Const, and vars.
//////

const (
	hostKeyApplication = "application"
	hostKeyContentRoot = "contentroot"
	hostKeyEnvironment = "environment"
)

//////
// Definition.
//////

// Host carries the settings needed to construct the host itself, distinct
// from the application configuration used by request-handling logic. It's
// built from environment variables filtered by a fixed prefix, then
// command-line arguments - later wins.
type Host struct {
	// ApplicationName is the product name. Empty means the caller decides.
	ApplicationName string

	// ContentRoot is the directory configuration files are resolved
	// against, default: the current directory.
	ContentRoot string

	// Environment is the deployment mode name. Empty means the caller's
	// default applies.
	Environment string

	// Command-line overrides, retained for the application layer.
	overrides []KeyValue
}

// Overrides returns the parsed command-line configuration overrides, in
// order.
func (h *Host) Overrides() []KeyValue {
	return h.overrides
}

//////
// Factory.
//////

// LoadHost builds the host configuration layer: environment variables
// starting with `prefix` (e.g.: `HOSTKIT_ENVIRONMENT`), then command-line
// arguments. A `nil` argument sequence adds no source.
func LoadHost(prefix string, args []string) (*Host, error) {
	v := viper.New()

	v.SetDefault(hostKeyContentRoot, ".")

	// Environment variables, filtered by the fixed prefix. `__` maps to `.`.
	for _, entry := range os.Environ() {
		name, value, _ := strings.Cut(entry, "=")

		if !strings.HasPrefix(name, prefix) {
			continue
		}

		key := normalizeKey(strings.TrimPrefix(name, prefix))

		if key == "" {
			continue
		}

		v.Set(key, value)
	}

	// Command line wins over environment variables.
	overrides, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}

	for _, kv := range overrides {
		v.Set(kv.Key, kv.Value)
	}

	return &Host{
		ApplicationName: v.GetString(hostKeyApplication),
		ContentRoot:     v.GetString(hostKeyContentRoot),
		Environment:     v.GetString(hostKeyEnvironment),
		overrides:       overrides,
	}, nil
}
