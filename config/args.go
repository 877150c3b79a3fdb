// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"strings"

	"github.com/saucelabs/customerror"
)

// KeyValue is a single command-line configuration override. Order matters:
// later overrides win on key collision.
type KeyValue struct {
	// Key is the normalized configuration key, e.g.: `server.address`.
	Key string

	// Value is the raw value as typed on the command line.
	Value string
}

// ParseArgs interprets command-line arguments as configuration overrides.
//
// Accepted forms: `--key=value`, `--key value`, and `--key` (boolean `true`).
// Keys are case-insensitive; both `:` and `__` separators are normalized to
// `.`. A `nil`, or empty argument sequence yields no overrides. Tokens not
// starting with `--` are ignored, they belong to the outer CLI surface.
func ParseArgs(args []string) ([]KeyValue, error) {
	if len(args) == 0 {
		return nil, nil
	}

	kvs := make([]KeyValue, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if !strings.HasPrefix(arg, "--") {
			continue
		}

		body := strings.TrimPrefix(arg, "--")

		key, value, hasValue := strings.Cut(body, "=")

		if !hasValue {
			// `--key value` form: consume the next token unless it's
			// another flag.
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				value = args[i+1]

				i++
			} else {
				value = "true"
			}
		}

		key = normalizeKey(key)

		if key == "" {
			return nil, customerror.NewInvalidError(
				"argument, key is empty: " + arg,
			)
		}

		kvs = append(kvs, KeyValue{Key: key, Value: value})
	}

	return kvs, nil
}

// normalizeKey lowercases a key, and maps the `:`, and `__` separators to
// `.`.
func normalizeKey(key string) string {
	key = strings.ReplaceAll(key, "__", ".")
	key = strings.ReplaceAll(key, ":", ".")

	return strings.ToLower(strings.Trim(key, "."))
}
