// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// loadKeyPerFile reads a directory where each file's name is a configuration
// key, and its contents the value, e.g.: a file named `server__address`
// holding `:4446`. Hidden files, and sub-directories are skipped. A missing
// directory is not an error: the source is optional.
func loadKeyPerFile(dir string) (map[string]interface{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	settings := map[string]interface{}{}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		key := normalizeKey(entry.Name())

		if key == "" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		deepSet(settings, key, strings.TrimSpace(string(content)))
	}

	return settings, nil
}

// deepSet stores `value` under the dotted `key`, nesting maps as needed so
// Viper resolves the path the same way it does for file-based sources.
func deepSet(m map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")

	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]interface{})

		if !ok {
			next = map[string]interface{}{}

			m[part] = next
		}

		m = next
	}

	m[parts[len(parts)-1]] = value
}
