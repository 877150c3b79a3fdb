// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSecretSource(t *testing.T) {
	t.Run("Should work - missing file is an empty layer", func(t *testing.T) {
		source := &fileSecretSource{
			path: filepath.Join(t.TempDir(), "absent", "secrets.json"),
		}

		secrets, err := source.Load()
		require.NoError(t, err)
		assert.Empty(t, secrets)
	})

	t.Run("Should work - nested document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets.json")

		require.NoError(t, os.WriteFile(path,
			[]byte(`{"auth": {"apikey": "s3cr3t"}}`), 0o600))

		source := &fileSecretSource{path: path}

		secrets, err := source.Load()
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"auth": map[string]interface{}{"apikey": "s3cr3t"},
		}, secrets)
	})

	t.Run("Should fail - broken document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets.json")

		require.NoError(t, os.WriteFile(path, []byte(`{"auth":`), 0o600))

		source := &fileSecretSource{path: path}

		_, err := source.Load()
		require.Error(t, err)
	})
}

func TestEnvSecretSource(t *testing.T) {
	t.Setenv("AUTH__APIKEY", "s3cr3t")

	source := &envSecretSource{keys: []string{"AUTH__APIKEY", "ABSENT__KEY"}}

	secrets, err := source.Load()
	require.NoError(t, err)

	// Present variables are normalized to configuration keys; absent ones
	// are skipped.
	assert.Equal(t, map[string]interface{}{"auth.apikey": "s3cr3t"}, secrets)
}

func TestNewSecretSource(t *testing.T) {
	l := &loader{}

	t.Run("Should default - empty provider is file", func(t *testing.T) {
		source, err := newSecretSource(l, secretSettings{ID: "app"})
		require.NoError(t, err)
		assert.IsType(t, &fileSecretSource{}, source)
	})

	t.Run("Should work - env provider", func(t *testing.T) {
		source, err := newSecretSource(l, secretSettings{Provider: SecretProviderEnv})
		require.NoError(t, err)
		assert.IsType(t, &envSecretSource{}, source)
	})

	t.Run("Should work - vault provider", func(t *testing.T) {
		settings := secretSettings{Provider: SecretProviderVault}
		settings.Vault.Address = "http://127.0.0.1:8200"
		settings.Vault.Path = "secret/data/app"

		source, err := newSecretSource(l, settings)
		require.NoError(t, err)
		assert.IsType(t, &vaultSecretSource{}, source)
	})

	t.Run("Should work - explicit path wins", func(t *testing.T) {
		withPath := &loader{secretsPath: "/tmp/secrets.json"}

		source, err := newSecretSource(withPath, secretSettings{})
		require.NoError(t, err)

		fileSource, ok := source.(*fileSecretSource)
		require.True(t, ok)
		assert.Equal(t, "/tmp/secrets.json", fileSource.path)
	})

	t.Run("Should fail - unknown provider", func(t *testing.T) {
		_, err := newSecretSource(l, secretSettings{Provider: "consul"})
		require.Error(t, err)
	})
}
