// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/saucelabs/customerror"
)

//////
// Const, and vars.
//////

const (
	// SecretProviderFile reads a per-application developer secrets JSON
	// file from the user configuration directory. Default.
	SecretProviderFile = "file"

	// SecretProviderEnv reads the keys listed under `secrets.keys` from
	// environment variables.
	SecretProviderEnv = "env"

	// SecretProviderVault reads a logical path from HashiCorp Vault.
	SecretProviderVault = "vault"

	secretsFileName = "secrets.json"

	vaultClientTimeout = 10 * time.Second
)

//////
// Interface.
//////

// SecretSource is a configuration layer holding sensitive values. Sources
// that depend on local files are optional: a missing file yields an empty
// layer. Sources that reach a remote store surface their errors.
type SecretSource interface {
	// Load returns the secret key/value pairs, dotted keys allowed.
	Load() (map[string]interface{}, error)
}

//////
// File source.
//////

// fileSecretSource reads a flat, or nested JSON document, e.g.:
// `~/.config/hostkit/<id>/secrets.json`.
type fileSecretSource struct {
	path string
}

func (f *fileSecretSource) Load() (map[string]interface{}, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	secrets := map[string]interface{}{}

	if err := json.Unmarshal(content, &secrets); err != nil {
		return nil, customerror.NewFailedToError(
			"parse developer secrets",
			customerror.WithError(err),
		)
	}

	return secrets, nil
}

// developerSecretsPath resolves the default developer secrets location for
// the given secrets ID.
func developerSecretsPath(id string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "hostkit", id, secretsFileName), nil
}

//////
// Env source.
//////

// envSecretSource reads the listed environment variables. Variable names are
// normalized to configuration keys, e.g.: `AUTH__APIKEY` -> `auth.apikey`.
type envSecretSource struct {
	keys []string
}

func (e *envSecretSource) Load() (map[string]interface{}, error) {
	secrets := map[string]interface{}{}

	for _, name := range e.keys {
		if value, ok := os.LookupEnv(name); ok {
			secrets[normalizeKey(name)] = value
		}
	}

	return secrets, nil
}

//////
// Vault source.
//////

// vaultSecretSource reads every key at a logical path from HashiCorp Vault.
type vaultSecretSource struct {
	address string
	token   string
	path    string
}

func (v *vaultSecretSource) Load() (map[string]interface{}, error) {
	client, err := vault.NewClient(&vault.Config{
		Address: v.address,
		Timeout: vaultClientTimeout,
	})
	if err != nil {
		return nil, customerror.NewFailedToError(
			"create Vault client",
			customerror.WithError(err),
		)
	}

	token := v.token

	if token == "" {
		token = os.Getenv("VAULT_TOKEN")
	}

	client.SetToken(token)

	secret, err := client.Logical().Read(v.path)
	if err != nil {
		return nil, customerror.NewFailedToError(
			"read secrets from Vault",
			customerror.WithError(err),
		)
	}

	if secret == nil || secret.Data == nil {
		return nil, customerror.NewMissingError("secret at " + v.path)
	}

	data := secret.Data

	// KV v2 nests the payload under `data`.
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	secrets := map[string]interface{}{}

	for key, value := range data {
		secrets[normalizeKey(key)] = value
	}

	return secrets, nil
}

//////
// Factory.
//////

// newSecretSource selects the secret source for the loaded settings. An
// empty provider defaults to `file`.
func newSecretSource(l *loader, settings secretSettings) (SecretSource, error) {
	provider := settings.Provider

	if provider == "" {
		provider = SecretProviderFile
	}

	switch provider {
	case SecretProviderFile:
		path := l.secretsPath

		if path == "" {
			var err error

			path, err = developerSecretsPath(settings.ID)
			if err != nil {
				return nil, err
			}
		}

		return &fileSecretSource{path: path}, nil
	case SecretProviderEnv:
		return &envSecretSource{keys: settings.Keys}, nil
	case SecretProviderVault:
		return &vaultSecretSource{
			address: settings.Vault.Address,
			token:   settings.Vault.Token,
			path:    settings.Vault.Path,
		}, nil
	default:
		return nil, customerror.NewInvalidError(
			"secret provider: " + provider,
		)
	}
}
