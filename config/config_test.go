// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSettings drops a settings file into the content root.
func writeSettings(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func testHost(t *testing.T, contentRoot string, args ...string) *Host {
	t.Helper()

	host, err := LoadHost("CONFIGTEST_", args)
	require.NoError(t, err)

	host.ApplicationName = "config-test"
	host.ContentRoot = contentRoot

	return host
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load(testHost(t, t.TempDir()), "Production")
	require.NoError(t, err)

	assert.Equal(t, ":4446", cfg.Server.Address)
	assert.False(t, cfg.Server.Compression)
	assert.Equal(t, "error", cfg.Logging.ConsoleLevel)
	assert.Equal(t, 3*time.Second, cfg.Timeout.Read)
	assert.Equal(t, 1*time.Second, cfg.Timeout.Request)
	assert.Equal(t, 10*time.Second, cfg.Timeout.ShutdownTask)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 0.1, cfg.Telemetry.SamplingRatio, 0.0001)
}

func TestLoad_missingFilesAreSkipped(t *testing.T) {
	// No settings files at all: every optional source silently yields
	// nothing.
	cfg, err := Load(testHost(t, t.TempDir()), "Production",
		WithKeyPerFileDirectory(filepath.Join(t.TempDir(), "absent")),
	)
	require.NoError(t, err)

	assert.Equal(t, ":4446", cfg.Server.Address)
}

func TestLoad_brokenFileFails(t *testing.T) {
	dir := t.TempDir()

	writeSettings(t, dir, "appsettings.json", `{"server": `)

	_, err := Load(testHost(t, dir), "Production")
	require.Error(t, err)
}

func TestLoad_environmentFileWins(t *testing.T) {
	dir := t.TempDir()

	writeSettings(t, dir, "appsettings.json",
		`{"server": {"address": ":1111"}, "logging": {"console_level": "info"}}`)
	writeSettings(t, dir, "appsettings.Staging.json",
		`{"server": {"address": ":2222"}}`)

	cfg, err := Load(testHost(t, dir), "Staging")
	require.NoError(t, err)

	// The environment file overrides colliding keys, and everything else
	// survives from the base file.
	assert.Equal(t, ":2222", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.ConsoleLevel)
}

func TestLoad_keyPerFileWinsOverFiles(t *testing.T) {
	dir := t.TempDir()

	writeSettings(t, dir, "appsettings.json", `{"server": {"address": ":1111"}}`)

	kpfDir := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(kpfDir, "server__address"), []byte(":3333"), 0o600))

	cfg, err := Load(testHost(t, dir), "Production",
		WithKeyPerFileDirectory(kpfDir),
	)
	require.NoError(t, err)

	assert.Equal(t, ":3333", cfg.Server.Address)
}

func TestLoad_envVarWinsOverFiles(t *testing.T) {
	dir := t.TempDir()

	writeSettings(t, dir, "appsettings.json", `{"server": {"address": ":1111"}}`)

	t.Setenv("SERVER__ADDRESS", ":4444")

	cfg, err := Load(testHost(t, dir), "Production")
	require.NoError(t, err)

	assert.Equal(t, ":4444", cfg.Server.Address)
}

func TestLoad_secretsOnlyInDevelopment(t *testing.T) {
	dir := t.TempDir()

	secretsPath := filepath.Join(t.TempDir(), "secrets.json")

	require.NoError(t, os.WriteFile(secretsPath,
		[]byte(`{"server": {"address": ":5555"}}`), 0o600))

	// Development: the secrets layer applies.
	cfg, err := Load(testHost(t, dir), "Development",
		WithSecretsPath(secretsPath),
	)
	require.NoError(t, err)

	assert.Equal(t, ":5555", cfg.Server.Address)

	// Production: the same source is ignored.
	cfg, err = Load(testHost(t, dir), "Production",
		WithSecretsPath(secretsPath),
	)
	require.NoError(t, err)

	assert.Equal(t, ":4446", cfg.Server.Address)

	// Production, forced: the layer applies again.
	cfg, err = Load(testHost(t, dir), "Production",
		WithSecretsPath(secretsPath),
		WithSecretsForced(),
	)
	require.NoError(t, err)

	assert.Equal(t, ":5555", cfg.Server.Address)
}

func TestLoad_secretsWinOverEnvVars(t *testing.T) {
	t.Setenv("CUSTOM__TOKEN", "from-env")

	secretsPath := filepath.Join(t.TempDir(), "secrets.json")

	require.NoError(t, os.WriteFile(secretsPath,
		[]byte(`{"custom": {"token": "from-secrets"}}`), 0o600))

	cfg, err := Load(testHost(t, t.TempDir()), "Development",
		WithSecretsPath(secretsPath),
	)
	require.NoError(t, err)

	assert.Equal(t, "from-secrets", cfg.GetString("custom.token"))
}

func TestLoad_telemetrySettingsWinOverSecrets(t *testing.T) {
	secretsPath := filepath.Join(t.TempDir(), "secrets.json")

	require.NoError(t, os.WriteFile(secretsPath,
		[]byte(`{"telemetry": {"service_name": "from-secrets"}}`), 0o600))

	cfg, err := Load(testHost(t, t.TempDir()), "Development",
		WithSecretsPath(secretsPath),
		WithTelemetrySettings(map[string]interface{}{
			"telemetry.service_name": "from-telemetry",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "from-telemetry", cfg.Telemetry.ServiceName)
}

func TestLoad_commandLineAlwaysWins(t *testing.T) {
	dir := t.TempDir()

	writeSettings(t, dir, "appsettings.json", `{"server": {"address": ":1111"}}`)

	t.Setenv("SERVER__ADDRESS", ":4444")

	host := testHost(t, dir, "--server.address=:6666")

	cfg, err := Load(host, "Production",
		WithTelemetrySettings(map[string]interface{}{
			"server.address": ":5555",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, ":6666", cfg.Server.Address)
}

func TestLoad_stringLayersDecodeTypedFields(t *testing.T) {
	host := testHost(t, t.TempDir(),
		"--server.compression=true",
		"--timeout.read=7s",
		"--telemetry.sampling_ratio=0.5",
	)

	cfg, err := Load(host, "Production")
	require.NoError(t, err)

	assert.True(t, cfg.Server.Compression)
	assert.Equal(t, 7*time.Second, cfg.Timeout.Read)
	assert.InDelta(t, 0.5, cfg.Telemetry.SamplingRatio, 0.0001)
}

func TestLoad_arbitraryKeysAreReachable(t *testing.T) {
	dir := t.TempDir()

	writeSettings(t, dir, "appsettings.json",
		`{"feature": {"enabled": true, "batch": 32}}`)

	cfg, err := Load(testHost(t, dir), "Production")
	require.NoError(t, err)

	assert.True(t, cfg.GetBool("feature.enabled"))
	assert.Equal(t, 32, cfg.GetInt("feature.batch"))
	assert.True(t, cfg.IsSet("feature.batch"))
	assert.False(t, cfg.IsSet("feature.absent"))
}

func TestLoadHost(t *testing.T) {
	t.Setenv("HOSTTEST_ENVIRONMENT", "Staging")
	t.Setenv("HOSTTEST_APPLICATION", "from-env")

	host, err := LoadHost("HOSTTEST_", []string{"--application=from-args"})
	require.NoError(t, err)

	// Command line wins over the host environment variables.
	assert.Equal(t, "from-args", host.ApplicationName)
	assert.Equal(t, "Staging", host.Environment)
	assert.Equal(t, ".", host.ContentRoot)
	assert.Len(t, host.Overrides(), 1)
}
