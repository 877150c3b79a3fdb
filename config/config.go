// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/saucelabs/customerror"
	"github.com/spf13/viper"
)

//////
// Const, and vars.
//////

const (
	// DefaultBaseName is the base name of the JSON settings files:
	// `appsettings.json`, and `appsettings.<environment>.json`.
	DefaultBaseName = "appsettings"

	developmentEnvironment = "Development"
)

//////
// Definitions.
//////

// secretSettings selects, and configures the secret source.
type secretSettings struct {
	// Provider is one of `file`, `env`, or `vault`, default: `file`.
	Provider string `json:"provider" mapstructure:"provider" validate:"omitempty,oneof=file env vault"`

	// ID names the developer secrets store for the `file` provider.
	ID string `json:"id" mapstructure:"id"`

	// Keys lists the environment variables read by the `env` provider.
	Keys []string `json:"keys" mapstructure:"keys"`

	// Vault connection settings for the `vault` provider.
	Vault struct {
		Address string `json:"address" mapstructure:"address"`
		Token   string `json:"token" mapstructure:"token"`
		Path    string `json:"path" mapstructure:"path"`
	} `json:"vault" mapstructure:"vault"`
}

// Config is the resolved application configuration. Typed sections cover the
// hosting concerns; arbitrary keys registered by `Startup` collaborators are
// reachable through the getters.
type Config struct {
	// Server transport settings.
	Server struct {
		// Address is a TCP address to listen on, default: ":4446".
		Address string `json:"address" mapstructure:"address" validate:"tcp_addr"`

		// Compression enables response compression.
		Compression bool `json:"compression" mapstructure:"compression"`

		// ProxyHeaders honors `X-Forwarded-*` headers from a fronting
		// proxy.
		ProxyHeaders bool `json:"proxy_headers" mapstructure:"proxy_headers"`
	} `json:"server" mapstructure:"server"`

	// Logging fine-control.
	Logging struct {
		// ConsoleLevel defines the level for the `Console` output.
		ConsoleLevel string `json:"console_level" mapstructure:"console_level" validate:"required,gte=3,oneof=none fatal error info warn debug trace"`

		// RequestLevel defines the level for logging requests.
		RequestLevel string `json:"request_level" mapstructure:"request_level" validate:"required,gte=3,oneof=none fatal error info warn debug trace"`

		// Filepath is the file path to optionally write logs.
		Filepath string `json:"filepath" mapstructure:"filepath" validate:"omitempty,gte=3"`
	} `json:"logging" mapstructure:"logging"`

	// Timeout fine-control.
	Timeout struct {
		// Read max duration for READING the entire request, default: 3s.
		Read time.Duration `json:"read" mapstructure:"read"`

		// Request max duration to WAIT BEFORE CANCELING A REQUEST,
		// default: 1s. Needs to be smaller than `Read`.
		Request time.Duration `json:"request" mapstructure:"request" validate:"ltfield=Read"`

		// ShutdownInFlight max duration to WAIT IN-FLIGHT REQUESTS,
		// default: 3s.
		ShutdownInFlight time.Duration `json:"shutdown_in_flight" mapstructure:"shutdown_in_flight"`

		// ShutdownTask max duration TO WAIT for tasks such as flushing
		// logs, and telemetry, default: 10s.
		ShutdownTask time.Duration `json:"shutdown_task" mapstructure:"shutdown_task"`

		// Write max duration for WRITING the response, default: 3s.
		Write time.Duration `json:"write" mapstructure:"write"`
	} `json:"timeout" mapstructure:"timeout"`

	// Metrics toggles expvar metrics.
	Metrics struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	} `json:"metrics" mapstructure:"metrics"`

	// Telemetry settings.
	Telemetry struct {
		// Enabled toggles tracing.
		Enabled bool `json:"enabled" mapstructure:"enabled"`

		// ServiceName announced to the tracing backend. Empty means the
		// application name.
		ServiceName string `json:"service_name" mapstructure:"service_name"`

		// SamplingRatio applied outside Development, default: 0.1.
		SamplingRatio float64 `json:"sampling_ratio" mapstructure:"sampling_ratio" validate:"gte=0,lte=1"`
	} `json:"telemetry" mapstructure:"telemetry"`

	// Secrets source selection.
	Secrets secretSettings `json:"secrets" mapstructure:"secrets"`

	v *viper.Viper
}

// Get returns the value for an arbitrary key, `nil` if unset.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns the string value for an arbitrary key.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetBool returns the bool value for an arbitrary key.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetInt returns the int value for an arbitrary key.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetDuration returns the duration value for an arbitrary key.
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// IsSet checks whether any layer provides the key.
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

//////
// Options.
//////

// loader accumulates the optional source settings.
type loader struct {
	baseName          string
	keyPerFileDir     string
	secretsForced     bool
	secretsPath       string
	telemetrySettings map[string]interface{}
}

// Option allows to define options for the loader.
type Option func(l *loader)

// WithBaseName overrides the settings files base name, default:
// `appsettings`.
func WithBaseName(name string) Option {
	return func(l *loader) {
		l.baseName = name
	}
}

// WithKeyPerFileDirectory adds the optional key-per-file directory source.
func WithKeyPerFileDirectory(dir string) Option {
	return func(l *loader) {
		l.keyPerFileDir = dir
	}
}

// WithSecretsPath overrides the developer secrets file location.
func WithSecretsPath(path string) Option {
	return func(l *loader) {
		l.secretsPath = path
	}
}

// WithSecretsForced loads the secrets layer regardless of environment.
func WithSecretsForced() Option {
	return func(l *loader) {
		l.secretsForced = true
	}
}

// WithTelemetrySettings adds the optional telemetry settings layer. Keys are
// dotted configuration keys.
func WithTelemetrySettings(settings map[string]interface{}) Option {
	return func(l *loader) {
		l.telemetrySettings = settings
	}
}

//////
// Factory.
//////

// Load builds the application configuration for the given host, and
// environment name, applying the layer order documented at the package
// level. Configuration files are resolved against the host's content root.
func Load(host *Host, environment string, opts ...Option) (*Config, error) {
	l := &loader{baseName: DefaultBaseName}

	for _, opt := range opts {
		opt(l)
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigType("json")

	// Layers 1, and 2: settings files, by base name, then by environment
	// name.
	files := []string{
		filepath.Join(host.ContentRoot, l.baseName+".json"),
		filepath.Join(host.ContentRoot, l.baseName+"."+environment+".json"),
	}

	for _, file := range files {
		// Optional sources: only a present-but-broken file is fatal.
		if _, err := os.Stat(file); err != nil {
			continue
		}

		v.SetConfigFile(file)

		if err := v.MergeInConfig(); err != nil {
			return nil, customerror.NewFailedToError(
				"load "+file,
				customerror.WithError(err),
			)
		}
	}

	// Layer 3: key-per-file directory.
	if l.keyPerFileDir != "" {
		settings, err := loadKeyPerFile(l.keyPerFileDir)
		if err != nil {
			return nil, err
		}

		if len(settings) > 0 {
			if err := v.MergeConfigMap(settings); err != nil {
				return nil, err
			}
		}
	}

	// Layer 4: environment variables, resolved at read time.
	// `logging.console_level` reads `LOGGING__CONSOLE_LEVEL`.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Layer 5: developer secrets, Development only unless forced.
	if strings.EqualFold(environment, developmentEnvironment) || l.secretsForced {
		var settings secretSettings

		if err := v.UnmarshalKey("secrets", &settings, weaklyTyped); err != nil {
			return nil, err
		}

		if settings.ID == "" {
			settings.ID = host.ApplicationName
		}

		source, err := newSecretSource(l, settings)
		if err != nil {
			return nil, err
		}

		secrets, err := source.Load()
		if err != nil {
			return nil, err
		}

		overrideAll(v, secrets)
	}

	// Layer 6: telemetry settings.
	overrideAll(v, l.telemetrySettings)

	// Layer 7: command line always wins.
	for _, kv := range host.Overrides() {
		v.Set(kv.Key, kv.Value)
	}

	c := &Config{v: v}

	if err := v.Unmarshal(c, weaklyTyped); err != nil {
		return nil, customerror.NewFailedToError(
			"decode configuration",
			customerror.WithError(err),
		)
	}

	return c, nil
}

// weaklyTyped lets string-only layers (environment variables, and the command
// line) decode into bool, and numeric fields.
func weaklyTyped(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = true
}

// setDefaults registers the hosting defaults. Every typed key has a default
// so environment-only values survive decoding.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":4446")
	v.SetDefault("server.compression", false)
	v.SetDefault("server.proxy_headers", false)

	v.SetDefault("logging.console_level", "error")
	v.SetDefault("logging.request_level", "error")
	v.SetDefault("logging.filepath", "")

	v.SetDefault("timeout.read", 3*time.Second)
	v.SetDefault("timeout.request", 1*time.Second)
	v.SetDefault("timeout.shutdown_in_flight", 3*time.Second)
	v.SetDefault("timeout.shutdown_task", 10*time.Second)
	v.SetDefault("timeout.write", 3*time.Second)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "")
	v.SetDefault("telemetry.sampling_ratio", 0.1)

	v.SetDefault("secrets.provider", SecretProviderFile)
	v.SetDefault("secrets.id", "")
	v.SetDefault("secrets.keys", []string{})
	v.SetDefault("secrets.vault.address", "")
	v.SetDefault("secrets.vault.token", "")
	v.SetDefault("secrets.vault.path", "")
}

// overrideAll applies a possibly-nested settings map at the override level,
// deterministically ordered.
func overrideAll(v *viper.Viper, settings map[string]interface{}) {
	flat := map[string]interface{}{}

	flatten("", settings, flat)

	keys := make([]string, 0, len(flat))

	for key := range flat {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		v.Set(key, flat[key])
	}
}

// flatten converts nested maps into dotted keys.
func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for key, value := range in {
		full := normalizeKey(key)

		if prefix != "" {
			full = prefix + "." + full
		}

		if nested, ok := value.(map[string]interface{}); ok {
			flatten(full, nested, out)

			continue
		}

		out[full] = value
	}
}
