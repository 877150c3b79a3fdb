// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.
//
// It follows Rob Spike, and Dave Cheney design pattern for options.
//
// - Sensible defaults.
// - Highly configurable.
// - Allows anyone to easily implement their own options.
// - Can grow over time.
// - Self-documenting.
// - Safe for newcomers.
// - Never requires `nil` or an `empty` value to keep the compiler happy.
//
// SEE: https://commandcenter.blogspot.com/2014/01/self-referential-functions-and-design.html
// SEE: https://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis

package hostkit

import (
	"expvar"
	"time"

	"github.com/saucelabs/sypl/output"

	"github.com/hostkit/hostkit/config"
	"github.com/hostkit/hostkit/handler"
	"github.com/hostkit/hostkit/telemetry"
)

// Option allows to define options for the Server.
type Option func(s *Server)

// WithTimeout sets the maximum duration for each individual timeouts.
func WithTimeout(read, request, inflight, tasks, write time.Duration) Option {
	return func(s *Server) {
		s.Timeout.Read = read
		s.Timeout.Request = request
		s.Timeout.ShutdownInFlight = inflight
		s.Timeout.ShutdownTask = tasks
		s.Timeout.Write = write
	}
}

// WithLogging sets the logging fine-control.
func WithLogging(consoleLevel, requestLevel, filepath string) Option {
	return func(s *Server) {
		s.Logging.ConsoleLevel = consoleLevel
		s.Logging.RequestLevel = requestLevel
		s.Logging.Filepath = filepath
	}
}

// WithLogOutputs adds extra log outputs observing both the bootstrap, and the
// operational logging phases.
//
// NOTE: Use `output.New` to bring your own output.
func WithLogOutputs(outputs ...output.IOutput) Option {
	return func(s *Server) {
		s.logOutputs = append(s.logOutputs, outputs...)
	}
}

// WithTelemetry sets telemetry.
//
// NOTE: Use `telemetry.New` to bring your own telemetry.
// SEE: https://opentelemetry.io/vendors
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// WithoutTelemetry disables telemetry.
func WithoutTelemetry() Option {
	return func(s *Server) {
		s.EnableTelemetry = false
	}
}

// WithoutMetrics disables metrics.
func WithoutMetrics() Option {
	return func(s *Server) {
		s.EnableMetrics = false
	}
}

// WithoutIdentitySuppression keeps identifying response headers.
func WithoutIdentitySuppression() Option {
	return func(s *Server) {
		s.SuppressIdentity = false
	}
}

// WithEnvironment sets the environment name, default: `Production`.
//
// NOTE: On the `Run` path the host-level environment variable wins.
func WithEnvironment(name string) Option {
	return func(s *Server) {
		s.environment = NewEnvironment(
			name,
			s.environment.ApplicationName,
			s.environment.ContentRoot,
		)
	}
}

// WithEnvPrefix sets the prefix of the host-level environment variables,
// default: `HOSTKIT_`.
func WithEnvPrefix(prefix string) Option {
	return func(s *Server) {
		s.envPrefix = prefix
	}
}

// WithConfigOptions adds sources to the configuration loader.
func WithConfigOptions(opts ...config.Option) Option {
	return func(s *Server) {
		s.configOptions = append(s.configOptions, opts...)
	}
}

// WithStartup sets the application collaborator, invoked exactly once before
// the server starts listening.
func WithStartup(startup Startup) Option {
	return func(s *Server) {
		s.startup = startup
	}
}

// WithReadiness sets server readiness. Returning any non-nil error means server
// isn't ready.
func WithReadiness(readinessFunc handler.ReadinessFunc) Option {
	return func(s *Server) {
		s.preLoadedHandlers = append(s.preLoadedHandlers, handler.Readiness(readinessFunc))
	}
}

// WithHandlers adds a handler to the pre-loaded handlers.
//
// NOTE: Use `handler.New` to add handlers
func WithHandlers(handlers ...handler.Handler) Option {
	return func(s *Server) {
		s.preLoadedHandlers = append(s.preLoadedHandlers, handlers...)
	}
}

// WithoutPreLoadedHandlers removes the pre-loaded handlers.
func WithoutPreLoadedHandlers() Option {
	return func(s *Server) {
		s.preLoadedHandlers = []handler.Handler{}
	}
}

// WithMetricsRaw allows to publishes metrics based on exp vars. It's useful for
// cases such as counters. It gives full control over what's being exposed.
func WithMetricsRaw(name string, metrics expvar.Var) Option {
	return func(s *Server) {
		expvar.Publish(name, metrics)
	}
}

// WithMetrics provides a quick way to publish static metric values.
func WithMetrics(name string, v interface{}) Option {
	return func(s *Server) {
		expvar.Publish(name, expvar.Func(func() interface{} {
			return v
		}))
	}
}
