// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package hostkit

import (
	"context"
	"errors"
	"net/http"

	"github.com/hostkit/hostkit/config"
	"github.com/hostkit/hostkit/logging"
	"github.com/hostkit/hostkit/telemetry"
)

//////
// Const, and vars.
//////

const (
	// ExitCodeSuccess is the process exit code of a clean run.
	ExitCodeSuccess = 0

	// ExitCodeFailure is the process exit code of any failed run.
	ExitCodeFailure = 1
)

//////
// Exported functionalities.
//////

// Run is the process-host bootstrap. It builds the configuration layers,
// promotes logging, completes the server, invokes the `Startup` collaborator
// once, and blocks until the server stops. It returns the process exit code:
// `0` for a clean run, `1` for any failure. Log sinks are flushed exactly
// once, on every exit path.
func Run(name string, args []string, opts ...Option) int {
	s := newServer(name, defaultAddress, opts...)

	// Bootstrap-phase logging: best-effort, available before any
	// configuration exists.
	s.logging = logging.NewBootstrap(frameworkName, s.logOutputs...)

	defer s.logging.Close()

	//////
	// Host configuration: content root, application name, and environment.
	//////

	host, err := config.LoadHost(s.envPrefix, args)
	if err != nil {
		// No environment descriptor exists yet, so nothing identifies the
		// application.
		s.logging.Logger().Errorlnf(
			"application terminated unexpectedly while initialising: %v",
			err,
		)

		return ExitCodeFailure
	}

	if host.ApplicationName == "" {
		host.ApplicationName = name
	}

	s.environment = NewEnvironment(
		host.Environment,
		host.ApplicationName,
		host.ContentRoot,
	)

	env := s.environment

	// From here on failures name the application, and the environment.
	fatal := func(err error) int {
		s.logging.Logger().Errorlnf(
			"%s terminated unexpectedly in the %s environment: %v",
			env.ApplicationName, env.Name, err,
		)

		return ExitCodeFailure
	}

	s.logging.Logger().Infolnf(
		"initialising %s in the %s environment",
		env.ApplicationName, env.Name,
	)

	//////
	// Application configuration layers.
	//////

	cfgOpts := append([]config.Option{}, s.configOptions...)

	if s.EnableTelemetry {
		cfgOpts = append(cfgOpts, config.WithTelemetrySettings(
			telemetry.Settings(env.ApplicationName, env.Name),
		))
	}

	cfg, err := config.Load(host, env.Name, cfgOpts...)
	if err != nil {
		return fatal(err)
	}

	s.config = cfg

	//////
	// Logging promotion: the operational pipeline, built from configuration,
	// enriched with the application, and environment names.
	//////

	if err := s.logging.Promote(logging.Settings{
		ConsoleLevel: cfg.Logging.ConsoleLevel,
		RequestLevel: cfg.Logging.RequestLevel,
		Filepath:     cfg.Logging.Filepath,
	}, env.Name, env.ApplicationName); err != nil {
		return fatal(err)
	}

	//////
	// Transport settings from configuration.
	//////

	s.Address = cfg.Server.Address
	s.EnableCompression = cfg.Server.Compression
	s.TrustProxyHeaders = cfg.Server.ProxyHeaders

	s.Logging.ConsoleLevel = cfg.Logging.ConsoleLevel
	s.Logging.RequestLevel = cfg.Logging.RequestLevel
	s.Logging.Filepath = cfg.Logging.Filepath

	s.Timeout.Read = cfg.Timeout.Read
	s.Timeout.Request = cfg.Timeout.Request
	s.Timeout.ShutdownInFlight = cfg.Timeout.ShutdownInFlight
	s.Timeout.ShutdownTask = cfg.Timeout.ShutdownTask
	s.Timeout.Write = cfg.Timeout.Write

	s.EnableMetrics = s.EnableMetrics && cfg.Metrics.Enabled
	s.EnableTelemetry = s.EnableTelemetry && cfg.Telemetry.Enabled

	if err := s.complete(); err != nil {
		return fatal(err)
	}

	// Telemetry flushes with the other shutdown tasks, bounded by the task
	// timeout.
	if s.telemetry != nil {
		t := s.telemetry

		taskTimeout := s.Timeout.ShutdownTask

		s.logging.OnClose(func() {
			ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
			defer cancel()

			//nolint:errcheck
			t.Shutdown(ctx)
		})
	}

	//////
	// Application collaborator, exactly once.
	//////

	if s.startup != nil {
		if err := s.startup.Configure(cfg, s.GetRouter()); err != nil {
			return fatal(err)
		}
	}

	s.logging.Logger().Infolnf(
		"%s started in the %s environment @ %s",
		env.ApplicationName, env.Name, s.Address,
	)

	if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fatal(err)
	}

	s.logging.Logger().Infolnf("%s stopped", env.ApplicationName)

	return ExitCodeSuccess
}
