// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package hostkit

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/saucelabs/customerror"
	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/level"
	"github.com/saucelabs/sypl/output"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/hostkit/hostkit/config"
	"github.com/hostkit/hostkit/handler"
	"github.com/hostkit/hostkit/internal/middleware"
	"github.com/hostkit/hostkit/internal/validation"
	"github.com/hostkit/hostkit/logging"
	"github.com/hostkit/hostkit/metric"
	"github.com/hostkit/hostkit/telemetry"
)

//////
// Const, and vars.
//////

const (
	defaultAddress             = ":4446"
	defaultTimeout             = 3 * time.Second
	defaultRequestTimeout      = 1 * time.Second
	defaultShutdownTaskTimeout = 10 * time.Second
	defaultSamplingRatio       = 0.1
	frameworkName              = "hostkit"

	// DefaultEnvPrefix is the prefix of the host-level environment variables,
	// e.g.: `HOSTKIT_ENVIRONMENT`.
	DefaultEnvPrefix = "HOSTKIT_"
)

// ErrRequestTimeout indicates a request failed to finish, it timed out.
var ErrRequestTimeout = customerror.NewFailedToError(
	"finish request, timed out",
	customerror.WithStatusCode(http.StatusRequestTimeout),
)

//////
// Interfaces.
//////

// IServer defines what a server does.
type IServer interface {
	// GetEnvironment returns the environment descriptor.
	GetEnvironment() *Environment

	// GetLogger returns the server logger.
	GetLogger() sypl.ISypl

	// GetRouter returns the server router.
	GetRouter() *mux.Router

	GetTelemetry() telemetry.ITelemetry

	// Start the server.
	Start() error
}

//////
// Definitions.
//////

// Logging definition.
type Logging struct {
	// ConsoleLevel defines the level for the `Console` output.
	ConsoleLevel string `json:"console_level" validate:"required,gte=3,oneof=none fatal error info warn debug trace"`

	// RequestLevel defines the level for logging requests.
	RequestLevel string `json:"request_level" validate:"required,gte=3,oneof=none fatal error info warn debug trace"`

	// Filepath is the file path to optionally write logs.
	Filepath string `json:"filepath" validate:"omitempty,gte=3"`
}

// Timeout definition.
type Timeout struct {
	// Read max duration for READING the entire request, including the body,
	// default: 3s.
	Read time.Duration `json:"read"`

	// Request max duration to WAIT BEFORE CANCELING A REQUEST, default: 1s.
	//
	// NOTE: It's automatically validated against other timeouts, and needs to
	// be smaller.
	Request time.Duration `json:"request" validate:"ltfield=Read"`

	// ShutdownInFlight max duration to WAIT IN-FLIGHT REQUESTS, default: 3s.
	ShutdownInFlight time.Duration `json:"shutdown_in_flight"`

	// ShutdownTask max duration TO WAIT for tasks such as flushing logs, and
	// telemetry, default: 10s.
	ShutdownTask time.Duration `json:"shutdown_task"`

	// Write max duration for WRITING the response, default: 3s.
	Write time.Duration `json:"write"`
}

// Server definition.
type Server struct {
	// Address is a TCP address to listen on, default: ":4446".
	Address string `json:"address" validate:"tcp_addr"`

	// Name of the server.
	Name string `json:"name" validate:"required,gte=3"`

	// EnableCompression compresses responses when the client accepts it,
	// default: false.
	EnableCompression bool `json:"enable_compression"`

	// EnableMetrics controls whether metrics are enable, or not, default: true.
	EnableMetrics bool `json:"enable_metrics"`

	// EnableTelemetry controls whether telemetry are enable, or not,
	// default: true.
	EnableTelemetry bool `json:"enable_telemetry"`

	// SuppressIdentity strips identifying response headers, default: true.
	SuppressIdentity bool `json:"suppress_identity"`

	// TrustProxyHeaders honors `X-Forwarded-*` headers, default: false.
	TrustProxyHeaders bool `json:"trust_proxy_headers"`

	// Logging fine-control.
	*Logging `json:"logging" validate:"required"`

	// Timeouts fine-control.
	*Timeout `json:"timeout" validate:"required"`

	// Resolved configuration, only set on the bootstrap (`Run`) path.
	config *config.Config `json:"-"`

	// Sources the configuration loader consults.
	configOptions []config.Option `json:"-"`

	// Environment descriptor.
	environment *Environment `json:"-" validate:"required"`

	// Prefix of the host-level environment variables.
	envPrefix string `json:"-"`

	// Two-phase logging pipeline powered by Sypl.
	logging *logging.Handle `json:"-" validate:"required"`

	// Extra outputs observing both logging phases.
	logOutputs []output.IOutput `json:"-"`

	// Handlers added, and configured before the server starts.
	preLoadedHandlers []handler.Handler `json:"-"`

	// Router powered by Gorilla Mux.
	router *mux.Router `json:"-" validate:"required"`

	// HTTP server powered by Golang's built-in http server.
	server http.Server `json:"-"`

	// Application collaborator, invoked exactly once.
	startup Startup `json:"-"`

	// Telemetry powered by OpenTelemetry.
	telemetry telemetry.ITelemetry `json:"-"`
}

//////
// IServer implementation.
//////

// GetEnvironment returns the environment descriptor.
func (s *Server) GetEnvironment() *Environment {
	return s.environment
}

// GetLogger returns the server logger.
func (s *Server) GetLogger() sypl.ISypl {
	return s.logging.Logger()
}

// GetRouter returns the server router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetTelemetry returns telemetry.
func (s *Server) GetTelemetry() telemetry.ITelemetry {
	return s.telemetry
}

// Start the server.
func (s *Server) Start() error {
	// Instantiate the underlying HTTP server.
	s.server = http.Server{
		Addr: s.Address,
		Handler: http.TimeoutHandler(
			s.GetRouter(),
			s.Timeout.Request,
			ErrRequestTimeout.Error(),
		),

		// Best practice setting timeouts. It avoid "slowloris" attacks.
		ReadTimeout:  s.Timeout.Read,
		WriteTimeout: s.Timeout.Write,
	}

	serverErr := make(chan error, 1)

	// Non-blocking server start up.
	go func() {
		s.GetLogger().Debuglnf("server is about to start @ %s", s.Address)
		serverErr <- s.server.ListenAndServe()
	}()

	// Listen for "catchable" OS signals, forget SIGKILL...
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(osSignals)

	// Block execution, and listen for any server errors (e.g.: "port in use"),
	// or OS signals.
	select {
	// These errors don't require graceful shutdown.
	case err := <-serverErr:
		return err
	case sig := <-osSignals:
		const crtlCmsg = "press ctrl+c to stop anyway"

		s.logging.Logger().PrintNewLine()
		s.GetLogger().Tracelnf("Got %s signal, gracefully shutting down", sig)
		s.GetLogger().Tracelnf("Waiting %s for inflight requests to finish, %s", s.ShutdownInFlight, crtlCmsg)

		// Let Go terminate the program if we get that signal again.
		signal.Reset(sig)

		ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownInFlight)
		defer cancel()

		var shutdownErr error

		s.server.SetKeepAlivesEnabled(false)

		// Attempt to gracefully shutdown by closing the listener, waiting the
		// completion of all inflight requests.
		if err := s.server.Shutdown(ctx); err != nil {
			if isTimeoutError(err) {
				shutdownErr = customerror.NewFailedToError(
					"gracefully shutdown, timeout reached. Stopping hard...",
					customerror.WithError(err),
				)
			} else {
				shutdownErr = err
			}

			// Well.. KIH: Kill It Hard.
			if err := s.server.Close(); err != nil {
				shutdownErr = customerror.NewFailedToError(
					"hardly shutdown the server",
					customerror.WithError(err),
				)
			}
		}

		if shutdownErr != nil {
			return shutdownErr
		}

		// Wait for tasks such as flushing logs, and telemetry.
		s.GetLogger().Tracelnf("Waiting %s for tasks, %s", s.ShutdownTask, crtlCmsg)

		time.Sleep(s.ShutdownTask)

		// If reaches here, error can be safely collected.
		return <-serverErr
	}
}

//////
// Helpers.
//////

// isTimeoutError checks whether the error is a deadline being reached.
func isTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// addHandler registers handlers in the router.
func addHandler(router *mux.Router, handlers ...handler.Handler) {
	for _, h := range handlers {
		router.HandleFunc(h.Path, h.Handler).Methods(h.Method)
	}
}

// publishServerMetrics publishes the server's information metric. ExpVar
// panics on re-registration, so an already-published name is left alone.
func publishServerMetrics(s *Server) {
	if expvar.Get("server") != nil {
		return
	}

	m, err := metric.New("server", metric.Server(s.Address, s.Name, s.environment.Name, os.Getpid()))
	if err != nil {
		s.GetLogger().Errorlnf("publish server metrics: %v", err)

		return
	}

	m.Publish()
}

// complete finishes the server setup: middlewares, telemetry, validation,
// pre-loaded handlers, and metrics. The logging pipeline must already be
// promoted.
func (s *Server) complete() error {
	//////
	// Middlewares. Registration order is execution order.
	//////

	s.router.Use(middleware.Logger(
		s.logging.Logger().New(s.Name),
		s.logging.RequestLevel(),
	))

	if s.SuppressIdentity {
		s.router.Use(middleware.SuppressIdentity())
	}

	if s.EnableCompression {
		s.router.Use(middleware.Compression())
	}

	if s.TrustProxyHeaders {
		s.router.Use(middleware.ProxyHeaders())
	}

	//////
	// Telemetry.
	//////

	if s.EnableTelemetry {
		if s.GetTelemetry() == nil {
			serviceName := s.Name

			ratio := defaultSamplingRatio

			if s.config != nil {
				if s.config.Telemetry.ServiceName != "" {
					serviceName = s.config.Telemetry.ServiceName
				}

				ratio = s.config.Telemetry.SamplingRatio
			}

			t, err := telemetry.NewForEnvironment(serviceName, s.environment.Name, ratio)
			if err != nil {
				return err
			}

			s.telemetry = t
		}

		s.GetRouter().Use(otelmux.Middleware(s.Name))
	}

	//////
	// Validation. Strict dependency checking is a Development-only cost.
	//////

	if s.environment.IsDevelopment() {
		if err := validation.ValidateStruct(s); err != nil {
			return err
		}
	}

	//////
	// Load handlers.
	//////

	addHandler(s.GetRouter(), s.preLoadedHandlers...)

	//////
	// Server metrics. `cmdline`, and `memstats` are published by the expvar
	// runtime itself.
	//////

	if s.EnableMetrics {
		publishServerMetrics(s)

		// Gorilla Mux exp var route registration.
		addHandler(s.GetRouter(), handler.ExpVar())
	}

	return nil
}

//////
// Factory.
//////

// newServer builds the server skeleton: defaults, then options.
func newServer(name, address string, opts ...Option) *Server {
	s := &Server{
		Address:          address,
		EnableMetrics:    true,
		EnableTelemetry:  true,
		SuppressIdentity: true,
		Logging: &Logging{
			ConsoleLevel: level.Error.String(),
			RequestLevel: level.Error.String(),
			Filepath:     "",
		},
		Name: name,
		Timeout: &Timeout{
			Read:             defaultTimeout,
			Request:          defaultRequestTimeout,
			ShutdownInFlight: defaultTimeout,
			ShutdownTask:     defaultShutdownTaskTimeout,
			Write:            defaultTimeout,
		},

		environment:       NewEnvironment("", name, ""),
		envPrefix:         DefaultEnvPrefix,
		preLoadedHandlers: []handler.Handler{handler.OK(), handler.Liveness(), handler.Stop()},
		router:            mux.NewRouter(),
	}

	//////
	// Options processing.
	//////

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// New is the web server factory. It returns a web server with observability:
// - Metrics: `cmdline`, `memstats`, and `server`.
// - Telemetry: environment-routed `stdout` exporter.
// - Logging: `error`, no file.
// - Pre-loaded handlers (Liveness, OK, and Stop).
//
// New skips the configuration layers; `Run` is the configuration-driven path.
func New(
	name, address string,
	opts ...Option,
) (IServer, error) {
	s := newServer(name, address, opts...)

	//////
	// Logging.
	//////

	s.logging = logging.NewBootstrap(frameworkName, s.logOutputs...)

	if err := s.logging.Promote(logging.Settings{
		ConsoleLevel: s.Logging.ConsoleLevel,
		RequestLevel: s.Logging.RequestLevel,
		Filepath:     s.Logging.Filepath,
	}, s.environment.Name, s.environment.ApplicationName); err != nil {
		return nil, err
	}

	if err := s.complete(); err != nil {
		return nil, err
	}

	return s, nil
}

// NewBasic returns a basic web server without observability:
// - Metrics
// - Telemetry
// - Pre-loaded handlers (Liveness, OK, and Stop).
func NewBasic(name, address string, opts ...Option) (IServer, error) {
	// Merge default options with new ones (`opts`).
	finalOpts := append([]Option{
		WithoutMetrics(),
		WithoutTelemetry(),
		WithoutPreLoadedHandlers(),
	}, opts...)

	return New(name, address, finalOpts...)
}
