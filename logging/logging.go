// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// Package logging runs the two-phase logging pipeline: a bootstrap logger
// usable before any configuration exists, promoted exactly once to the
// operational pipeline built from configuration.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/saucelabs/customerror"
	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/level"
	"github.com/saucelabs/sypl/output"
	"github.com/saucelabs/sypl/processor"
	"github.com/saucelabs/sypl/status"
)

//////
// Const, and vars.
//////

const developmentEnvironment = "Development"

//////
// Definitions.
//////

// Settings is the operational pipeline configuration.
type Settings struct {
	// ConsoleLevel defines the level for the `Console` output.
	ConsoleLevel string

	// RequestLevel defines the level for logging requests.
	RequestLevel string

	// Filepath is the file path to optionally write logs. The special `-`
	// value makes the file output behave as console.
	Filepath string
}

// Handle is the logging handle passed through the bootstrap sequence. It
// starts in the bootstrap phase - console, and a stderr trace sink - and is
// promoted once to the operational pipeline. Closing flushes sinks exactly
// once, on every exit path.
type Handle struct {
	mu sync.RWMutex

	name         string
	logger       *sypl.Sypl
	promoted     bool
	requestLevel level.Level
	extras       []output.IOutput

	closeOnce sync.Once
	onClose   []func()
}

// Logger returns the current phase's logger.
func (h *Handle) Logger() *sypl.Sypl {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.logger
}

// RequestLevel returns the level requests are logged at, `error` until
// promotion.
func (h *Handle) RequestLevel() level.Level {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.promoted {
		return level.Error
	}

	return h.requestLevel
}

// Promote replaces the bootstrap logger with the operational pipeline. It's
// the single controlled handoff: calling it twice is an error.
//
// Sinks are conditional on the environment: outside Development the console
// is restricted to errors, and the configured file sink carries the full
// stream; in Development the console keeps the configured level.
func (h *Handle) Promote(settings Settings, environmentName, applicationName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.promoted {
		return customerror.NewFailedToError("promote logging twice")
	}

	consoleLevel, err := level.FromString(settings.ConsoleLevel)
	if err != nil {
		return customerror.NewInvalidError(
			"console level: "+settings.ConsoleLevel,
			customerror.WithError(err),
		)
	}

	requestLevel, err := level.FromString(settings.RequestLevel)
	if err != nil {
		return customerror.NewInvalidError(
			"request level: "+settings.RequestLevel,
			customerror.WithError(err),
		)
	}

	development := strings.EqualFold(environmentName, developmentEnvironment)

	if !development && consoleLevel > level.Error {
		consoleLevel = level.Error
	}

	enrich := processor.Prefixer(
		fmt.Sprintf("[%s@%s] ", applicationName, environmentName),
	)

	l := sypl.NewDefault(
		h.name,
		consoleLevel,
		enrich,
		processor.ChangeFirstCharCase(processor.Lowercase),
	)

	// Only enable File output if path is set.
	if settings.Filepath != "" {
		l.AddOutputs(output.File(
			settings.Filepath,
			fileLevel(settings, development),
			enrich,
			processor.ChangeFirstCharCase(processor.Lowercase),
		))

		// "-" special case makes the File Output behave as Console, also
		// writing to `stdout` causing duplicated messages.
		if settings.Filepath == "-" {
			l.GetOutput("Console").SetStatus(status.Disabled)
		}
	}

	// Extra outputs carry the enrichment from promotion on.
	for _, extra := range h.extras {
		extra.AddProcessors(enrich)
	}

	l.AddOutputs(h.extras...)

	h.logger = l
	h.promoted = true
	h.requestLevel = requestLevel

	return nil
}

// OnClose registers a hook invoked during the single flush.
func (h *Handle) OnClose(f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onClose = append(h.onClose, f)
}

// Close flushes, and tears down the sinks. Safe to call on every exit path:
// only the first call does work.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		h.mu.RLock()
		hooks := h.onClose
		h.mu.RUnlock()

		for _, f := range hooks {
			f()
		}

		// Console sinks are line-buffered at the OS level; make the
		// buffered entries durable before the process exits.
		_ = os.Stdout.Sync()
		_ = os.Stderr.Sync()
	})
}

// fileLevel picks the file sink verbosity: full stream outside Development.
func fileLevel(settings Settings, development bool) level.Level {
	lvl, err := level.FromString(settings.ConsoleLevel)
	if err != nil {
		lvl = level.Error
	}

	if !development && lvl < level.Info {
		lvl = level.Info
	}

	return lvl
}

//////
// Factory.
//////

// NewBootstrap returns the bootstrap-phase handle: a best-effort logger
// writing to console, and a stderr trace sink, usable before any
// configuration is available. Extra outputs observe both phases.
func NewBootstrap(name string, extras ...output.IOutput) *Handle {
	l := sypl.NewDefault(
		name,
		level.Info,
		processor.ChangeFirstCharCase(processor.Lowercase),
	)

	l.AddOutputs(output.New("StdErr", level.Trace, os.Stderr))

	l.AddOutputs(extras...)

	return &Handle{
		name:   name,
		logger: l,
		extras: extras,
	}
}
