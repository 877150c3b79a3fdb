// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package hostkit

import (
	"github.com/gorilla/mux"
	"github.com/hostkit/hostkit/config"
)

// Startup is the application collaborator. It receives the resolved
// configuration, and the router, exactly once, after the transport is
// configured, and before the server starts listening.
type Startup interface {
	// Configure registers the application's services, and routes.
	Configure(cfg *config.Config, router *mux.Router) error
}

// StartupFunc adapts a plain function to the Startup interface.
type StartupFunc func(cfg *config.Config, router *mux.Router) error

// Configure registers the application's services, and routes.
func (f StartupFunc) Configure(cfg *config.Config, router *mux.Router) error {
	return f(cfg, router)
}
