// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// Package metric publishes process metrics through the standard `expvar`
// registry, served at `/debug/vars`.
package metric

import (
	"expvar"

	"github.com/hostkit/hostkit/internal/validation"
)

//////
// Definition.
//////

// Metric definition.
type Metric struct {
	// Name of the metric.
	Name string `json:"name" validate:"required"`

	// Var is a valid ExpVar.
	Var expvar.Var `json:"var" validate:"required"`
}

// Publish registers the metric in the process registry. Publishing the same
// name twice is an `expvar` runtime error, so callers own name uniqueness.
func (m *Metric) Publish() {
	expvar.Publish(m.Name, m.Var)
}

//////
// Metrics.
//////

// Server information.
func Server(address, name, environment string, pid int) expvar.Func {
	return func() interface{} {
		return struct {
			// Server address.
			Address string `json:"Address"`

			// Server name.
			Name string `json:"Name"`

			// Environment the server runs in.
			Environment string `json:"Environment"`

			// Server PID.
			PID int `json:"PID"`
		}{
			address, name, environment, pid,
		}
	}
}

//////
// Factory.
//////

// New is the Metric factory.
func New(name string, v expvar.Var) (*Metric, error) {
	m := &Metric{
		Name: name,
		Var:  v,
	}

	if err := validation.ValidateStruct(m); err != nil {
		return nil, err
	}

	return m, nil
}
