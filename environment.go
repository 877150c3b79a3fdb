// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package hostkit

import "strings"

//////
// Const, and vars.
//////

const (
	// EnvironmentDevelopment enables strict validation, developer secrets,
	// and console-oriented logging.
	EnvironmentDevelopment = "Development"

	// EnvironmentStaging is a pre-production deployment mode.
	EnvironmentStaging = "Staging"

	// EnvironmentProduction is the default deployment mode.
	EnvironmentProduction = "Production"
)

//////
// Definition.
//////

// Environment describes the deployment mode the host runs in. It's resolved
// from host configuration during bootstrap, and is immutable afterwards.
type Environment struct {
	// Name of the deployment mode, e.g.: `Development`, `Staging`, or
	// `Production`.
	Name string `json:"name" validate:"required"`

	// ApplicationName is the product name announced in logs, metrics, and
	// telemetry.
	ApplicationName string `json:"application_name" validate:"required"`

	// ContentRoot is the directory configuration files are resolved against.
	ContentRoot string `json:"content_root" validate:"required"`
}

// IsDevelopment checks whether the environment is `Development`.
func (e *Environment) IsDevelopment() bool {
	return strings.EqualFold(e.Name, EnvironmentDevelopment)
}

// IsStaging checks whether the environment is `Staging`.
func (e *Environment) IsStaging() bool {
	return strings.EqualFold(e.Name, EnvironmentStaging)
}

// IsProduction checks whether the environment is `Production`.
func (e *Environment) IsProduction() bool {
	return strings.EqualFold(e.Name, EnvironmentProduction)
}

//////
// Factory.
//////

// NewEnvironment is the `Environment` factory. An empty name defaults to
// `Production`.
func NewEnvironment(name, applicationName, contentRoot string) *Environment {
	if name == "" {
		name = EnvironmentProduction
	}

	if contentRoot == "" {
		contentRoot = "."
	}

	return &Environment{
		Name:            name,
		ApplicationName: applicationName,
		ContentRoot:     contentRoot,
	}
}
