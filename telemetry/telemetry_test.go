// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"testing"
)

func TestTelemetry_tracers(t *testing.T) {
	telemetry, err := NewDefault("test")
	if err != nil {
		t.Fatal(err)
	}

	if telemetry.GetGlobalTracer() == nil {
		t.Fatal("Expect a global tracer")
	}

	// Unknown names fall back to the global tracer.
	if telemetry.GetTracer("unknown") != telemetry.GetGlobalTracer() {
		t.Fatal("Expect fallback to the global tracer")
	}

	created := telemetry.NewTracer("component")

	if telemetry.GetTracer("component") != created {
		t.Fatal("Expect the created tracer to be retrievable")
	}
}

func TestNewForEnvironment(t *testing.T) {
	tests := []struct {
		name string

		environmentName string
	}{
		{
			name: "Should work - Development",

			environmentName: "Development",
		},
		{
			name: "Should work - Production",

			environmentName: "Production",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			telemetry, err := NewForEnvironment("svc", tt.environmentName, 0.1)
			if err != nil {
				t.Fatal(err)
			}

			if telemetry.GetGlobalTracer() == nil {
				t.Fatal("Expect a global tracer")
			}

			if err := telemetry.Shutdown(context.Background()); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestSettings(t *testing.T) {
	settings := Settings("svc", "Staging")

	if settings["telemetry.service_name"] != "svc" {
		t.Fatalf("Expect service name, got %v", settings["telemetry.service_name"])
	}

	if settings["telemetry.environment"] != "Staging" {
		t.Fatalf("Expect environment, got %v", settings["telemetry.environment"])
	}
}
