// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

//////
// Const, and vars.
//////

const (
	globalTracerName = "global"

	developmentEnvironment = "Development"
)

//////
// Helpers.
//////

// Initializes the built-in tracer: pretty-printed stdout exporter, every
// trace sampled.
func initializeBuiltInTracer() (*sdktrace.TracerProvider, error) {
	exporter, err := stdout.New(stdout.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	builtInTracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)

	return builtInTracerProvider, nil
}

// newResource describes the traced service: name, and deployment mode.
func newResource(serviceName, environmentName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(environmentName),
	)
}

//////
// Interface.
//////

// ITelemetry defines what a Telemetry does.
type ITelemetry interface {
	// GetGlobalTracer returns the global tracer.
	GetGlobalTracer() trace.Tracer

	// GetTracer retrieves a tracer. If the retrieved tracer doesn't exist, the
	// global tracer is returned.
	GetTracer(name string) trace.Tracer

	// NewTracer creates a tracer from the current provider.
	NewTracer(name string) trace.Tracer

	// Shutdown flushes, and stops the provider, if owned.
	Shutdown(ctx context.Context) error
}

//////
// Definition.
//////

// Telemetry definition.
type Telemetry struct {
	// Provider accesses/consumes instrumentation.
	//
	// SEE: https://opentelemetry.io/docs/instrumentation/go/exporting_data/
	Provider trace.TracerProvider

	// TextMapPropagator propagates cross-cutting concerns as key-value text.
	//
	// SEE: https://opentelemetry.io/docs/instrumentation/go/manual/#propagators-and-context
	TextMapPropagator []propagation.TextMapPropagator

	// Contains a map of tracers. By default, a global tracer is provided.
	// A tracer creates Spans.
	tracers sync.Map
}

//////
// ITelemetry implementation.
//////

// NewTracer creates a tracer from the current provider.
func (t *Telemetry) NewTracer(name string) trace.Tracer {
	tracer := t.Provider.Tracer(name)

	t.tracers.Store(name, tracer)

	return tracer
}

// GetTracer retrieves a tracer. If the retrieved tracer doesn't exist, the
// global tracer is returned.
func (t *Telemetry) GetTracer(name string) trace.Tracer {
	if tracer, ok := t.tracers.Load(name); ok {
		return tracer.(trace.Tracer)
	}

	return t.GetGlobalTracer()
}

// GetGlobalTracer returns the global tracer.
func (t *Telemetry) GetGlobalTracer() trace.Tracer {
	return t.GetTracer(globalTracerName)
}

// Shutdown flushes, and stops the provider, if owned.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if sdkProvider, ok := t.Provider.(*sdktrace.TracerProvider); ok {
		return sdkProvider.Shutdown(ctx)
	}

	return nil
}

//////
// Factory.
//////

// New is Telemetry factory.
func New(
	name string,
	provider trace.TracerProvider,
	textMapPropagators ...propagation.TextMapPropagator,
) (*Telemetry, error) {
	telemetry := &Telemetry{
		Provider:          provider,
		TextMapPropagator: textMapPropagators,
	}

	telemetry.tracers.Store(globalTracerName, otel.Tracer(name))

	otel.SetTracerProvider(telemetry.Provider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(telemetry.TextMapPropagator...))

	return telemetry, nil
}

// NewDefault returns a telemetry with the default tracer, the built-in from the
// SDK which exports to `stdout`, and samples every trace.
func NewDefault(name string) (*Telemetry, error) {
	builtInTracerProvider, err := initializeBuiltInTracer()
	if err != nil {
		return nil, err
	}

	return New(
		name,
		builtInTracerProvider,
		propagation.TraceContext{}, propagation.Baggage{},
	)
}

// NewForEnvironment returns a telemetry routed by deployment mode: in
// Development every trace is sampled, and pretty-printed; anywhere else spans
// are sampled at the given ratio, and compactly encoded. Both carry the
// service name, and environment as resource metadata.
func NewForEnvironment(
	serviceName, environmentName string,
	samplingRatio float64,
) (*Telemetry, error) {
	var opts []stdout.Option

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRatio))

	if strings.EqualFold(environmentName, developmentEnvironment) {
		opts = append(opts, stdout.WithPrettyPrint())

		sampler = sdktrace.AlwaysSample()
	}

	exporter, err := stdout.New(opts...)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(serviceName, environmentName)),
	)

	return New(
		serviceName,
		provider,
		propagation.TraceContext{}, propagation.Baggage{},
	)
}

// Settings is the configuration layer contributed when telemetry is enabled.
// Keys are dotted configuration keys.
func Settings(serviceName, environmentName string) map[string]interface{} {
	return map[string]interface{}{
		"telemetry.service_name": serviceName,
		"telemetry.environment":  environmentName,
	}
}
