// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider selects the span exporter.
type Provider string

const (
	// NoopProvider records nothing (default).
	NoopProvider Provider = "noop"
	// StdoutProvider prints finished spans, for development.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports spans over OTLP/gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports spans over OTLP/HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

const instrumentationName = "rivaas.dev/relay/tracing"

// Tracer owns a tracer provider and the propagator used to continue
// incoming traces.
//
// New does not touch the global tracer provider unless
// WithGlobalTracerProvider is given.
type Tracer struct {
	cfg *config

	provider   trace.TracerProvider
	sdk        *sdktrace.TracerProvider
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// New returns a Tracer.
func New(opts ...Option) (*Tracer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	t := &Tracer{cfg: cfg, propagator: cfg.propagator}
	if t.propagator == nil {
		t.propagator = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}
	if err := t.initProvider(context.Background()); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if cfg.registerGlobal {
		otel.SetTracerProvider(t.provider)
		otel.SetTextMapPropagator(t.propagator)
	}
	t.tracer = t.provider.Tracer(instrumentationName)

	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return t
}

// Provider reports which exporter is in use.
func (t *Tracer) Provider() Provider {
	return t.cfg.provider
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// Propagator returns the propagator used to extract and inject context.
func (t *Tracer) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

// Start starts a span as a child of whatever span ctx carries.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// ForceFlush exports all finished spans that are still buffered.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}

	return t.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the provider owned by this Tracer. A
// provider supplied with WithTracerProvider is left alone.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	if err := t.sdk.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tracing: shutdown: %w", err)
	}

	return nil
}
