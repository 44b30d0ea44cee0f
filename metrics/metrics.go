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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider selects the exporter.
type Provider string

const (
	// PrometheusProvider exposes metrics for scraping (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP/HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics periodically, for development.
	StdoutProvider Provider = "stdout"
)

const instrumentationName = "rivaas.dev/relay/metrics"

// DefaultDurationBuckets are the request duration histogram bounds, in
// seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Recorder owns a meter provider and the HTTP server instruments. All
// methods are safe for concurrent use.
//
// New does not touch the global meter provider unless
// WithGlobalMeterProvider is given.
type Recorder struct {
	cfg *config

	provider metric.MeterProvider
	sdk      *sdkmetric.MeterProvider
	meter    metric.Meter
	handler  http.Handler

	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	errors   metric.Int64Counter

	serviceAttrs []attribute.KeyValue
}

// New returns a Recorder.
func New(opts ...Option) (*Recorder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	r := &Recorder{
		cfg: cfg,
		serviceAttrs: []attribute.KeyValue{
			attribute.String("service.name", cfg.serviceName),
			attribute.String("service.version", cfg.serviceVersion),
		},
	}
	if err := r.initProvider(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if cfg.registerGlobal {
		otel.SetMeterProvider(r.provider)
	}
	r.meter = r.provider.Meter(instrumentationName)
	if err := r.initInstruments(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return r
}

func (r *Recorder) initInstruments() error {
	var err, e error

	r.requests, e = r.meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests served."),
		metric.WithUnit("{request}"))
	err = errors.Join(err, e)

	r.duration, e = r.meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Time until the response head was ready."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.cfg.durationBuckets...))
	err = errors.Join(err, e)

	r.active, e = r.meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of requests in flight."),
		metric.WithUnit("{request}"))
	err = errors.Join(err, e)

	r.errors, e = r.meter.Int64Counter("http.server.errors",
		metric.WithDescription("Number of requests answered with an error."),
		metric.WithUnit("{request}"))

	return errors.Join(err, e)
}

// Provider returns the configured exporter kind.
func (r *Recorder) Provider() Provider { return r.cfg.provider }

// Meter returns the meter for custom instruments.
func (r *Recorder) Meter() metric.Meter { return r.meter }

// Handler serves the Prometheus exposition format. It fails unless the
// Prometheus provider is in use.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.handler == nil {
		return nil, fmt.Errorf("metrics: handler needs the %s provider, have %s", PrometheusProvider, r.cfg.provider)
	}

	return r.handler, nil
}

// ForceFlush exports pending data.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.sdk == nil {
		return nil
	}

	return r.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the provider. Recorders built on a custom
// meter provider leave it running.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.sdk == nil {
		return nil
	}

	return r.sdk.Shutdown(ctx)
}
