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
	"errors"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a Recorder.
type Option func(*config)

type config struct {
	provider        Provider
	providerSet     int
	customProvider  metric.MeterProvider
	registerGlobal  bool
	serviceName     string
	serviceVersion  string
	otlpEndpoint    string
	stdout          io.Writer
	exportInterval  time.Duration
	durationBuckets []float64
}

func defaultConfig() *config {
	return &config{
		provider:        PrometheusProvider,
		serviceName:     "relay",
		serviceVersion:  "dev",
		stdout:          os.Stdout,
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
	}
}

func (c *config) validate() error {
	if c.providerSet > 1 {
		return errors.New("only one of WithPrometheus, WithOTLP, WithStdout may be used")
	}
	if c.provider == OTLPProvider && c.otlpEndpoint == "" {
		return errors.New("OTLP provider needs an endpoint")
	}
	if c.exportInterval <= 0 {
		return errors.New("export interval must be positive")
	}

	return nil
}

// WithPrometheus exports through a private Prometheus registry, served by
// Recorder.Handler. This is the default.
func WithPrometheus() Option {
	return func(c *config) {
		c.provider = PrometheusProvider
		c.providerSet++
	}
}

// WithOTLP pushes to an OTLP/HTTP collector, e.g. "http://localhost:4318".
func WithOTLP(endpoint string) Option {
	return func(c *config) {
		c.provider = OTLPProvider
		c.otlpEndpoint = endpoint
		c.providerSet++
	}
}

// WithStdout prints metrics to w every export interval.
func WithStdout(w io.Writer) Option {
	return func(c *config) {
		c.provider = StdoutProvider
		c.stdout = w
		c.providerSet++
	}
}

// WithMeterProvider records into an existing meter provider instead of
// building one.
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(c *config) { c.customProvider = p }
}

// WithGlobalMeterProvider registers the provider with otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(c *config) { c.registerGlobal = true }
}

// WithServiceName sets the service.name attribute.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithServiceVersion sets the service.version attribute.
func WithServiceVersion(version string) Option {
	return func(c *config) { c.serviceVersion = version }
}

// WithExportInterval sets the push interval of the OTLP and stdout
// providers.
func WithExportInterval(d time.Duration) Option {
	return func(c *config) { c.exportInterval = d }
}

// WithDurationBuckets overrides DefaultDurationBuckets.
func WithDurationBuckets(buckets ...float64) Option {
	return func(c *config) { c.durationBuckets = buckets }
}
