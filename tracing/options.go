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
	"errors"
	"io"
	"os"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Tracer.
type Option func(*config)

type config struct {
	provider       Provider
	providerSet    int
	customProvider trace.TracerProvider
	registerGlobal bool
	serviceName    string
	serviceVersion string
	sampleRate     float64
	otlpEndpoint   string
	otlpInsecure   bool
	stdout         io.Writer
	propagator     propagation.TextMapPropagator
}

func defaultConfig() *config {
	return &config{
		provider:       NoopProvider,
		serviceName:    "relay",
		serviceVersion: "dev",
		sampleRate:     1.0,
		stdout:         os.Stdout,
	}
}

func (c *config) validate() error {
	if c.providerSet > 1 {
		return errors.New("only one of WithNoop, WithStdout, WithOTLP, WithOTLPHTTP may be used")
	}
	if (c.provider == OTLPProvider || c.provider == OTLPHTTPProvider) && c.otlpEndpoint == "" {
		return errors.New("OTLP provider needs an endpoint")
	}
	if c.serviceName == "" {
		return errors.New("service name must not be empty")
	}

	return nil
}

func (c *config) use(p Provider) {
	c.provider = p
	c.providerSet++
}

// WithNoop disables span export.
func WithNoop() Option {
	return func(c *config) { c.use(NoopProvider) }
}

// WithStdout prints finished spans as indented JSON to w. A nil w means
// os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *config) {
		c.use(StdoutProvider)
		if w != nil {
			c.stdout = w
		}
	}
}

// OTLPOption tweaks the OTLP exporters.
type OTLPOption func(*config)

// OTLPInsecure disables TLS towards the collector.
func OTLPInsecure() OTLPOption {
	return func(c *config) { c.otlpInsecure = true }
}

// WithOTLP exports spans over gRPC to endpoint ("host:port").
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(c *config) {
		c.use(OTLPProvider)
		c.otlpEndpoint = endpoint
		for _, opt := range opts {
			opt(c)
		}
	}
}

// WithOTLPHTTP exports spans over HTTP. endpoint may be "host:port" or
// an http(s) URL; the http scheme implies OTLPInsecure.
func WithOTLPHTTP(endpoint string, opts ...OTLPOption) Option {
	return func(c *config) {
		c.use(OTLPHTTPProvider)
		c.otlpEndpoint = endpoint
		for _, opt := range opts {
			opt(c)
		}
	}
}

// WithTracerProvider uses tp instead of building one. Shutdown is then
// the caller's job.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.customProvider = tp }
}

// WithGlobalTracerProvider registers the provider and propagator with
// the otel package.
func WithGlobalTracerProvider() Option {
	return func(c *config) { c.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(c *config) { c.serviceVersion = version }
}

// WithSampleRate samples the given fraction of new traces; it is clamped
// to [0, 1]. Sampling decisions of a propagated parent are honored.
func WithSampleRate(rate float64) Option {
	return func(c *config) {
		c.sampleRate = min(max(rate, 0), 1)
	}
}

// WithPropagator replaces the default W3C trace context and baggage
// propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *config) { c.propagator = p }
}
