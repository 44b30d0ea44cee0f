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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace/noop"
)

func (t *Tracer) initProvider(ctx context.Context) error {
	if t.cfg.customProvider != nil {
		t.provider = t.cfg.customProvider
		return nil
	}

	var exporter sdktrace.SpanExporter
	switch t.cfg.provider {
	case NoopProvider:
		t.provider = noop.NewTracerProvider()
		return nil

	case StdoutProvider:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(t.cfg.stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("stdout exporter: %w", err)
		}
		exporter = exp

	case OTLPProvider:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.cfg.otlpEndpoint)}
		if t.cfg.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("otlp grpc exporter: %w", err)
		}
		exporter = exp

	case OTLPHTTPProvider:
		exp, err := otlptracehttp.New(ctx, otlpHTTPOptions(t.cfg.otlpEndpoint, t.cfg.otlpInsecure)...)
		if err != nil {
			return fmt.Errorf("otlp http exporter: %w", err)
		}
		exporter = exp

	default:
		return fmt.Errorf("unsupported provider %q", t.cfg.provider)
	}

	t.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(t.cfg.serviceName, t.cfg.serviceVersion)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.cfg.sampleRate))),
	)
	t.provider = t.sdk

	return nil
}

// otlpHTTPOptions accepts "host:port" or an http(s) URL. Any path on the
// URL is ignored.
func otlpHTTPOptions(endpoint string, insecure bool) []otlptracehttp.Option {
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = rest, true
	} else if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint = rest
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return opts
}

func newResource(name, version string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	)
}
