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
	"fmt"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func (r *Recorder) initProvider() error {
	if r.cfg.customProvider != nil {
		r.provider = r.cfg.customProvider
		return nil
	}

	var reader sdkmetric.Reader
	switch r.cfg.provider {
	case PrometheusProvider:
		reg := promclient.NewRegistry()
		exp, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return fmt.Errorf("prometheus exporter: %w", err)
		}
		reader = exp
		r.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	case OTLPProvider:
		exp, err := otlpmetrichttp.New(context.Background(), otlpOptions(r.cfg.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("otlp exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(r.cfg.exportInterval))

	case StdoutProvider:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(r.cfg.stdout))
		if err != nil {
			return fmt.Errorf("stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(r.cfg.exportInterval))

	default:
		return fmt.Errorf("unsupported provider %q", r.cfg.provider)
	}

	r.sdk = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r.provider = r.sdk

	return nil
}

// otlpOptions accepts "host:port" or an http(s) URL.
func otlpOptions(endpoint string) []otlpmetrichttp.Option {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(strings.TrimPrefix(endpoint, "http://")),
			otlpmetrichttp.WithInsecure(),
		}
	case strings.HasPrefix(endpoint, "https://"):
		return []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(strings.TrimPrefix(endpoint, "https://"))}
	default:
		return []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	}
}
