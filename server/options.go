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

package server

import (
	"crypto/tls"
	"io"
	"log/slog"
	"time"

	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	cfg     Config
	logger  *slog.Logger
	render  web.ErrorRenderer
	tls     *tls.Config
	health  *Health
	banner  io.Writer
	routes  *router.Router
	service string
	version string
	env     string
}

func defaultOptions() options {
	return options{
		cfg:     DefaultConfig(),
		logger:  slog.Default(),
		render:  web.DefaultErrorRenderer,
		service: "relay",
		version: "dev",
		env:     "development",
	}
}

// WithConfig replaces the listener settings.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *options) { o.cfg.Addr = addr }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.ShutdownTimeout = d }
}

// WithH2C serves HTTP/2 over cleartext connections alongside HTTP/1.
// Upgrades keep working on HTTP/1 connections only.
func WithH2C() Option {
	return func(o *options) { o.cfg.H2C = true }
}

// WithTLSConfig serves TLS with cfg. Certificates may come from cfg or
// from the CertFile and KeyFile settings.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.tls = cfg }
}

// WithLogger sets the lifecycle and handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithServerErrorRenderer sets the renderer passed to Handler.
func WithServerErrorRenderer(f web.ErrorRenderer) Option {
	return func(o *options) {
		if f != nil {
			o.render = f
		}
	}
}

// WithHealth marks h as draining when shutdown begins so readiness probes
// fail while in-flight requests finish. Mount h.Routes() in the service
// to expose the probes.
func WithHealth(h *Health) Option {
	return func(o *options) { o.health = h }
}

// WithBanner prints a startup banner to w once the listener is open.
func WithBanner(w io.Writer) Option {
	return func(o *options) { o.banner = w }
}

// WithRoutes lists the routes of r in the banner.
func WithRoutes(r *router.Router) Option {
	return func(o *options) { o.routes = r }
}

// WithServiceInfo names the service in logs and in the banner.
func WithServiceInfo(name, version, environment string) Option {
	return func(o *options) {
		if name != "" {
			o.service = name
		}
		if version != "" {
			o.version = version
		}
		if environment != "" {
			o.env = environment
		}
	}
}
