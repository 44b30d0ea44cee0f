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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"rivaas.dev/relay/validation"
	"rivaas.dev/relay/web"
)

// ErrServing is returned when Run or Serve is called on a server that is
// already serving.
var ErrServing = errors.New("server: already serving")

// Server runs a web.Handler on a listener.
type Server struct {
	opts    options
	handler http.Handler
	hooks   hooks

	mu      sync.Mutex
	addr    net.Addr
	serving bool
}

// New returns a Server for svc. It fails when the configuration is
// invalid.
func New(svc web.Handler, opts ...Option) (*Server, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validation.Validate(context.Background(), &o.cfg); err != nil {
		return nil, fmt.Errorf("server: config: %w", err)
	}

	var h http.Handler = Handler(svc, WithErrorRenderer(o.render), WithHandlerLogger(o.logger))
	if o.cfg.H2C {
		h = h2c.NewHandler(h, &http2.Server{IdleTimeout: o.cfg.IdleTimeout})
	}

	return &Server{opts: o, handler: h}, nil
}

// Addr returns the address being served, or nil before Serve starts.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addr
}

// Handler returns the http.Handler the server serves.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.opts.cfg.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully: readiness is withdrawn, shutdown hooks run, and in-flight
// requests get up to the shutdown timeout to finish. Connections handed
// to protocol upgrades are not tracked. Serve closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.serving {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServing
	}
	s.serving = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.serving, s.addr = false, nil
		s.mu.Unlock()
	}()

	if err := s.hooks.start(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	cfg := s.opts.cfg
	logger := s.opts.logger
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		TLSConfig:         s.opts.tls,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		// Requests keep the values of ctx but must outlive its
		// cancellation so shutdown can drain them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	useTLS := cfg.TLS() || s.opts.tls != nil
	protocol := "HTTP"
	switch {
	case useTLS:
		protocol = "HTTPS"
	case cfg.H2C:
		protocol = "h2c"
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if useTLS {
			err = srv.ServeTLS(ln, cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server: serve: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down", "protocol", protocol, "reason", context.Cause(gctx))
		if s.opts.health != nil {
			s.opts.health.Drain()
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		s.hooks.shutdown(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("server: forced shutdown: %w", err)
		}

		return nil
	})

	if s.opts.banner != nil {
		s.printBanner(s.opts.banner, ln.Addr().String(), protocol)
	}
	logger.Info("server started",
		"address", ln.Addr().String(),
		"protocol", protocol,
		"service", s.opts.service,
		"version", s.opts.version,
		"environment", s.opts.env,
	)
	s.hooks.ready(logger)

	err := g.Wait()
	s.hooks.stop(logger)
	logger.Info("server exited", "protocol", protocol)

	return err
}
