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

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rivaas.dev/relay/config"
	"rivaas.dev/relay/logging"
	"rivaas.dev/relay/server"
)

// Serve runs the demo server until interrupted.
type Serve struct {
	Addr     string `kong:"help='Listen address, overrides the configuration.'"`
	Watch    bool   `kong:"help='Reload the log level when the configuration file changes.'"`
	NoBanner bool   `kong:"help='Do not print the startup banner.'"`
}

func (c *Serve) Run(actx *appContext) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, s, err := loadSettings(ctx, actx.configFile)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		s.Server.Addr = c.Addr
	}
	if err := applyLevel(actx.logger, s.Log.Level); err != nil {
		return err
	}
	logger := actx.logger.Logger()

	a, err := newApp(*s, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.close(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	r, err := a.routes()
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithConfig(s.Server),
		server.WithLogger(logger),
		server.WithHealth(a.health),
		server.WithServiceInfo(s.Service.Name, version, s.Service.Environment),
		server.WithRoutes(r),
	}
	if !c.NoBanner {
		opts = append(opts, server.WithBanner(actx.stdout))
	}
	srv, err := server.New(a.handler(r), opts...)
	if err != nil {
		return err
	}

	if c.Watch && actx.configFile != "" {
		go watch(ctx, cfg, actx.logger)
	}

	return srv.Run(ctx)
}

// watch follows changes to the configuration file. Only the log level is
// applied live; everything else needs a restart.
func watch(ctx context.Context, cfg *config.Config, l *logging.Logger) {
	err := cfg.Watch(ctx, func(err error) {
		if err != nil {
			l.Logger().Warn("configuration reload failed", "error", err)
			return
		}
		if err := applyLevel(l, cfg.String("log.level")); err != nil {
			l.Logger().Warn("invalid log level", "error", err)
			return
		}
		l.Logger().Info("configuration reloaded", "level", l.Level().String())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Logger().Warn("configuration watch stopped", "error", err)
	}
}

func applyLevel(l *logging.Logger, level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}

	return l.SetLevel(lvl)
}
