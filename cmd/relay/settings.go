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
	"time"

	"rivaas.dev/relay/config"
	"rivaas.dev/relay/server"
)

// settings is the demo configuration. Every key can be set from the
// environment with the RELAY_ prefix, e.g. RELAY_SERVER_ADDR=:9000.
type settings struct {
	Service struct {
		Name        string `config:"name" default:"relay"`
		Environment string `config:"environment" default:"development" validate:"oneof=development staging production"`
	} `config:"service"`

	Server server.Config `config:"server"`

	Log struct {
		// Level overrides the command line level and follows reloads.
		Level string `config:"level"`
	} `config:"log"`

	Tracing struct {
		Provider   string  `config:"provider" default:"noop" validate:"oneof=noop stdout otlp otlp-http"`
		Endpoint   string  `config:"endpoint"`
		SampleRate float64 `config:"sampleRate" default:"1" validate:"gte=0,lte=1"`
	} `config:"tracing"`

	RateLimit struct {
		RPS   float64 `config:"rps" default:"50" validate:"gt=0"`
		Burst int     `config:"burst" default:"100" validate:"gt=0"`
	} `config:"ratelimit"`

	CORS struct {
		Origins []string `config:"origins"`
	} `config:"cors"`

	Static struct {
		// Dir, when set, is served below Prefix.
		Dir    string `config:"dir"`
		Prefix string `config:"prefix" default:"/static"`
	} `config:"static"`

	Debug struct {
		// Pprof mounts /debug/pprof behind the admin credentials.
		Pprof bool `config:"pprof"`
	} `config:"debug"`

	Timeout time.Duration     `config:"timeout" default:"10s"`
	Admins  map[string]string `config:"admins"`
}

// loadSettings reads path, when given, and the environment.
func loadSettings(ctx context.Context, path string) (*config.Config, *settings, error) {
	s := &settings{}
	opts := []config.Option{config.WithBinding(s)}
	if path != "" {
		opts = append(opts, config.WithFile(path))
	}
	opts = append(opts, config.WithEnv("RELAY"))

	c, err := config.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Load(ctx); err != nil {
		return nil, nil, err
	}

	return c, s, nil
}
