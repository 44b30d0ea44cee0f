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
	"errors"
	"time"
)

// Config holds listener settings. The struct tags let it be loaded with
// the config package; see DefaultConfig for the defaults.
type Config struct {
	Addr              string        `config:"addr" default:":8080" validate:"required"`
	ReadTimeout       time.Duration `config:"readTimeout" default:"15s"`
	ReadHeaderTimeout time.Duration `config:"readHeaderTimeout" default:"5s"`
	// WriteTimeout is off by default because it also bounds streamed
	// responses such as server-sent events.
	WriteTimeout    time.Duration `config:"writeTimeout"`
	IdleTimeout     time.Duration `config:"idleTimeout" default:"60s"`
	ShutdownTimeout time.Duration `config:"shutdownTimeout" default:"30s"`
	MaxHeaderBytes  int           `config:"maxHeaderBytes" default:"1048576"`
	H2C             bool          `config:"h2c"`
	CertFile        string        `config:"certFile"`
	KeyFile         string        `config:"keyFile"`
}

// DefaultConfig returns the defaults declared on Config.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if (c.CertFile == "") != (c.KeyFile == "") {
		errs = append(errs, errors.New("certFile and keyFile must be set together"))
	}
	if c.H2C && c.CertFile != "" {
		errs = append(errs, errors.New("h2c cannot be combined with TLS"))
	}
	for name, d := range map[string]time.Duration{
		"readTimeout":       c.ReadTimeout,
		"readHeaderTimeout": c.ReadHeaderTimeout,
		"writeTimeout":      c.WriteTimeout,
		"idleTimeout":       c.IdleTimeout,
		"shutdownTimeout":   c.ShutdownTimeout,
	} {
		if d < 0 {
			errs = append(errs, errors.New(name+" must not be negative"))
		}
	}
	if c.MaxHeaderBytes < 0 {
		errs = append(errs, errors.New("maxHeaderBytes must not be negative"))
	}

	return errors.Join(errs...)
}

// TLS reports whether certificate files are configured.
func (c Config) TLS() bool { return c.CertFile != "" }
