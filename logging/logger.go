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

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler writes one JSON object per record (default).
	JSONHandler HandlerType = "json"
	// TextHandler writes key=value pairs.
	TextHandler HandlerType = "text"
	// ConsoleHandler writes colored, human oriented lines.
	ConsoleHandler HandlerType = "console"
)

// Level is a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel parses "debug", "info", "warn" or "error", in any case,
// optionally with an offset such as "info+2".
func ParseLevel(s string) (Level, error) {
	var l Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}

	return l, nil
}

// SamplingConfig thins out high-volume logs. The first Initial records of
// every Tick are kept, then one in Thereafter. Errors are never dropped.
type SamplingConfig struct {
	Initial    int
	Thereafter int
	Tick       time.Duration
}

// Logger owns a configured *slog.Logger. Its level can be changed at
// runtime with SetLevel.
type Logger struct {
	handlerType    HandlerType
	output         io.Writer
	level          slog.LevelVar
	serviceName    string
	serviceVersion string
	environment    string
	addSource      bool
	noColor        *bool
	replaceAttr    func(groups []string, a slog.Attr) slog.Attr
	sampling       *SamplingConfig
	custom         *slog.Logger
	useCustom      bool
	registerGlobal bool

	slogger *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// New returns a Logger. It does not replace slog's default logger
// unless WithGlobalLogger is given.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{handlerType: JSONHandler, output: os.Stdout}
	l.level.Set(LevelInfo)
	for _, opt := range opts {
		opt(l)
	}

	if err := l.build(); err != nil {
		return nil, err
	}
	if l.registerGlobal {
		slog.SetDefault(l.slogger)
	}

	return l, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return l
}

func (l *Logger) build() error {
	if l.useCustom {
		if l.custom == nil {
			return ErrNilLogger
		}
		l.slogger = l.custom
		return nil
	}
	if l.output == nil {
		return fmt.Errorf("logging: output writer is nil")
	}

	opts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.redact,
	}

	var h slog.Handler
	switch l.handlerType {
	case JSONHandler:
		h = slog.NewJSONHandler(l.output, opts)
	case TextHandler:
		h = slog.NewTextHandler(l.output, opts)
	case ConsoleHandler:
		h = tint.NewHandler(l.output, &tint.Options{
			Level:       &l.level,
			AddSource:   l.addSource,
			ReplaceAttr: l.redact,
			TimeFormat:  time.TimeOnly,
			NoColor:     !l.colored(),
		})
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
	}

	h = &traceHandler{next: h}
	if l.sampling != nil {
		if l.sampling.Initial < 0 || l.sampling.Thereafter < 0 {
			return fmt.Errorf("logging: sampling values must not be negative")
		}
		h = newSamplingHandler(h, *l.sampling)
	}

	logger := slog.New(h)
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	l.slogger = logger

	return nil
}

func (l *Logger) colored() bool {
	if l.noColor != nil {
		return !*l.noColor
	}
	f, ok := l.output.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func (l *Logger) redact(groups []string, a slog.Attr) slog.Attr {
	switch strings.ToLower(a.Key) {
	case "password", "token", "secret", "api_key", "authorization":
		return slog.String(a.Key, "***REDACTED***")
	}
	if l.replaceAttr != nil {
		return l.replaceAttr(groups, a)
	}

	return a
}

// Logger returns the configured *slog.Logger.
func (l *Logger) Logger() *slog.Logger {
	return l.slogger
}

// With returns a logger carrying the given attributes.
func (l *Logger) With(args ...any) *slog.Logger {
	return l.slogger.With(args...)
}

// SetLevel changes the minimum level of records that are written.
func (l *Logger) SetLevel(level Level) error {
	if l.useCustom {
		return ErrCannotChangeLevel
	}
	l.level.Set(level)

	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// ServiceName returns the configured service name.
func (l *Logger) ServiceName() string { return l.serviceName }

// ServiceVersion returns the configured service version.
func (l *Logger) ServiceVersion() string { return l.serviceVersion }

// Environment returns the configured environment.
func (l *Logger) Environment() string { return l.environment }
