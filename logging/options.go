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
	"io"
	"log/slog"
)

// WithHandlerType selects the output format.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithJSONHandler writes JSON records.
func WithJSONHandler() Option { return WithHandlerType(JSONHandler) }

// WithTextHandler writes key=value records.
func WithTextHandler() Option { return WithHandlerType(TextHandler) }

// WithConsoleHandler writes colored records for terminals.
func WithConsoleHandler() Option { return WithHandlerType(ConsoleHandler) }

// WithOutput sets the destination. Default os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// WithLevel sets the minimum level. Default LevelInfo.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level.Set(level) }
}

// WithDebugLevel is WithLevel(LevelDebug).
func WithDebugLevel() Option { return WithLevel(LevelDebug) }

// WithServiceName adds a service attribute to every record.
func WithServiceName(name string) Option {
	return func(l *Logger) { l.serviceName = name }
}

// WithServiceVersion adds a version attribute to every record.
func WithServiceVersion(version string) Option {
	return func(l *Logger) { l.serviceVersion = version }
}

// WithEnvironment adds an env attribute to every record.
func WithEnvironment(env string) Option {
	return func(l *Logger) { l.environment = env }
}

// WithSource records the caller's file and line.
func WithSource(enabled bool) Option {
	return func(l *Logger) { l.addSource = enabled }
}

// WithColor forces colors on or off for the console handler. By default
// colors are used when the output is a terminal.
func WithColor(enabled bool) Option {
	return func(l *Logger) {
		off := !enabled
		l.noColor = &off
	}
}

// WithReplaceAttr rewrites attributes after redaction.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(l *Logger) { l.replaceAttr = fn }
}

// WithCustomLogger wraps an existing logger. Every format option is
// then ignored.
func WithCustomLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.custom = logger
		l.useCustom = true
	}
}

// WithGlobalLogger installs the logger with slog.SetDefault.
func WithGlobalLogger() Option {
	return func(l *Logger) { l.registerGlobal = true }
}

// WithSampling drops part of the non-error records.
func WithSampling(cfg SamplingConfig) Option {
	return func(l *Logger) { l.sampling = &cfg }
}
