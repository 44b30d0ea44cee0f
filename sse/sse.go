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

package sse

import (
	"context"
	"io"
	"net/http"
	"time"

	"rivaas.dev/relay/web"
)

// ContentType is the media type of event streams.
const ContentType = "text/event-stream"

// DefaultKeepAliveInterval is the idle time before a keep-alive comment.
const DefaultKeepAliveInterval = 15 * time.Second

// Option configures Response.
type Option func(*stream)

// WithKeepAlive sends a comment frame with text whenever the stream was
// idle for interval. A text containing newlines is rejected with
// ErrInvalidEventValue at the first keep-alive.
func WithKeepAlive(interval time.Duration, text string) Option {
	return func(s *stream) {
		s.interval = interval
		s.keepAlive, s.keepAliveErr = NewEvent().Comment(text).Build()
	}
}

type stream struct {
	events       <-chan Event
	interval     time.Duration
	keepAlive    Event
	keepAliveErr error
}

// Response streams events until the channel is closed or the request
// context is done.
func Response(events <-chan Event, opts ...Option) *web.Response {
	s := &stream{events: events}
	for _, opt := range opts {
		opt(s)
	}

	res := web.Stream(http.StatusOK, ContentType, s.render)
	res.Header.Set("Cache-Control", "no-cache")
	res.Header.Set("X-Accel-Buffering", "no")

	return res
}

func (s *stream) render(ctx context.Context, w io.Writer) error {
	if s.keepAliveErr != nil {
		return s.keepAliveErr
	}
	if s.interval <= 0 {
		return s.loop(ctx, w, nil, func() {})
	}

	t := time.NewTimer(s.interval)
	defer t.Stop()

	return s.loop(ctx, w, t.C, func() { t.Reset(s.interval) })
}

func (s *stream) loop(ctx context.Context, w io.Writer, tick <-chan time.Time, reset func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.events:
			if !ok {
				return nil
			}
			if _, err := io.WriteString(w, ev.String()); err != nil {
				return err
			}
			reset()
		case <-tick:
			if _, err := io.WriteString(w, s.keepAlive.String()); err != nil {
				return err
			}
			reset()
		}
	}
}
