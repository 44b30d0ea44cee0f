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
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build *Builder
		want  string
	}{
		{"comment", NewEvent().Comment("xx"), ": xx\n\n"},
		{"retry", NewEvent().Retry(time.Second), "retry: 1000\n\n"},
		{"id", NewEvent().ID("1"), "id: 1\n\n"},
		{"name", NewEvent().Name("message"), "event: message\n\n"},
		{"multiline data", NewEvent().Data("hello\nworld\n"), "data: hello\ndata: world\n\n"},
		{"empty", NewEvent(), "\n"},
		{
			"all fields",
			NewEvent().Comment("xx").Retry(time.Second).ID("1").Name("message").Data("hello\nworld\n"),
			": xx\nretry: 1000\nid: 1\nevent: message\ndata: hello\ndata: world\n\n",
		},
		{"json", NewEvent().JSONData(map[string]int{"n": 1}), "data: {\"n\":1}\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := tt.build.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.String())
		})
	}
}

func TestEventInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build *Builder
	}{
		{"comment newline", NewEvent().Comment("a\nb")},
		{"id carriage return", NewEvent().ID("a\rb")},
		{"name newline", NewEvent().Name("a\n")},
		{"data carriage return", NewEvent().Data("a\r\nb")},
		{"first error wins", NewEvent().ID("a\n").Data("ok")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.build.Build()
			require.ErrorIs(t, err, ErrInvalidEventValue)
		})
	}

	assert.Panics(t, func() { NewEvent().Comment("\n").MustBuild() })
}

func TestResponse(t *testing.T) {
	t.Parallel()

	events := make(chan Event, 2)
	events <- NewEvent().ID("1").Data("a").MustBuild()
	events <- NewEvent().ID("2").Data("b").MustBuild()
	close(events)

	res := Response(events)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Equal(t, ContentType, res.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", res.Header.Get("Cache-Control"))

	body, err := res.ReadBody(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "id: 1\ndata: a\n\nid: 2\ndata: b\n\n", string(body))
}

func TestResponseKeepAlive(t *testing.T) {
	t.Parallel()

	events := make(chan Event)
	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	res := Response(events, WithKeepAlive(20*time.Millisecond, "ping"))
	body, err := res.ReadBody(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), ": ping\n\n"), "got %q", body)
}

func TestResponseInvalidKeepAlive(t *testing.T) {
	t.Parallel()

	res := Response(make(chan Event), WithKeepAlive(time.Second, "a\nb"))
	_, err := res.ReadBody(t.Context())
	require.ErrorIs(t, err, ErrInvalidEventValue)
}
