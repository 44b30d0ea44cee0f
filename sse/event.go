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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidEventValue is returned for field values an event stream
// cannot carry.
var ErrInvalidEventValue = errors.New("sse: event value cannot contain newlines or carriage returns")

// Event is one server-sent event. Build events with NewEvent.
type Event struct {
	comment *string
	retry   *time.Duration
	id      *string
	name    *string
	data    *string
}

// Builder accumulates event fields. The first invalid value is kept as
// the error returned by Build.
type Builder struct {
	ev  Event
	err error
}

// NewEvent starts an event.
func NewEvent() *Builder {
	return &Builder{}
}

// Comment sets a comment line.
func (b *Builder) Comment(s string) *Builder {
	return b.line(&b.ev.comment, s)
}

// Retry sets the reconnection time.
func (b *Builder) Retry(d time.Duration) *Builder {
	if b.err == nil {
		b.ev.retry = &d
	}

	return b
}

// ID sets the event id.
func (b *Builder) ID(s string) *Builder {
	return b.line(&b.ev.id, s)
}

// Name sets the event type.
func (b *Builder) Name(s string) *Builder {
	return b.line(&b.ev.name, s)
}

// Data sets the payload. It may span lines but must not contain CR.
func (b *Builder) Data(s string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.ContainsRune(s, '\r') {
		b.err = ErrInvalidEventValue
		return b
	}
	b.ev.data = &s

	return b
}

// JSONData sets the payload to the JSON encoding of v.
func (b *Builder) JSONData(v any) *Builder {
	if b.err != nil {
		return b
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("sse: encode data: %w", err)
		return b
	}

	return b.Data(string(data))
}

// Build returns the event or the first error.
func (b *Builder) Build() (Event, error) {
	if b.err != nil {
		return Event{}, b.err
	}

	return b.ev, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() Event {
	ev, err := b.Build()
	if err != nil {
		panic(err)
	}

	return ev
}

func (b *Builder) line(field **string, s string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.ContainsAny(s, "\r\n") {
		b.err = ErrInvalidEventValue
		return b
	}
	*field = &s

	return b
}

// String returns the wire form of the event, terminated by a blank line.
func (e Event) String() string {
	var sb strings.Builder
	if e.comment != nil {
		sb.WriteString(": " + *e.comment + "\n")
	}
	if e.retry != nil {
		sb.WriteString("retry: " + strconv.FormatInt(e.retry.Milliseconds(), 10) + "\n")
	}
	if e.id != nil {
		sb.WriteString("id: " + *e.id + "\n")
	}
	if e.name != nil {
		sb.WriteString("event: " + *e.name + "\n")
	}
	if e.data != nil {
		for line := range strings.Lines(*e.data) {
			sb.WriteString("data: " + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	sb.WriteByte('\n')

	return sb.String()
}
