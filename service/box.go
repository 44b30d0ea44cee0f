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

package service

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrMoved is returned by a Box whose service was moved into a Shared
// handle or taken with Take.
var ErrMoved = errors.New("service: boxed service was moved")

// Box erases the concrete type of a service behind a single-owner handle.
// Ownership can be given up once, with Take or Share; afterwards Call fails
// with ErrMoved.
type Box[Req, Res any] struct {
	inner atomic.Pointer[Service[Req, Res]]
	name  string
}

// Boxed wraps s in a Box. Boxing a *Box or a Shared reuses the service it
// holds instead of adding a layer.
func Boxed[Req, Res any](s Service[Req, Res]) *Box[Req, Res] {
	mustService(s, "Boxed")
	switch v := s.(type) {
	case *Box[Req, Res]:
		if inner, ok := v.Take(); ok {
			s = inner
		}
	case Shared[Req, Res]:
		s = v.h.svc
	}

	b := &Box[Req, Res]{name: Name(s)}
	b.inner.Store(&s)

	return b
}

// Call forwards to the boxed service.
func (b *Box[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	p := b.inner.Load()
	if p == nil {
		var zero Res
		return zero, ErrMoved
	}

	return (*p).Call(ctx, req)
}

// Take gives up ownership of the boxed service and returns it. The second
// result is false when the service was already moved.
func (b *Box[Req, Res]) Take() (Service[Req, Res], bool) {
	p := b.inner.Swap(nil)
	if p == nil {
		return nil, false
	}

	return *p, true
}

// Share moves the boxed service into a Shared handle.
func (b *Box[Req, Res]) Share() (Shared[Req, Res], error) {
	s, ok := b.Take()
	if !ok {
		return Shared[Req, Res]{}, ErrMoved
	}

	return Share(s), nil
}

func (b *Box[Req, Res]) String() string {
	return "Box(" + b.name + ")"
}

// Shared is a type-erased service handle that can be copied freely. Copies
// refer to the same underlying service; its state is never duplicated.
// The zero value is not usable.
type Shared[Req, Res any] struct {
	h *sharedHandle[Req, Res]
}

type sharedHandle[Req, Res any] struct {
	svc Service[Req, Res]
}

// Share wraps s in a Shared handle. Sharing a Shared returns it unchanged.
func Share[Req, Res any](s Service[Req, Res]) Shared[Req, Res] {
	mustService(s, "Share")
	switch v := s.(type) {
	case Shared[Req, Res]:
		return v
	case *Box[Req, Res]:
		if sh, err := v.Share(); err == nil {
			return sh
		}
	}

	return Shared[Req, Res]{h: &sharedHandle[Req, Res]{svc: s}}
}

// Call forwards to the shared service.
func (s Shared[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	return s.h.svc.Call(ctx, req)
}

// Clone returns another handle to the same service.
func (s Shared[Req, Res]) Clone() Shared[Req, Res] {
	return s
}

// Same reports whether two handles refer to the same service.
func (s Shared[Req, Res]) Same(other Shared[Req, Res]) bool {
	return s.h != nil && s.h == other.h
}

func (s Shared[Req, Res]) String() string {
	if s.h == nil {
		return "Shared(<nil>)"
	}

	return "Shared(" + Name(s.h.svc) + ")"
}
