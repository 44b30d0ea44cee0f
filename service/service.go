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
	"fmt"
)

// Service is an asynchronous unit of work turning a request into a response
// or an error. Implementations must be safe for concurrent use.
type Service[Req, Res any] interface {
	Call(ctx context.Context, req Req) (Res, error)
}

// Func adapts an ordinary function to the Service interface.
type Func[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Call calls f(ctx, req).
func (f Func[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

// Name returns a readable description of a service, used in logs and route
// listings. Services implementing fmt.Stringer describe themselves.
func Name[Req, Res any](s Service[Req, Res]) string {
	if s == nil {
		return "<nil>"
	}
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}

	return fmt.Sprintf("%T", s)
}

func mustService[Req, Res any](s Service[Req, Res], op string) {
	if s == nil {
		panic("service: " + op + " called with nil service")
	}
}

func nilFunc(op string) string {
	return "service: " + op + " called with nil function"
}
