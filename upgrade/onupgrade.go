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

package upgrade

import (
	"context"
	"sync"
	"sync/atomic"
)

// OnUpgrade is the pending hand-off of one connection. The transport
// creates it, stores it in the request context with WithOnUpgrade, and
// resolves it once the switching response has been written. A handler
// claims it with TakeOnUpgrade; only one handler can.
type OnUpgrade struct {
	done  chan struct{}
	once  sync.Once
	taken atomic.Bool

	upgraded *Upgraded
	err      error
}

// NewOnUpgrade returns an unresolved hand-off.
func NewOnUpgrade() *OnUpgrade {
	return &OnUpgrade{done: make(chan struct{})}
}

// Resolve completes the hand-off with a connection or an error. Only the
// first call has an effect; it reports whether it was that call.
func (o *OnUpgrade) Resolve(u *Upgraded, err error) bool {
	resolved := false
	o.once.Do(func() {
		o.upgraded, o.err = u, err
		if u == nil && err == nil {
			o.err = ErrNotUpgradable
		}
		close(o.done)
		resolved = true
	})

	return resolved
}

// Claimed reports whether a handler took the hand-off.
func (o *OnUpgrade) Claimed() bool {
	return o.taken.Load()
}

// Wait blocks until the hand-off resolves or ctx is done.
func (o *OnUpgrade) Wait(ctx context.Context) (*Upgraded, error) {
	select {
	case <-o.done:
		return o.upgraded, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type onUpgradeKey struct{}

// WithOnUpgrade stores o in ctx.
func WithOnUpgrade(ctx context.Context, o *OnUpgrade) context.Context {
	return context.WithValue(ctx, onUpgradeKey{}, o)
}

// TakeOnUpgrade claims the hand-off stored in ctx. It fails with
// ErrNotUpgradable when there is none or another handler claimed it.
func TakeOnUpgrade(ctx context.Context) (*OnUpgrade, error) {
	o, ok := ctx.Value(onUpgradeKey{}).(*OnUpgrade)
	if !ok || o == nil {
		return nil, ErrNotUpgradable
	}
	if !o.taken.CompareAndSwap(false, true) {
		return nil, ErrNotUpgradable
	}

	return o, nil
}
