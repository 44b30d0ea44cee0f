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

package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the client may expect a full allowance again, or,
	// when rejected, when the next request can succeed.
	Reset time.Time
}

// Store decides whether the request identified by key may proceed.
// Implementations must be safe for concurrent use.
type Store interface {
	Take(ctx context.Context, key string, now time.Time) (Decision, error)
}

// DefaultMaxKeys bounds the number of tracked clients.
const DefaultMaxKeys = 10000

// TokenBucketStore keeps a golang.org/x/time/rate limiter per key.
type TokenBucketStore struct {
	limit rate.Limit
	burst int
	keys  *lru.Cache
	mu    sync.Mutex
}

// NewTokenBucketStore returns a store refilling rps tokens per second up
// to burst, tracking at most maxKeys keys.
func NewTokenBucketStore(rps float64, burst, maxKeys int) (*TokenBucketStore, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	cache, err := lru.New(maxKeys)
	if err != nil {
		return nil, err
	}

	return &TokenBucketStore{limit: rate.Limit(rps), burst: burst, keys: cache}, nil
}

func (s *TokenBucketStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.keys.Get(key); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.keys.Add(key, l)

	return l
}

// Take consumes one token.
func (s *TokenBucketStore) Take(_ context.Context, key string, now time.Time) (Decision, error) {
	l := s.limiter(key)
	d := Decision{Limit: s.burst}

	if l.AllowN(now, 1) {
		d.Allowed = true
		tokens := l.TokensAt(now)
		d.Remaining = max(int(math.Floor(tokens)), 0)
		missing := float64(s.burst) - tokens
		d.Reset = now.Add(s.fill(missing))
		return d, nil
	}

	d.Reset = now.Add(s.fill(1 - l.TokensAt(now)))

	return d, nil
}

func (s *TokenBucketStore) fill(tokens float64) time.Duration {
	if tokens <= 0 || s.limit <= 0 {
		return 0
	}

	return time.Duration(tokens / float64(s.limit) * float64(time.Second))
}

// SlidingWindowStore approximates a sliding window by weighting the
// previous fixed window's count by how much of it still overlaps.
type SlidingWindowStore struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	keys *lru.Cache
}

type windowCounts struct {
	start time.Time
	curr  int
	prev  int
}

// NewSlidingWindowStore allows limit requests per window per key.
func NewSlidingWindowStore(limit int, window time.Duration, maxKeys int) (*SlidingWindowStore, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	cache, err := lru.New(maxKeys)
	if err != nil {
		return nil, err
	}

	return &SlidingWindowStore{limit: limit, window: window, keys: cache}, nil
}

// Take counts the request if the weighted total stays within the limit.
func (s *SlidingWindowStore) Take(_ context.Context, key string, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := now.Truncate(s.window)
	var w *windowCounts
	if v, ok := s.keys.Get(key); ok {
		w = v.(*windowCounts)
	} else {
		w = &windowCounts{start: start}
		s.keys.Add(key, w)
	}

	switch elapsed := start.Sub(w.start); {
	case elapsed == s.window:
		w.prev, w.curr, w.start = w.curr, 0, start
	case elapsed > s.window:
		w.prev, w.curr, w.start = 0, 0, start
	}

	overlap := 1 - float64(now.Sub(start))/float64(s.window)
	used := float64(w.prev)*overlap + float64(w.curr)
	d := Decision{Limit: s.limit, Reset: start.Add(s.window)}
	if used+1 > float64(s.limit) {
		return d, nil
	}

	w.curr++
	d.Allowed = true
	d.Remaining = max(s.limit-int(math.Ceil(used+1)), 0)

	return d, nil
}
