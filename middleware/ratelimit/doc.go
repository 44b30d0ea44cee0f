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

// Package ratelimit limits requests per client.
//
//	h := web.Wrap(api, ratelimit.New(
//		ratelimit.WithRequestsPerSecond(100),
//		ratelimit.WithBurst(20),
//	))
//
// The default store keeps one token bucket per key, at most
// DefaultMaxKeys of them, evicting the least recently seen. Keys
// default to the client IP; WithKeyFunc changes that, for example to a
// user id. WithSlidingWindow switches to a sliding window counter.
//
// Allowed responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. Rejections fail with *Error, which renders as 429
// with a Retry-After header.
package ratelimit
