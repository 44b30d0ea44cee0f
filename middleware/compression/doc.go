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

// Package compression compresses response bodies with brotli, zstd, gzip
// or deflate, chosen from the client's Accept-Encoding.
//
//	h := web.Wrap(routes, compression.New(compression.WithMinSize(512)))
//
// Only text-like content types are compressed by default. Responses are
// left alone when they already carry a Content-Encoding or a
// Content-Range, have no body, are streamed (event streams must reach the client unbuffered), or are
// smaller than the minimum size. The minimum size only applies to bodies
// of known length. Compressed responses get Vary: Accept-Encoding and a
// weakened ETag.
package compression
