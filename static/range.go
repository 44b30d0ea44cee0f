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

package static

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// preconditions returns 412 or 304 when a conditional header fails, and 0
// otherwise. A zero modified time means the file's age is unknown.
// Unparsable dates are ignored.
func preconditions(r *http.Request, modified time.Time) int {
	if v := r.Header.Get("If-Unmodified-Since"); v != "" {
		if t, err := http.ParseTime(v); err == nil && (modified.IsZero() || modified.After(t)) {
			return http.StatusPreconditionFailed
		}
	}
	if v := r.Header.Get("If-Modified-Since"); v != "" && !modified.IsZero() {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			return 0
		}
		if t, err := http.ParseTime(v); err == nil && !modified.After(t) {
			return http.StatusNotModified
		}
	}

	return 0
}

// rangeApplies reports whether a Range header may be honored: always
// without If-Range, and only for an exact date match with it.
func rangeApplies(r *http.Request, modified time.Time) bool {
	if r.Header.Get("Range") == "" {
		return false
	}
	v := r.Header.Get("If-Range")
	if v == "" {
		return true
	}
	t, err := http.ParseTime(v)

	return err == nil && !modified.IsZero() && modified.Equal(t)
}

// byteRange resolves the first range of a bytes Range header against size
// into a half-open [start, end). A header that does not parse selects the
// whole file. ok is false when the range cannot be satisfied.
func byteRange(header string, size int64) (start, end int64, ok bool) {
	set, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, size, true
	}
	set, _, _ = strings.Cut(set, ",")
	first, last, found := strings.Cut(strings.TrimSpace(set), "-")
	if !found {
		return 0, size, true
	}

	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n < 0 {
			return 0, size, true
		}
		if n == 0 || size == 0 {
			return 0, 0, false
		}
		return max(size-n, 0), size, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return 0, size, true
	}
	end = size
	if last != "" {
		stop, err := strconv.ParseInt(last, 10, 64)
		if err != nil || stop < start {
			return 0, size, true
		}
		end = min(stop+1, size)
	}
	if start >= size {
		return 0, 0, false
	}

	return start, end, true
}
