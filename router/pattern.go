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

package router

import "strings"

type segmentKind uint8

const (
	segLiteral segmentKind = iota
	segParam
	segWildcard
)

// segment is one '/'-separated piece of a pattern. For captures, value is
// the capture name; an anonymous wildcard has an empty name.
type segment struct {
	kind  segmentKind
	value string
}

type pattern struct {
	raw  string
	segs []segment
}

// names returns capture names in order.
func (p pattern) names() []string {
	var out []string
	for _, s := range p.segs {
		if s.kind != segLiteral {
			out = append(out, s.value)
		}
	}

	return out
}

// captureIndex returns the position among captures of segment i, which
// must be a capture.
func (p pattern) captureIndex(i int) int {
	k := -1
	for _, s := range p.segs[:i+1] {
		if s.kind != segLiteral {
			k++
		}
	}

	return k
}

// splitPath applies the segment rule shared by patterns and request paths:
// drop one leading '/', split on '/', keep empty segments. "/" yields one
// empty segment, so "/a" and "/a/" differ.
func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// parsePattern parses a route pattern such as "/users/{id}/files/{*path}".
func parsePattern(raw string) (pattern, error) {
	if raw == "" || raw[0] != '/' {
		return pattern{}, invalidPath(raw, "must begin with '/'")
	}

	parts := splitPath(raw)
	p := pattern{raw: raw, segs: make([]segment, 0, len(parts))}
	seen := make(map[string]bool)

	for i, part := range parts {
		seg, err := parseSegment(raw, part)
		if err != nil {
			return pattern{}, err
		}
		if seg.kind == segWildcard && i != len(parts)-1 {
			return pattern{}, invalidPath(raw, "catch-all must be the last segment")
		}
		if seg.kind != segLiteral && seg.value != "" {
			if seen[seg.value] {
				return pattern{}, invalidPath(raw, "duplicate capture name "+seg.value)
			}
			seen[seg.value] = true
		}
		p.segs = append(p.segs, seg)
	}

	return p, nil
}

func parseSegment(raw, part string) (segment, error) {
	if !strings.HasPrefix(part, "{") {
		if strings.ContainsAny(part, "{}") {
			return segment{}, invalidPath(raw, "captures must span a whole segment")
		}
		return segment{kind: segLiteral, value: part}, nil
	}
	if !strings.HasSuffix(part, "}") || len(part) < 2 {
		return segment{}, invalidPath(raw, "unterminated capture "+part)
	}

	name := part[1 : len(part)-1]
	kind := segParam
	if strings.HasPrefix(name, "*") {
		kind = segWildcard
		name = name[1:]
	}
	if strings.ContainsAny(name, "{}*/") {
		return segment{}, invalidPath(raw, "invalid capture name "+part)
	}
	if kind == segParam && name == "" {
		return segment{}, invalidPath(raw, "empty capture name")
	}

	return segment{kind: kind, value: name}, nil
}

// joinPath prepends prefix to path: "/api/" + "/x" becomes "/api/x" and
// "/api" + "/" becomes "/api/".
func joinPath(prefix, path string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(path, "/")
}

// scopeBase strips the scope suffixes from a scope pattern, so nested
// patterns can be reported relative to it.
func scopeBase(raw string) string {
	raw = strings.TrimSuffix(raw, "{*}")
	if raw != "/" {
		raw = strings.TrimSuffix(raw, "/")
	}

	return raw
}
