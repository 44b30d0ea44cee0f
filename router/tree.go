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

import (
	"iter"
	"maps"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/relay/web"
)

// node is a trie node. Children are tagged by kind: literal children keyed
// by segment text, at most one capture child and at most one catch-all
// child. Nodes are never modified once published; writers copy the path
// from the root to the node they change.
type node struct {
	literals map[string]*node
	param    *node
	wildcard *node
	// name is the capture name of the first pattern through this node. It
	// labels near-miss captures; matched routes use their own names.
	name string
	ep   *endpoint
}

// endpoint holds what is registered at one pattern shape.
type endpoint struct {
	scope   bool
	methods map[string]*entry
	any     *entry
}

type entry struct {
	handler web.Handler
	pattern string
	names   []string
}

func (n *node) clone() *node {
	if n == nil {
		return &node{}
	}
	c := *n

	return &c
}

func (n *node) empty() bool {
	return n.ep == nil && len(n.literals) == 0 && n.param == nil && n.wildcard == nil
}

func (ep *endpoint) clone() *endpoint {
	if ep == nil {
		return &endpoint{methods: make(map[string]*entry)}
	}
	c := *ep
	c.methods = maps.Clone(ep.methods)
	if c.methods == nil {
		c.methods = make(map[string]*entry)
	}

	return &c
}

func (ep *endpoint) empty() bool {
	return ep == nil || (ep.any == nil && len(ep.methods) == 0)
}

// lookup selects the entry for method. HEAD falls back to GET, and every
// method falls back to the any-method entry.
func (ep *endpoint) lookup(method string) *entry {
	if e := ep.methods[method]; e != nil {
		return e
	}
	if method == http.MethodHead {
		if e := ep.methods[http.MethodGet]; e != nil {
			return e
		}
	}

	return ep.any
}

func (ep *endpoint) allowed() []string {
	return slices.Sorted(maps.Keys(ep.methods))
}

// insert returns a copy of n with update applied to the endpoint at p. n
// itself is left untouched.
func (n *node) insert(p pattern, i int, update func(*endpoint) (*endpoint, error)) (*node, error) {
	c := n.clone()
	if i == len(p.segs) {
		ep, err := update(c.ep)
		if err != nil {
			return nil, err
		}
		c.ep = ep

		return c, nil
	}

	seg := p.segs[i]
	switch seg.kind {
	case segLiteral:
		child, err := n.literalChild(seg.value).insert(p, i+1, update)
		if err != nil {
			return nil, err
		}
		c.literals = maps.Clone(c.literals)
		if c.literals == nil {
			c.literals = make(map[string]*node)
		}
		c.literals[seg.value] = child
	case segParam:
		child, err := c.param.insert(p, i+1, update)
		if err != nil {
			return nil, err
		}
		if c.param == nil {
			child.name = seg.value
		}
		c.param = child
	case segWildcard:
		child, err := c.wildcard.insert(p, i+1, update)
		if err != nil {
			return nil, err
		}
		if c.wildcard == nil {
			child.name = seg.value
		}
		c.wildcard = child
	}

	return c, nil
}

func (n *node) literalChild(text string) *node {
	if n == nil {
		return nil
	}

	return n.literals[text]
}

// remove returns a copy of n with the endpoint at p edited by drop, pruning
// nodes left empty. The boolean reports whether anything changed.
func (n *node) remove(p pattern, i int, drop func(*endpoint) (*endpoint, bool)) (*node, bool) {
	if n == nil {
		return nil, false
	}
	c := n.clone()

	if i == len(p.segs) {
		if n.ep == nil {
			return n, false
		}
		ep, changed := drop(n.ep)
		if !changed {
			return n, false
		}
		c.ep = ep
	} else {
		seg := p.segs[i]
		var changed bool
		switch seg.kind {
		case segLiteral:
			var child *node
			child, changed = n.literals[seg.value].remove(p, i+1, drop)
			if changed {
				c.literals = maps.Clone(n.literals)
				if child == nil {
					delete(c.literals, seg.value)
				} else {
					c.literals[seg.value] = child
				}
			}
		case segParam:
			c.param, changed = n.param.remove(p, i+1, drop)
			if changed && c.param != nil {
				c.param.name = c.param.relabel(p.captureIndex(i))
			}
		case segWildcard:
			c.wildcard, changed = n.wildcard.remove(p, i+1, drop)
			if changed && c.wildcard != nil {
				c.wildcard.name = c.wildcard.relabel(p.captureIndex(i))
			}
		}
		if !changed {
			return n, false
		}
	}

	if c.empty() {
		return nil, true
	}

	return c, true
}

// relabel returns the name for capture k of the patterns below n. The
// current name is kept while any of them still uses it; otherwise the
// first remaining pattern in iteration order supplies it.
func (n *node) relabel(k int) string {
	var first string
	for ep := range n.endpoints() {
		for _, e := range ep.entries() {
			if k >= len(e.names) {
				continue
			}
			if e.names[k] == n.name {
				return n.name
			}
			if first == "" {
				first = e.names[k]
			}
		}
	}

	return first
}

// find returns the node at the shape of p, or nil.
func (n *node) find(p pattern) *node {
	for _, seg := range p.segs {
		if n == nil {
			return nil
		}
		switch seg.kind {
		case segLiteral:
			n = n.literals[seg.value]
		case segParam:
			n = n.param
		case segWildcard:
			n = n.wildcard
		}
	}

	return n
}

// endpoints yields endpoints in a fixed order: literal children sorted by
// text, then the capture child, then the catch-all child.
func (n *node) endpoints() iter.Seq[*endpoint] {
	return func(yield func(*endpoint) bool) {
		n.visit(yield)
	}
}

func (n *node) visit(yield func(*endpoint) bool) bool {
	if n == nil {
		return true
	}
	if n.ep != nil && !yield(n.ep) {
		return false
	}
	for _, k := range slices.Sorted(maps.Keys(n.literals)) {
		if !n.literals[k].visit(yield) {
			return false
		}
	}
	if !n.param.visit(yield) {
		return false
	}

	return n.wildcard.visit(yield)
}

type capture struct {
	name     string
	raw      string
	wildcard bool
}

// matcher walks the trie depth first, trying literal, capture and
// catch-all children in that order and backtracking on failure. It also
// remembers the captures of the deepest partial match.
type matcher struct {
	segs      []string
	caps      []capture
	bestDepth int
	bestCaps  []capture
}

func (m *matcher) walk(n *node, i int) *node {
	if i > m.bestDepth {
		m.bestDepth = i
		m.bestCaps = slices.Clone(m.caps)
	}
	if i == len(m.segs) {
		if n.ep != nil {
			return n
		}
		return nil
	}

	seg := m.segs[i]
	if child := n.literals[seg]; child != nil {
		if found := m.walk(child, i+1); found != nil {
			return found
		}
	}
	if n.param != nil && seg != "" {
		m.caps = append(m.caps, capture{name: n.param.name, raw: seg})
		if found := m.walk(n.param, i+1); found != nil {
			return found
		}
		m.caps = m.caps[:len(m.caps)-1]
	}
	if n.wildcard != nil && n.wildcard.ep != nil {
		if rest := strings.Join(m.segs[i:], "/"); rest != "" {
			m.caps = append(m.caps, capture{name: n.wildcard.name, raw: rest, wildcard: true})
			return n.wildcard
		}
	}

	return nil
}
