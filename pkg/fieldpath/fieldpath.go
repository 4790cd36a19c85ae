// Package fieldpath implements dot-path addressing into nested map buffers.
// It is the single mutation entry point for form edit buffers: Set performs a
// structural per-level copy so ancestors along the path are fresh maps while
// sibling subtrees keep identity, which keeps change detection cheap.
package fieldpath

import "strings"

// Path is a sequence of object keys addressing a location in a buffer.
// Array-index segments are not supported; lists are replaced wholesale by
// callers.
type Path []string

// Parse splits a dot-separated path into segments. Empty segments are kept
// out so "a..b" and "a.b" address the same location.
func Parse(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	out := make(Path, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String joins the path with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Parent returns the path without its final segment, or nil for roots.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// Leaf returns the final segment, or "" for an empty path.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Sibling returns a path addressing key next to this path's leaf.
func (p Path) Sibling(key string) Path {
	out := make(Path, 0, len(p))
	out = append(out, p.Parent()...)
	return append(out, key)
}

// Get resolves the value at path. Missing intermediate nodes or non-map
// intermediates yield (nil, false); Get never panics.
func Get(buffer map[string]any, path Path) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	node := buffer
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	v, ok := node[path.Leaf()]
	return v, ok
}

// Set returns a new buffer with value placed at path. Every map along the
// path is shallow-copied; untouched siblings keep identity. Intermediate
// nodes are created when absent. A non-map value sitting where an object is
// needed is replaced by a fresh map, discarding the stray value; this is a
// recovery behavior, not an error.
func Set(buffer map[string]any, path Path, value any) map[string]any {
	if len(path) == 0 {
		return buffer
	}
	out := cloneLevel(buffer)
	node := out
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
		} else {
			child = cloneLevel(child)
		}
		node[seg] = child
		node = child
	}
	node[path.Leaf()] = value
	return out
}

func cloneLevel(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
