package attr

import (
	"strings"
)

// Separator splits a path into its segments.
const Separator = "."

// Map is a tree of string-keyed attributes addressed with dotted paths.
// It is not safe for concurrent use; a session owns its map for the length of
// one request.
type Map struct {
	items map[string]any
}

// New creates an empty Map.
func New() *Map {
	return &Map{items: make(map[string]any)}
}

// From wraps an existing tree. The map takes ownership of items.
func From(items map[string]any) *Map {
	if items == nil {
		items = make(map[string]any)
	}
	return &Map{items: items}
}

// All returns the underlying tree. Callers must not mutate it.
func (m *Map) All() map[string]any {
	return m.items
}

// Len returns the number of top-level keys.
func (m *Map) Len() int {
	return len(m.items)
}

// Lookup resolves path and reports whether it exists, nil values included.
// A literal top-level key containing the separator wins over traversal.
func (m *Map) Lookup(path string) (any, bool) {
	if v, ok := m.items[path]; ok {
		return v, true
	}
	if !strings.Contains(path, Separator) {
		return nil, false
	}

	var current any = m.items
	for _, segment := range strings.Split(path, Separator) {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Get returns the value at path, or def when any segment is missing.
func (m *Map) Get(path string, def any) any {
	if v, ok := m.Lookup(path); ok {
		return v
	}
	return def
}

// Put stores value at path, creating intermediate maps as needed.
// Intermediate segments that hold a non-map value are replaced. An existing
// literal top-level key equal to path is overwritten in place.
func (m *Map) Put(path string, value any) {
	if _, ok := m.items[path]; ok {
		m.items[path] = Clone(value)
		return
	}
	segments := strings.Split(path, Separator)
	node := m.items
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = Clone(value)
}

// PutAll stores every path/value pair of values.
func (m *Map) PutAll(values map[string]any) {
	for path, value := range values {
		m.Put(path, value)
	}
}

// Replace merges values into the tree, overwriting on conflict.
func (m *Map) Replace(values map[string]any) {
	m.PutAll(values)
}

// Forget removes every given path. Missing paths are ignored.
func (m *Map) Forget(paths ...string) {
	for _, path := range paths {
		m.forget(path)
	}
}

func (m *Map) forget(path string) {
	if _, ok := m.items[path]; ok {
		delete(m.items, path)
		return
	}

	segments := strings.Split(path, Separator)
	node := m.items
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, segments[len(segments)-1])
}

// Pull returns the value at path (or def) and removes it.
func (m *Map) Pull(path string, def any) any {
	value := m.Get(path, def)
	m.forget(path)
	return value
}

// Remove deletes path and returns its previous value, nil if absent.
func (m *Map) Remove(path string) any {
	return m.Pull(path, nil)
}

// Exists reports whether every path resolves, nil values included.
func (m *Map) Exists(paths ...string) bool {
	for _, path := range paths {
		if _, ok := m.Lookup(path); !ok {
			return false
		}
	}
	return true
}

// Has reports whether every path resolves to a non-nil value.
func (m *Map) Has(paths ...string) bool {
	for _, path := range paths {
		if v, ok := m.Lookup(path); !ok || v == nil {
			return false
		}
	}
	return true
}

// Flush removes every attribute.
func (m *Map) Flush() {
	m.items = make(map[string]any)
}

// Push appends value to the sequence at path. An absent or non-sequence value
// is replaced by a new sequence.
func (m *Map) Push(path string, value any) {
	list := Sequence(m.Get(path, nil))
	m.Put(path, append(list, value))
}
