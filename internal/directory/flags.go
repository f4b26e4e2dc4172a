package directory

import "strings"

// Flags holds one user's flag storage: scope -> key -> value.
// Keys passed to the methods may be dotted paths into nested maps.
type Flags map[string]map[string]any

// SplitPath splits a dotted flag path.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// Get returns a copy of the map stored at path, or nil.
func (f Flags) Get(scope, path string) map[string]any {
	v, ok := lookup(f[scope], SplitPath(path))
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return cloneMap(m)
}

// Set replaces the value at path.
func (f Flags) Set(scope, path string, value map[string]any) {
	parts := SplitPath(path)
	parent := f.parent(scope, parts)
	parent[parts[len(parts)-1]] = cloneMap(value)
}

// Merge deep-merges value into the map at path. Nested maps merge key by key;
// anything else overwrites.
func (f Flags) Merge(scope, path string, value map[string]any) {
	parts := SplitPath(path)
	parent := f.parent(scope, parts)
	leaf := parts[len(parts)-1]
	dst, ok := parent[leaf].(map[string]any)
	if !ok {
		dst = map[string]any{}
		parent[leaf] = dst
	}
	mergeInto(dst, value)
}

// Unset removes the leaf at path, leaving siblings alone.
func (f Flags) Unset(scope, path string) {
	parts := SplitPath(path)
	cur := f[scope]
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

// Clone deep-copies f.
func (f Flags) Clone() Flags {
	out := make(Flags, len(f))
	for scope, keys := range f {
		out[scope] = cloneMap(keys)
	}
	return out
}

func (f Flags) parent(scope string, parts []string) map[string]any {
	if f[scope] == nil {
		f[scope] = map[string]any{}
	}
	cur := f[scope]
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	return cur
}

func lookup(m map[string]any, parts []string) (any, bool) {
	var cur any = m
	for _, p := range parts {
		cm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = cm[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := v.(map[string]any)
		if !ok {
			dst[k] = cloneValue(v)
			continue
		}
		dm, ok := dst[k].(map[string]any)
		if !ok {
			dst[k] = cloneMap(sm)
			continue
		}
		mergeInto(dm, sm)
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	default:
		return v
	}
}
