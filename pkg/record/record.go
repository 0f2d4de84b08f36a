// Package record defines the unit of flow for the ETL engine: a
// recursive, schema-generic mapping from string keys to values.
//
// Records are semantically immutable at stage boundaries (every
// transformer that modifies a record produces a new one); in-place
// mutation within a single stage is fine, but nothing observes a
// mutation across a queue boundary.
package record

// Record is the recursive map that flows between pipeline stages.
// Values may be scalars, nested Records, or slices of Value.
type Record map[string]any

// KeyPath addresses a nested location inside a Record.
type KeyPath []string

// CopyPair is a (destination key path, source key path) pair used by
// a transformer's copy_values_key_paths configuration.
type CopyPair struct {
	Dst KeyPath
	Src KeyPath
}

// New returns an empty Record.
func New() Record {
	return make(Record)
}

// DeepGet resolves path against r, descending through nested Records.
// An empty path returns the whole record. It returns (nil, false) if
// any segment of the path is absent or not itself a Record.
func DeepGet(r Record, path KeyPath) (any, bool) {
	if len(path) == 0 {
		return r, true
	}

	var cur any = r
	for i, key := range path {
		m, ok := cur.(Record)
		if !ok {
			// Allow plain map[string]any to be navigated too, since
			// intermediate values built by DeepSet on a foreign map
			// literal may not be Record-typed.
			if generic, ok2 := cur.(map[string]any); ok2 {
				m = Record(generic)
			} else {
				return nil, false
			}
		}

		v, exists := m[key]
		if !exists {
			return nil, false
		}

		if i == len(path)-1 {
			return v, true
		}
		cur = v
	}

	return nil, false
}

// DeepSet returns a copy of r with value placed at path, creating
// intermediate Records as needed. The top-level record (and every
// intermediate Record along path) is copied so the caller's original
// record is left untouched.
func DeepSet(r Record, path KeyPath, value any) Record {
	if len(path) == 0 {
		return r
	}

	out := shallowClone(r)
	cur := out
	for i, key := range path {
		if i == len(path)-1 {
			cur[key] = value
			break
		}

		next, ok := cur[key].(Record)
		if !ok {
			if generic, ok2 := cur[key].(map[string]any); ok2 {
				next = shallowClone(Record(generic))
			} else {
				next = New()
			}
		} else {
			next = shallowClone(next)
		}
		cur[key] = next
		cur = next
	}

	return out
}

// DeepRemove returns a copy of r with the leaf at path removed. It is
// a no-op (returns r unchanged) if any segment along path is absent.
func DeepRemove(r Record, path KeyPath) Record {
	if len(path) == 0 {
		return r
	}

	if _, ok := DeepGet(r, path); !ok {
		return r
	}

	out := shallowClone(r)
	cur := out
	for i, key := range path {
		if i == len(path)-1 {
			delete(cur, key)
			break
		}

		next, ok := cur[key].(Record)
		if !ok {
			generic, ok2 := cur[key].(map[string]any)
			if !ok2 {
				return out
			}
			next = Record(generic)
		}
		next = shallowClone(next)
		cur[key] = next
		cur = next
	}

	return out
}

// Clone produces a deep copy of r, safe to hand to a concurrent
// consumer without risk of observing later mutation of the original.
func Clone(r Record) Record {
	return deepClone(r).(Record)
}

// CopyValues copies each pair's Src path from src into dst's Dst path,
// skipping pairs whose source value is absent. It implements the
// copy_values_key_paths contract shared by several transformers.
func CopyValues(dst, src Record, pairs []CopyPair) Record {
	out := dst
	for _, p := range pairs {
		v, ok := DeepGet(src, p.Src)
		if !ok {
			continue
		}
		out = DeepSet(out, p.Dst, v)
	}
	return out
}

func shallowClone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func deepClone(v any) any {
	switch t := v.(type) {
	case Record:
		out := make(Record, len(t))
		for k, vv := range t {
			out[k] = deepClone(vv)
		}
		return out
	case map[string]any:
		out := make(Record, len(t))
		for k, vv := range t {
			out[k] = deepClone(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepClone(vv)
		}
		return out
	default:
		return v
	}
}
