package model

import (
	"encoding/json"
	"strings"
)

// Identity and structural keys.
const (
	KeyID             = "_id"
	KeyRev            = "_rev"
	KeyCreationTime   = "_creationTime"
	KeyLastUpdateTime = "_lastUpdateTime"
	KeyPath           = "path"
	KeyName           = "name"
	KeyIsAbstract     = "isAbstract"
	KeyIsTrading      = "isTrading"
)

// Document is one SymbolDB tree node.
type Document map[string]any

// ID returns the document id or "".
func (d Document) ID() string { return d.String(KeyID) }

// Rev returns the revision marker or "".
func (d Document) Rev() string { return d.String(KeyRev) }

// Name returns the tree name or "".
func (d Document) Name() string { return d.String(KeyName) }

// IsAbstract reports whether the node is a folder.
func (d Document) IsAbstract() bool {
	v, _ := d[KeyIsAbstract].(bool)
	return v
}

// IsTrading returns the isTrading flag and whether it is set at all.
func (d Document) IsTrading() (value, ok bool) {
	v, ok := d[KeyIsTrading].(bool)
	return v, ok
}

// NotTrading reports whether isTrading is explicitly false.
func (d Document) NotTrading() bool {
	v, ok := d.IsTrading()
	return ok && !v
}

// Path returns the ancestor id list (a copy).
func (d Document) Path() []string {
	return StringSlice(d[KeyPath])
}

// SetPath replaces the path.
func (d Document) SetPath(path []string) {
	out := make([]any, len(path))
	for i, p := range path {
		out[i] = p
	}
	d[KeyPath] = out
}

// String returns a string field or "".
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Map returns a nested object field or nil.
func (d Document) Map(key string) map[string]any {
	return AsMap(d[key])
}

// Lookup walks nested objects and returns the value at path.
func (d Document) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(d)
	for _, key := range path {
		m := AsMap(cur)
		if m == nil {
			return nil, false
		}
		v, ok := m[key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Set stores value at path, creating intermediate objects. A single element
// containing slashes is split, so "identifiers/ISIN" addresses a nested key.
func (d Document) Set(value any, path ...string) {
	if len(path) == 1 && strings.Contains(path[0], "/") {
		path = strings.Split(path[0], "/")
	}
	if len(path) == 0 {
		return
	}
	cur := map[string]any(d)
	for _, key := range path[:len(path)-1] {
		next := AsMap(cur[key])
		if next == nil {
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = normalize(value)
}

// Delete removes the value at path if present.
func (d Document) Delete(path ...string) {
	if len(path) == 0 {
		return
	}
	parent := map[string]any(d)
	if len(path) > 1 {
		v, ok := d.Lookup(path[:len(path)-1]...)
		if !ok {
			return
		}
		parent = AsMap(v)
		if parent == nil {
			return
		}
	}
	delete(parent, path[len(path)-1])
}

// Has reports whether every key is present.
func (d Document) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := d[k]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// Without returns a deep copy with the given top-level keys removed.
func (d Document) Without(keys ...string) Document {
	out := d.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Underscored returns a deep copy of the underscore-prefixed keys.
func (d Document) Underscored() Document {
	out := Document{}
	for k, v := range d {
		if strings.HasPrefix(k, "_") {
			out[k] = CloneValue(v)
		}
	}
	return out
}

// Merge copies every key of src over d (shallow on top level, values cloned).
func (d Document) Merge(src map[string]any) {
	for k, v := range src {
		d[k] = CloneValue(normalize(v))
	}
}

// MarshalLine encodes the document as a single JSON line.
func (d Document) MarshalLine() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// CloneValue deep-copies maps and slices; scalars are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return cloneMap(t)
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// normalize converts typed containers to the generic forms documents hold.
func normalize(v any) any {
	switch t := v.(type) {
	case Document:
		return map[string]any(t)
	case []string, []map[string]any:
		return CloneValue(t)
	default:
		return v
	}
}

// AsMap returns v as an object or nil.
func AsMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case Document:
		return t
	default:
		return nil
	}
}

// StringSlice converts []any or []string to []string, skipping non-strings.
func StringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Int converts JSON and Go numeric values to int.
func Int(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case float32:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// Float converts JSON and Go numeric values to float64.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
