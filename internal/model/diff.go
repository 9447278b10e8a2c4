package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ChangeKind classifies a single difference.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Changed ChangeKind = "changed"
	Removed ChangeKind = "removed"
)

// Change is one leaf difference between two documents.
type Change struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
	Old  any        `json:"old,omitempty"`
	New  any        `json:"new,omitempty"`
}

// Diff lists changes sorted by path.
type Diff []Change

// Empty reports whether the documents were equal.
func (d Diff) Empty() bool { return len(d) == 0 }

// Paths returns the changed paths.
func (d Diff) Paths() []string {
	out := make([]string, len(d))
	for i, c := range d {
		out[i] = c.Path
	}
	return out
}

func (d Diff) String() string {
	var b strings.Builder
	for i, c := range d {
		if i > 0 {
			b.WriteString("; ")
		}
		switch c.Kind {
		case Added:
			fmt.Fprintf(&b, "+%s=%v", c.Path, c.New)
		case Removed:
			fmt.Fprintf(&b, "-%s", c.Path)
		default:
			fmt.Fprintf(&b, "%s: %v -> %v", c.Path, c.Old, c.New)
		}
	}
	return b.String()
}

// Compare returns the structural difference from reference to live. Numbers
// compare by value so decoded float64 and in-memory int agree.
func Compare(reference, live Document) Diff {
	var out Diff
	compareValue("", map[string]any(reference), map[string]any(live), &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func compareValue(path string, a, b any, out *Diff) {
	am, aIsMap := asMapOK(a)
	bm, bIsMap := asMapOK(b)
	if aIsMap && bIsMap {
		for k, av := range am {
			bv, ok := bm[k]
			if !ok {
				*out = append(*out, Change{Path: join(path, k), Kind: Removed, Old: av})
				continue
			}
			compareValue(join(path, k), av, bv, out)
		}
		for k, bv := range bm {
			if _, ok := am[k]; !ok {
				*out = append(*out, Change{Path: join(path, k), Kind: Added, New: bv})
			}
		}
		return
	}

	al, aIsList := a.([]any)
	bl, bIsList := b.([]any)
	if aIsList && bIsList {
		n := min(len(al), len(bl))
		for i := 0; i < n; i++ {
			compareValue(join(path, strconv.Itoa(i)), al[i], bl[i], out)
		}
		for i := n; i < len(al); i++ {
			*out = append(*out, Change{Path: join(path, strconv.Itoa(i)), Kind: Removed, Old: al[i]})
		}
		for i := n; i < len(bl); i++ {
			*out = append(*out, Change{Path: join(path, strconv.Itoa(i)), Kind: Added, New: bl[i]})
		}
		return
	}

	if !Equal(a, b) {
		*out = append(*out, Change{Path: path, Kind: Changed, Old: a, New: b})
	}
}

// Equal compares two document values deeply, numbers by value.
func Equal(a, b any) bool {
	if af, ok := Float(a); ok {
		bf, ok := Float(b)
		return ok && af == bf
	}
	am, aIsMap := asMapOK(a)
	bm, bIsMap := asMapOK(b)
	if aIsMap || bIsMap {
		if !aIsMap || !bIsMap || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	al, aIsList := a.([]any)
	bl, bIsList := b.([]any)
	if aIsList || bIsList {
		if !aIsList || !bIsList || len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !Equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func asMapOK(v any) (map[string]any, bool) {
	m := AsMap(v)
	return m, m != nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
