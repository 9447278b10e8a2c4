package inherit

import (
	"github.com/rickgao/symboldb-tools/internal/model"
)

const templateKey = "$template"

// merger folds child documents into a compiled document.
type merger struct {
	legacy bool
}

// mergeObject merges child into compiled in place and returns compiled.
func (m merger) mergeObject(schema Object, child, compiled map[string]any) map[string]any {
	for key, cval := range child {
		prev, ok := compiled[key]
		if !ok {
			compiled[key] = model.CloneValue(cval)
			continue
		}
		if isTemplate(cval) {
			if _, isString := prev.(string); isString {
				compiled[key] = model.CloneValue(cval)
				continue
			}
		}
		compiled[key] = m.merge(schema.field(key), cval, prev)
	}
	return compiled
}

// merge returns the merged value of child over compiled.
func (m merger) merge(s Strategy, child, compiled any) any {
	if cm := model.AsMap(child); cm != nil {
		pm := model.AsMap(compiled)
		if pm == nil {
			return model.CloneValue(child)
		}
		obj, _ := s.(Object)
		return m.mergeObject(obj, cm, pm)
	}

	if cl, ok := child.([]any); ok {
		pl, _ := compiled.([]any)
		if len(pl) == 0 {
			return model.CloneValue(cl)
		}
		switch st := s.(type) {
		case OrderedList:
			return m.mergeOrdered(st, cl, pl)
		case nil:
			if m.legacy {
				if len(cl) == 0 {
					return model.CloneValue(pl)
				}
				if key, ok := legacyIDKey(cl); ok {
					return m.mergeOrdered(OrderedList{IDKey: key}, cl, pl)
				}
			}
		}
		return model.CloneValue(cl)
	}

	return child
}

// mergeOrdered walks the child list from its end. Items found in compiled are
// merged and moved to the front; new items are inserted at the front. If any
// child item lacks the identifying key the child list replaces compiled.
func (m merger) mergeOrdered(s OrderedList, child, compiled []any) []any {
	for _, item := range child {
		im := model.AsMap(item)
		if im == nil || im[s.IDKey] == nil {
			return model.CloneValue(child).([]any)
		}
	}

	out := model.CloneValue(compiled).([]any)
	for i := len(child) - 1; i >= 0; i-- {
		item := model.AsMap(child[i])
		id := item[s.IDKey]

		pos := -1
		for n, existing := range out {
			if em := model.AsMap(existing); em != nil && model.Equal(em[s.IDKey], id) {
				pos = n
				break
			}
		}

		var merged any
		if pos >= 0 {
			merged = m.mergeObject(s.Item, item, model.AsMap(out[pos]))
			out = append(out[:pos], out[pos+1:]...)
		} else {
			merged = model.CloneValue(item)
		}
		out = append([]any{merged}, out...)
	}
	return out
}

// legacyIDKey mirrors the historical detection: every item must be a mapping
// and the first item must carry an "account" or "gateway" marker. Under that
// detection an empty child list keeps the inherited one.
func legacyIDKey(items []any) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	first := model.AsMap(items[0])
	if first == nil {
		return "", false
	}
	for _, marker := range legacyMarkers {
		if truthy(first[marker]) {
			return marker + "Id", true
		}
	}
	return "", false
}

func isTemplate(v any) bool {
	m := model.AsMap(v)
	return m != nil && truthy(m[templateKey])
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		if f, ok := model.Float(v); ok {
			return f != 0
		}
		return true
	}
}
