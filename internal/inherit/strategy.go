package inherit

// Strategy is the merge rule for one field. The concrete types are Scalar,
// Object, ReplaceList and OrderedList.
type Strategy interface {
	strategy()
}

// Scalar lets the child value win.
type Scalar struct{}

// Object merges mappings key by key. Fields declares strategies for known
// keys; unknown keys are inferred from their shape.
type Object struct {
	Fields map[string]Strategy
}

// ReplaceList makes the child list replace the inherited one wholesale.
type ReplaceList struct{}

// OrderedList is the identified ordered-list merge. Items are matched on
// IDKey; Item declares the strategies used when merging two matched items.
type OrderedList struct {
	IDKey string
	Item  Object
}

func (Scalar) strategy()      {}
func (Object) strategy()      {}
func (ReplaceList) strategy() {}
func (OrderedList) strategy() {}

// field returns the declared strategy for key, or nil.
func (o Object) field(key string) Strategy {
	if o.Fields == nil {
		return nil
	}
	return o.Fields[key]
}

// DefaultSchema declares the ordered provider lists of SymbolDB documents.
func DefaultSchema() Object {
	return Object{Fields: map[string]Strategy{
		"brokers": Object{Fields: map[string]Strategy{
			"accounts": OrderedList{IDKey: "accountId"},
		}},
		"feeds": Object{Fields: map[string]Strategy{
			"gateways": OrderedList{IDKey: "gatewayId"},
		}},
	}}
}

// legacyMarkers are the item keys the legacy detection looks for; the
// identifying key is the marker followed by "Id".
var legacyMarkers = []string{"account", "gateway"}
