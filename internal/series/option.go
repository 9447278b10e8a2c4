package series

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// strikeIdentifiers are the identifier keys kept on a strike.
var strikeIdentifiers = []string{"ISIN", "FIGI"}

// StrikeInput is one strike to add.
type StrikeInput struct {
	Price       decimal.Decimal
	Identifiers map[string]any
}

// Strikes are the CALL and PUT strikes of an option contract.
type Strikes struct {
	Call []StrikeInput
	Put  []StrikeInput
}

// NewStrikes builds strikes from plain prices.
func NewStrikes(call, put []float64) Strikes {
	conv := func(prices []float64) []StrikeInput {
		out := make([]StrikeInput, len(prices))
		for i, p := range prices {
			out[i] = StrikeInput{Price: decimal.NewFromFloat(p)}
		}
		return out
	}
	return Strikes{Call: conv(call), Put: conv(put)}
}

// ParseStrikes reads {"CALL": [...], "PUT": [...]} where each strike is a
// number, a numeric string or an object with strikePrice and optional ISIN
// and FIGI.
func ParseStrikes(v map[string]any) (Strikes, error) {
	var out Strikes
	for _, side := range []string{model.SideCall, model.SidePut} {
		raw, _ := v[side].([]any)
		list := make([]StrikeInput, 0, len(raw))
		for _, item := range raw {
			strike, err := parseStrike(item)
			if err != nil {
				return Strikes{}, fmt.Errorf("%s strike %v: %w", side, item, err)
			}
			list = append(list, strike)
		}
		if side == model.SideCall {
			out.Call = list
		} else {
			out.Put = list
		}
	}
	return out, nil
}

func parseStrike(item any) (StrikeInput, error) {
	switch t := item.(type) {
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return StrikeInput{}, err
		}
		return StrikeInput{Price: d}, nil
	case map[string]any:
		strike, err := parseStrike(t["strikePrice"])
		if err != nil {
			return StrikeInput{}, err
		}
		for _, key := range strikeIdentifiers {
			if id, ok := t[key]; ok {
				if strike.Identifiers == nil {
					strike.Identifiers = map[string]any{}
				}
				strike.Identifiers[key] = id
			}
		}
		if ids := model.AsMap(t["identifiers"]); ids != nil {
			for _, key := range strikeIdentifiers {
				if id, ok := ids[key]; ok {
					if strike.Identifiers == nil {
						strike.Identifiers = map[string]any{}
					}
					strike.Identifiers[key] = id
				}
			}
		}
		return strike, nil
	default:
		f, ok := model.Float(item)
		if !ok {
			return StrikeInput{}, fmt.Errorf("not a strike price: %w", ErrExpiration)
		}
		return StrikeInput{Price: decimal.NewFromFloat(f)}, nil
	}
}

// value encodes the strikes as strikePrices. Both sides are required.
func (s Strikes) value() (map[string]any, error) {
	if len(s.Call) == 0 || len(s.Put) == 0 {
		return nil, fmt.Errorf("both CALL and PUT strikes are required: %w", ErrExpiration)
	}
	return map[string]any{
		model.SideCall: strikeList(nil, s.Call),
		model.SidePut:  strikeList(nil, s.Put),
	}, nil
}

// strikeList merges inputs into existing, skipping known prices, and sorts
// by price.
func strikeList(existing []any, inputs []StrikeInput) []any {
	seen := map[string]bool{}
	out := make([]any, 0, len(existing)+len(inputs))
	for _, v := range existing {
		if p, ok := strikePrice(v); ok {
			seen[p.String()] = true
		}
		out = append(out, v)
	}
	for _, in := range inputs {
		key := in.Price.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.Strike{
			StrikePrice: in.Price.InexactFloat64(),
			IsAvailable: true,
			Identifiers: in.Identifiers,
		}.AsValue())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := strikePrice(out[i])
		b, _ := strikePrice(out[j])
		return a.LessThan(b)
	})
	return out
}

func strikePrice(v any) (decimal.Decimal, bool) {
	f, ok := model.Float(model.AsMap(v)["strikePrice"])
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

// addStrikes merges strikes into doc and returns the ids of the added ones
// as C4400 / P12_5.
func addStrikes(doc model.Document, strikes Strikes) []string {
	sp := doc.Map("strikePrices")
	if sp == nil {
		sp = map[string]any{}
		doc["strikePrices"] = sp
	}

	var added []string
	for _, side := range []string{model.SideCall, model.SidePut} {
		inputs := strikes.Call
		if side == model.SidePut {
			inputs = strikes.Put
		}
		existing, _ := sp[side].([]any)
		before := availablePrices(existing)
		merged := strikeList(existing, inputs)
		for p := range availablePrices(merged) {
			if !before[p] {
				added = append(added, strikeSuffix(side, p))
			}
		}
		sp[side] = merged
	}
	sort.Strings(added)
	return added
}

// strikesOf reads the strikes stored on doc.
func strikesOf(doc model.Document) Strikes {
	var out Strikes
	sp := doc.Map("strikePrices")
	for _, side := range []string{model.SideCall, model.SidePut} {
		list, _ := sp[side].([]any)
		inputs := make([]StrikeInput, 0, len(list))
		for _, v := range list {
			p, ok := strikePrice(v)
			if !ok {
				continue
			}
			inputs = append(inputs, StrikeInput{Price: p, Identifiers: model.AsMap(model.AsMap(v)["identifiers"])})
		}
		if side == model.SideCall {
			out.Call = inputs
		} else {
			out.Put = inputs
		}
	}
	return out
}

// availablePrices returns the prices of strikes with isAvailable set.
func availablePrices(list []any) map[string]bool {
	out := map[string]bool{}
	for _, v := range list {
		m := model.AsMap(v)
		if available, _ := m["isAvailable"].(bool); !available {
			continue
		}
		if p, ok := strikePrice(v); ok {
			out[p.String()] = true
		}
	}
	return out
}

func strikeSuffix(side, price string) string {
	return side[:1] + strings.ReplaceAll(price, ".", "_")
}

// StrikeID returns the symbol of one strike of the contract, for example
// ES.CME.Z2023.C4400 or ES.CME.Z2023.P12_5.
func (e *Expiration) StrikeID(side string, price decimal.Decimal) string {
	return e.ContractName() + "." + strikeSuffix(side, price.String())
}

// optionDiff compares everything but the strikes structurally and reports
// strikes by availability.
func optionDiff(reference, live model.Document) model.Diff {
	diff := model.Compare(reference.Without("strikePrices"), live.Without("strikePrices"))
	for _, side := range []string{model.SideCall, model.SidePut} {
		before, _ := reference.Map("strikePrices")[side].([]any)
		after, _ := live.Map("strikePrices")[side].([]any)
		was, is := availablePrices(before), availablePrices(after)
		path := "strikePrices." + side
		for _, p := range sortedKeys(is) {
			if !was[p] {
				diff = append(diff, model.Change{Path: path, Kind: model.Added, New: p})
			}
		}
		for _, p := range sortedKeys(was) {
			if !is[p] {
				diff = append(diff, model.Change{Path: path, Kind: model.Removed, Old: p})
			}
		}
	}
	return diff
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
