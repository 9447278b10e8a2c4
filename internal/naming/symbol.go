package naming

import (
	"strconv"

	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
)

// DefaultStrike is the strike placeholder appended to option series ids.
const DefaultStrike = "B*"

// References resolves the small reference lists naming depends on.
type References interface {
	ExchangeName(id string) (string, bool)
	ScheduleTimezone(id string) (string, bool)
}

// plainTypes are named TICKER.EXCHANGE without any maturity suffix.
var plainTypes = map[string]bool{
	model.TypeFXSpot: true,
	model.TypeForex:  true,
	model.TypeBond:   true,
	model.TypeCFD:    true,
	model.TypeFund:   true,
	model.TypeStock:  true,
}

// SymbolID returns the symbolId of a compiled document. It reports false for
// folders and for documents whose exchange, type or maturity cannot be
// resolved. An empty strike uses DefaultStrike.
func SymbolID(compiled model.Document, refs References, strike string) (string, bool) {
	if compiled.IsAbstract() {
		return "", false
	}
	if strike == "" {
		strike = DefaultStrike
	}

	exchange, ok := refs.ExchangeName(compiled.String("exchangeId"))
	if !ok || exchange == "" {
		return "", false
	}
	kind := compiled.String("type")
	if kind == "" {
		return "", false
	}

	ticker := compiled.String("ticker")
	if kind == model.TypeFXSpot || kind == model.TypeForex {
		ticker = compiled.String("baseCurrency") + "/" + compiled.String("currency")
	}
	id := ticker + "." + exchange
	maturityName := compiled.String("maturityName")

	switch {
	case plainTypes[kind]:
	case kind == model.TypeCalendarSpread:
		near, ok := monthYear(compiled.Map("nearMaturityDate"))
		if !ok {
			return "", false
		}
		far, ok := monthYear(compiled.Map("farMaturityDate"))
		if !ok {
			return "", false
		}
		switch compiled.String("spreadType") {
		case model.SpreadForward:
			id += ".CS/"
		case model.SpreadReverse:
			id += ".RS/"
		default:
			return "", false
		}
		id += near + "-" + far
	default:
		symbolic, ok := maturitySymbolic(compiled.Map("maturityDate"))
		if !ok {
			if maturityName == "" {
				return "", false
			}
			return id + "." + maturityName, true
		}
		id += "." + symbolic
		if kind == model.TypeOption {
			id += "." + strike
		}
	}

	if maturityName != "" {
		id += "." + maturityName
	}
	return id, true
}

// monthYear renders {month, year} as "H2024".
func monthYear(parts map[string]any) (string, bool) {
	if parts == nil {
		return "", false
	}
	month, ok := model.Int(parts["month"])
	if !ok || !maturity.Month(month).Valid() {
		return "", false
	}
	year, ok := model.Int(parts["year"])
	if !ok {
		return "", false
	}
	return maturity.Symbolic(year, maturity.Month(month)), true
}

// maturitySymbolic renders {day, month, year} as "15Z2023", the day optional.
func maturitySymbolic(parts map[string]any) (string, bool) {
	base, ok := monthYear(parts)
	if !ok {
		return "", false
	}
	if day, ok := model.Int(parts["day"]); ok && day != 0 {
		return strconv.Itoa(day) + base, true
	}
	return base, true
}
