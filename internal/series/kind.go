package series

import (
	"fmt"
	"strings"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// Kind is the derivative family a series belongs to.
type Kind int

const (
	KindFuture Kind = iota + 1
	KindOption
	KindCalendarSpread
	KindProductSpread
)

func (k Kind) String() string {
	switch k {
	case KindFuture:
		return "future"
	case KindOption:
		return "option"
	case KindCalendarSpread:
		return "calendar_spread"
	case KindProductSpread:
		return "product_spread"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the String form of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "future", "futures":
		return KindFuture, nil
	case "option", "options":
		return KindOption, nil
	case "calendar_spread", "calendar", "spread":
		return KindCalendarSpread, nil
	case "product_spread", "product":
		return KindProductSpread, nil
	}
	return 0, fmt.Errorf("unknown series kind %q", s)
}

// folders returns the second level folders that may hold the exchange
// folder, in lookup order.
func (k Kind) folders() []string {
	switch k {
	case KindOption:
		return []string{"OPTION", "OPTION ON FUTURE"}
	case KindCalendarSpread, KindProductSpread:
		return []string{"SPREAD"}
	default:
		return []string{"FUTURE"}
	}
}

// instrumentType is the "type" value of contracts of this kind.
func (k Kind) instrumentType() string {
	switch k {
	case KindOption:
		return model.TypeOption
	case KindCalendarSpread:
		return model.TypeCalendarSpread
	case KindProductSpread:
		return model.TypeFuture
	default:
		return model.TypeFuture
	}
}

func (k Kind) spread() bool {
	return k == KindCalendarSpread || k == KindProductSpread
}
