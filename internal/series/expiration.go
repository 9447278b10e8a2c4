package series

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
)

// Expiration is one contract of a series, existing or pending creation.
type Expiration struct {
	Doc       model.Document
	Reference model.Document // last known stored state; empty for new contracts

	Date     time.Time // expiry date
	Maturity string    // YYYY-MM or YYYY-MM-DD
	Near     string    // calendar spreads: near leg maturity, YYYY-MM
	Far      string    // calendar spreads: far leg maturity, YYYY-MM

	series *Series
	suffix []string // folders between the series and the contract
	stored bool
}

// expirationFromDocument wraps a stored or payload document.
func (s *Series) expirationFromDocument(doc model.Document) (*Expiration, error) {
	date, ok := maturity.NormalizeDate(doc["expiry"])
	if !ok {
		return nil, fmt.Errorf("no expiry: %w", ErrExpiration)
	}
	e := &Expiration{
		Doc:       doc,
		Reference: model.Document{},
		Date:      date,
		series:    s,
	}
	if m, ok := maturity.Format(doc["maturityDate"]); ok {
		e.Maturity = m
	}
	if s.Kind == KindCalendarSpread {
		e.Near, _ = maturity.Format(doc["nearMaturityDate"])
		e.Far, _ = maturity.Format(doc["farMaturityDate"])
		if e.Near == "" || e.Far == "" {
			return nil, fmt.Errorf("no near or far maturity: %w", ErrExpiration)
		}
	} else if e.Maturity == "" {
		return nil, fmt.Errorf("no maturityDate: %w", ErrExpiration)
	}

	seriesPath := s.Instrument.Path()
	if path := doc.Path(); len(path) > len(seriesPath)+1 {
		e.suffix = slices.Clone(path[len(seriesPath) : len(path)-1])
	}
	return e, nil
}

// IsNew reports whether the contract is pending creation.
func (e *Expiration) IsNew() bool { return !e.stored }

// SpreadType returns the orientation of a calendar spread contract.
func (e *Expiration) SpreadType() string {
	if st := e.Doc.String("spreadType"); st != "" {
		return st
	}
	return e.series.spreadType
}

// ContractName returns T.E.{symbolic}, or T.E.CS/{near}-{far} (RS/ when
// reversed) for calendar spreads.
func (e *Expiration) ContractName() string {
	if e.series.Kind == KindCalendarSpread {
		prefix := "CS"
		if e.SpreadType() == model.SpreadReverse {
			prefix = "RS"
		}
		return fmt.Sprintf("%s.%s/%s-%s", e.series.SeriesName(), prefix, symbolic(e.Near), symbolic(e.Far))
	}
	return e.series.SeriesName() + "." + symbolic(e.Maturity)
}

func (e *Expiration) String() string {
	return fmt.Sprintf("%s (%s)", e.ContractName(), e.Date.Format(maturity.DateLayout))
}

// Diff compares the reference with the live document.
func (e *Expiration) Diff() model.Diff {
	if e.series.Kind == KindOption {
		return optionDiff(e.Reference, e.Doc)
	}
	return model.Compare(e.Reference, e.Doc)
}

// sameKey reports whether two contracts describe the same expiration, which
// makes a pending one replace the other.
func (e *Expiration) sameKey(o *Expiration) bool {
	if !e.Date.Equal(o.Date) {
		return false
	}
	switch e.series.Kind {
	case KindOption:
		return true
	case KindCalendarSpread:
		return e.Far == o.Far
	default:
		return e.Maturity == o.Maturity
	}
}

func symbolic(numeric string) string {
	if s, ok := maturity.ToSymbolic(numeric); ok {
		return s
	}
	return numeric
}

// Find returns the contract matching id, or else the one whose expiry date,
// maturity or contract name matches. Contracts with isTrading false are not
// considered. Pending new contracts are searched after the stored ones. No
// match yields nil; several yield *AmbiguousMatchError.
func (s *Series) Find(exp any, mat, id string) (*Expiration, error) {
	if id != "" {
		return s.findID(id), nil
	}

	date, _ := maturity.NormalizeDate(exp)
	numeric, _ := maturity.Format(mat)
	name := ""
	if numeric != "" {
		name = s.SeriesName() + "." + symbolic(numeric)
	}

	return s.match(fmt.Sprintf("expiration=%s maturity=%s", dateString(date), numeric), func(e *Expiration) bool {
		switch {
		case !date.IsZero() && e.Date.Equal(date):
			return true
		case numeric != "" && e.Maturity == numeric:
			return true
		default:
			return name != "" && e.ContractName() == name
		}
	})
}

// FindSpread is Find for calendar spreads: a contract matches when its expiry
// date or near maturity matches and its far maturity matches, or when its
// name is the CS or RS form of near and far.
func (s *Series) FindSpread(exp any, near, far, id string) (*Expiration, error) {
	if id != "" {
		return s.findID(id), nil
	}

	date, _ := maturity.NormalizeDate(exp)
	near, _ = maturity.Format(near)
	far, _ = maturity.Format(far)
	legs := symbolic(near) + "-" + symbolic(far)
	forward := s.SeriesName() + ".CS/" + legs
	reverse := s.SeriesName() + ".RS/" + legs

	return s.match(fmt.Sprintf("expiration=%s near=%s far=%s", dateString(date), near, far), func(e *Expiration) bool {
		if far != "" && e.Far == far {
			if (!date.IsZero() && e.Date.Equal(date)) || (near != "" && e.Near == near) {
				return true
			}
		}
		if near == "" || far == "" {
			return false
		}
		name := e.ContractName()
		return name == forward || name == reverse
	})
}

func (s *Series) findID(id string) *Expiration {
	for _, e := range s.Contracts {
		if e.Doc.ID() == id {
			return e
		}
	}
	s.logger.Warn("expiration not found", "id", id)
	return nil
}

func (s *Series) match(query string, fn func(*Expiration) bool) (*Expiration, error) {
	var found []*Expiration
	for _, e := range s.Contracts {
		if !e.Doc.NotTrading() && fn(e) {
			found = append(found, e)
		}
	}
	if len(found) == 0 {
		for _, e := range s.NewExpirations {
			if fn(e) {
				found = append(found, e)
			}
		}
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, e := range found {
			names[i] = e.String()
		}
		err := &AmbiguousMatchError{Series: s.SeriesName(), Query: query, Matches: names}
		s.logger.Error("ambiguous expiration", "query", query, "matches", strings.Join(names, ", "))
		return nil, err
	}
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(maturity.DateLayout)
}
