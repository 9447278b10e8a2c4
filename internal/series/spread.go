package series

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/symboldb-tools/internal/model"
)

var (
	gapPlaceholder = regexp.MustCompile(`^<<(\d{1,2}) month folder>>$`)
	monthsNumber   = regexp.MustCompile(`\d{1,2}`)
)

// loadLegs loads the futures series the spread legs refer to: the same
// ticker for calendar spreads, each part of "A-B" for product spreads.
func (s *Series) loadLegs(ctx context.Context) error {
	tickers := []string{s.Ticker}
	if s.Kind == KindProductSpread {
		tickers = strings.Split(s.Ticker, "-")
		if len(tickers) != 2 {
			return fmt.Errorf("%s: product spread ticker must be FIRST-SECOND: %w", s.SeriesName(), ErrNoInstrument)
		}
	}

	s.legs = s.legs[:0]
	for _, ticker := range tickers {
		leg, err := Load(ctx, s.deps, ticker, s.Exchange, Options{Kind: KindFuture})
		if err != nil {
			s.logger.Error("leg futures are not found", "leg", ticker+"."+s.Exchange, "error", err)
			return fmt.Errorf("%s.%s futures must exist first: %w", ticker, s.Exchange, err)
		}
		s.legs = append(s.legs, leg)
	}
	return nil
}

// Legs returns the futures series the spread is built on.
func (s *Series) Legs() []*Series { return s.legs }

// legContract finds the future with the given maturity in leg.
func legContract(leg *Series, numeric string) *Expiration {
	for _, e := range leg.Contracts {
		if e.Doc.NotTrading() {
			continue
		}
		if e.Maturity == numeric || monthOf(e.Maturity) == numeric {
			return e
		}
	}
	return nil
}

// calendarLegs builds the two legs of a calendar spread. FORWARD buys the
// near month and sells the far one; REVERSE does the opposite.
func (s *Series) calendarLegs(near, far, spreadType string) ([]any, error) {
	if len(s.legs) == 0 {
		return nil, fmt.Errorf("%s: leg futures are not loaded: %w", s.SeriesName(), ErrExpiration)
	}
	nearLeg := legContract(s.legs[0], near)
	if nearLeg == nil {
		return nil, fmt.Errorf("%s.%s future is not found: %w", s.SeriesName(), symbolic(near), ErrExpiration)
	}
	farLeg := legContract(s.legs[0], far)
	if farLeg == nil {
		return nil, fmt.Errorf("%s.%s future is not found: %w", s.SeriesName(), symbolic(far), ErrExpiration)
	}

	nearQty, farQty := 1, -1
	if spreadType == model.SpreadReverse {
		nearQty, farQty = -1, 1
	}
	return []any{
		model.Leg{Quantity: nearQty, ExanteID: nearLeg.ContractName()}.AsValue(),
		model.Leg{Quantity: farQty, ExanteID: farLeg.ContractName()}.AsValue(),
	}, nil
}

// productLegs buys the first product and sells the second, both of the same
// maturity.
func (s *Series) productLegs(numeric string) ([]any, error) {
	if len(s.legs) != 2 {
		return nil, fmt.Errorf("%s: leg futures are not loaded: %w", s.SeriesName(), ErrExpiration)
	}
	legs := make([]any, 0, 2)
	for i, leg := range s.legs {
		contract := legContract(leg, numeric)
		if contract == nil {
			return nil, fmt.Errorf("%s.%s future is not found: %w", leg.SeriesName(), symbolic(numeric), ErrExpiration)
		}
		qty := 1
		if i == 1 {
			qty = -1
		}
		legs = append(legs, model.Leg{Quantity: qty, ExanteID: contract.ContractName()}.AsValue())
	}
	return legs, nil
}

// monthGap is the number of months between two YYYY-MM maturities.
func monthGap(near, far string) (int, bool) {
	n, err := time.Parse("2006-01", monthOf(near))
	if err != nil {
		return 0, false
	}
	f, err := time.Parse("2006-01", monthOf(far))
	if err != nil {
		return 0, false
	}
	days := f.Sub(n).Hours() / 24
	return int(math.Round(days / 30.41)), true
}

// gapSuffix returns the gap folder a calendar spread belongs in: its id,
// a placeholder when gap folders are used but this one is missing, or nothing
// when the series keeps contracts directly.
func (s *Series) gapSuffix(c candidate) []string {
	if s.Kind != KindCalendarSpread || len(s.gapFolders) == 0 {
		return nil
	}
	gap, ok := monthGap(c.near, c.far)
	if !ok {
		s.logger.Error("cannot determine month gap", "near", c.near, "far", c.far)
		return nil
	}
	if gf := s.gapFolderFor(gap); gf != nil {
		return []string{gf.ID()}
	}
	return []string{fmt.Sprintf("<<%d month folder>>", gap)}
}

func (s *Series) gapFolderFor(gap int) model.Document {
	for _, gf := range s.gapFolders {
		m := gapFolderName.FindStringSubmatch(gf.Name())
		if m == nil {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n == gap {
			return gf
		}
	}
	return nil
}

// gapFolder returns the stored gap folder a suffix points at.
func (s *Series) gapFolder(suffix []string) model.Document {
	if len(suffix) == 0 {
		return nil
	}
	for _, gf := range s.gapFolders {
		if gf.ID() == suffix[0] {
			return gf
		}
	}
	return nil
}

// gapFolderDocument clones sibling into a folder for gap months. Leg gaps in
// provider overrides are scaled by gap over the sibling's months.
func gapFolderDocument(gap int, sibling model.Document) model.Document {
	doc := model.Document{}
	for k, v := range sibling {
		if !strings.HasPrefix(k, "_") {
			doc[k] = model.CloneValue(v)
		}
	}
	if path := sibling.Path(); len(path) > 0 {
		doc.SetPath(path[:len(path)-1])
	}

	name := sibling.Name()
	siblingMonths := 0
	if loc := monthsNumber.FindStringIndex(name); loc != nil {
		siblingMonths, _ = strconv.Atoi(name[loc[0]:loc[1]])
		name = name[:loc[0]] + fmt.Sprintf("%02d", gap) + name[loc[1]:]
	}
	doc[model.KeyName] = name

	overrides := model.AsMap(doc.Map("brokers")["providerOverrides"])
	for _, v := range overrides {
		provider := model.AsMap(v)
		legGap, ok := model.Float(provider["legGap"])
		if !ok || legGap == 0 {
			continue
		}
		scaled := float64(gap)
		if siblingMonths > 0 {
			scaled = legGap * float64(gap) / float64(siblingMonths)
		}
		if scaled == math.Trunc(scaled) {
			provider["legGap"] = int(scaled)
		} else {
			provider["legGap"] = scaled
		}
	}
	return doc
}

// createGapFolders creates the gap folders new contracts are waiting for and
// points the contracts at them. Contracts whose folder cannot be created are
// dropped from the pending list.
func (s *Series) createGapFolders(ctx context.Context, dryRun bool) {
	if len(s.gapFolders) == 0 {
		return
	}
	sibling := s.gapFolders[0]

	created := map[string]string{}
	var kept []*Expiration
	for _, e := range s.NewExpirations {
		if len(e.suffix) == 0 {
			kept = append(kept, e)
			continue
		}
		m := gapPlaceholder.FindStringSubmatch(e.suffix[0])
		if m == nil {
			kept = append(kept, e)
			continue
		}
		if dryRun {
			kept = append(kept, e)
			continue
		}

		id, ok := created[e.suffix[0]]
		if !ok {
			gap, _ := strconv.Atoi(m[1])
			doc := gapFolderDocument(gap, sibling)
			doc.SetPath(s.Instrument.Path())
			rev, err := s.deps.Store.Create(ctx, doc)
			if err != nil || rev.ID == "" {
				s.logger.Error("cannot create gap folder",
					"folder", doc.Name(),
					"error", err,
				)
				created[e.suffix[0]] = ""
			} else {
				doc[model.KeyID] = rev.ID
				doc[model.KeyRev] = rev.Rev
				doc.SetPath(append(doc.Path(), rev.ID))
				s.gapFolders = append(s.gapFolders, doc)
				if s.deps.Tree != nil {
					s.deps.Tree.Add(doc)
				}
				s.logger.Info("gap folder created", "folder", doc.Name(), "id", rev.ID)
				created[e.suffix[0]] = rev.ID
			}
			id = created[e.suffix[0]]
		}
		if id == "" {
			s.logger.Error("expiration dropped, its gap folder does not exist", "contract", e.ContractName())
			continue
		}
		e.suffix = []string{id}
		kept = append(kept, e)
	}
	s.NewExpirations = kept
}
