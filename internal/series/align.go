package series

import (
	"context"
	"fmt"

	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
)

// lastAvailableDays is how long after expiry a contract stays available.
const lastAvailableDays = 3

// alignLastDates decides whether contracts carry their own lastAvailable and
// lastTrading dates and back-fills the contracts missing them.
//
// When the compiled series already has both times, every new contract gets
// both dates and inherits the times. Otherwise, when the series has an
// expiry time and existing contracts carry one of the dates, the series gets
// that time for the date and contracts missing it are filled in.
func (s *Series) alignLastDates(ctx context.Context) error {
	compiled, err := s.compiledSeries(ctx)
	if err != nil {
		return fmt.Errorf("compile series %s: %w", s.SeriesName(), err)
	}

	laTime := stringAt(compiled, "lastAvailable", "time")
	ltTime := stringAt(compiled, "lastTrading", "time")
	if laTime != "" && ltTime != "" {
		s.SetLastAvailable = Alignment{Enabled: true}
		s.SetLastTrading = Alignment{Enabled: true}
		return nil
	}

	expiryTime := stringAt(compiled, "expiry", "time")
	if expiryTime == "" {
		return nil
	}

	var hasLA, hasLT bool
	for _, e := range s.Contracts {
		hasLA = hasLA || e.Doc.Has("lastAvailable")
		hasLT = hasLT || e.Doc.Has("lastTrading")
	}
	if hasLT && ltTime == "" {
		s.Instrument.Set(expiryTime, "lastTrading", "time")
		s.SetLastTrading = Alignment{Enabled: true, Time: expiryTime}
	}
	if hasLA && laTime == "" {
		s.Instrument.Set(expiryTime, "lastAvailable", "time")
		s.SetLastAvailable = Alignment{Enabled: true, Time: expiryTime}
	}
	if !s.SetLastAvailable.Enabled && !s.SetLastTrading.Enabled {
		return nil
	}

	for _, e := range s.Contracts {
		if e.Doc.NotTrading() || !e.Doc.Has("expiry") {
			continue
		}
		if e.Doc.Has("lastAvailable") && e.Doc.Has("lastTrading") {
			continue
		}
		s.applyLastDates(e.Doc)
		s.logger.Info("lastAvailable and lastTrading filled in", "contract", e.ContractName())
	}
	return nil
}

// applyLastDates writes lastAvailable (expiry + 3 days) and lastTrading
// (expiry) on doc as enabled on the series.
func (s *Series) applyLastDates(doc model.Document) {
	expiry, ok := maturity.NormalizeDate(doc["expiry"])
	if !ok {
		return
	}
	if a := s.SetLastAvailable; a.Enabled {
		parts := maturity.PartsFromDate(expiry.AddDate(0, 0, lastAvailableDays))
		if a.Time != "" {
			parts["time"] = a.Time
		}
		doc["lastAvailable"] = parts
	}
	if a := s.SetLastTrading; a.Enabled {
		parts := maturity.PartsFromDate(expiry)
		if a.Time != "" {
			parts["time"] = a.Time
		}
		doc["lastTrading"] = parts
	}
}

func stringAt(doc model.Document, path ...string) string {
	v, ok := doc.Lookup(path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
