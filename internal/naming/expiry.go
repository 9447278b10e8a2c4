package naming

import (
	"time"
	_ "time/tzdata"

	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
)

// ExpiryLayout is the SymbolDB expiryTime format.
const ExpiryLayout = "2006-01-02T15:04:05.000Z"

const defaultExpiryClock = "00:00:00"

var clockLayouts = []string{"15:04:05", "15:04", "15:04:05.999999999"}

// ExpiryTime returns the UTC expiry timestamp of a compiled document: the
// expiry date and time are read in the timezone of the document's schedule.
// It reports false when the timezone or the date cannot be resolved.
func ExpiryTime(compiled model.Document, refs References) (string, bool) {
	tzName, ok := refs.ScheduleTimezone(compiled.String("scheduleId"))
	if !ok || tzName == "" {
		return "", false
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return "", false
	}

	expiry := compiled.Map("expiry")
	date, ok := maturity.DateFromParts(expiry)
	if !ok {
		return "", false
	}

	clock := defaultExpiryClock
	if s, ok := expiry["time"].(string); ok && s != "" {
		clock = s
	}
	hms, ok := parseClock(clock)
	if !ok {
		return "", false
	}

	local := time.Date(date.Year(), date.Month(), date.Day(),
		hms.Hour(), hms.Minute(), hms.Second(), 0, loc)
	return local.UTC().Format(ExpiryLayout), true
}

func parseClock(s string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
