package model

// -----------------------------------------------------------------------------
// Instrument Types
// -----------------------------------------------------------------------------

// Instrument type values of the "type" field.
const (
	TypeFuture         = "FUTURE"
	TypeOption         = "OPTION"
	TypeCalendarSpread = "CALENDAR_SPREAD"
	TypeSpread         = "SPREAD"
	TypeStock          = "STOCK"
	TypeBond           = "BOND"
	TypeCFD            = "CFD"
	TypeFund           = "FUND"
	TypeFXSpot         = "FX_SPOT"
	TypeForex          = "FOREX"
)

// Spread orientations of the "spreadType" field.
const (
	SpreadForward = "FORWARD"
	SpreadReverse = "REVERSE"
)

// Option sides used as strikePrices keys.
const (
	SideCall = "CALL"
	SidePut  = "PUT"
)

// -----------------------------------------------------------------------------
// Expiration Parts
// -----------------------------------------------------------------------------

// Leg is one component of a spread contract.
type Leg struct {
	Quantity int    // +1 bought, -1 sold
	ExanteID string // symbolId of the leg contract
}

// AsValue returns the document encoding of the leg.
func (l Leg) AsValue() map[string]any {
	return map[string]any{
		"quantity": l.Quantity,
		"exanteId": l.ExanteID,
	}
}

// Strike is one option strike.
type Strike struct {
	StrikePrice float64
	IsAvailable bool
	Identifiers map[string]any // ISIN, FIGI
}

// AsValue returns the document encoding of the strike.
func (s Strike) AsValue() map[string]any {
	v := map[string]any{
		"strikePrice": s.StrikePrice,
		"isAvailable": s.IsAvailable,
	}
	if len(s.Identifiers) > 0 {
		v["identifiers"] = CloneValue(s.Identifiers)
	}
	return v
}
