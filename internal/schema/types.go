package schema

// Date is the SymbolDB {day, month, year, time} date object.
type Date struct {
	Day   *int   `json:"day" validate:"omitempty,min=1,max=31"`
	Month int    `json:"month" validate:"required,min=1,max=12"`
	Year  int    `json:"year" validate:"required,min=1900,max=2200"`
	Time  string `json:"time" validate:"omitempty,clock"`
}

// Leg is one spread component.
type Leg struct {
	ExanteID string `json:"exanteId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required"`
}

// StrikePrice is one option strike.
type StrikePrice struct {
	StrikePrice *float64          `json:"strikePrice" validate:"required"`
	IsAvailable *bool             `json:"isAvailable"`
	Identifiers map[string]string `json:"identifiers"`
}

// StrikePrices holds both sides of an option chain.
type StrikePrices struct {
	Call []StrikePrice `json:"CALL" validate:"required,dive"`
	Put  []StrikePrice `json:"PUT" validate:"required,dive"`
}

// Common holds the fields every tradable instrument carries.
type Common struct {
	Type                   string            `json:"type" validate:"required,oneof=FUTURE OPTION CALENDAR_SPREAD SPREAD STOCK BOND CFD FUND FX_SPOT FOREX"`
	IsAbstract             bool              `json:"isAbstract"`
	IsTrading              *bool             `json:"isTrading" validate:"required"`
	Path                   []string          `json:"path" validate:"required,min=1"`
	Name                   string            `json:"name" validate:"required"`
	Ticker                 string            `json:"ticker"`
	ShortName              string            `json:"shortName" validate:"required"`
	Description            string            `json:"description"`
	Identifiers            map[string]string `json:"identifiers"`
	Expiry                 *Date             `json:"expiry"`
	OrderMinPriceIncrement *float64          `json:"orderMinPriceIncrement" validate:"required,gt=0"`
	FeedMinPriceIncrement  *float64          `json:"feedMinPriceIncrement" validate:"required,gt=0"`
	Currency               string            `json:"currency" validate:"required"`
	Country                string            `json:"country"`
	ScheduleID             string            `json:"scheduleId" validate:"required"`
	ExchangeID             string            `json:"exchangeId" validate:"required"`
}

// Future adds the fields of an outright future.
type Future struct {
	MaturityDate       *Date  `json:"maturityDate" validate:"required"`
	LastTrading        *Date  `json:"lastTrading"`
	LastAvailable      *Date  `json:"lastAvailable"`
	FirstNoticeDay     *Date  `json:"firstNoticeDay"`
	IsPhysicalDelivery *bool  `json:"isPhysicalDelivery" validate:"required"`
	MaturityName       string `json:"maturityName"`
	Legs               []Leg  `json:"legs" validate:"omitempty,dive"`
}

// Spread is a FUTURE built from legs of different products.
type Spread struct {
	MaturityDate       *Date `json:"maturityDate" validate:"required"`
	Legs               []Leg `json:"legs" validate:"required,min=2,dive"`
	IsPhysicalDelivery *bool `json:"isPhysicalDelivery" validate:"required"`
	FirstNoticeDay     *Date `json:"firstNoticeDay"`
}

// CalendarSpread is a spread between two maturities of one product.
type CalendarSpread struct {
	SpreadType         string `json:"spreadType" validate:"required,oneof=FORWARD REVERSE"`
	NearMaturityDate   *Date  `json:"nearMaturityDate" validate:"required"`
	FarMaturityDate    *Date  `json:"farMaturityDate" validate:"required"`
	Legs               []Leg  `json:"legs" validate:"required,min=2,dive"`
	IsPhysicalDelivery *bool  `json:"isPhysicalDelivery" validate:"required"`
	LegGap             *int   `json:"legGap" validate:"omitempty,min=1"`
}

// Option adds the fields of an option series expiration.
type Option struct {
	MaturityDate            *Date         `json:"maturityDate" validate:"required"`
	MarginingStyle          string        `json:"marginingStyle" validate:"required"`
	StrikeToUnderlyingScale *float64      `json:"strikeToUnderlyingScale"`
	IsPhysicalDelivery      *bool         `json:"isPhysicalDelivery" validate:"required"`
	StrikePrices            *StrikePrices `json:"strikePrices" validate:"required"`
	UnderlyingID            any           `json:"underlyingId"`
}
