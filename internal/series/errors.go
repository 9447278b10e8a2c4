package series

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoExchange is returned when the exchange folder does not exist.
	ErrNoExchange = errors.New("exchange does not exist")
	// ErrNoInstrument is returned when the series folder does not exist.
	ErrNoInstrument = errors.New("series does not exist")
	// ErrSeriesExists is returned by New for an existing series without Recreate.
	ErrSeriesExists = errors.New("series already exists")
	// ErrBadPayload is returned by AddPayload for documents without expiry or maturityDate.
	ErrBadPayload = errors.New("payload must contain expiry and maturityDate")
	// ErrExpiration is returned for expirations that cannot be built.
	ErrExpiration = errors.New("invalid expiration")
)

// AmbiguousMatchError reports an expiration query matching several contracts.
type AmbiguousMatchError struct {
	Series  string
	Query   string
	Matches []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s: %s matches %d contracts: %s",
		e.Series, e.Query, len(e.Matches), strings.Join(e.Matches, ", "))
}
