package sdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// Reference resources served next to instruments.
const (
	ResourceExchanges        = "exchanges"
	ResourceSchedules        = "schedules"
	ResourceCurrencies       = "currencies"
	ResourceBrokerAccounts   = "broker_accounts"
	ResourceFeedGateways     = "feed_gateways"
	ResourceExecutionSchemes = "execution_schemes"
	ResourceSections         = "sections"
)

// List returns every record of a reference resource.
func (c *Client) List(ctx context.Context, resource string) ([]model.Document, error) {
	var docs []model.Document
	if err := c.get(ctx, "/"+url.PathEscape(resource), nil, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	return docs, nil
}

// IsUUID reports whether s is a SymbolDB document id. Both the dashed and
// the compact 32 hex digit forms are accepted.
func IsUUID(s string) bool {
	if len(s) != 32 && len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
