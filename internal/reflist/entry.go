package reflist

import (
	"fmt"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// Entry is one human-readable list item. ID is the value stored in
// instrument documents; Extra carries list specific fields.
type Entry struct {
	Display string
	ID      string
	Extra   map[string]any
}

func render(list string, docs []model.Document) []Entry {
	switch list {
	case FeedProviders, BrokerProviders:
		return providers(docs)
	}

	out := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, renderOne(list, doc))
	}
	return out
}

func renderOne(list string, doc model.Document) Entry {
	e := Entry{Display: doc.Name(), ID: doc.ID()}
	switch list {
	case Currencies:
		e.Display = doc.ID()
	case Exchanges:
		if n := doc.String("exchangeName"); n != "" {
			e.Display = n
		}
		e.Extra = map[string]any{"name": doc.Name()}
	case Schedules:
		e.Extra = map[string]any{"timezone": doc.String("timezone")}
	case Sections:
		e.Extra = map[string]any{
			"exchangeId": doc.String("exchangeId"),
			"scheduleId": doc.String("scheduleId"),
		}
	case Accounts:
		e.Display = fmt.Sprintf("%s: %s: %s", doc.String("providerName"), doc.String("gatewayName"), doc.Name())
		e.Extra = AccountRef(doc)
	case Gateways:
		e.Display = fmt.Sprintf("%s: %s", doc.String("providerName"), doc.Name())
		e.Extra = GatewayRef(doc)
	}
	return e
}

// AccountRef is the brokers.accounts item referencing a broker account.
func AccountRef(account model.Document) map[string]any {
	return map[string]any{
		"accountId": account.ID(),
		"account": map[string]any{
			"providerId": account.String("providerId"),
			"gatewayId":  account.String("gatewayId"),
		},
	}
}

// GatewayRef is the feeds.gateways item referencing a feed gateway.
func GatewayRef(gateway model.Document) map[string]any {
	return map[string]any{
		"gatewayId": gateway.ID(),
		"gateway": map[string]any{
			"providerId": gateway.String("providerId"),
		},
	}
}

// providers lists distinct providers in first-seen order.
func providers(docs []model.Document) []Entry {
	seen := make(map[string]bool)
	var out []Entry
	for _, doc := range docs {
		id := doc.String("providerId")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Entry{Display: doc.String("providerName"), ID: id})
	}
	return out
}
