package sdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// Batch actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// BatchError is the description SymbolDB returns for a rejected batch.
type BatchError struct {
	Action      string
	Description string
	Body        []byte
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %s rejected: %s", e.Action, e.Description)
}

// batchLine is one record of the ld-json batch body.
type batchLine struct {
	Data   model.Document `json:"data"`
	Type   string         `json:"type"`
	Action string         `json:"action"`
}

// BatchCreate creates docs in one request. Server-managed keys are removed
// first. A nil error means SymbolDB accepted every document.
func (c *Client) BatchCreate(ctx context.Context, docs []model.Document) error {
	return c.batch(ctx, ActionCreate, docs)
}

// BatchUpdate updates docs in one request.
func (c *Client) BatchUpdate(ctx context.Context, docs []model.Document) error {
	return c.batch(ctx, ActionUpdate, docs)
}

func (c *Client) batch(ctx context.Context, action string, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	body, err := encodeBatch(action, docs)
	if err != nil {
		return err
	}

	c.logger.Info("sending batch", "action", action, "documents", len(docs))

	// Batches are not idempotent on partial failure and are sent once.
	resp, err := c.doRequest(ctx, request{
		method:      http.MethodPost,
		path:        "/batch",
		body:        body,
		contentType: contentLDJSON,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && len(bytes.TrimSpace(apiErr.Body)) > 0 {
			return batchError(action, apiErr.Body)
		}
		return fmt.Errorf("batch %s: %w", action, err)
	}

	if len(bytes.TrimSpace(resp)) == 0 {
		return nil
	}
	return batchError(action, resp)
}

// encodeBatch renders docs as newline separated batch records.
func encodeBatch(action string, docs []model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		data := purge(doc, action == ActionCreate)
		if err := enc.Encode(batchLine{Data: data, Type: "instrument", Action: action}); err != nil {
			return nil, fmt.Errorf("encode batch %s of %s: %w", action, doc.Name(), err)
		}
	}
	return buf.Bytes(), nil
}

// purge drops server-managed keys. The id goes too when creating.
func purge(doc model.Document, dropID bool) model.Document {
	keys := []string{model.KeyCreationTime, model.KeyLastUpdateTime, model.KeyRev}
	if dropID {
		keys = append(keys, model.KeyID)
	}
	return doc.Without(keys...)
}

func batchError(action string, body []byte) error {
	var parsed struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Description == "" {
		parsed.Description = string(bytes.TrimSpace(body))
	}
	return &BatchError{Action: action, Description: parsed.Description, Body: body}
}
