// Package remote delivers word cards to a user-configured endpoint such as
// a Google Apps Script web app.
//
// Delivery is one-way: the endpoint's reply is never inspected, so a
// request that was sent counts as delivered. Only transport failures are
// reported.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/wordvault/internal/models"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 15 * time.Second

// Deliverer sends a card to a remote endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, endpoint string, card models.WordCard) error
}

// HTTP posts cards as JSON.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates an HTTP deliverer. A zero timeout disables the limit.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{client: &http.Client{Timeout: timeout}}
}

// Deliver posts card to endpoint and discards the response.
func (h *HTTP) Deliver(ctx context.Context, endpoint string, card models.WordCard) error {
	payload, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("remote: encode card: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	// Apps Script rejects preflighted requests, so the body goes as text/plain.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: deliver: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return nil
}
