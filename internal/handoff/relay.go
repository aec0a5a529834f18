// Package handoff carries a captured word from the capture trigger to the
// entry form across the window-open boundary.
package handoff

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/storage"
)

// Default capture window size.
const (
	DefaultWidth  = 360
	DefaultHeight = 500
)

// Window describes the capture window to open.
type Window struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Opener opens the capture window.
type Opener interface {
	Open(ctx context.Context, w Window) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, w Window) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, w Window) error { return f(ctx, w) }

// LogOpener records window requests in the log. Used when nothing is
// listening for them (CLI runs).
type LogOpener struct {
	Logger *slog.Logger
}

// Open logs the request.
func (o LogOpener) Open(_ context.Context, w Window) error {
	o.Logger.Info("capture window requested",
		slog.String("url", w.URL),
		slog.Int("width", w.Width),
		slog.Int("height", w.Height))
	return nil
}

// Relay writes the pending word and then opens the capture window.
type Relay struct {
	gw     *storage.Gateway
	opener Opener
	window Window
}

// NewRelay creates a relay that opens window through opener.
func NewRelay(gw *storage.Gateway, opener Opener, window Window) *Relay {
	if window.Width <= 0 {
		window.Width = DefaultWidth
	}
	if window.Height <= 0 {
		window.Height = DefaultHeight
	}
	return &Relay{gw: gw, opener: opener, window: window}
}

// Relay stores (word, url) and opens a new capture window. Each call opens
// a window; repeated captures are not merged.
func (r *Relay) Relay(ctx context.Context, word, url string) (Window, error) {
	if err := r.gw.PutPending(models.Pending{Word: word, SourceURL: url}); err != nil {
		return Window{}, fmt.Errorf("handoff: store pending word: %w", err)
	}
	if err := r.opener.Open(ctx, r.window); err != nil {
		return Window{}, fmt.Errorf("handoff: open window: %w", err)
	}
	return r.window, nil
}

// Take returns the pending handoff and clears it. ok is false when nothing
// is pending.
func (r *Relay) Take(_ context.Context) (models.Pending, bool, error) {
	return r.gw.TakePending()
}
