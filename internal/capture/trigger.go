// Package capture turns a keyboard command or a context-menu click into a
// handoff for the entry form.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/wordvault/internal/handoff"
)

// Selection is the text currently selected on a page.
type Selection struct {
	Text    string `json:"selection"`
	PageURL string `json:"url"`
}

// SelectionReader reads the selection of the active tab.
type SelectionReader interface {
	Selection(ctx context.Context) (Selection, error)
}

// StaticSelection is a SelectionReader that returns a fixed value.
type StaticSelection Selection

// Selection returns s.
func (s StaticSelection) Selection(context.Context) (Selection, error) {
	return Selection(s), nil
}

// MenuClick is the payload of a context-menu activation.
type MenuClick struct {
	SelectionText string `json:"selectionText"`
	PageURL       string `json:"pageUrl"`
}

// Relayer hands a captured word to the entry form.
type Relayer interface {
	Relay(ctx context.Context, word, url string) (handoff.Window, error)
}

// Trigger reacts to capture events.
type Trigger struct {
	relay  Relayer
	logger *slog.Logger
}

// NewTrigger creates a trigger that forwards captures to relay.
func NewTrigger(relay Relayer, logger *slog.Logger) *Trigger {
	return &Trigger{relay: relay, logger: logger}
}

// OnCommand handles the keyboard shortcut. ok is false when nothing was
// selected; that is not an error.
func (t *Trigger) OnCommand(ctx context.Context, tab SelectionReader) (handoff.Window, bool, error) {
	sel, err := tab.Selection(ctx)
	if err != nil {
		return handoff.Window{}, false, fmt.Errorf("capture: read selection: %w", err)
	}
	return t.capture(ctx, sel.Text, sel.PageURL)
}

// OnContextMenu handles a context-menu click using the selection carried by
// the click itself.
func (t *Trigger) OnContextMenu(ctx context.Context, click MenuClick) (handoff.Window, bool, error) {
	return t.capture(ctx, click.SelectionText, click.PageURL)
}

func (t *Trigger) capture(ctx context.Context, text, pageURL string) (handoff.Window, bool, error) {
	word := strings.TrimSpace(text)
	if word == "" {
		t.logger.Debug("capture: empty selection, ignoring")
		return handoff.Window{}, false, nil
	}
	w, err := t.relay.Relay(ctx, word, pageURL)
	if err != nil {
		return handoff.Window{}, false, err
	}
	t.logger.Info("capture: word handed off", slog.String("word", word), slog.String("url", pageURL))
	return w, true, nil
}
