// Package cardstore persists word cards.
package cardstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/remote"
	"github.com/starford/wordvault/internal/storage"
)

// Event kinds passed to observers.
const (
	EventSaved   = "saved"
	EventCleared = "cleared"
)

// Observer is called after the local word list changes. card is nil for
// EventCleared.
type Observer func(kind string, card *models.WordCard)

// Outcome tells where a saved card went.
type Outcome string

const (
	// SavedLocal means the card was appended to the local list.
	SavedLocal Outcome = "local"
	// SavedRemote means the card was sent to the remote endpoint. Delivery
	// is one-way and cannot be confirmed.
	SavedRemote Outcome = "remote"
)

// Store appends, lists and clears cards.
type Store struct {
	gw        *storage.Gateway
	deliverer remote.Deliverer
	logger    *slog.Logger
	observers []Observer

	// Now stamps cards saved without a date. Defaults to time.Now.
	Now func() time.Time
}

// New creates a card store. deliverer may be nil to disable remote delivery.
func New(gw *storage.Gateway, deliverer remote.Deliverer, logger *slog.Logger) *Store {
	return &Store{gw: gw, deliverer: deliverer, logger: logger, Now: time.Now}
}

// Observe registers fn for list changes. Not safe to call concurrently
// with Save or Clear.
func (s *Store) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// Save persists card. With a remote endpoint configured the card is posted
// there and reported as saved as soon as the request went out; only a
// transport failure falls back to the local list. Without an endpoint the
// local append decides the result.
func (s *Store) Save(ctx context.Context, card models.WordCard) (Outcome, error) {
	card.Word = strings.TrimSpace(card.Word)
	if card.Word == "" {
		return "", fmt.Errorf("%w: word is required", apperr.ErrValidation)
	}
	if strings.TrimSpace(card.DateAdded) == "" {
		card.DateAdded = models.Timestamp(s.Now())
	}

	if s.deliverer != nil {
		endpoint, err := s.gw.RemoteEndpoint()
		if err != nil {
			s.logger.Warn("cardstore: read remote endpoint failed", slog.String("error", err.Error()))
		}
		if endpoint != "" {
			err := s.deliverer.Deliver(ctx, endpoint, card)
			if err == nil {
				s.logger.Info("cardstore: card sent to remote endpoint", slog.String("word", card.Word))
				return SavedRemote, nil
			}
			s.logger.Warn("cardstore: remote delivery failed, saving locally",
				slog.String("word", card.Word),
				slog.String("error", err.Error()))
		}
	}

	if err := s.gw.AppendWord(card); err != nil {
		return "", fmt.Errorf("cardstore: append: %w", err)
	}
	s.logger.Debug("cardstore: card saved", slog.String("word", card.Word))
	s.notify(EventSaved, &card)
	return SavedLocal, nil
}

// Import appends cards locally in order, skipping remote delivery. Cards
// without a word are rejected as a whole batch.
func (s *Store) Import(_ context.Context, cards []models.WordCard) (int, error) {
	for i := range cards {
		cards[i].Word = strings.TrimSpace(cards[i].Word)
		if cards[i].Word == "" {
			return 0, fmt.Errorf("%w: card %d has no word", apperr.ErrValidation, i+1)
		}
	}
	if len(cards) == 0 {
		return 0, nil
	}
	if err := s.gw.AppendWords(cards); err != nil {
		return 0, fmt.Errorf("cardstore: import: %w", err)
	}
	for i := range cards {
		s.notify(EventSaved, &cards[i])
	}
	return len(cards), nil
}

// List returns every stored card in insertion order.
func (s *Store) List(_ context.Context) ([]models.WordCard, error) {
	return s.gw.Words()
}

// Clear empties the list. Asking the user for confirmation is the caller's job.
func (s *Store) Clear(_ context.Context) error {
	if err := s.gw.ClearWords(); err != nil {
		return fmt.Errorf("cardstore: clear: %w", err)
	}
	s.logger.Info("cardstore: vault cleared")
	s.notify(EventCleared, nil)
	return nil
}

// RemoteEndpoint returns the configured delivery URL.
func (s *Store) RemoteEndpoint(_ context.Context) (string, error) {
	return s.gw.RemoteEndpoint()
}

// SetRemoteEndpoint stores the delivery URL; "" disables remote delivery.
func (s *Store) SetRemoteEndpoint(_ context.Context, url string) error {
	return s.gw.SetRemoteEndpoint(url)
}

func (s *Store) notify(kind string, card *models.WordCard) {
	for _, fn := range s.observers {
		fn(kind, card)
	}
}
