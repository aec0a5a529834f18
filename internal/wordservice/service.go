// Package wordservice coordinates the card store, search index and vault
// viewer behind one API shared by the HTTP server, the MCP server and the CLI.
package wordservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/dictionary"
	"github.com/starford/wordvault/internal/index"
	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/parser"
	"github.com/starford/wordvault/internal/vault"
)

// Service is the application's use-case layer.
type Service struct {
	cards   *cardstore.Store
	viewer  *vault.Viewer
	db      index.CardIndex
	src     index.Source
	definer dictionary.Definer
	logger  *slog.Logger
}

// New creates a service. db may be nil, in which case Search reports
// apperr.ErrNotFound for every query.
func New(cards *cardstore.Store, viewer *vault.Viewer, db index.CardIndex, src index.Source, definer dictionary.Definer, logger *slog.Logger) *Service {
	return &Service{cards: cards, viewer: viewer, db: db, src: src, definer: definer, logger: logger}
}

// Save stores card locally or remotely.
func (s *Service) Save(ctx context.Context, card models.WordCard) (cardstore.Outcome, error) {
	return s.cards.Save(ctx, card)
}

// List returns every card, newest first.
func (s *Service) List(ctx context.Context) ([]models.WordCard, error) {
	return s.viewer.Cards(ctx)
}

// Render returns the vault as an HTML fragment.
func (s *Service) Render(ctx context.Context) (string, error) {
	return s.viewer.Render(ctx)
}

// ExportMarkdown returns the Markdown export.
func (s *Service) ExportMarkdown(ctx context.Context) (vault.Export, error) {
	return s.viewer.ExportMarkdown(ctx)
}

// ExportXLSX returns the spreadsheet export.
func (s *Service) ExportXLSX(ctx context.Context) (vault.Export, error) {
	return s.viewer.ExportXLSX(ctx)
}

// Clear empties the vault when confirm approves.
func (s *Service) Clear(ctx context.Context, confirm func(prompt string) bool) (bool, error) {
	return s.viewer.ClearAll(ctx, confirm)
}

// Import appends the cards found in a Markdown export.
func (s *Service) Import(ctx context.Context, data []byte) (int, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("wordservice: parse import: %w", err)
	}
	if len(res.Cards) == 0 {
		return 0, fmt.Errorf("%w: no word sections found", apperr.ErrValidation)
	}
	n, err := s.cards.Import(ctx, res.Cards)
	if err != nil {
		return 0, err
	}
	s.logger.Info("wordservice: imported cards", slog.Int("count", n))
	return n, nil
}

// Search finds cards matching query. The index is brought up to date
// first, which is a checksum comparison when nothing changed.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrValidation)
	}
	if s.db == nil {
		return nil, apperr.ErrNotFound
	}
	if _, err := s.Reindex(); err != nil {
		s.logger.Warn("wordservice: reindex before search failed", slog.String("error", err.Error()))
	}
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return results, nil
}

// Reindex syncs the search index with the stored list.
func (s *Service) Reindex() (bool, error) {
	if s.db == nil {
		return false, nil
	}
	return index.Sync(s.db, s.src, s.logger)
}

// Define looks up a baseline meaning for word.
func (s *Service) Define(ctx context.Context, word string) (dictionary.Result, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return dictionary.Result{}, fmt.Errorf("%w: word is required", apperr.ErrValidation)
	}
	return s.definer.Define(ctx, word)
}

// RemoteEndpoint returns the configured delivery URL.
func (s *Service) RemoteEndpoint(ctx context.Context) (string, error) {
	return s.cards.RemoteEndpoint(ctx)
}

// SetRemoteEndpoint stores the delivery URL; "" disables remote delivery.
func (s *Service) SetRemoteEndpoint(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if err := validation.Validate(url, is.RequestURL); err != nil {
		return fmt.Errorf("%w: endpoint %s", apperr.ErrValidation, err.Error())
	}
	if err := s.cards.SetRemoteEndpoint(ctx, url); err != nil {
		return err
	}
	s.logger.Info("wordservice: remote endpoint updated", slog.Bool("enabled", url != ""))
	return nil
}
