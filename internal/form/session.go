// Package form drives the entry form shown in a capture window.
//
// A Session owns everything one window needs, including the definition
// fetched for it, so several windows can be open at once without seeing
// each other's state.
package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/capture"
	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/dictionary"
	"github.com/starford/wordvault/internal/models"
)

// Text shown in the definition area.
const (
	DefinitionPrompt     = "Enter a word to fetch definition"
	DefinitionFetching   = "Fetching definition..."
	DefinitionNotFound   = "No definition found"
	DefinitionNoneListed = "No definition available"
	DefinitionFailed     = "Could not fetch definition"
)

// Status messages.
const (
	StatusSaving     = "Saving..."
	StatusSaved      = "Saved to Word Vault! ✓"
	StatusSaveFailed = "Error saving"
)

// Status kinds.
const (
	KindNone    = ""
	KindError   = "error"
	KindSuccess = "success"
	KindBusy    = "busy"
)

// Field names used for focus.
const (
	FieldWord = "word"
	FieldNote = "note"
)

// Taker hands out the pending capture, once.
type Taker interface {
	Take(ctx context.Context) (models.Pending, bool, error)
}

// Saver persists a finished card.
type Saver interface {
	Save(ctx context.Context, card models.WordCard) (cardstore.Outcome, error)
}

// Options toggles form behaviour.
type Options struct {
	// RequireNote makes the personal note mandatory.
	RequireNote bool
	// CloseOnSave closes the session after a successful save instead of
	// resetting it for another word.
	CloseOnSave bool
	// IdleTimeout drops sessions from the registry once they go unused
	// this long. Zero means DefaultIdleTimeout.
	IdleTimeout time.Duration
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Handoff Taker
	Definer dictionary.Definer
	Saver   Saver
	Options Options
	Logger  *slog.Logger
	Now     func() time.Time
}

// Edit carries user changes. Nil fields are left as they are.
type Edit struct {
	Word    *string `json:"word,omitempty"`
	Note    *string `json:"note,omitempty"`
	Context *string `json:"context,omitempty"`
}

// Definition is what the definition area shows.
type Definition struct {
	Text        string `json:"text"`
	Placeholder bool   `json:"placeholder"`
}

// View is a snapshot of a session for rendering.
type View struct {
	ID         string     `json:"id"`
	Word       string     `json:"word"`
	Note       string     `json:"note"`
	Context    string     `json:"context"`
	SourceURL  string     `json:"sourceUrl,omitempty"`
	Definition Definition `json:"definition"`
	Status     string     `json:"status,omitempty"`
	StatusKind string     `json:"statusKind,omitempty"`
	Focus      string     `json:"focus,omitempty"`
	Submitting bool       `json:"submitting"`
	Closed     bool       `json:"closed"`
	LastSaved  Outcome    `json:"lastSaved,omitempty"`
}

// Outcome is the destination of the last successful save.
type Outcome = cardstore.Outcome

// Session is the state of one entry form.
type Session struct {
	id      string
	deps    Deps
	browser capture.SelectionReader

	mu         sync.Mutex
	word       string
	note       string
	context    string
	sourceURL  string
	meaning    string
	definition Definition
	fetchGen   uint64
	status     string
	statusKind string
	focus      string
	submitting bool
	closed     bool
	lastSaved  Outcome
}

// NewSession creates an empty session. browser reports the active tab's
// selection and URL and may be nil.
func NewSession(id string, deps Deps, browser capture.SelectionReader) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Session{
		id:         id,
		deps:       deps,
		browser:    browser,
		definition: Definition{Text: DefinitionPrompt, Placeholder: true},
		focus:      FieldWord,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Init fills the form from the pending capture, or else from the live
// selection, and fetches a definition for it. With neither the form stays
// empty with focus on the word field.
func (s *Session) Init(ctx context.Context) error {
	p, ok, err := s.deps.Handoff.Take(ctx)
	if err != nil {
		s.deps.Logger.Warn("form: read pending word failed", slog.String("error", err.Error()))
	}
	if ok {
		s.mu.Lock()
		s.word = p.Word
		s.context = p.SourceURL
		s.sourceURL = p.SourceURL
		s.focus = FieldNote
		s.mu.Unlock()
		s.FetchDefinition(ctx)
		return nil
	}

	if s.browser == nil {
		return nil
	}
	sel, err := s.browser.Selection(ctx)
	if err != nil {
		s.deps.Logger.Debug("form: no live selection", slog.String("error", err.Error()))
		return nil
	}
	word := strings.TrimSpace(sel.Text)
	if word == "" {
		return nil
	}
	s.mu.Lock()
	s.word = word
	s.focus = FieldNote
	s.mu.Unlock()
	s.FetchDefinition(ctx)
	return nil
}

// FetchDefinition looks up the current word. The lock is not held during
// the request, so the form stays editable and submittable; only the most
// recent lookup may update the session.
func (s *Session) FetchDefinition(ctx context.Context) {
	s.mu.Lock()
	word := strings.TrimSpace(s.word)
	s.fetchGen++
	gen := s.fetchGen
	s.meaning = ""
	if word == "" {
		s.definition = Definition{Text: DefinitionPrompt, Placeholder: true}
		s.mu.Unlock()
		return
	}
	s.definition = Definition{Text: DefinitionFetching, Placeholder: true}
	s.mu.Unlock()

	res, err := s.deps.Definer.Define(ctx, word)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.fetchGen {
		return
	}
	switch {
	case err != nil:
		s.deps.Logger.Debug("form: definition lookup failed", slog.String("word", word), slog.String("error", err.Error()))
		s.definition = Definition{Text: DefinitionFailed, Placeholder: true}
	case res.Status == dictionary.Found:
		s.meaning = res.Definition
		s.definition = Definition{Text: res.Definition}
	case res.Status == dictionary.NoDefinition:
		s.definition = Definition{Text: DefinitionNoneListed, Placeholder: true}
	default:
		s.definition = Definition{Text: DefinitionNotFound, Placeholder: true}
	}
}

// Apply records user edits.
func (s *Session) Apply(e Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.ErrSessionClosed
	}
	if e.Word != nil {
		s.word = *e.Word
	}
	if e.Note != nil {
		s.note = *e.Note
	}
	if e.Context != nil {
		s.context = *e.Context
	}
	return nil
}

// Submit validates the form and saves a card. Validation failures and
// save failures leave the fields untouched and set an inline status; the
// returned error wraps apperr.ErrValidation for the former.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.ErrSessionClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return apperr.ErrSubmitInFlight
	}

	word := strings.TrimSpace(s.word)
	note := strings.TrimSpace(s.note)
	if err := s.validate(word, note); err != nil {
		s.status, s.statusKind = err.Error(), KindError
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}

	card := models.WordCard{
		Word:      word,
		Meaning:   s.meaning,
		Mnemonic:  note,
		Context:   strings.TrimSpace(s.context),
		SourceURL: s.sourceURL,
		DateAdded: models.Timestamp(s.deps.Now()),
	}
	s.submitting = true
	s.status, s.statusKind = StatusSaving, KindBusy
	s.mu.Unlock()

	if card.SourceURL == "" || card.Context == "" {
		tabURL := s.activeTabURL(ctx)
		if card.SourceURL == "" {
			card.SourceURL = tabURL
		}
		if card.Context == "" {
			card.Context = tabURL
		}
	}

	out, err := s.deps.Saver.Save(ctx, card)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.deps.Logger.Error("form: save failed", slog.String("word", card.Word), slog.String("error", err.Error()))
		s.status, s.statusKind = StatusSaveFailed, KindError
		return err
	}

	s.lastSaved = out
	s.resetLocked()
	s.status, s.statusKind = StatusSaved, KindSuccess
	if s.deps.Options.CloseOnSave {
		s.closed = true
	}
	return nil
}

// Close marks the session as finished.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.fetchGen++
	s.mu.Unlock()
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:         s.id,
		Word:       s.word,
		Note:       s.note,
		Context:    s.context,
		SourceURL:  s.sourceURL,
		Definition: s.definition,
		Status:     s.status,
		StatusKind: s.statusKind,
		Focus:      s.focus,
		Submitting: s.submitting,
		Closed:     s.closed,
		LastSaved:  s.lastSaved,
	}
}

func (s *Session) validate(word, note string) error {
	if err := validation.Validate(word, validation.Required.Error("Word is required")); err != nil {
		return err
	}
	return validation.Validate(note,
		validation.When(s.deps.Options.RequireNote, validation.Required.Error("Note is required")))
}

func (s *Session) activeTabURL(ctx context.Context) string {
	if s.browser == nil {
		return ""
	}
	sel, err := s.browser.Selection(ctx)
	if err != nil {
		return ""
	}
	return sel.PageURL
}

// resetLocked clears the fields after a save. Caller holds s.mu.
func (s *Session) resetLocked() {
	s.word, s.note, s.context, s.sourceURL = "", "", "", ""
	s.meaning = ""
	s.fetchGen++
	s.definition = Definition{Text: DefinitionPrompt, Placeholder: true}
	s.focus = FieldWord
}
