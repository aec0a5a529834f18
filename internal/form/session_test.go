package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/capture"
	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/dictionary"
	"github.com/starford/wordvault/internal/models"
)

type stubTaker struct {
	mu      sync.Mutex
	pending *models.Pending
}

func (s *stubTaker) Take(context.Context) (models.Pending, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return models.Pending{}, false, nil
	}
	p := *s.pending
	s.pending = nil
	return p, true, nil
}

type stubDefiner struct {
	res   dictionary.Result
	err   error
	block chan struct{}
	words []string
	mu    sync.Mutex
}

func (d *stubDefiner) Define(_ context.Context, word string) (dictionary.Result, error) {
	d.mu.Lock()
	d.words = append(d.words, word)
	block := d.block
	d.mu.Unlock()
	if block != nil {
		<-block
	}
	return d.res, d.err
}

type stubSaver struct {
	mu    sync.Mutex
	cards []models.WordCard
	out   cardstore.Outcome
	err   error
}

func (s *stubSaver) Save(_ context.Context, card models.WordCard) (cardstore.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.cards = append(s.cards, card)
	if s.out == "" {
		return cardstore.SavedLocal, nil
	}
	return s.out, nil
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testDeps(taker *stubTaker, def *stubDefiner, saver *stubSaver) Deps {
	return Deps{
		Handoff: taker,
		Definer: def,
		Saver:   saver,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return fixedNow },
	}
}

func found(def string) *stubDefiner {
	return &stubDefiner{res: dictionary.Result{Status: dictionary.Found, Definition: def}}
}

func strp(s string) *string { return &s }

func TestInit_FromPending(t *testing.T) {
	taker := &stubTaker{pending: &models.Pending{Word: "serendipity", SourceURL: "https://a.test/x"}}
	def := found("the occurrence of events by chance")
	s := NewSession("s1", testDeps(taker, def, &stubSaver{}), nil)

	require.NoError(t, s.Init(context.Background()))
	v := s.View()
	assert.Equal(t, "serendipity", v.Word)
	assert.Equal(t, "https://a.test/x", v.Context)
	assert.Equal(t, "https://a.test/x", v.SourceURL)
	assert.Equal(t, FieldNote, v.Focus)
	assert.Equal(t, Definition{Text: "the occurrence of events by chance"}, v.Definition)

	_, ok, _ := taker.Take(context.Background())
	assert.False(t, ok, "pending is consumed")
}

func TestInit_FromLiveSelection(t *testing.T) {
	def := found("a small fish")
	browser := capture.StaticSelection{Text: "  sprat ", PageURL: "https://b.test"}
	s := NewSession("s1", testDeps(&stubTaker{}, def, &stubSaver{}), browser)

	require.NoError(t, s.Init(context.Background()))
	v := s.View()
	assert.Equal(t, "sprat", v.Word)
	assert.Empty(t, v.Context, "live selection does not prefill context")
	assert.Equal(t, FieldNote, v.Focus)
	assert.Equal(t, []string{"sprat"}, def.words)
}

func TestInit_Empty(t *testing.T) {
	def := found("x")
	s := NewSession("s1", testDeps(&stubTaker{}, def, &stubSaver{}), nil)

	require.NoError(t, s.Init(context.Background()))
	v := s.View()
	assert.Empty(t, v.Word)
	assert.Equal(t, FieldWord, v.Focus)
	assert.Equal(t, Definition{Text: DefinitionPrompt, Placeholder: true}, v.Definition)
	assert.Empty(t, def.words)
}

func TestFetchDefinition_Placeholders(t *testing.T) {
	tests := []struct {
		name string
		def  *stubDefiner
		want string
	}{
		{"not found", &stubDefiner{res: dictionary.Result{Status: dictionary.NotFound}}, DefinitionNotFound},
		{"no definition", &stubDefiner{res: dictionary.Result{Status: dictionary.NoDefinition}}, DefinitionNoneListed},
		{"failure", &stubDefiner{err: errors.New("timeout")}, DefinitionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("s1", testDeps(&stubTaker{}, tt.def, &stubSaver{}), nil)
			require.NoError(t, s.Apply(Edit{Word: strp("qwzx")}))
			s.FetchDefinition(context.Background())

			v := s.View()
			assert.Equal(t, Definition{Text: tt.want, Placeholder: true}, v.Definition)
		})
	}
}

func TestSubmit_SavesCardAndResets(t *testing.T) {
	taker := &stubTaker{pending: &models.Pending{Word: "ephemeral", SourceURL: "https://x.test"}}
	saver := &stubSaver{}
	s := NewSession("s1", testDeps(taker, found("lasting a very short time"), saver), nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Apply(Edit{Note: strp(" like a mayfly "), Context: strp("")}))

	require.NoError(t, s.Submit(ctx))

	require.Len(t, saver.cards, 1)
	assert.Equal(t, models.WordCard{
		Word:      "ephemeral",
		Meaning:   "lasting a very short time",
		Mnemonic:  "like a mayfly",
		Context:   "",
		SourceURL: "https://x.test",
		DateAdded: "2024-03-15T10:30:00.000Z",
	}, saver.cards[0])

	v := s.View()
	assert.Empty(t, v.Word)
	assert.Empty(t, v.Note)
	assert.Empty(t, v.Context)
	assert.Equal(t, StatusSaved, v.Status)
	assert.Equal(t, KindSuccess, v.StatusKind)
	assert.Equal(t, FieldWord, v.Focus)
	assert.Equal(t, cardstore.SavedLocal, v.LastSaved)
	assert.False(t, v.Closed)
}

func TestSubmit_EmptyWordRejected(t *testing.T) {
	saver := &stubSaver{}
	s := NewSession("s1", testDeps(&stubTaker{}, found("x"), saver), nil)
	require.NoError(t, s.Apply(Edit{Word: strp("   "), Note: strp("keep me")}))

	err := s.Submit(context.Background())
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, saver.cards)

	v := s.View()
	assert.Equal(t, "Word is required", v.Status)
	assert.Equal(t, KindError, v.StatusKind)
	assert.Equal(t, "keep me", v.Note, "fields survive a failed submit")
}

func TestSubmit_RequireNote(t *testing.T) {
	saver := &stubSaver{}
	deps := testDeps(&stubTaker{}, found("x"), saver)
	deps.Options.RequireNote = true
	s := NewSession("s1", deps, nil)
	require.NoError(t, s.Apply(Edit{Word: strp("word")}))

	err := s.Submit(context.Background())
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Note is required", s.View().Status)
	assert.Empty(t, saver.cards)
}

func TestSubmit_FallsBackToActiveTabURL(t *testing.T) {
	saver := &stubSaver{}
	browser := capture.StaticSelection{PageURL: "https://tab.test/page"}
	s := NewSession("s1", testDeps(&stubTaker{}, found("x"), saver), browser)
	require.NoError(t, s.Apply(Edit{Word: strp("typed")}))

	require.NoError(t, s.Submit(context.Background()))
	require.Len(t, saver.cards, 1)
	assert.Equal(t, "https://tab.test/page", saver.cards[0].SourceURL)
	assert.Equal(t, "https://tab.test/page", saver.cards[0].Context)
}

func TestSubmit_SaveErrorKeepsFields(t *testing.T) {
	saver := &stubSaver{err: errors.New("quota exceeded")}
	s := NewSession("s1", testDeps(&stubTaker{}, found("x"), saver), nil)
	require.NoError(t, s.Apply(Edit{Word: strp("word"), Note: strp("note")}))

	require.Error(t, s.Submit(context.Background()))
	v := s.View()
	assert.Equal(t, StatusSaveFailed, v.Status)
	assert.Equal(t, "word", v.Word)
	assert.Equal(t, "note", v.Note)
	assert.False(t, v.Submitting)
}

func TestSubmit_CloseOnSave(t *testing.T) {
	deps := testDeps(&stubTaker{}, found("x"), &stubSaver{})
	deps.Options.CloseOnSave = true
	s := NewSession("s1", deps, nil)
	require.NoError(t, s.Apply(Edit{Word: strp("word")}))

	require.NoError(t, s.Submit(context.Background()))
	assert.True(t, s.View().Closed)
	assert.ErrorIs(t, s.Submit(context.Background()), apperr.ErrSessionClosed)
	assert.ErrorIs(t, s.Apply(Edit{Word: strp("again")}), apperr.ErrSessionClosed)
}

func TestSubmit_WhileDefinitionInFlight(t *testing.T) {
	def := &stubDefiner{res: dictionary.Result{Status: dictionary.Found, Definition: "late"}, block: make(chan struct{})}
	saver := &stubSaver{}
	s := NewSession("s1", testDeps(&stubTaker{}, def, saver), nil)
	ctx := context.Background()
	require.NoError(t, s.Apply(Edit{Word: strp("slow")}))

	done := make(chan struct{})
	go func() {
		s.FetchDefinition(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		return s.View().Definition.Text == DefinitionFetching
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Submit(ctx))
	require.Len(t, saver.cards, 1)
	assert.Empty(t, saver.cards[0].Meaning)

	close(def.block)
	<-done
	assert.Equal(t, DefinitionPrompt, s.View().Definition.Text, "stale lookup is dropped after reset")
}

func TestSessionsAreIndependent(t *testing.T) {
	reg := NewRegistry(testDeps(&stubTaker{}, found("meaning"), &stubSaver{}))
	ctx := context.Background()

	a, err := reg.Open(ctx, capture.StaticSelection{Text: "alpha"})
	require.NoError(t, err)
	b, err := reg.Open(ctx, capture.StaticSelection{Text: "beta"})
	require.NoError(t, err)
	require.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, a.Apply(Edit{Note: strp("only a")}))
	assert.Empty(t, b.View().Note)

	got, err := reg.Get(b.ID())
	require.NoError(t, err)
	assert.Same(t, b, got)

	require.NoError(t, reg.Close(a.ID()))
	_, err = reg.Get(a.ID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, reg.Close(a.ID()), apperr.ErrNotFound)
	assert.True(t, a.View().Closed)
}

func TestRegistryDropsIdleSessions(t *testing.T) {
	now := fixedNow
	deps := testDeps(&stubTaker{}, found("meaning"), &stubSaver{})
	deps.Now = func() time.Time { return now }
	deps.Options.IdleTimeout = 10 * time.Minute
	reg := NewRegistry(deps)
	ctx := context.Background()

	stale, err := reg.Open(ctx, capture.StaticSelection{Text: "stale"})
	require.NoError(t, err)
	active, err := reg.Open(ctx, capture.StaticSelection{Text: "active"})
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	_, err = reg.Get(active.ID())
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	_, err = reg.Open(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	_, err = reg.Get(stale.ID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.True(t, stale.View().Closed)
	_, err = reg.Get(active.ID())
	assert.NoError(t, err, "touched session survives")
}

func TestRegistryDropsSelfClosedSessions(t *testing.T) {
	deps := testDeps(&stubTaker{}, found("meaning"), &stubSaver{})
	deps.Options.CloseOnSave = true
	reg := NewRegistry(deps)
	ctx := context.Background()

	s, err := reg.Open(ctx, capture.StaticSelection{Text: "done"})
	require.NoError(t, err)
	require.NoError(t, s.Apply(Edit{Note: strp("a note")}))
	require.NoError(t, s.Submit(ctx))
	require.True(t, s.View().Closed)

	_, err = reg.Open(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}
