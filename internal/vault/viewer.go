// Package vault renders, exports and clears the stored word cards.
package vault

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/models"
)

// ClearPrompt is the question shown before clearing the vault.
const ClearPrompt = "Are you sure you want to clear all words? This cannot be undone."

// Store is the part of the card store the viewer needs.
type Store interface {
	List(ctx context.Context) ([]models.WordCard, error)
	Clear(ctx context.Context) error
}

// Export is a rendered file ready for download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Viewer presents the vault.
type Viewer struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithLocation sets the zone dates are shown in. Default time.Local.
func WithLocation(loc *time.Location) Option {
	return func(v *Viewer) { v.loc = loc }
}

// WithClock overrides time.Now for export headers and file names.
func WithClock(now func() time.Time) Option {
	return func(v *Viewer) { v.now = now }
}

// New creates a viewer over store.
func New(store Store, logger *slog.Logger, opts ...Option) *Viewer {
	v := &Viewer{store: store, logger: logger, loc: time.Local, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Cards returns the stored cards, newest first. The stored list is not
// reordered.
func (v *Viewer) Cards(ctx context.Context) ([]models.WordCard, error) {
	cards, err := v.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return sortCards(cards), nil
}

type cardView struct {
	Title    string
	Meaning  string
	Mnemonic string
	Context  string
	Date     string
}

var listTmpl = template.Must(template.New("vault").Parse(
	`<div class="stats">Total words: {{len .}}</div>
<div class="word-list">
{{- if not .}}
<div class="empty-state">
<div class="empty-icon">📚</div>
<div>Your Word Vault is empty</div>
<div class="empty-hint">Right-click on words while reading to add them</div>
</div>
{{- else}}{{range .}}
<div class="word-card">
<div class="word-title">{{.Title}}</div>
{{- if .Meaning}}
<div class="word-meaning">{{.Meaning}}</div>
{{- end}}{{if .Mnemonic}}
<div class="word-understanding">{{.Mnemonic}}</div>
{{- end}}{{if .Context}}
<div class="word-context">📍 {{.Context}}</div>
{{- end}}
<div class="word-date">{{.Date}}</div>
</div>
{{- end}}{{end}}
</div>
`))

// Render returns the vault list as an HTML fragment. Output depends only on
// the stored list.
func (v *Viewer) Render(ctx context.Context) (string, error) {
	cards, err := v.Cards(ctx)
	if err != nil {
		return "", err
	}
	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, cardView{
			Title:    title(c),
			Meaning:  c.Meaning,
			Mnemonic: c.Mnemonic,
			Context:  c.Context,
			Date:     formatDate(c.DateAdded, v.loc),
		})
	}
	var buf bytes.Buffer
	if err := listTmpl.Execute(&buf, views); err != nil {
		return "", fmt.Errorf("vault: render: %w", err)
	}
	return buf.String(), nil
}

// ExportMarkdown renders every card as a Markdown document.
func (v *Viewer) ExportMarkdown(ctx context.Context) (Export, error) {
	cards, err := v.Cards(ctx)
	if err != nil {
		return Export{}, err
	}
	if len(cards) == 0 {
		return Export{}, apperr.ErrEmptyVault
	}
	now := v.now()
	doc := MarkdownDocument(cards, now, v.loc)
	v.logger.Info("vault: exported markdown", slog.Int("words", len(cards)))
	return Export{
		Filename:    FileName(now, ".md"),
		ContentType: "text/markdown; charset=utf-8",
		Data:        []byte(doc),
	}, nil
}

// MarkdownDocument formats cards, already in display order, as an export
// document dated now.
func MarkdownDocument(cards []models.WordCard, now time.Time, loc *time.Location) string {
	sections := make([]string, 0, len(cards))
	for _, c := range cards {
		lines := []string{
			"## " + title(c),
			"",
			"**Date:** " + formatDate(c.DateAdded, loc),
			"",
		}
		if c.Meaning != "" {
			lines = append(lines, "*Auto explanation:* "+c.Meaning, "")
		}
		if c.Mnemonic != "" {
			lines = append(lines, "**My understanding:** "+c.Mnemonic, "")
		}
		if c.Context != "" {
			lines = append(lines, "*Context:* "+c.Context, "")
		}
		if c.SourceURL != "" {
			lines = append(lines, "[Source]("+c.SourceURL+")", "")
		}
		lines = append(lines, "---", "")
		sections = append(sections, strings.Join(lines, "\n"))
	}

	header := fmt.Sprintf("# Word Vault\n\n*Exported on %s*\n\nTotal words: %d\n\n---\n\n",
		now.In(loc).Format(dateLayout), len(cards))
	return header + strings.Join(sections, "\n")
}

var xlsxHeader = []interface{}{"Word", "Meaning", "My understanding", "Context", "Source", "Date"}

// ExportXLSX renders every card as a spreadsheet, one row per card.
func (v *Viewer) ExportXLSX(ctx context.Context) (Export, error) {
	cards, err := v.Cards(ctx)
	if err != nil {
		return Export{}, err
	}
	if len(cards) == 0 {
		return Export{}, apperr.ErrEmptyVault
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			v.logger.Warn("vault: close workbook", slog.String("error", err.Error()))
		}
	}()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return Export{}, fmt.Errorf("vault: xlsx header: %w", err)
	}
	for i, c := range cards {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return Export{}, fmt.Errorf("vault: xlsx cell: %w", err)
		}
		row := []interface{}{title(c), c.Meaning, c.Mnemonic, c.Context, c.SourceURL, formatDate(c.DateAdded, v.loc)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return Export{}, fmt.Errorf("vault: xlsx row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Export{}, fmt.Errorf("vault: xlsx write: %w", err)
	}
	v.logger.Info("vault: exported spreadsheet", slog.Int("words", len(cards)))
	return Export{
		Filename:    FileName(v.now(), ".xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

// ClearAll empties the vault if confirm approves ClearPrompt. It reports
// whether the vault was cleared.
func (v *Viewer) ClearAll(ctx context.Context, confirm func(prompt string) bool) (bool, error) {
	if confirm == nil || !confirm(ClearPrompt) {
		return false, nil
	}
	if err := v.store.Clear(ctx); err != nil {
		return false, fmt.Errorf("vault: clear: %w", err)
	}
	return true, nil
}

// FileName returns the export file name for day now.
func FileName(now time.Time, ext string) string {
	return "word-vault-" + now.UTC().Format(time.DateOnly) + ext
}

const dateLayout = "January 2, 2006"

// formatDate renders a stored date for display. Date-only values are shown
// as written; timestamps are shown in loc.
func formatDate(s string, loc *time.Location) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown date"
	}
	t, ok := models.WordCard{DateAdded: s}.AddedAt()
	if !ok {
		return "Invalid Date"
	}
	if len(s) > len(time.DateOnly) {
		t = t.In(loc)
	}
	return t.Format(dateLayout)
}

func title(c models.WordCard) string {
	if c.Word == "" {
		return "Untitled"
	}
	return c.Word
}

// sortCards returns a copy of cards ordered by date added, newest first.
// Cards with a missing or unparseable date sort last; ties keep their
// stored order.
func sortCards(cards []models.WordCard) []models.WordCard {
	out := make([]models.WordCard, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].AddedAt()
		tj, _ := out[j].AddedAt()
		return ti.After(tj)
	})
	return out
}
