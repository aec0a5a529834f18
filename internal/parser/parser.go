// Package parser reads WordVault Markdown exports back into word cards.
package parser

import (
	"bytes"
	"regexp"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/starford/wordvault/internal/models"
)

var sourceRe = regexp.MustCompile(`^\[Source\]\((.*)\)$`)

// Line labels written by the export.
const (
	labelDate     = "**Date:** "
	labelMeaning  = "*Auto explanation:* "
	labelMnemonic = "**My understanding:** "
	labelContext  = "*Context:* "
)

const displayDate = "January 2, 2006"

// Result holds the output of parsing an export.
type Result struct {
	Frontmatter map[string]interface{}
	Cards       []models.WordCard
}

// Parse extracts one card per "## word" section. Unlabelled lines inside a
// section continue the previous field, blank lines and "---" lines
// included, so multi-line notes survive an export round trip. A "---" line
// ends the card only when the next non-blank line starts a new section or
// the input ends. A "date" frontmatter value is used for cards whose own
// date is missing.
//
// A field line that itself starts with "## " or with one of the export's
// labels cannot be told apart from the export's own structure and is read
// as such.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	fallbackDate := frontmatterDate(fm)

	var (
		cards  []models.WordCard
		cur    *models.WordCard
		last   *string
		blanks int
	)
	flush := func() {
		if cur == nil {
			return
		}
		if cur.DateAdded == "" {
			cur.DateAdded = fallbackDate
		}
		cards = append(cards, *cur)
		cur, last, blanks = nil, nil, 0
	}
	setField := func(field *string, v string) {
		*field = v
		last, blanks = field, 0
	}

	lines := strings.Split(body, "\n")
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "## ") {
			flush()
			cur = &models.WordCard{Word: strings.TrimSpace(trimmed[3:])}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case trimmed == "---" && (last == nil || endsSection(lines[i+1:])):
			flush()
		case trimmed == "":
			blanks++
		case strings.HasPrefix(trimmed, labelDate):
			cur.DateAdded = parseDate(strings.TrimPrefix(trimmed, labelDate))
			last, blanks = nil, 0
		case strings.HasPrefix(trimmed, labelMeaning):
			setField(&cur.Meaning, strings.TrimPrefix(trimmed, labelMeaning))
		case strings.HasPrefix(trimmed, labelMnemonic):
			setField(&cur.Mnemonic, strings.TrimPrefix(trimmed, labelMnemonic))
		case strings.HasPrefix(trimmed, labelContext):
			setField(&cur.Context, strings.TrimPrefix(trimmed, labelContext))
		case sourceRe.MatchString(trimmed):
			cur.SourceURL = sourceRe.FindStringSubmatch(trimmed)[1]
			last, blanks = nil, 0
		case last != nil:
			*last += strings.Repeat("\n", blanks+1) + strings.TrimRightFunc(line, unicode.IsSpace)
			blanks = 0
		}
	}
	flush()

	return &Result{Frontmatter: fm, Cards: cards}, nil
}

// endsSection reports whether the next non-blank line opens a new section,
// or there is none.
func endsSection(rest []string) bool {
	for _, l := range rest {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		return strings.HasPrefix(t, "## ")
	}
	return true
}

// parseDate turns a displayed date back into a date-only value. Placeholder
// text ("Unknown date", "Invalid Date") yields "".
func parseDate(s string) string {
	t, err := time.Parse(displayDate, strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func frontmatterDate(fm map[string]interface{}) string {
	if fm == nil {
		return ""
	}
	switch v := fm["date"].(type) {
	case time.Time:
		return v.Format(time.DateOnly)
	case string:
		if d := parseDate(v); d != "" {
			return d
		}
		if _, err := time.Parse(time.DateOnly, v); err == nil {
			return v
		}
	}
	return ""
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Not YAML; treat the whole input as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}
