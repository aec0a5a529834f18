// Package models defines the domain types for WordVault.
package models

import (
	"strings"
	"time"
)

// WordCard is one captured word as persisted under the "words" key.
// Field names on the wire match what the browser extension stores.
type WordCard struct {
	Word      string `json:"word"`
	Meaning   string `json:"meaning"`
	Mnemonic  string `json:"mnemonic"`
	Context   string `json:"context"`
	SourceURL string `json:"sourceUrl"`
	DateAdded string `json:"dateAdded"`
}

// Pending is the short-lived handoff between a capture trigger and the
// entry form.
type Pending struct {
	Word      string `json:"pendingWord"`
	SourceURL string `json:"sourceUrl"`
}

// dateLayouts are tried in order when reading DateAdded.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// AddedAt parses DateAdded. The boolean is false for empty or unparseable
// values.
func (c WordCard) AddedAt() (time.Time, bool) {
	s := strings.TrimSpace(c.DateAdded)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp formats t the way DateAdded is written on save.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
