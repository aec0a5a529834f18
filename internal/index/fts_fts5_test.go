//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"

	"github.com/starford/wordvault/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM cards_fts`).Scan(&count); err != nil {
		t.Fatalf("cards_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	cards := []models.WordCard{
		{Word: "laconic", Meaning: "using very few words"},
		{Word: "verbose", Meaning: "using more words than needed"},
	}
	if err := db.Replace(cards, "c1"); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := db.Search("few", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Card.Word != "laconic" {
		t.Errorf("word = %q", results[0].Card.Word)
	}
	if !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("snippet should contain highlight markers, got %q", results[0].Snippet)
	}
}

func TestFTS5_SpecialCharactersAreLiteral(t *testing.T) {
	db := testDB(t)
	if err := db.Replace([]models.WordCard{{Word: "co-operate"}}, "c1"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := db.Search(`co-op "AND`, 10); err != nil {
		t.Fatalf("Search with operators: %v", err)
	}
}
