//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/wordvault/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the cards table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ int, _ models.WordCard) error { return nil }

func ftsClear(_ *sql.Tx) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT position, word, meaning, mnemonic, context, source_url, date_added,
		       substr(meaning, 1, 200)
		FROM cards
		WHERE word LIKE ? OR meaning LIKE ? OR mnemonic LIKE ? OR context LIKE ?
		ORDER BY position DESC
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
