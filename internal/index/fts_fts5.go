//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/wordvault/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts USING fts5(
			position UNINDEXED,
			word,
			meaning,
			mnemonic,
			context,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, pos int, c models.WordCard) error {
	_, err := tx.Exec(`INSERT INTO cards_fts (position, word, meaning, mnemonic, context) VALUES (?, ?, ?, ?, ?)`,
		pos, c.Word, c.Meaning, c.Mnemonic, c.Context)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsClear(tx *sql.Tx) error {
	if _, err := tx.Exec(`DELETE FROM cards_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	return nil
}

// matchExpr turns free text into prefix terms so user input never hits the
// FTS5 query syntax.
func matchExpr(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(fields, " ")
}

// Search performs an FTS5 full-text search and returns matching cards with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	expr := matchExpr(query)
	if expr == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT c.position, c.word, c.meaning, c.mnemonic, c.context, c.source_url, c.date_added,
		       snippet(cards_fts, -1, '<b>', '</b>', '...', 16)
		FROM cards_fts
		JOIN cards c ON c.position = cards_fts.position
		WHERE cards_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
