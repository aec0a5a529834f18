package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/wordvault/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Position int             `json:"position"`
	Card     models.WordCard `json:"card"`
	Snippet  string          `json:"snippet"`
}

// Replace swaps the indexed cards for cards and records checksum, in one
// transaction. Position is the card's index in the stored list.
func (db *DB) Replace(cards []models.WordCard, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM cards`); err != nil {
		return fmt.Errorf("index: clear cards: %w", err)
	}
	if err := ftsClear(tx); err != nil {
		return err
	}

	if len(cards) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO cards (position, word, meaning, mnemonic, context, source_url, date_added)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare card insert: %w", err)
		}
		defer stmt.Close()
		for i, c := range cards {
			if _, err := stmt.Exec(i, c.Word, c.Meaning, c.Mnemonic, c.Context, c.SourceURL, c.DateAdded); err != nil {
				return fmt.Errorf("index: insert card: %w", err)
			}
			if err := ftsInsert(tx, i, c); err != nil {
				return err
			}
		}
	}

	_, err = tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaChecksum, checksum)
	if err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	return tx.Commit()
}

// Checksum returns the checksum of the last indexed list, or "" if nothing
// was indexed yet.
func (db *DB) Checksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaChecksum).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of indexed cards.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		c := &r.Card
		if err := rows.Scan(&r.Position, &c.Word, &c.Meaning, &c.Mnemonic, &c.Context, &c.SourceURL, &c.DateAdded, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
