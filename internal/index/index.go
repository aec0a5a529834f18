package index

import "github.com/starford/wordvault/internal/models"

// CardIndex is the search side of the vault. Consumers depend on this
// rather than *DB so tests can swap it out.
type CardIndex interface {
	Replace(cards []models.WordCard, checksum string) error
	Checksum() (string, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies CardIndex at compile time.
var _ CardIndex = (*DB)(nil)
