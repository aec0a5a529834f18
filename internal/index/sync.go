package index

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/wordvault/internal/checksum"
	"github.com/starford/wordvault/internal/models"
)

// Source yields the encoded word list as stored.
type Source interface {
	WordsRaw() ([]byte, error)
}

// Sync brings the index up to date with src. The list is re-indexed only
// when its checksum differs from the one recorded at the last sync. It
// reports whether anything changed.
func Sync(db CardIndex, src Source, logger *slog.Logger) (bool, error) {
	raw, err := src.WordsRaw()
	if err != nil {
		return false, err
	}
	cs, raw := checksum.List(raw)

	prev, err := db.Checksum()
	if err != nil {
		return false, err
	}
	if prev == cs {
		return false, nil
	}

	var cards []models.WordCard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return false, fmt.Errorf("index: decode words: %w", err)
	}
	if err := db.Replace(cards, cs); err != nil {
		return false, err
	}
	logger.Debug("sync: indexed", slog.Int("cards", len(cards)))
	return true, nil
}
