// Package testutil provides shared test helpers for setting up stores and indexes.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/wordvault/internal/dictionary"
	"github.com/starford/wordvault/internal/index"
	"github.com/starford/wordvault/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "wordvault-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary store directory with a file-backed gateway.
func TestStore(t *testing.T) (string, *storage.Gateway) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, storage.NewGateway(fs)
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Definer answers every lookup with the entry in Words, or NotFound.
type Definer struct {
	Words map[string]string
}

// Define implements dictionary.Definer.
func (d Definer) Define(_ context.Context, word string) (dictionary.Result, error) {
	if def, ok := d.Words[word]; ok {
		return dictionary.Result{Status: dictionary.Found, Definition: def}, nil
	}
	return dictionary.Result{Status: dictionary.NotFound}, nil
}
