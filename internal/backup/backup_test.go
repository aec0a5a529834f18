package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/vault"
)

type stubExporter struct {
	exp   vault.Export
	err   error
	calls atomic.Int32
}

func (s *stubExporter) ExportMarkdown(context.Context) (vault.Export, error) {
	s.calls.Add(1)
	return s.exp, s.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnce_WritesExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	exp := &stubExporter{exp: vault.Export{Filename: "word-vault-2024-06-03.md", Data: []byte("# Word Vault\n")}}
	s := New(exp, dir, time.Hour, discard())

	path, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "word-vault-2024-06-03.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Word Vault\n", string(data))
}

func TestRunOnce_SkipsEmptyVault(t *testing.T) {
	dir := t.TempDir()
	s := New(&stubExporter{err: apperr.ErrEmptyVault}, dir, time.Hour, discard())

	path, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunOnce_ExportError(t *testing.T) {
	s := New(&stubExporter{err: errors.New("boom")}, t.TempDir(), time.Hour, discard())
	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
}

func TestRun_StopsWithContext(t *testing.T) {
	exp := &stubExporter{exp: vault.Export{Filename: "b.md", Data: []byte("x")}}
	s := New(exp, t.TempDir(), 20*time.Millisecond, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return exp.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
