package storage

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordvault/internal/models"
)

func TestWithParams(t *testing.T) {
	assert.Equal(t, "vault.db?a=1", withParams("vault.db", "a=1"))
	assert.Equal(t, "file:vault.db?mode=rwc&a=1", withParams("file:vault.db?mode=rwc", "a=1"))
}

func tempDBFile(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "wordvault-kv-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() {
		os.Remove(f.Name())
		os.Remove(f.Name() + "-wal")
		os.Remove(f.Name() + "-shm")
	})
	return f.Name()
}

func TestNewSQL_DSNWithQuery(t *testing.T) {
	s, err := NewSQL(DriverSQLite, "file:"+tempDBFile(t)+"?mode=rwc")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("words", []byte("[]")))
	got, ok, err := s.Get("words")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(got))
}

func TestSQL_SharedDatabaseSerializesWriters(t *testing.T) {
	path := tempDBFile(t)
	var gws []*Gateway
	for i := 0; i < 2; i++ {
		s, err := NewSQL(DriverSQLite, path)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		gws = append(gws, NewGateway(s))
	}

	const perStore = 25
	var wg sync.WaitGroup
	for _, gw := range gws {
		for i := 0; i < perStore; i++ {
			wg.Add(1)
			go func(gw *Gateway, i int) {
				defer wg.Done()
				assert.NoError(t, gw.AppendWord(models.WordCard{Word: fmt.Sprintf("w%d", i)}))
			}(gw, i)
		}
	}
	wg.Wait()

	words, err := gws[1].Words()
	require.NoError(t, err)
	assert.Len(t, words, 2*perStore)
}
