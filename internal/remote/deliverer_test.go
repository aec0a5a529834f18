package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordvault/internal/models"
)

func TestDeliver_PostsCard(t *testing.T) {
	t.Parallel()

	var got models.WordCard
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	card := models.WordCard{Word: "ephemeral", SourceURL: "https://x.test"}
	require.NoError(t, NewHTTP(time.Second).Deliver(context.Background(), srv.URL, card))
	assert.Equal(t, card, got)
}

func TestDeliver_IgnoresResponseStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTP(time.Second).Deliver(context.Background(), srv.URL, models.WordCard{Word: "x"})
	assert.NoError(t, err)
}

func TestDeliver_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewHTTP(time.Second).Deliver(context.Background(), url, models.WordCard{Word: "x"})
	assert.Error(t, err)
}
