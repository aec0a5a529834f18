package dictionary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithInterval(0))
}

func TestDefine_Found(t *testing.T) {
	t.Parallel()

	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[{"word":"ephemeral","meanings":[{"partOfSpeech":"adjective","definitions":[{"definition":"Lasting for a short period of time."}]}]}]`))
	})

	res, err := c.Define(context.Background(), " ephemeral ")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/entries/en/ephemeral", gotPath)
	assert.Equal(t, Found, res.Status)
	assert.Equal(t, "Lasting for a short period of time.", res.Definition)
	assert.Equal(t, "adjective", res.PartOfSpeech)
}

func TestDefine_NotFound(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title":"No Definitions Found"}`))
	})

	res, err := c.Define(context.Background(), "zzxq")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
}

func TestDefine_NoMeanings(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"word":"x","meanings":[]}]`))
	})

	res, err := c.Define(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
}

func TestDefine_MeaningWithoutDefinition(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"word":"x","meanings":[{"partOfSpeech":"noun","definitions":[]}]}]`))
	})

	res, err := c.Define(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, NoDefinition, res.Status)
}

func TestDefine_ServerError(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Define(context.Background(), "word")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDefine_EscapesWord(t *testing.T) {
	t.Parallel()

	var raw string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Define(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/entries/en/a%2Fb%20c", raw)
}

func TestDefine_EmptyWordSkipsRequest(t *testing.T) {
	t.Parallel()

	called := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	res, err := c.Define(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
	assert.False(t, called)
}
