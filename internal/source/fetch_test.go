package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherConditionalRequests(t *testing.T) {
	const etag = `"v1"`
	body := []byte(`[{"id":"1"}]`)

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ep := Endpoint{ID: "t", URL: srv.URL}

	res, err := f.Fetch(context.Background(), ep)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, body, res.Body)

	// Second fetch sends If-None-Match and reuses the cached body.
	res, err = f.Fetch(context.Background(), ep)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, body, res.Body)
	assert.Equal(t, 2, hits)
}

func TestFetcherServesStaleOnNetworkFailure(t *testing.T) {
	body := []byte(`[{"id":"1"}]`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))

	cacheDir := t.TempDir()
	f := NewFetcher(cacheDir)
	ep := Endpoint{ID: "t", URL: srv.URL}

	res, err := f.Fetch(context.Background(), ep)
	require.NoError(t, err)
	require.Equal(t, body, res.Body)

	// Kill the server; the cached body must still be served.
	srv.Close()

	res, err = f.Fetch(context.Background(), ep)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, body, res.Body)
}

func TestFetcherEmptyURL(t *testing.T) {
	f := NewFetcher(t.TempDir())
	_, err := f.Fetch(context.Background(), Endpoint{ID: "t"})
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://campus.example.edu/...(redacted)",
		redactURL("https://campus.example.edu/api/events?token=secret"))
	assert.Equal(t, "source://...(redacted)", redactURL("not a url"))
}
