package tenor_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mofucat/chatrank/internal/setup/config"
	"github.com/mofucat/chatrank/internal/tenor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *tenor.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return tenor.NewClient(&config.Tenor{
		APIKey:      "test-key",
		ResultLimit: 5,
	}, zap.NewNop()).WithBaseURL(server.URL)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "cats", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": "1", "title": "cat one", "media_formats": {"gif": {"url": "https://example.com/1.gif"}}},
				{"id": "2", "title": "cat two", "media_formats": {"gif": {"url": "https://example.com/2.gif"}}},
				{"id": "3", "title": "no gif format", "media_formats": {}}
			]
		}`))
	})

	gifs, err := client.Search(t.Context(), "cats")
	require.NoError(t, err)

	// Results without a gif rendition are dropped.
	require.Len(t, gifs, 2)
	assert.Equal(t, "1", gifs[0].ID)
	assert.Equal(t, "https://example.com/1.gif", gifs[0].URL)
	assert.Equal(t, "cat two", gifs[1].Title)
}

func TestSearchNoResults(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	_, err := client.Search(t.Context(), "zxqj")
	require.ErrorIs(t, err, tenor.ErrNoResults)
}

func TestSearchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		_, _ = w.Write([]byte(`{
			"results": [{"id": "1", "title": "ok", "media_formats": {"gif": {"url": "https://example.com/1.gif"}}}]
		}`))
	})

	gifs, err := client.Search(t.Context(), "retry")
	require.NoError(t, err)
	require.Len(t, gifs, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSearchClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Search(t.Context(), "denied")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}
