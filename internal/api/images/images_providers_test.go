package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

func TestWikidataLookup(t *testing.T) {
	var gotQuery, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotFormat = r.URL.Query().Get("format")
		_, _ = w.Write([]byte(`{"results":{"bindings":[{"image":{"type":"uri","value":"http://commons.wikimedia.org/wiki/Special:FilePath/Hawa%20Mahal.jpg"}}]}}`))
	}))
	defer srv.Close()

	lookup := NewWikidataLookup(srv.URL, time.Second)
	got, err := lookup.ImageFor(context.Background(), "  Hawa Mahal ")
	require.NoError(t, err)

	assert.Equal(t, "http://commons.wikimedia.org/wiki/Special:FilePath/Hawa%20Mahal.jpg", got)
	assert.Equal(t, "json", gotFormat)
	assert.Contains(t, gotQuery, `IN ("hawa mahal", "hawa_mahal")`)
	assert.Contains(t, gotQuery, "wdt:P18")
}

func TestWikidataLookupEscapesLabel(t *testing.T) {
	q := labelQuery(`Bob's "Best" Bar`)
	assert.Contains(t, q, `"bob's \"best\" bar"`)
	assert.Contains(t, q, `"bob's_\"best\"_bar"`)
}

func TestWikidataLookupMisses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "no bindings", status: http.StatusOK, body: `{"results":{"bindings":[]}}`, wantErr: "no image found"},
		{name: "empty value", status: http.StatusOK, body: `{"results":{"bindings":[{"image":{"value":""}}]}}`, wantErr: "no image found"},
		{name: "server error", status: http.StatusTooManyRequests, body: `slow down`, wantErr: "unexpected status 429"},
		{name: "malformed", status: http.StatusOK, body: `<html>`, wantErr: "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewWikidataLookup(srv.URL, time.Second).ImageFor(context.Background(), "Nowhere")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnsplashSearch(t *testing.T) {
	var gotPath, gotAuth, gotQuery, gotPerPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		gotPerPage = r.URL.Query().Get("per_page")
		_, _ = w.Write([]byte(`{"total":2,"results":[{"urls":{"regular":"https://img/1"}},{"urls":{"regular":"https://img/2"}}]}`))
	}))
	defer srv.Close()

	t.Run("official API with key", func(t *testing.T) {
		s := NewUnsplashSearch("abc123", srv.URL, srv.URL+"/unused", time.Second)
		assert.True(t, s.Exact())

		urls, err := s.Search(context.Background(), "Hawa Mahal tourism Jaipur")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://img/1", "https://img/2"}, urls)
		assert.Equal(t, "/search/photos", gotPath)
		assert.Equal(t, "Client-ID abc123", gotAuth)
		assert.Equal(t, "Hawa Mahal tourism Jaipur", gotQuery)
		assert.Equal(t, "20", gotPerPage)
	})

	t.Run("public endpoint without key", func(t *testing.T) {
		s := NewUnsplashSearch("  ", srv.URL+"/unused", srv.URL, time.Second)
		assert.False(t, s.Exact())

		_, err := s.Search(context.Background(), "Charminar")
		require.NoError(t, err)
		assert.Equal(t, "/napi/search/photos", gotPath)
		assert.Empty(t, gotAuth)
	})
}

func TestLoremFlickrURL(t *testing.T) {
	f := LoremFlickr{}
	got := f.URL(types.ImageRequest{Name: "Hawa Mahal (Palace of Winds)!", City: "Jaipur", Index: 4})
	assert.Equal(t, "https://loremflickr.com/600/400/jaipur,hawamahalpalaceofwinds/all?lock=4", got)

	custom := LoremFlickr{BaseURL: "http://pics.local/"}
	assert.True(t, strings.HasPrefix(custom.URL(types.ImageRequest{Name: "x", City: "y"}), "http://pics.local/600/400/y,x/all?lock=0"))
}
