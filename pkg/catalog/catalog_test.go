package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "garden hoses", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "tag-20", r.URL.Query().Get("partner_tag"))
		assert.Equal(t, "secret", r.Header.Get("X-Access-Key"))

		io.WriteString(w, `{"items": [
			{"asin": "A1", "title": "Hose One", "url": "https://x/1"},
			{"asin": "A2", "title": "Hose Two", "url": "https://x/2"}
		]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", "tag-20", 5*time.Second)
	products, err := client.Search(context.Background(), "garden hoses", 10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "A1", products[0].ASIN)
	assert.Equal(t, "Hose One", products[0].Title)
}

func TestSearchTruncatesToMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items": [
			{"asin": "A1", "title": "T1", "url": "u"},
			{"asin": "A2", "title": "T2", "url": "u"},
			{"asin": "A3", "title": "T3", "url": "u"}
		]}`)
	}))
	defer srv.Close()

	products, err := NewClient(srv.URL, "k", "", 0).Search(context.Background(), "kw", 2)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items": []}`)
	}))
	defer srv.Close()

	products, err := NewClient(srv.URL, "k", "", 0).Search(context.Background(), "kw", 10)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", "", 0).Search(context.Background(), "kw", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchOmitsEmptyPartnerTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["partner_tag"]
		assert.False(t, ok)
		io.WriteString(w, `{"items": []}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", "", 0).Search(context.Background(), "kw", 10)
	require.NoError(t, err)
}
