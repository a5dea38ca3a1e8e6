package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/store_api/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func TestSearchDecodesHits(t *testing.T) {
	es := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "query")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"name": "accent chair", "price": 259.99, "company": "marcos"}},
					{"_source": {"name": "albany table", "price": 309.99, "company": "liddy"}}
				]
			}
		}`))
	})

	total, prods, err := Search(context.Background(), es, ProductIndex, "chair", 0, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	require.Len(t, prods, 2)
	assert.Equal(t, "accent chair", prods[0].Name)
	assert.Equal(t, 259.99, prods[0].Price)
	assert.Equal(t, "marcos", prods[0].Company)
	assert.Equal(t, "albany table", prods[1].Name)
}

func TestSearchReturnsServerError(t *testing.T) {
	es := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	})

	_, _, err := Search(context.Background(), es, ProductIndex, "chair", 0, 10)
	require.Error(t, err)
}

func TestIndexProductSetsDocumentID(t *testing.T) {
	var gotPath string
	es := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result": "created"}`))
	})

	p := &models.Product{Name: "accent chair"}
	p.ID = 42
	require.NoError(t, IndexProduct(context.Background(), es, ProductIndex, p))
	assert.Equal(t, "/products/_doc/42", gotPath)
}

func TestDeleteProductIgnoresMissingDocument(t *testing.T) {
	es := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result": "not_found"}`))
	})

	require.NoError(t, DeleteProduct(context.Background(), es, ProductIndex, 42))
}
