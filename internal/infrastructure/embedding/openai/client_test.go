package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edurag/edurag/internal/core/domain"
)

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) != 2 {
			t.Errorf("expected 2 inputs, got %d", len(req.Input))
		}
		// respond out of order to exercise index mapping
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0.3, 0.4}},
				{"index": 0, "embedding": []float64{0.1, 0.2}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "text-embedding-3-small")
	vectors, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.3 {
		t.Fatalf("vectors not in input order: %v", vectors)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := NewClient("http://unused", "key", "m")
	vectors, err := c.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("expected nil, nil for empty input, got %v, %v", vectors, err)
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m")
	_, err := c.Embed(context.Background(), []string{"x"})
	if !domain.IsKind(err, domain.ErrIndexing) {
		t.Fatalf("expected indexing error, got %v", err)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{0.1}}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m")
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	if !domain.IsKind(err, domain.ErrIndexing) {
		t.Fatalf("expected indexing error, got %v", err)
	}
}
