package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
)

// Embedder turns text into vectors; the index itself only stores them.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

// Client talks to one Pinecone index over its data-plane REST API.
type Client struct {
	host      string
	apiKey    string
	namespace string
	embedder  Embedder
	http      *http.Client
}

func NewClient(host, apiKey, namespace string, embedder Embedder) *Client {
	return &Client{
		host:      strings.TrimSuffix(host, "/"),
		apiKey:    apiKey,
		namespace: namespace,
		embedder:  embedder,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

type upsertRequest struct {
	Vectors   []upsertVector `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float64      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
	Namespace       string         `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    *float64       `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

// AddBatch embeds the chunks and upserts them under the given ids.
// ids[i] must correspond to chunks[i].
func (c *Client) AddBatch(ctx context.Context, chunks []domain.Chunk, ids []string) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(ids) {
		return domain.WrapError(domain.ErrIndexing, "upsert", fmt.Errorf("%d chunks for %d ids", len(chunks), len(ids)))
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	req := upsertRequest{Namespace: c.namespace, Vectors: make([]upsertVector, len(chunks))}
	for i, ch := range chunks {
		req.Vectors[i] = upsertVector{
			ID:     ids[i],
			Values: vectors[i],
			Metadata: map[string]any{
				"doc_id":      float64(ch.JobID),
				"chunk_index": float64(ch.Ordinal),
				"source":      ch.Source,
				"file_type":   string(ch.FileType),
				"text":        ch.Text,
			},
		}
	}
	return c.post(ctx, "/vectors/upsert", req, nil)
}

// Search embeds the query and returns up to k matches restricted to the
// given job ids.
func (c *Client) Search(ctx context.Context, query string, jobIDs []int64, k int) ([]domain.RetrievedDocument, error) {
	vectors, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		Vector:          vectors[0],
		TopK:            k,
		IncludeMetadata: true,
		Namespace:       c.namespace,
	}
	if len(jobIDs) > 0 {
		in := make([]any, len(jobIDs))
		for i, id := range jobIDs {
			in[i] = float64(id)
		}
		req.Filter = map[string]any{"doc_id": map[string]any{"$in": in}}
	}

	var resp queryResponse
	if err := c.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	docs := make([]domain.RetrievedDocument, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		score := 1.0
		if m.Score != nil {
			score = *m.Score
		}
		doc := domain.RetrievedDocument{Score: score}
		if v, ok := m.Metadata["doc_id"].(float64); ok {
			doc.JobID = int64(v)
		}
		if v, ok := m.Metadata["chunk_index"].(float64); ok {
			doc.Ordinal = int(v)
		}
		if v, ok := m.Metadata["source"].(string); ok {
			doc.Source = v
		}
		if v, ok := m.Metadata["file_type"].(string); ok {
			doc.FileType = domain.FileType(v)
		}
		if v, ok := m.Metadata["text"].(string); ok {
			doc.Text = v
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Client) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, "/vectors/delete", deleteRequest{IDs: ids, Namespace: c.namespace}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrIndexing, "call index", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return domain.WrapError(domain.ErrIndexing, "read index response", err)
	}
	if resp.StatusCode >= 400 {
		kind := domain.ErrIndexing
		// a dimension mismatch means the index was created for another
		// embedding model and no retry can fix it
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(data)), "dimension") {
			kind = domain.ErrIndexMisconfigured
		}
		return domain.WrapError(kind, "index "+path,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data, 512)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return domain.WrapError(domain.ErrIndexing, "decode index response", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
