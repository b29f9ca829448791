package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
)

// Client produces embeddings through the OpenAI-compatible
// /embeddings endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "call embedding api", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "read embedding response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.WrapError(domain.ErrIndexing, "embedding api",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(payload, 512)))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, domain.WrapError(domain.ErrIndexing, "decode embedding response", err)
	}
	if len(parsed.Data) != len(inputs) {
		return nil, domain.WrapError(domain.ErrIndexing, "embedding api",
			fmt.Errorf("got %d embeddings for %d inputs", len(parsed.Data), len(inputs)))
	}

	vectors := make([][]float64, len(inputs))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, domain.WrapError(domain.ErrIndexing, "embedding api",
				fmt.Errorf("embedding index %d out of range", item.Index))
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
