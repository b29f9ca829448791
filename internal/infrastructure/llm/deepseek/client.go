package deepseek

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
	"github.com/edurag/edurag/internal/infrastructure/resilience"
)

// Client generates text through the DeepSeek chat-completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	exec    *resilience.Executor
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		exec:    resilience.NewExecutor("deepseek", resilience.RemoteCall(), isRetryable),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt as a single user message and returns the
// first choice's content.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	var answer string
	err := c.exec.Do(ctx, func(ctx context.Context) error {
		var callErr error
		answer, callErr = c.complete(ctx, prompt, temperature, maxTokens)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "call llm", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "read llm response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.WrapError(domain.ErrGeneration, "llm",
			&HTTPStatusError{Status: resp.StatusCode, Body: truncate(payload, 512)})
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "decode llm response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.WrapError(domain.ErrGeneration, "llm", fmt.Errorf("response has no choices"))
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
