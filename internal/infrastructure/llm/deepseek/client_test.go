package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
)

func TestGenerateSendsUserMessage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  Paris is the capital of France.  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "deepseek-chat", time.Second)
	answer, err := c.Generate(context.Background(), "What is the capital of France?", 0.7, 2000)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "Paris is the capital of France." {
		t.Fatalf("answer not trimmed: %q", answer)
	}
	if got.Model != "deepseek-chat" || got.Stream {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("expected a single user message, got %+v", got.Messages)
	}
	if got.Temperature != 0.7 || got.MaxTokens != 2000 {
		t.Fatalf("generation parameters not forwarded: %+v", got)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m", time.Second)
	answer, err := c.Generate(context.Background(), "q", 0.7, 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "ok" || calls != 2 {
		t.Fatalf("expected retry then success, got %q after %d calls", answer, calls)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m", time.Second)
	_, err := c.Generate(context.Background(), "q", 0.7, 100)
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m", time.Second)
	if _, err := c.Generate(context.Background(), "q", 0.7, 100); !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
}

func TestIsRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"throttled", &HTTPStatusError{Status: 429}, true},
		{"bad gateway", &HTTPStatusError{Status: 502}, true},
		{"bad request", &HTTPStatusError{Status: 400}, false},
		{"unauthorized", &HTTPStatusError{Status: 401}, false},
		{"canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		if got := isRetryable(tc.err); got != tc.want {
			t.Errorf("%s: isRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
