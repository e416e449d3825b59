package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestOllama(t *testing.T, model string, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: model, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestOllamaProvider_Extract_Success(t *testing.T) {
	provider := newTestOllama(t, "llama3.1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Format != "json" {
			t.Errorf("Expected JSON format, got %q", req.Format)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		if req.Options.NumPredict != 2000 {
			t.Errorf("Expected default 2000 max tokens, got %d", req.Options.NumPredict)
		}

		_, _ = w.Write([]byte(`{"model": "llama3.1", "response": " {\"claim_type\": \"auto\"} ", "done": true, "prompt_eval_count": 10, "eval_count": 20}`))
	})

	resp, err := provider.Extract(context.Background(), ExtractRequest{Text: narrative})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if resp.Content != `{"claim_type": "auto"}` {
		t.Errorf("Unexpected content: %s", resp.Content)
	}
	if resp.TokensUsed != 30 {
		t.Errorf("Expected 30 tokens, got %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_Extract_EstimatesTokens(t *testing.T) {
	provider := newTestOllama(t, "mistral", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "mistral", "response": "{\"claim_type\": \"home\"}", "done": true}`))
	})

	resp, err := provider.Extract(context.Background(), ExtractRequest{Text: narrative})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if resp.TokensUsed == 0 {
		t.Error("Expected a token estimate when the model reports none")
	}
}

func TestOllamaProvider_Extract_APIError(t *testing.T) {
	provider := newTestOllama(t, "llama3.1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model 'llama3.1' not found"}`))
	})

	_, err := provider.Extract(context.Background(), ExtractRequest{Text: narrative})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Provider != "ollama" || !strings.Contains(apiErr.Message, "not found") {
		t.Errorf("Unexpected API error: %+v", apiErr)
	}
	if apiErr.Temporary() {
		t.Error("Expected 404 not to be temporary")
	}
}

func TestOllamaProvider_Extract_EmptyResponse(t *testing.T) {
	provider := newTestOllama(t, "llama3.1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "llama3.1", "response": "  ", "done": true}`))
	})

	if _, err := provider.Extract(context.Background(), ExtractRequest{Text: narrative}); err == nil {
		t.Fatal("Expected error for empty response")
	}
}

func TestOllamaProvider_Extract_MalformedJSON(t *testing.T) {
	provider := newTestOllama(t, "llama3.1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{malformed json`))
	})

	if _, err := provider.Extract(context.Background(), ExtractRequest{Text: narrative}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	status := http.StatusOK
	provider := newTestOllama(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models": []}`))
	})

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	status = http.StatusInternalServerError
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestOllamaProvider_Extract_NoModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Extract(context.Background(), ExtractRequest{Text: narrative})
	if err == nil || !strings.Contains(err.Error(), "must be specified") {
		t.Errorf("Expected error about missing model, got %v", err)
	}
}
