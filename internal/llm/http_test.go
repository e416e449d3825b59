package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDoJSON_SendsHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("Expected X-Test header, got %q", r.Header.Get("X-Test"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"answer": 42}`))
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("X-Test", "1")
	var out struct {
		Answer int `json:"answer"`
	}
	err := doJSON(context.Background(), server.Client(), "test", http.MethodPost, server.URL, header, map[string]string{"q": "?"}, &out, nil)
	if err != nil {
		t.Fatalf("doJSON failed: %v", err)
	}
	if out.Answer != 42 {
		t.Errorf("Expected 42, got %d", out.Answer)
	}
}

func TestDoJSON_ErrorWithoutDecoder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("  upstream down\n"))
	}))
	defer server.Close()

	err := doJSON(context.Background(), server.Client(), "test", http.MethodGet, server.URL, nil, nil, nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Message != "upstream down" {
		t.Errorf("Expected trimmed body as message, got %q", apiErr.Message)
	}
	if !strings.HasPrefix(apiErr.Error(), "test API error (502)") {
		t.Errorf("Unexpected error text: %s", apiErr.Error())
	}
}

func TestAPIError_Temporary(t *testing.T) {
	for status, want := range map[int]bool{400: false, 401: false, 404: false, 429: true, 500: true, 503: true} {
		if got := (&APIError{StatusCode: status}).Temporary(); got != want {
			t.Errorf("Expected Temporary()=%v for %d, got %v", want, status, got)
		}
	}
}
