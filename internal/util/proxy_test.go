package util

import (
	"net/http"
	"testing"
)

func proxyFor(t *testing.T, p Proxy, rawURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	u, err := p.Func()(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil {
		return ""
	}
	return u.String()
}

func TestProxy_SchemeSelection(t *testing.T) {
	p := Proxy{HTTP: "http://proxy:3128", HTTPS: "http://secure-proxy:3128"}

	if got := proxyFor(t, p, "https://api.openai.com/v1"); got != "http://secure-proxy:3128" {
		t.Errorf("Expected HTTPS proxy, got %q", got)
	}
	if got := proxyFor(t, p, "http://ollama.internal:11434"); got != "http://proxy:3128" {
		t.Errorf("Expected HTTP proxy, got %q", got)
	}

	// HTTP proxy serves https when no HTTPS proxy is set
	if got := proxyFor(t, Proxy{HTTP: "http://proxy:3128"}, "https://api.anthropic.com"); got != "http://proxy:3128" {
		t.Errorf("Expected HTTP proxy fallback, got %q", got)
	}
}

func TestProxy_NoProxy(t *testing.T) {
	p := Proxy{HTTP: "http://proxy:3128", NoProxy: "localhost, .internal,ollama:11434"}

	for _, u := range []string{
		"http://localhost:11434/api/generate",
		"http://ollama.internal/api/tags",
		"http://gpu.ollama.internal/api/tags",
		"http://ollama/api/tags",
	} {
		if got := proxyFor(t, p, u); got != "" {
			t.Errorf("Expected %s to bypass the proxy, got %q", u, got)
		}
	}
	if got := proxyFor(t, p, "http://example.com"); got != "http://proxy:3128" {
		t.Errorf("Expected proxy for unlisted host, got %q", got)
	}

	if got := proxyFor(t, Proxy{HTTP: "http://proxy:3128", NoProxy: "*"}, "http://example.com"); got != "" {
		t.Errorf("Expected * to bypass every proxy, got %q", got)
	}
}

func TestProxy_InternalSuffixIsNotSubstring(t *testing.T) {
	p := Proxy{HTTP: "http://proxy:3128", NoProxy: "internal"}
	if got := proxyFor(t, p, "http://notinternal.com"); got != "http://proxy:3128" {
		t.Errorf("Expected suffix match on label boundary only, got %q", got)
	}
}
