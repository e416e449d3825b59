package llm

import (
	"context"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
)

// Provider is a language model able to answer the structure prompt
type Provider interface {
	Name() string

	// Extract returns the raw answer, expected to hold one JSON object
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable makes a cheap authenticated call
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest is one narrative to structure. Empty fields fall back to Config.
type ExtractRequest struct {
	Text      string
	Prompt    string // Replaces BuildPrompt(Text) when set
	Model     string
	MaxTokens int
}

// ExtractResponse is a provider answer
type ExtractResponse struct {
	Content    string
	Model      string
	TokensUsed int // Prompt plus completion
}

// Config selects and tunes a provider
type Config struct {
	Provider   string // openai, anthropic (claude), ollama; empty for rules only
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    int // seconds
	MaxTokens  int
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens(req ExtractRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2000
}

func (c Config) prompt(req ExtractRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.Text)
}

// ConfigFromModel converts model.DelegateConfig to llm.Config
func ConfigFromModel(dc model.DelegateConfig) Config {
	return Config{
		Provider:   dc.Provider,
		Model:      dc.Model,
		APIKey:     dc.APIKey,
		BaseURL:    dc.BaseURL,
		Timeout:    int(dc.Timeout() / time.Second),
		MaxTokens:  dc.MaxTokens,
		HTTPProxy:  dc.HTTPProxy,
		HTTPSProxy: dc.HTTPSProxy,
		NoProxy:    dc.NoProxy,
	}
}
