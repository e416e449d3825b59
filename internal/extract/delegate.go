package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/claimtriage/internal/llm"
	"github.com/ppiankov/claimtriage/internal/model"
)

// ErrDelegateFailed wraps every delegate failure. It never escapes Extractor.Extract.
var ErrDelegateFailed = errors.New("extraction delegate failed")

// Delegate is an external text-understanding capability returning an uncoerced claim structure
type Delegate interface {
	// Name identifies the delegate in logs, cache keys and the structure source
	Name() string

	// ExtractStructure analyzes the narrative
	ExtractStructure(ctx context.Context, text string) (*model.RawStructure, error)
}

// LLMDelegate adapts an llm.Provider to the Delegate interface
type LLMDelegate struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLMDelegate wraps a provider
func NewLLMDelegate(provider llm.Provider, maxTokens int) *LLMDelegate {
	return &LLMDelegate{provider: provider, maxTokens: maxTokens}
}

// Name returns the provider name
func (d *LLMDelegate) Name() string {
	return d.provider.Name()
}

// ExtractStructure asks the provider for a structure and decodes its JSON answer
func (d *LLMDelegate) ExtractStructure(ctx context.Context, text string) (*model.RawStructure, error) {
	resp, err := d.provider.Extract(ctx, llm.ExtractRequest{
		Text:      text,
		MaxTokens: d.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	return ParseRawStructure(resp.Content)
}

// ParseRawStructure decodes a model answer, tolerating markdown fences and
// prose around the JSON object
func ParseRawStructure(content string) (*model.RawStructure, error) {
	cleaned, err := cleanJSON(content)
	if err != nil {
		return nil, err
	}

	var raw model.RawStructure
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	return &raw, nil
}

// cleanJSON isolates the outermost JSON object of a model answer
func cleanJSON(content string) (string, error) {
	if strings.Contains(content, "```") {
		for _, part := range strings.Split(content, "```") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "json") {
				content = strings.TrimSpace(part[len("json"):])
				break
			}
			if strings.HasPrefix(part, "{") {
				content = part
				break
			}
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return content[start : end+1], nil
}
