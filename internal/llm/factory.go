package llm

import (
	"fmt"
	"sort"
	"strings"
)

type constructor func(Config) (Provider, error)

// providers maps delegate names, aliases included, to their constructors
var providers = map[string]constructor{
	"openai":    func(c Config) (Provider, error) { return NewOpenAIProvider(c) },
	"anthropic": func(c Config) (Provider, error) { return NewAnthropicProvider(c) },
	"claude":    func(c Config) (Provider, error) { return NewAnthropicProvider(c) },
	"ollama":    func(c Config) (Provider, error) { return NewOllamaProvider(c) },
}

// rulesOnly names that disable the delegate
var rulesOnly = map[string]bool{"": true, "none": true, "rules": true}

// NewProvider builds the delegate named by config.Provider.
// Returns nil, nil when extraction should run on rules only.
func NewProvider(config Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	if rulesOnly[name] {
		return nil, nil
	}
	build, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown delegate provider: %s (supported: %s)", config.Provider, strings.Join(Supported(), ", "))
	}
	return build(config)
}

// Supported lists the accepted provider names
func Supported() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
