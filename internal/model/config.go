package model

import "time"

// Config is the complete claimtriage configuration
type Config struct {
	Locale      LocaleConfig      `yaml:"locale" mapstructure:"locale"`
	Delegate    DelegateConfig    `yaml:"delegate" mapstructure:"delegate"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Events      EventsConfig      `yaml:"events" mapstructure:"events"`
	Routing     RoutingConfig     `yaml:"routing" mapstructure:"routing"`
	Summary     SummaryConfig     `yaml:"summary" mapstructure:"summary"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// LocaleConfig selects keyword lexicons
type LocaleConfig struct {
	Default string `yaml:"default" mapstructure:"default"` // Lexicon used when the transcript language has none
	Dir     string `yaml:"dir" mapstructure:"dir"`         // Optional directory of <code>.yaml lexicons
}

// DelegateConfig configures the optional text-understanding delegate
type DelegateConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (rules only)
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// Timeout returns the per-call delegate timeout
func (d DelegateConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// CacheConfig configures the delegate response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig selects the claim store backend
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // memory, disk, layered, sqlite, postgres
	Path   string `yaml:"path,omitempty" mapstructure:"path"`
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// EventsConfig configures decision event publishing
type EventsConfig struct {
	NatsURL       string `yaml:"nats_url,omitempty" mapstructure:"nats_url"` // Empty disables publishing
	Token         string `yaml:"token,omitempty" mapstructure:"token"`
	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`
}

// RoutingConfig configures how escalations are assigned
type RoutingConfig struct {
	DefaultReviewer string `yaml:"default_reviewer" mapstructure:"default_reviewer"`
}

// SummaryConfig configures presentation projections
type SummaryConfig struct {
	Contact string `yaml:"contact" mapstructure:"contact"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns sensible defaults (rules-only extraction, in-memory store)
func DefaultConfig() *Config {
	return &Config{
		Locale: LocaleConfig{Default: "fr"},
		Delegate: DelegateConfig{
			Provider:          "", // Disabled by default
			TimeoutSeconds:    30,
			MaxTokens:         2000,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskDir:   "",
			DiskTTL:   24 * time.Hour,
		},
		Store:       StoreConfig{Driver: "memory"},
		Events:      EventsConfig{SubjectPrefix: "claims.triage"},
		Routing:     RoutingConfig{DefaultReviewer: "advisor-pool"},
		Summary:     SummaryConfig{Contact: "0800 123 456"},
		Concurrency: ConcurrencyConfig{Workers: 4},
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}
