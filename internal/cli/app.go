package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/claimtriage/internal/cache"
	"github.com/ppiankov/claimtriage/internal/decision"
	"github.com/ppiankov/claimtriage/internal/events"
	"github.com/ppiankov/claimtriage/internal/extract"
	"github.com/ppiankov/claimtriage/internal/llm"
	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/pipeline"
	"github.com/ppiankov/claimtriage/internal/score"
	"github.com/ppiankov/claimtriage/internal/store"
	"github.com/ppiankov/claimtriage/internal/worker"
)

// app holds the components built from one configuration
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	registry *locale.Registry
	store    store.Store
	nats     *events.NATSClient
	subjects events.Subjects
	pipeline *pipeline.Pipeline
}

// buildApp wires config → lexicons, delegate, limiter, cache, store, events → pipeline
func buildApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := locale.NewRegistry(cfg.Locale.Default)
	if err != nil {
		return nil, fmt.Errorf("load lexicons: %w", err)
	}
	if cfg.Locale.Dir != "" {
		loaded, err := registry.LoadDir(cfg.Locale.Dir)
		if err != nil {
			// Partial loads keep the lexicons that parsed
			logger.Warn("lexicon directory", "dir", cfg.Locale.Dir, "error", err)
		}
		logger.Debug("lexicons loaded", "dir", cfg.Locale.Dir, "locales", loaded)
	}

	opts := extract.Options{
		Timeout: cfg.Delegate.Timeout(),
		Cache:   cache.New(cfg.Cache),
		Logger:  logger,
	}
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.Delegate))
	if err != nil {
		return nil, fmt.Errorf("create delegate: %w", err)
	}
	if provider != nil {
		opts.Delegate = extract.NewLLMDelegate(provider, cfg.Delegate.MaxTokens)
		opts.Limiter = worker.NewLimiter(cfg.Delegate.RequestsPerSecond, cfg.Delegate.Burst)
		logger.Debug("delegate enabled", "provider", provider.Name(), "model", cfg.Delegate.Model)
	}
	extractor := extract.New(registry, opts)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    st,
		subjects: events.Subjects{Prefix: cfg.Events.SubjectPrefix},
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.NatsURL != "" {
		nc, err := events.NewNATSClient(ctx, cfg.Events.NatsURL, cfg.Events.Token, logger)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("connect events: %w", err)
		}
		a.nats = nc
		publisher = nc
	}

	p, err := pipeline.New(pipeline.Options{
		Extractor: extractor,
		Scorer: score.NewLocaleScorer(func(code string) []string {
			return registry.Get(code).MultiplicityMarkers
		}),
		Engine:    decision.NewEngine(),
		Store:     st,
		Publisher: publisher,
		Subjects:  a.subjects,
		Reviewer:  cfg.Routing.DefaultReviewer,
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pipeline = p
	return a, nil
}

// Close flushes events and releases the store
func (a *app) Close() {
	if a.nats != nil {
		if err := a.nats.Flush(); err != nil {
			a.logger.Warn("nats flush", "error", err)
		}
		a.nats.Close()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "error", err)
	}
}
