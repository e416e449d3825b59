package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/claimtriage/internal/cache"
	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/model"
)

// RateLimiter throttles delegate calls per key (the delegate name)
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Options configures an Extractor. Every field is optional.
type Options struct {
	// Delegate enables delegate-backed extraction; nil means rules only
	Delegate Delegate

	// Timeout bounds each delegate call (default 30s)
	Timeout time.Duration

	// Limiter throttles delegate calls
	Limiter RateLimiter

	// Cache stores delegate answers. A zero CacheTTL keeps each layer's own expiry.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Now stamps timeline events (default time.Now)
	Now func() time.Time

	Logger *slog.Logger
}

// Extractor turns transcripts into claim structures. It tries the delegate
// first when one is configured and falls back to rules on any delegate failure.
type Extractor struct {
	registry *locale.Registry
	rules    *RuleExtractor
	delegate Delegate
	timeout  time.Duration
	limiter  RateLimiter
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// New creates an extractor over the lexicon registry
func New(registry *locale.Registry, opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		registry: registry,
		rules:    NewRuleExtractor(opts.Now),
		delegate: opts.Delegate,
		timeout:  opts.Timeout,
		limiter:  opts.Limiter,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
	}
}

// Extract builds the claim structure of a transcript. The only error is
// model.ErrInvalidTranscript; delegate failures are logged and recovered.
func (e *Extractor) Extract(ctx context.Context, t model.TranscriptRecord) (*model.ClaimStructure, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	lex := e.registry.Get(t.Lang())

	if e.delegate != nil {
		cs, err := e.fromDelegate(ctx, lex, t)
		if err == nil {
			return cs, nil
		}
		e.logger.Warn("delegate extraction failed, using rules",
			"delegate", e.delegate.Name(),
			"locale", lex.Code,
			"error", err,
		)
	}

	return e.rules.Extract(lex, t), nil
}

func (e *Extractor) fromDelegate(ctx context.Context, lex *locale.Lexicon, t model.TranscriptRecord) (cs *model.ClaimStructure, err error) {
	name := e.delegate.Name()
	source := "delegate:" + name

	// A panicking delegate is a failing delegate
	defer func() {
		if r := recover(); r != nil {
			cs, err = nil, fmt.Errorf("%w: panic: %v", ErrDelegateFailed, r)
		}
	}()

	text := t.Text()
	key := cache.Key(name, lex.Code, text)

	if raw, ok := e.cached(key); ok {
		if cs, err := e.rules.coerce(lex, t, raw, source); err == nil {
			e.logger.Debug("delegate answer served from cache", "delegate", name)
			return cs, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(callCtx, name); err != nil {
			return nil, fmt.Errorf("%w: rate limit: %v", ErrDelegateFailed, err)
		}
	}

	raw, err := e.call(callCtx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDelegateFailed, err)
	}

	cs, err = e.rules.coerce(lex, t, raw, source)
	if err != nil {
		return nil, err
	}

	e.store(key, lex.Code, raw)
	return cs, nil
}

type delegateAnswer struct {
	raw *model.RawStructure
	err error
}

// call returns when the delegate answers or ctx is done, whichever comes first.
// A delegate that ignores ctx keeps running in its goroutine until it returns.
func (e *Extractor) call(ctx context.Context, text string) (*model.RawStructure, error) {
	done := make(chan delegateAnswer, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- delegateAnswer{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		raw, err := e.delegate.ExtractStructure(ctx, text)
		done <- delegateAnswer{raw: raw, err: err}
	}()

	select {
	case a := <-done:
		return a.raw, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Extractor) cached(key string) (*model.RawStructure, bool) {
	if e.cache == nil {
		return nil, false
	}
	a, ok := e.cache.Lookup(key)
	if !ok {
		return nil, false
	}
	return &a.Raw, true
}

func (e *Extractor) store(key, locale string, raw *model.RawStructure) {
	if e.cache == nil {
		return
	}
	a := &cache.Answer{
		Delegate: e.delegate.Name(),
		Locale:   locale,
		Raw:      *raw,
		StoredAt: time.Now().UTC(),
	}
	if err := e.cache.Save(key, a, e.cacheTTL); err != nil {
		e.logger.Debug("failed to cache delegate answer", "error", err)
	}
}
