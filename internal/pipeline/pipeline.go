package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/decision"
	"github.com/ppiankov/claimtriage/internal/events"
	"github.com/ppiankov/claimtriage/internal/extract"
	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/score"
	"github.com/ppiankov/claimtriage/internal/store"
)

// ErrClosed is returned when a resolved or rejected claim is closed again
var ErrClosed = errors.New("claim already closed")

// Options wires the pipeline. Extractor is required.
type Options struct {
	Extractor *extract.Extractor
	Scorer    *score.Scorer
	Engine    *decision.Engine
	Store     store.Store
	Publisher events.Publisher
	Subjects  events.Subjects

	// Reviewer is assigned to escalated claims
	Reviewer string

	Now    func() time.Time
	Logger *slog.Logger
}

// Pipeline orchestrates triage: record, extract, score, decide, apply, persist, publish
type Pipeline struct {
	extractor *extract.Extractor
	scorer    *score.Scorer
	engine    *decision.Engine
	briefs    *decision.BriefBuilder
	store     store.Store
	publisher events.Publisher
	subjects  events.Subjects
	reviewer  string
	now       func() time.Time
	logger    *slog.Logger
	locks     *keyedMutex
}

// Result is the outcome of triaging one transcript
type Result struct {
	Record     *claim.Record             `json:"record"`
	Structure  model.ClaimStructure      `json:"structure"`
	Complexity model.ComplexityBreakdown `json:"complexity"`
	Decision   model.Decision            `json:"decision"`
	Brief      *model.Brief              `json:"brief,omitempty"` // Escalations only
}

// New creates a pipeline
func New(opts Options) (*Pipeline, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("pipeline: extractor is required")
	}
	if opts.Scorer == nil {
		opts.Scorer = score.NewScorer(nil)
	}
	if opts.Engine == nil {
		opts.Engine = decision.NewEngine()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{
		extractor: opts.Extractor,
		scorer:    opts.Scorer,
		engine:    opts.Engine,
		briefs:    decision.NewBriefBuilder(opts.Now),
		store:     opts.Store,
		publisher: opts.Publisher,
		subjects:  opts.Subjects,
		reviewer:  opts.Reviewer,
		now:       opts.Now,
		logger:    opts.Logger,
		locks:     newKeyedMutex(),
	}, nil
}

// Store returns the store records are persisted to
func (p *Pipeline) Store() store.Store {
	return p.store
}

// Triage processes a transcript for claim id (generated when empty).
// An existing record with the same id is re-analyzed.
func (p *Pipeline) Triage(ctx context.Context, id string, t model.TranscriptRecord) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		id = claim.NewID()
	}

	unlock := p.locks.Lock(id)
	defer unlock()

	rec, err := store.LoadRecord(ctx, p.store, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rec = claim.New(id, p.now)
	case err != nil:
		return nil, err
	default:
		rec.SetClock(p.now)
		p.logger.Info("re-triaging existing claim", "claim_id", id, "state", rec.State)
	}

	rec.AddInteraction(claim.InteractionTranscript, t.Text(), map[string]string{
		"language":    t.Lang(),
		"confidence":  strconv.FormatFloat(t.ConfidenceScore, 'f', 2, 64),
		"hesitations": strconv.Itoa(t.HesitationCount),
	})
	p.transition(rec, claim.StateAnalyzing, "transcript received")

	cs, err := p.extractor.Extract(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", id, err)
	}
	cb := p.scorer.Calculate(*cs)
	d := p.engine.Decide(*cs, cb)

	transcript := t
	rec.Attach(&transcript, cs, &cb, &d)
	rec.AddInteraction(claim.InteractionDecision, d.Reason, map[string]string{
		"action": string(d.Action),
		"score":  strconv.FormatFloat(cb.TotalScore, 'f', 2, 64),
		"level":  string(cb.Level),
		"source": cs.Source,
	})

	result := &Result{Record: rec, Structure: *cs, Complexity: cb, Decision: d}

	switch {
	case d.ShouldEscalate:
		brief := p.briefs.Build(*cs, cb, d.Reason)
		result.Brief = &brief
		if data, err := json.Marshal(brief); err == nil {
			rec.AddInteraction(claim.InteractionBrief, string(data), map[string]string{"priority": brief.Priority})
		}
		rec.Escalate(d.Reason, p.reviewer)
	case d.Action.NeedsDocuments():
		p.transition(rec, claim.StatePendingDocs, d.Reason)
	default:
		p.transition(rec, claim.StateAutonomous, d.Reason)
	}

	if err := store.SaveRecord(ctx, p.store, rec); err != nil {
		return nil, err
	}

	p.logger.Info("claim triaged",
		"claim_id", id,
		"category", cs.Category,
		"score", cb.TotalScore,
		"level", cb.Level,
		"action", d.Action,
		"state", rec.State,
		"source", cs.Source,
	)

	p.publishDecision(result)
	return result, nil
}

// Get loads a stored record
func (p *Pipeline) Get(ctx context.Context, id string) (*claim.Record, error) {
	return store.LoadRecord(ctx, p.store, id)
}

// Resolve closes a claim as settled
func (p *Pipeline) Resolve(ctx context.Context, id, reason string) (*claim.Record, error) {
	return p.close(ctx, id, claim.StateResolved, reason)
}

// Reject closes a claim as declined
func (p *Pipeline) Reject(ctx context.Context, id, reason string) (*claim.Record, error) {
	return p.close(ctx, id, claim.StateRejected, reason)
}

func (p *Pipeline) close(ctx context.Context, id string, to claim.State, reason string) (*claim.Record, error) {
	unlock := p.locks.Lock(id)
	defer unlock()

	rec, err := store.LoadRecord(ctx, p.store, id)
	if err != nil {
		return nil, err
	}
	if rec.State.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrClosed, id, rec.State)
	}

	rec.SetClock(p.now)
	p.transition(rec, to, reason)

	if err := store.SaveRecord(ctx, p.store, rec); err != nil {
		return nil, err
	}

	p.logger.Info("claim closed", "claim_id", id, "state", to)
	p.publish(p.subjects.Closed(), events.ClosedEvent{
		ClaimID:      id,
		State:        string(to),
		Reason:       reason,
		WasEscalated: rec.IsEscalated,
		Timestamp:    p.now().UTC(),
	})
	return rec, nil
}

// transition changes state, warning on moves outside the lifecycle graph
func (p *Pipeline) transition(rec *claim.Record, to claim.State, reason string) {
	if !claim.IsStandardTransition(rec.State, to) {
		p.logger.Warn("non-standard state transition",
			"claim_id", rec.ID,
			"from", rec.State,
			"to", to,
		)
	}
	rec.ChangeState(to, reason)
}

func (p *Pipeline) publishDecision(r *Result) {
	ts := p.now().UTC()
	p.publish(p.subjects.Decided(), events.DecisionEvent{
		ClaimID:        r.Record.ID,
		State:          string(r.Record.State),
		Action:         r.Decision.Action,
		ShouldEscalate: r.Decision.ShouldEscalate,
		Reason:         r.Decision.Reason,
		Category:       r.Structure.Category,
		TotalScore:     r.Complexity.TotalScore,
		Level:          r.Complexity.Level,
		Source:         r.Structure.Source,
		Timestamp:      ts,
	})

	if r.Brief != nil {
		p.publish(p.subjects.Escalated(), events.EscalationEvent{
			ClaimID:   r.Record.ID,
			Reviewer:  r.Record.AssignedReviewer,
			Reason:    r.Decision.Reason,
			Priority:  r.Brief.Priority,
			Brief:     *r.Brief,
			Timestamp: ts,
		})
	}
}

// publish never fails triage; the record is already persisted
func (p *Pipeline) publish(subject string, data any) {
	if err := p.publisher.Publish(subject, data); err != nil {
		p.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}
