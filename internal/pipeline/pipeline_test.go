package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/events"
	"github.com/ppiankov/claimtriage/internal/extract"
	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/store"
)

const scenarioText = "J'ai eu un accident hier sur l'autoroute, pare-choc enfoncé, constat amiable rempli"

var fixedNow = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, rec *events.Recorder) *Pipeline {
	t.Helper()
	registry, err := locale.NewRegistry("fr")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	now := func() time.Time { return fixedNow }

	p, err := New(Options{
		Extractor: extract.New(registry, extract.Options{Now: now}),
		Store:     store.NewMemoryStore(),
		Publisher: rec,
		Subjects:  events.Subjects{Prefix: "test.claims"},
		Reviewer:  "advisor-pool",
		Now:       now,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestNewRequiresExtractor(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("Expected error without extractor")
	}
}

func TestTriage_SimpleScenario(t *testing.T) {
	rec := &events.Recorder{}
	p := newTestPipeline(t, rec)
	ctx := context.Background()

	res, err := p.Triage(ctx, "CLM-1", model.TranscriptRecord{RawText: scenarioText, Language: "fr"})
	if err != nil {
		t.Fatalf("Triage failed: %v", err)
	}

	if res.Decision.ShouldEscalate {
		t.Errorf("Expected no escalation, got %+v", res.Decision)
	}
	if res.Decision.Action != model.ActionAutonomousRequestDocs {
		t.Errorf("Expected autonomous_request_docs, got %s", res.Decision.Action)
	}
	if res.Record.State != claim.StatePendingDocs {
		t.Errorf("Expected pending_docs, got %s", res.Record.State)
	}
	if res.Brief != nil {
		t.Error("Expected no brief for an autonomous claim")
	}

	// received -> analyzing -> pending_docs
	if len(res.Record.StateHistory) != 2 {
		t.Errorf("Expected 2 transitions, got %d", len(res.Record.StateHistory))
	}
	if len(res.Record.InteractionLog) != 2 {
		t.Errorf("Expected transcript and decision interactions, got %d", len(res.Record.InteractionLog))
	}

	stored, err := p.Get(ctx, "CLM-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.State != claim.StatePendingDocs || stored.Structure == nil || stored.Complexity == nil {
		t.Errorf("Unexpected stored record: %+v", stored)
	}

	decided := rec.Messages("test.claims.decided")
	if len(decided) != 1 {
		t.Fatalf("Expected 1 decided event, got %d", len(decided))
	}
	var ev events.DecisionEvent
	if err := json.Unmarshal(decided[0].Data, &ev); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if ev.ClaimID != "CLM-1" || ev.Category != model.CategoryAuto || ev.State != string(claim.StatePendingDocs) {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if len(rec.Messages("test.claims.escalated")) != 0 {
		t.Error("Expected no escalation event")
	}
}

func TestTriage_StressEscalation(t *testing.T) {
	rec := &events.Recorder{}
	p := newTestPipeline(t, rec)

	res, err := p.Triage(context.Background(), "", model.TranscriptRecord{
		RawText:          scenarioText,
		Language:         "fr",
		HesitationCount:  6,
		EmotionalMarkers: []string{"stress", "colère", "urgence"},
	})
	if err != nil {
		t.Fatalf("Triage failed: %v", err)
	}

	if res.Record.ID == "" {
		t.Error("Expected a generated claim ID")
	}
	if res.Decision.Action != model.ActionEscalateImmediate {
		t.Errorf("Expected escalate_immediate, got %s", res.Decision.Action)
	}
	if !res.Record.IsEscalated || res.Record.State != claim.StateEscalated {
		t.Errorf("Expected escalated record, got %s", res.Record.State)
	}
	if res.Record.AssignedReviewer != "advisor-pool" {
		t.Errorf("Expected default reviewer, got %q", res.Record.AssignedReviewer)
	}
	if res.Brief == nil || res.Brief.StressLevel != 9 {
		t.Errorf("Expected brief with stress 9, got %+v", res.Brief)
	}
	if len(rec.Messages("test.claims.escalated")) != 1 {
		t.Error("Expected one escalation event")
	}
}

func TestTriage_InvalidTranscript(t *testing.T) {
	p := newTestPipeline(t, &events.Recorder{})

	_, err := p.Triage(context.Background(), "CLM-x", model.TranscriptRecord{RawText: "   "})
	if !errors.Is(err, model.ErrInvalidTranscript) {
		t.Errorf("Expected ErrInvalidTranscript, got %v", err)
	}
	if _, err := p.Get(context.Background(), "CLM-x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected nothing stored, got %v", err)
	}
}

func TestTriage_Retriage(t *testing.T) {
	p := newTestPipeline(t, &events.Recorder{})
	ctx := context.Background()
	tr := model.TranscriptRecord{RawText: scenarioText, Language: "fr"}

	if _, err := p.Triage(ctx, "CLM-2", tr); err != nil {
		t.Fatalf("Triage failed: %v", err)
	}
	res, err := p.Triage(ctx, "CLM-2", tr)
	if err != nil {
		t.Fatalf("Second triage failed: %v", err)
	}

	// History is kept across runs
	if len(res.Record.StateHistory) != 4 {
		t.Errorf("Expected 4 transitions, got %d", len(res.Record.StateHistory))
	}
}

func TestResolveAndReject(t *testing.T) {
	rec := &events.Recorder{}
	p := newTestPipeline(t, rec)
	ctx := context.Background()

	if _, err := p.Triage(ctx, "CLM-3", model.TranscriptRecord{RawText: scenarioText, Language: "fr"}); err != nil {
		t.Fatalf("Triage failed: %v", err)
	}

	r, err := p.Resolve(ctx, "CLM-3", "documents received, paid")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.State != claim.StateResolved {
		t.Errorf("Expected resolved, got %s", r.State)
	}

	if _, err := p.Reject(ctx, "CLM-3", "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := p.Resolve(ctx, "CLM-404", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if len(rec.Messages("test.claims.closed")) != 1 {
		t.Errorf("Expected 1 closed event, got %d", len(rec.Messages("test.claims.closed")))
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, any) error { return errors.New("nats down") }
func (failingPublisher) Close()                    {}

func TestTriage_PublishFailureIsNotFatal(t *testing.T) {
	registry, err := locale.NewRegistry("fr")
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(Options{
		Extractor: extract.New(registry, extract.Options{}),
		Publisher: failingPublisher{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Triage(context.Background(), "CLM-4", model.TranscriptRecord{RawText: scenarioText}); err != nil {
		t.Errorf("Expected triage to succeed, got %v", err)
	}
}

func TestTriage_ConcurrentSameClaim(t *testing.T) {
	p := newTestPipeline(t, &events.Recorder{})
	ctx := context.Background()
	tr := model.TranscriptRecord{RawText: scenarioText, Language: "fr"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Triage(ctx, "CLM-5", tr); err != nil {
				t.Errorf("Triage failed: %v", err)
			}
		}()
	}
	wg.Wait()

	r, err := p.Get(ctx, "CLM-5")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// Serialized runs each add two transitions and two interactions
	if len(r.StateHistory) != 16 || len(r.InteractionLog) != 16 {
		t.Errorf("Expected 16 transitions and interactions, got %d and %d", len(r.StateHistory), len(r.InteractionLog))
	}
	if p.locks.size() != 0 {
		t.Errorf("Expected lock table to drain, got %d", p.locks.size())
	}
}
