package summary

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

func triagedRecord(level model.Level, total float64) *claim.Record {
	r := claim.New("CLM-42", nil)
	r.Structure = &model.ClaimStructure{
		Category:           model.CategoryAuto,
		CategoryConfidence: 1,
		IncidentDate:       "hier",
		Location:           "sur l'autoroute",
		Parties:            []model.Party{{Role: model.RoleClaimant}},
		DamagesDescription: "pare-choc enfoncé",
		MentionedDocuments: []model.DocumentRef{
			{Type: "constat_amiable", Status: model.DocumentMentioned},
			{Type: "rapport_police", Status: model.DocumentMissing, Required: true},
		},
		MissingInformation: []string{"numéro de police", "immatriculation", "numéro de police"},
		EmotionalKeywords:  []string{"stressé", "peur", "inquiet", "choqué"},
	}
	r.Complexity = &model.ComplexityBreakdown{TotalScore: total, Level: level}
	return r
}

func TestIncompleteRecord(t *testing.T) {
	g := NewGenerator("")
	if _, err := g.Client(claim.New("x", nil)); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete, got %v", err)
	}
	if _, err := g.All(nil); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete for nil record, got %v", err)
	}
}

func TestProcessingTime(t *testing.T) {
	tests := map[model.Level]string{
		model.LevelSimple:   "24-48h",
		model.LevelModerate: "3-5 business days",
		model.LevelComplex:  "1-2 weeks",
		model.LevelCritical: "2-4 weeks",
	}
	for level, want := range tests {
		if got := ProcessingTime(level); got != want {
			t.Errorf("ProcessingTime(%s): expected %q, got %q", level, want, got)
		}
	}
}

func TestClientSummary(t *testing.T) {
	r := triagedRecord(model.LevelSimple, 19.33)
	r.ChangeState(claim.StatePendingDocs, "documents requested")

	s, err := NewGenerator("01 23 45 67 89").Client(r)
	if err != nil {
		t.Fatalf("Client failed: %v", err)
	}

	if s.Status != "Waiting for additional documents" {
		t.Errorf("Unexpected status %q", s.Status)
	}
	if len(s.NextSteps) != 3 {
		t.Fatalf("Expected 3 next steps, got %v", s.NextSteps)
	}
	if s.NextSteps[0] != "Send us the following: numéro de police, immatriculation" {
		t.Errorf("Unexpected first step %q", s.NextSteps[0])
	}
	if !strings.Contains(s.NextSteps[2], "01 23 45 67 89") {
		t.Errorf("Expected contact in last step, got %q", s.NextSteps[2])
	}

	want := []string{"numéro de police", "immatriculation", "rapport_police"}
	if strings.Join(s.DocumentsRequired, "|") != strings.Join(want, "|") {
		t.Errorf("Expected documents %v, got %v", want, s.DocumentsRequired)
	}
	if s.EstimatedProcessingTime != "24-48h" {
		t.Errorf("Expected 24-48h, got %s", s.EstimatedProcessingTime)
	}
	if !strings.HasPrefix(s.Message, "Good news!") {
		t.Errorf("Expected simple-claim message, got %q", s.Message)
	}
}

func TestClientSummaryEscalated(t *testing.T) {
	r := triagedRecord(model.LevelComplex, 65)
	r.Escalate("High complexity", "expert")

	s, err := NewGenerator("").Client(r)
	if err != nil {
		t.Fatalf("Client failed: %v", err)
	}
	if s.Status != "An advisor will contact you" {
		t.Errorf("Unexpected status %q", s.Status)
	}
	if s.Contact != DefaultContact {
		t.Errorf("Expected default contact, got %q", s.Contact)
	}
	if !strings.Contains(s.NextSteps[1], "24-48 hours") {
		t.Errorf("Expected advisor callback step, got %v", s.NextSteps)
	}
	if !strings.Contains(s.Message, "expert advisor") {
		t.Errorf("Expected escalation message, got %q", s.Message)
	}
}

func TestAdvisorBrief(t *testing.T) {
	r := triagedRecord(model.LevelComplex, 65)
	r.Structure.EmotionalStressLevel = 9
	r.Structure.Parties = append(r.Structure.Parties, model.Party{Role: model.RoleThirdParty}, model.Party{Role: model.RoleWitness})
	r.Structure.Ambiguities = []model.AmbiguityFlag{{Category: model.AmbiguityContractual, Severity: 3}}
	r.Complexity.InconsistencyScore = 70

	b, err := NewGenerator("").Advisor(r)
	if err != nil {
		t.Fatalf("Advisor failed: %v", err)
	}

	if b.Priority != AdvisorHigh {
		t.Errorf("Expected HIGH, got %s", b.Priority)
	}
	if b.EstimatedEffort != "high (> 3h)" {
		t.Errorf("Unexpected effort %q", b.EstimatedEffort)
	}
	if b.StructuredFacts[0] != "Category: auto (confidence: 100%)" {
		t.Errorf("Unexpected first fact %q", b.StructuredFacts[0])
	}
	if len(b.RiskFlags) != 4 {
		t.Errorf("Expected 4 risk flags, got %v", b.RiskFlags)
	}
	if len(b.SuggestedActions) != 4 {
		t.Errorf("Expected 4 suggested actions, got %v", b.SuggestedActions)
	}
	if b.EmotionalContext != "Highly stressed claimant, empathetic approach essential (markers: stressé, peur, inquiet)" {
		t.Errorf("Unexpected emotional context %q", b.EmotionalContext)
	}
}

func TestAdvisorFactsSkipUnresolvedIncident(t *testing.T) {
	r := triagedRecord(model.LevelModerate, 40)
	r.Structure.IncidentDate = model.DefaultDateSentinel

	b, err := NewGenerator("").Advisor(r)
	if err != nil {
		t.Fatalf("Advisor failed: %v", err)
	}
	for _, f := range b.StructuredFacts {
		if strings.HasPrefix(f, "Incident:") {
			t.Errorf("Expected no incident fact, got %q", f)
		}
	}
}

func TestAdvisorPriorityAndEffort(t *testing.T) {
	tests := []struct {
		total    float64
		priority string
		effort   string
	}{
		{10, AdvisorNormal, "low (< 1h)"},
		{40, AdvisorNormal, "moderate (1-3h)"},
		{55.5, AdvisorHigh, "moderate (1-3h)"},
		{76, AdvisorUrgent, "high (> 3h)"},
	}
	for _, tt := range tests {
		if got := AdvisorPriority(tt.total); got != tt.priority {
			t.Errorf("AdvisorPriority(%v): expected %s, got %s", tt.total, tt.priority, got)
		}
		if got := Effort(tt.total); got != tt.effort {
			t.Errorf("Effort(%v): expected %s, got %s", tt.total, tt.effort, got)
		}
	}
}

func TestManagementSummary(t *testing.T) {
	r := triagedRecord(model.LevelCritical, 82)
	r.Complexity.ThirdPartyScore = 70
	r.Escalate("Critical complexity detected (score: 82.0/100)", "")

	m, err := NewGenerator("").Management(r)
	if err != nil {
		t.Fatalf("Management failed: %v", err)
	}
	if m.CostImpact != "2000-5000 EUR (potentially higher)" {
		t.Errorf("Unexpected cost impact %q", m.CostImpact)
	}
	if !m.RequiresAttention {
		t.Error("Expected management attention")
	}
	if m.ProcessingStatus != "Escalated - awaiting assignment" {
		t.Errorf("Unexpected status %q", m.ProcessingStatus)
	}
	if len(m.RiskIndicators) != 2 {
		t.Errorf("Expected 2 risk indicators, got %v", m.RiskIndicators)
	}
}

func TestManagementSummaryAutonomous(t *testing.T) {
	r := triagedRecord(model.LevelSimple, 20)
	r.Structure.Category = model.CategoryLife
	r.ChangeState(claim.StateAutonomous, "simple")

	m, err := NewGenerator("").Management(r)
	if err != nil {
		t.Fatalf("Management failed: %v", err)
	}
	if m.EscalationReason != "N/A" {
		t.Errorf("Expected N/A, got %q", m.EscalationReason)
	}
	if m.CostImpact != "to be assessed" {
		t.Errorf("Unexpected cost impact %q", m.CostImpact)
	}
	if m.ProcessingStatus != "Autonomous handling - autonomous" {
		t.Errorf("Unexpected status %q", m.ProcessingStatus)
	}
	if m.RequiresAttention {
		t.Error("Expected no management attention")
	}
}

func TestAll(t *testing.T) {
	s, err := NewGenerator("").All(triagedRecord(model.LevelModerate, 35))
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if s.Client.ClaimID != "CLM-42" || s.Advisor.ClaimID != "CLM-42" || s.Management.ClaimID != "CLM-42" {
		t.Error("Expected claim ID on every projection")
	}
}
