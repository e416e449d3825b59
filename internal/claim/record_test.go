package claim

import (
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
)

func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestNewRecord(t *testing.T) {
	r := New("CLM-1", stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	if r.ID != "CLM-1" {
		t.Errorf("Expected ID CLM-1, got %s", r.ID)
	}
	if r.State != StateReceived {
		t.Errorf("Expected received, got %s", r.State)
	}
	if !r.CreatedAt.Equal(r.LastUpdated) {
		t.Errorf("Expected CreatedAt == LastUpdated, got %v and %v", r.CreatedAt, r.LastUpdated)
	}
	if len(r.StateHistory) != 0 || len(r.InteractionLog) != 0 {
		t.Error("Expected empty history and log")
	}
}

func TestNewRecordGeneratesID(t *testing.T) {
	a := New("", nil)
	b := New("", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected distinct generated IDs, got %q and %q", a.ID, b.ID)
	}
}

func TestChangeStateAppendsHistory(t *testing.T) {
	r := New("CLM-2", stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	r.ChangeState(StateAnalyzing, "transcript received")
	r.ChangeState(StateAutonomous, "simple claim")

	if r.State != StateAutonomous {
		t.Errorf("Expected autonomous, got %s", r.State)
	}
	if len(r.StateHistory) != 2 {
		t.Fatalf("Expected 2 transitions, got %d", len(r.StateHistory))
	}

	first := r.StateHistory[0]
	if first.From != StateReceived || first.To != StateAnalyzing || first.Reason != "transcript received" {
		t.Errorf("Unexpected first transition: %+v", first)
	}
	if !r.LastUpdated.Equal(r.StateHistory[1].Timestamp) {
		t.Errorf("Expected LastUpdated to follow the last transition")
	}
	if !r.LastUpdated.After(r.CreatedAt) {
		t.Error("Expected LastUpdated after CreatedAt")
	}
}

func TestChangeStateIsPermissive(t *testing.T) {
	r := New("CLM-3", nil)

	// Off-graph move is recorded, not refused
	r.ChangeState(StateResolved, "closed by operator")
	r.ChangeState(StateReceived, "reopened")

	if r.State != StateReceived {
		t.Errorf("Expected received, got %s", r.State)
	}
	if len(r.StateHistory) != 2 {
		t.Errorf("Expected 2 transitions, got %d", len(r.StateHistory))
	}
}

func TestEscalateSticks(t *testing.T) {
	r := New("CLM-4", nil)
	r.ChangeState(StateAnalyzing, "start")
	r.Escalate("High complexity (score: 65.0)", "expert-team")

	if !r.IsEscalated || r.State != StateEscalated {
		t.Fatalf("Expected escalated record, got state=%s escalated=%v", r.State, r.IsEscalated)
	}
	if r.AssignedReviewer != "expert-team" || r.EscalationReason == "" {
		t.Errorf("Unexpected escalation fields: %q %q", r.AssignedReviewer, r.EscalationReason)
	}

	r.ChangeState(StateResolved, "settled")
	if !r.IsEscalated {
		t.Error("Expected IsEscalated to remain true after resolution")
	}
	if !r.WasEscalated() {
		t.Error("Expected history to contain the escalation")
	}
}

func TestAddInteraction(t *testing.T) {
	r := New("CLM-5", stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	meta := map[string]string{"source": "phone"}

	r.AddInteraction(InteractionNote, "client called back", meta)
	meta["source"] = "mutated"

	if len(r.InteractionLog) != 1 {
		t.Fatalf("Expected 1 interaction, got %d", len(r.InteractionLog))
	}
	if r.InteractionLog[0].Metadata["source"] != "phone" {
		t.Error("Expected metadata to be copied")
	}
	if !r.LastUpdated.Equal(r.InteractionLog[0].Timestamp) {
		t.Error("Expected LastUpdated to follow the interaction")
	}
}

func TestIsStandardTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateReceived, StateAnalyzing, true},
		{StateAnalyzing, StateEscalated, true},
		{StateEscalated, StateResolved, true},
		{StatePendingDocs, StateAnalyzing, true},
		{StateResolved, StateAnalyzing, false},
		{StateReceived, StateResolved, false},
		{StateRejected, StateReceived, false},
	}
	for _, tt := range tests {
		if got := IsStandardTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsStandardTransition(%s, %s): expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	r := New("CLM-6", stepClock(time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)))
	r.AddInteraction(InteractionTranscript, "J'ai eu un accident", map[string]string{"language": "fr"})
	r.ChangeState(StateAnalyzing, "analysis started")
	r.Attach(
		&model.TranscriptRecord{RawText: "J'ai eu un accident", Language: "fr"},
		&model.ClaimStructure{Category: model.CategoryAuto, CategoryConfidence: 1, Parties: []model.Party{{Role: model.RoleClaimant}}},
		&model.ComplexityBreakdown{TotalScore: 65, Level: model.LevelComplex},
		&model.Decision{ShouldEscalate: true, Reason: "High complexity", Action: model.ActionEscalateStandard},
	)
	r.Escalate("High complexity", "expert")

	flat, err := Flatten(r)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	for _, key := range []string{KeyID, KeyState, KeyStructure, KeyComplexity, KeyTranscript, KeyStateHistory} {
		if flat[key] == "" {
			t.Errorf("Expected key %s in flat form", key)
		}
	}
	if flat[KeyIsEscalated] != "true" {
		t.Errorf("Expected is_escalated=true, got %q", flat[KeyIsEscalated])
	}

	back, err := Unflatten(flat)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}
	if back.ID != r.ID || back.State != r.State || !back.IsEscalated {
		t.Errorf("Unexpected scalar fields: %+v", back)
	}
	if !back.CreatedAt.Equal(r.CreatedAt) || !back.LastUpdated.Equal(r.LastUpdated) {
		t.Error("Expected timestamps to survive the round trip")
	}
	if !reflect.DeepEqual(back.Structure, r.Structure) {
		t.Errorf("Expected structure to survive, got %+v", back.Structure)
	}
	if len(back.StateHistory) != 2 || len(back.InteractionLog) != 1 {
		t.Errorf("Expected history and log to survive, got %d and %d", len(back.StateHistory), len(back.InteractionLog))
	}

	// A reloaded record keeps working
	back.ChangeState(StateResolved, "paid")
	if back.State != StateResolved {
		t.Errorf("Expected resolved, got %s", back.State)
	}
}

func TestFlattenOmitsAbsentBlobs(t *testing.T) {
	flat, err := Flatten(New("CLM-7", nil))
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	for _, key := range []string{KeyTranscript, KeyStructure, KeyComplexity, KeyDecision} {
		if _, ok := flat[key]; ok {
			t.Errorf("Expected no %s key for a fresh record", key)
		}
	}

	back, err := Unflatten(flat)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}
	if back.Structure != nil || back.Transcript != nil {
		t.Error("Expected nil blobs after round trip")
	}
}

func TestUnflattenErrors(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]string
	}{
		{"missing id", map[string]string{KeyState: "received"}},
		{"unknown state", map[string]string{KeyID: "x", KeyState: "lost"}},
		{"bad time", map[string]string{KeyID: "x", KeyState: "received", KeyCreatedAt: "yesterday"}},
		{"bad blob", map[string]string{KeyID: "x", KeyState: "received", KeyStructure: "{"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unflatten(tt.flat); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
