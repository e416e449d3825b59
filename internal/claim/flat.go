package claim

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
)

// Flat keys of a serialized record
const (
	KeyID               = "id"
	KeyCreatedAt        = "created_at"
	KeyLastUpdated      = "last_updated"
	KeyState            = "state"
	KeyIsEscalated      = "is_escalated"
	KeyEscalationReason = "escalation_reason"
	KeyAssignedReviewer = "assigned_reviewer"
	KeyStateHistory     = "state_history"
	KeyInteractionLog   = "interaction_log"
	KeyTranscript       = "transcript"
	KeyStructure        = "structure"
	KeyComplexity       = "complexity"
	KeyDecision         = "decision"
)

// Flatten converts a record to a flat key-value map. Nested value objects
// are self-contained JSON blobs; absent ones have no key.
func Flatten(r *Record) (map[string]string, error) {
	out := map[string]string{
		KeyID:               r.ID,
		KeyCreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339Nano),
		KeyLastUpdated:      r.LastUpdated.UTC().Format(time.RFC3339Nano),
		KeyState:            string(r.State),
		KeyIsEscalated:      strconv.FormatBool(r.IsEscalated),
		KeyEscalationReason: r.EscalationReason,
		KeyAssignedReviewer: r.AssignedReviewer,
	}

	blobs := []struct {
		key   string
		value any
		set   bool
	}{
		{KeyStateHistory, r.StateHistory, true},
		{KeyInteractionLog, r.InteractionLog, true},
		{KeyTranscript, r.Transcript, r.Transcript != nil},
		{KeyStructure, r.Structure, r.Structure != nil},
		{KeyComplexity, r.Complexity, r.Complexity != nil},
		{KeyDecision, r.Decision, r.Decision != nil},
	}
	for _, b := range blobs {
		if !b.set {
			continue
		}
		data, err := json.Marshal(b.value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", b.key, err)
		}
		out[b.key] = string(data)
	}

	return out, nil
}

// Unflatten rebuilds a record from its flat form
func Unflatten(m map[string]string) (*Record, error) {
	id := m[KeyID]
	if id == "" {
		return nil, fmt.Errorf("flat record: missing %s", KeyID)
	}

	r := &Record{
		ID:               id,
		State:            State(m[KeyState]),
		EscalationReason: m[KeyEscalationReason],
		AssignedReviewer: m[KeyAssignedReviewer],
		StateHistory:     []Transition{},
		InteractionLog:   []Interaction{},
	}
	if !r.State.Valid() {
		return nil, fmt.Errorf("flat record %s: unknown state %q", id, m[KeyState])
	}

	var err error
	if r.CreatedAt, err = parseTime(m, KeyCreatedAt); err != nil {
		return nil, err
	}
	if r.LastUpdated, err = parseTime(m, KeyLastUpdated); err != nil {
		return nil, err
	}
	if v := m[KeyIsEscalated]; v != "" {
		if r.IsEscalated, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("flat record %s: %s: %w", id, KeyIsEscalated, err)
		}
	}

	if err := decode(m, KeyStateHistory, &r.StateHistory); err != nil {
		return nil, err
	}
	if err := decode(m, KeyInteractionLog, &r.InteractionLog); err != nil {
		return nil, err
	}

	if _, ok := m[KeyTranscript]; ok {
		r.Transcript = &model.TranscriptRecord{}
		if err := decode(m, KeyTranscript, r.Transcript); err != nil {
			return nil, err
		}
	}
	if _, ok := m[KeyStructure]; ok {
		r.Structure = &model.ClaimStructure{}
		if err := decode(m, KeyStructure, r.Structure); err != nil {
			return nil, err
		}
	}
	if _, ok := m[KeyComplexity]; ok {
		r.Complexity = &model.ComplexityBreakdown{}
		if err := decode(m, KeyComplexity, r.Complexity); err != nil {
			return nil, err
		}
	}
	if _, ok := m[KeyDecision]; ok {
		r.Decision = &model.Decision{}
		if err := decode(m, KeyDecision, r.Decision); err != nil {
			return nil, err
		}
	}

	r.SetClock(nil)
	return r, nil
}

func parseTime(m map[string]string, key string) (time.Time, error) {
	v := m[key]
	if v == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("flat record: %s: %w", key, err)
	}
	return ts, nil
}

func decode(m map[string]string, key string, dst any) error {
	v, ok := m[key]
	if !ok || v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("flat record: %s: %w", key, err)
	}
	return nil
}
