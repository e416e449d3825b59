package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
)

// DefaultPrefix is the subject prefix used when none is configured
const DefaultPrefix = "claims.triage"

// Subject suffixes
const (
	SuffixTranscript = "transcript"
	SuffixDecided    = "decided"
	SuffixEscalated  = "escalated"
	SuffixClosed     = "closed"
)

// Subjects derives NATS subjects from a prefix
type Subjects struct {
	Prefix string
}

func (s Subjects) subject(suffix string) string {
	prefix := strings.TrimSuffix(s.Prefix, ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + suffix
}

// Transcript is the inbound subject carrying TranscriptRecords
func (s Subjects) Transcript() string { return s.subject(SuffixTranscript) }

// Decided carries a DecisionEvent for every triaged claim
func (s Subjects) Decided() string { return s.subject(SuffixDecided) }

// Escalated carries an EscalationEvent for claims handed to a reviewer
func (s Subjects) Escalated() string { return s.subject(SuffixEscalated) }

// Closed carries a ClosedEvent when a claim is resolved or rejected
func (s Subjects) Closed() string { return s.subject(SuffixClosed) }

// DecisionEvent is published once per triaged claim
type DecisionEvent struct {
	ClaimID        string         `json:"claim_id"`
	State          string         `json:"state"`
	Action         model.Action   `json:"action"`
	ShouldEscalate bool           `json:"should_escalate"`
	Reason         string         `json:"reason"`
	Category       model.Category `json:"category"`
	TotalScore     float64        `json:"total_score"`
	Level          model.Level    `json:"level"`
	Source         string         `json:"source"`
	Timestamp      time.Time      `json:"timestamp"`
}

// EscalationEvent is published when a claim is assigned to a human reviewer
type EscalationEvent struct {
	ClaimID   string      `json:"claim_id"`
	Reviewer  string      `json:"reviewer"`
	Reason    string      `json:"reason"`
	Priority  string      `json:"priority"`
	Brief     model.Brief `json:"brief"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClosedEvent is published when a claim reaches a terminal state
type ClosedEvent struct {
	ClaimID      string    `json:"claim_id"`
	State        string    `json:"state"`
	Reason       string    `json:"reason"`
	WasEscalated bool      `json:"was_escalated"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher sends events to a subject
type Publisher interface {
	Publish(subject string, data any) error
	Close()
}

// Noop discards every event
type Noop struct{}

func (Noop) Publish(string, any) error { return nil }
func (Noop) Close()                    {}

// Message is an event captured by a Recorder
type Message struct {
	Subject string
	Data    []byte
}

// Recorder keeps published events in memory
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Publish marshals and records an event
func (r *Recorder) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	r.mu.Lock()
	r.messages = append(r.messages, Message{Subject: subject, Data: payload})
	r.mu.Unlock()
	return nil
}

// Close is a no-op
func (r *Recorder) Close() {}

// Messages returns the recorded events, optionally limited to one subject
func (r *Recorder) Messages(subject string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, m := range r.messages {
		if subject == "" || m.Subject == subject {
			out = append(out, m)
		}
	}
	return out
}
