package claim

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/claimtriage/internal/model"
)

// State is a node of the claim lifecycle
type State string

const (
	StateReceived    State = "received"
	StateAnalyzing   State = "analyzing"
	StatePendingDocs State = "pending_docs"
	StateAutonomous  State = "autonomous"
	StateEscalated   State = "escalated"
	StateResolved    State = "resolved"
	StateRejected    State = "rejected"
)

// States lists every lifecycle state
var States = []State{
	StateReceived,
	StateAnalyzing,
	StatePendingDocs,
	StateAutonomous,
	StateEscalated,
	StateResolved,
	StateRejected,
}

// Valid reports whether s is a known state
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the lifecycle
func (s State) Terminal() bool {
	return s == StateResolved || s == StateRejected
}

// Interaction types written by the pipeline
const (
	InteractionTranscript = "transcript"
	InteractionDecision   = "decision"
	InteractionBrief      = "brief"
	InteractionNote       = "note"
)

// Transition is one entry of the state history
type Transition struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Interaction is one entry of the append-only interaction log
type Interaction struct {
	Type      string            `json:"type"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Record is the long-lived, mutable case file of a claim.
// It does no locking; callers serialize mutations per claim ID.
type Record struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	State        State        `json:"state"`
	StateHistory []Transition `json:"state_history"`

	Transcript *model.TranscriptRecord    `json:"transcript,omitempty"`
	Structure  *model.ClaimStructure      `json:"structure,omitempty"`
	Complexity *model.ComplexityBreakdown `json:"complexity,omitempty"`
	Decision   *model.Decision            `json:"decision,omitempty"`

	InteractionLog []Interaction `json:"interaction_log"`

	IsEscalated      bool   `json:"is_escalated"`
	EscalationReason string `json:"escalation_reason,omitempty"`
	AssignedReviewer string `json:"assigned_reviewer,omitempty"`

	now func() time.Time
}

// NewID generates a claim identifier
func NewID() string {
	return uuid.NewString()
}

// New creates a record in the received state. An empty id is replaced by a
// generated one; a nil clock defaults to time.Now.
func New(id string, now func() time.Time) *Record {
	if id == "" {
		id = NewID()
	}
	r := &Record{
		ID:             id,
		State:          StateReceived,
		StateHistory:   []Transition{},
		InteractionLog: []Interaction{},
	}
	r.SetClock(now)

	ts := r.now()
	r.CreatedAt = ts
	r.LastUpdated = ts
	return r
}

// SetClock replaces the record clock, used after loading a record from storage
func (r *Record) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.now = func() time.Time { return now().UTC() }
}

func (r *Record) clock() time.Time {
	if r.now == nil {
		r.SetClock(nil)
	}
	return r.now()
}

// AddInteraction appends to the interaction log
func (r *Record) AddInteraction(typ, content string, metadata map[string]string) {
	ts := r.clock()
	var meta map[string]string
	if len(metadata) > 0 {
		meta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}
	r.InteractionLog = append(r.InteractionLog, Interaction{
		Type:      typ,
		Content:   content,
		Metadata:  meta,
		Timestamp: ts,
	})
	r.LastUpdated = ts
}

// ChangeState moves the record to a new state and records the transition.
// Transitions are not validated; see IsStandardTransition.
func (r *Record) ChangeState(to State, reason string) {
	ts := r.clock()
	r.StateHistory = append(r.StateHistory, Transition{
		From:      r.State,
		To:        to,
		Reason:    reason,
		Timestamp: ts,
	})
	r.State = to
	r.LastUpdated = ts
}

// Escalate hands the claim to a human reviewer. IsEscalated stays set for
// the rest of the record's life.
func (r *Record) Escalate(reason, reviewer string) {
	r.IsEscalated = true
	r.EscalationReason = reason
	r.AssignedReviewer = reviewer
	r.ChangeState(StateEscalated, reason)
}

// WasEscalated reports whether the history contains a move to escalated
func (r *Record) WasEscalated() bool {
	for _, t := range r.StateHistory {
		if t.To == StateEscalated {
			return true
		}
	}
	return false
}

// Attach stores the triage outputs on the record
func (r *Record) Attach(t *model.TranscriptRecord, cs *model.ClaimStructure, cb *model.ComplexityBreakdown, d *model.Decision) {
	if t != nil {
		r.Transcript = t
	}
	if cs != nil {
		r.Structure = cs
	}
	if cb != nil {
		r.Complexity = cb
	}
	if d != nil {
		r.Decision = d
	}
	r.LastUpdated = r.clock()
}

var standardTransitions = map[State][]State{
	StateReceived:    {StateAnalyzing, StateRejected},
	StateAnalyzing:   {StatePendingDocs, StateAutonomous, StateEscalated, StateRejected},
	StatePendingDocs: {StateAnalyzing, StateAutonomous, StateEscalated, StateResolved, StateRejected},
	StateAutonomous:  {StatePendingDocs, StateEscalated, StateResolved, StateRejected},
	StateEscalated:   {StateResolved, StateRejected},
}

// IsStandardTransition reports whether from -> to belongs to the documented
// lifecycle graph. ChangeState never enforces it.
func IsStandardTransition(from, to State) bool {
	for _, s := range standardTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
