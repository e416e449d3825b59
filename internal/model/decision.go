package model

import "time"

// Action is the routing action chosen by the decision engine
type Action string

const (
	ActionEscalateImmediate     Action = "escalate_immediate"
	ActionEscalatePriority      Action = "escalate_priority"
	ActionEscalateStandard      Action = "escalate_standard"
	ActionEscalateClarification Action = "escalate_clarification"
	ActionAutonomousFull        Action = "autonomous_full"
	ActionAutonomousRequestDocs Action = "autonomous_request_docs"
	ActionReviewWithFollowup    Action = "review_with_followup"
	ActionReviewAutomatic       Action = "review_automatic"
)

// NeedsDocuments reports whether the action waits on documents from the claimant
func (a Action) NeedsDocuments() bool {
	return a == ActionAutonomousRequestDocs || a == ActionReviewWithFollowup
}

// Decision is the routing outcome for one (structure, complexity) pair
type Decision struct {
	ShouldEscalate bool   `json:"should_escalate" yaml:"should_escalate"`
	Reason         string `json:"reason" yaml:"reason"`
	Action         Action `json:"action" yaml:"action"`
}

// Priority labels used by the escalation brief
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityNormal = "NORMAL"
)

// BriefFactor is a complexity factor highlighted for a reviewer
type BriefFactor struct {
	Factor FactorName `json:"factor" yaml:"factor"`
	Label  string     `json:"label" yaml:"label"`
	Score  float64    `json:"score" yaml:"score"`
}

// ClaimSummary is the factual synopsis at the top of a brief
type ClaimSummary struct {
	Category   Category `json:"category" yaml:"category"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Date       string   `json:"incident_date" yaml:"incident_date"`
	Location   string   `json:"location" yaml:"location"`
	Damages    string   `json:"damages" yaml:"damages"`
}

// Brief packages a claim for the human reviewer it is escalated to
type Brief struct {
	Reason             string          `json:"reason" yaml:"reason"`
	Priority           string          `json:"priority" yaml:"priority"`
	Summary            ClaimSummary    `json:"summary" yaml:"summary"`
	TotalScore         float64         `json:"total_score" yaml:"total_score"`
	Level              Level           `json:"level" yaml:"level"`
	Explanation        string          `json:"explanation" yaml:"explanation"`
	MainFactors        []BriefFactor   `json:"main_factors" yaml:"main_factors"`
	Ambiguities        []AmbiguityFlag `json:"ambiguities" yaml:"ambiguities"`
	MissingInformation []string        `json:"missing_information" yaml:"missing_information"`
	Parties            []Party         `json:"parties" yaml:"parties"`
	Recommendations    []string        `json:"recommendations" yaml:"recommendations"`
	StressLevel        int             `json:"stress_level" yaml:"stress_level"`
	GeneratedAt        time.Time       `json:"generated_at" yaml:"generated_at"`
}
