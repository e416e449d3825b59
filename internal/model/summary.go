package model

// ClientSummary is the claimant-facing projection of a triaged claim
type ClientSummary struct {
	ClaimID                 string   `json:"claim_id" yaml:"claim_id"`
	Status                  string   `json:"status" yaml:"status"`
	NextSteps               []string `json:"next_steps" yaml:"next_steps"`
	DocumentsRequired       []string `json:"documents_required" yaml:"documents_required"`
	EstimatedProcessingTime string   `json:"estimated_processing_time" yaml:"estimated_processing_time"`
	Contact                 string   `json:"contact" yaml:"contact"`
	Message                 string   `json:"message" yaml:"message"`
}

// AdvisorBrief is the reviewer-facing projection of a triaged claim
type AdvisorBrief struct {
	ClaimID               string          `json:"claim_id" yaml:"claim_id"`
	Category              Category        `json:"category" yaml:"category"`
	ComplexityScore       float64         `json:"complexity_score" yaml:"complexity_score"`
	ComplexityLevel       Level           `json:"complexity_level" yaml:"complexity_level"`
	StructuredFacts       []string        `json:"structured_facts" yaml:"structured_facts"`
	UnresolvedAmbiguities []AmbiguityFlag `json:"unresolved_ambiguities" yaml:"unresolved_ambiguities"`
	RiskFlags             []string        `json:"risk_flags" yaml:"risk_flags"`
	SuggestedActions      []string        `json:"suggested_actions" yaml:"suggested_actions"`
	Priority              string          `json:"priority" yaml:"priority"`
	EstimatedEffort       string          `json:"estimated_effort" yaml:"estimated_effort"`
	EmotionalContext      string          `json:"emotional_context" yaml:"emotional_context"`
	StressLevel           int             `json:"stress_level" yaml:"stress_level"`
}

// ManagementSummary is the executive projection of a triaged claim
type ManagementSummary struct {
	ClaimID           string   `json:"claim_id" yaml:"claim_id"`
	Category          Category `json:"category" yaml:"category"`
	ComplexityScore   float64  `json:"complexity_score" yaml:"complexity_score"`
	EscalationReason  string   `json:"escalation_reason" yaml:"escalation_reason"`
	RiskIndicators    []string `json:"risk_indicators" yaml:"risk_indicators"`
	ProcessingStatus  string   `json:"processing_status" yaml:"processing_status"`
	CostImpact        string   `json:"cost_impact" yaml:"cost_impact"`
	RequiresAttention bool     `json:"requires_attention" yaml:"requires_attention"`
}
