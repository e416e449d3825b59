package decision

import (
	"fmt"

	"github.com/ppiankov/claimtriage/internal/model"
)

// Routing thresholds on the total complexity score
const (
	AutonomousThreshold = 40.0 // Below: autonomous handling
	EscalationThreshold = 60.0 // At or above: human escalation
	PriorityThreshold   = 80.0 // Above: priority escalation
)

// Review-zone thresholds on sub-scores
const (
	ClarificationAmbiguity = 60.0
	FollowupMissingDocs    = 70.0
)

// Critical override thresholds
const (
	SevereAmbiguity        = 4
	SevereAmbiguityCount   = 2
	UnknownConfidenceFloor = 0.4
	CriticalStress         = 8
	CriticalInconsistency  = 80.0
)

// Engine routes a scored claim. It is pure and safe for concurrent use.
type Engine struct{}

// NewEngine creates a decision engine
func NewEngine() *Engine {
	return &Engine{}
}

// Decide evaluates the routing policy in order: critical overrides, then the
// autonomous, review and escalation zones of the total score
func (e *Engine) Decide(cs model.ClaimStructure, cb model.ComplexityBreakdown) model.Decision {
	if reason, critical := criticalOverride(cs, cb); critical {
		return model.Decision{
			ShouldEscalate: true,
			Reason:         reason,
			Action:         model.ActionEscalateImmediate,
		}
	}

	switch {
	case cb.TotalScore < AutonomousThreshold:
		return autonomous(cs, cb)
	case cb.TotalScore < EscalationThreshold:
		return review(cb)
	default:
		return escalate(cb)
	}
}

// criticalOverride returns the reason of the first critical condition met
func criticalOverride(cs model.ClaimStructure, cb model.ComplexityBreakdown) (string, bool) {
	if cb.Level == model.LevelCritical {
		return fmt.Sprintf("Critical complexity detected (score: %.1f/100)", cb.TotalScore), true
	}

	severe := 0
	for _, a := range cs.Ambiguities {
		if a.Severity >= SevereAmbiguity {
			severe++
		}
	}
	if severe >= SevereAmbiguityCount {
		return fmt.Sprintf("Multiple severe ambiguities (%d with severity >= %d) require human expertise", severe, SevereAmbiguity), true
	}

	if cs.Category == model.CategoryUnknown && cs.CategoryConfidence < UnknownConfidenceFloor {
		return fmt.Sprintf("Unknown claim category (confidence: %.2f), human classification required", cs.CategoryConfidence), true
	}

	if cs.EmotionalStressLevel >= CriticalStress {
		return fmt.Sprintf("Very high emotional stress (%d/10), human support required", cs.EmotionalStressLevel), true
	}

	if cb.InconsistencyScore > CriticalInconsistency {
		return fmt.Sprintf("Major narrative inconsistencies (inconsistency score: %.1f) require investigation", cb.InconsistencyScore), true
	}

	return "", false
}

func autonomous(cs model.ClaimStructure, cb model.ComplexityBreakdown) model.Decision {
	reason := fmt.Sprintf("Simple claim (score: %.1f), autonomous handling possible", cb.TotalScore)

	if len(cs.MissingInformation) > 0 {
		return model.Decision{
			Reason: reason + fmt.Sprintf(". Automatic request for %d missing item(s).", len(cs.MissingInformation)),
			Action: model.ActionAutonomousRequestDocs,
		}
	}
	return model.Decision{
		Reason: reason + ". All elements present for automated processing.",
		Action: model.ActionAutonomousFull,
	}
}

func review(cb model.ComplexityBreakdown) model.Decision {
	reason := fmt.Sprintf("Moderate complexity (score: %.1f), automated review with validation", cb.TotalScore)

	if cb.AmbiguityScore > ClarificationAmbiguity {
		return model.Decision{
			ShouldEscalate: true,
			Reason:         reason + fmt.Sprintf(". Ambiguities too significant (ambiguity score: %.1f).", cb.AmbiguityScore),
			Action:         model.ActionEscalateClarification,
		}
	}
	if cb.MissingDocsScore > FollowupMissingDocs {
		return model.Decision{
			Reason: reason + fmt.Sprintf(". Document request with automated follow-up (missing docs score: %.1f).", cb.MissingDocsScore),
			Action: model.ActionReviewWithFollowup,
		}
	}
	return model.Decision{
		Reason: reason + ". In-depth automated analysis with validation thresholds.",
		Action: model.ActionReviewAutomatic,
	}
}

func escalate(cb model.ComplexityBreakdown) model.Decision {
	reason := fmt.Sprintf("High complexity (score: %.1f), human expertise required", cb.TotalScore)

	if cb.TotalScore > PriorityThreshold {
		return model.Decision{
			ShouldEscalate: true,
			Reason:         reason + ". Priority handling recommended.",
			Action:         model.ActionEscalatePriority,
		}
	}
	return model.Decision{
		ShouldEscalate: true,
		Reason:         reason + ". Assignment to an expert advisor.",
		Action:         model.ActionEscalateStandard,
	}
}
