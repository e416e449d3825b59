package summary

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

const maxDamagesChars = 150

// Advisor builds the reviewer-facing brief
func (g *Generator) Advisor(r *claim.Record) (model.AdvisorBrief, error) {
	cs, cb, err := triaged(r)
	if err != nil {
		return model.AdvisorBrief{}, err
	}

	return model.AdvisorBrief{
		ClaimID:               r.ID,
		Category:              cs.Category,
		ComplexityScore:       cb.TotalScore,
		ComplexityLevel:       cb.Level,
		StructuredFacts:       structuredFacts(cs),
		UnresolvedAmbiguities: append([]model.AmbiguityFlag{}, cs.Ambiguities...),
		RiskFlags:             riskFlags(cs, cb),
		SuggestedActions:      suggestedActions(cs),
		Priority:              AdvisorPriority(cb.TotalScore),
		EstimatedEffort:       Effort(cb.TotalScore),
		EmotionalContext:      EmotionalContext(cs),
		StressLevel:           cs.EmotionalStressLevel,
	}, nil
}

func structuredFacts(cs model.ClaimStructure) []string {
	facts := []string{
		fmt.Sprintf("Category: %s (confidence: %.0f%%)", cs.Category, cs.CategoryConfidence*100),
	}

	if !cs.DateUnresolved() && !cs.LocationUnresolved() {
		facts = append(facts, fmt.Sprintf("Incident: %s, %s", cs.IncidentDate, cs.Location))
	}

	if len(cs.Parties) > 1 {
		roles := make([]string, len(cs.Parties))
		for i, p := range cs.Parties {
			roles[i] = string(p.Role)
		}
		facts = append(facts, fmt.Sprintf("Parties involved: %s", strings.Join(roles, ", ")))
	}

	if cs.DamagesDescription != "" {
		facts = append(facts, fmt.Sprintf("Damages: %s", truncate(cs.DamagesDescription, maxDamagesChars)))
	}

	if len(cs.MentionedDocuments) > 0 {
		types := make([]string, len(cs.MentionedDocuments))
		for i, d := range cs.MentionedDocuments {
			types[i] = d.Type
		}
		facts = append(facts, fmt.Sprintf("Documents: %s", strings.Join(types, ", ")))
	}

	return facts
}

func riskFlags(cs model.ClaimStructure, cb model.ComplexityBreakdown) []string {
	flags := []string{}

	if cb.InconsistencyScore > 60 {
		flags = append(flags, "Narrative inconsistencies to clarify")
	}
	for _, a := range cs.Ambiguities {
		if a.Category == model.AmbiguityContractual {
			flags = append(flags, "Contractual ambiguities identified")
			break
		}
	}
	if len(cs.Parties) > 2 {
		flags = append(flags, "Multiple parties involved (legal complexity)")
	}
	if len(cs.MissingInformation) > 3 {
		flags = append(flags, "Many missing documents")
	}
	if cs.EmotionalStressLevel > 7 {
		flags = append(flags, "Claimant under high stress")
	}

	return flags
}

func suggestedActions(cs model.ClaimStructure) []string {
	actions := []string{"Contact the claimant to confirm the facts"}

	if len(cs.MissingInformation) > 0 {
		actions = append(actions, fmt.Sprintf("Request: %s", strings.Join(firstN(cs.MissingInformation, 2), ", ")))
	}
	if len(cs.Ambiguities) > 0 {
		actions = append(actions, "Clarify the identified ambiguities")
	}

	return append(actions, "Verify the applicable contract coverage")
}

// AdvisorPriority labels a total score: >75 URGENT, >55 HIGH, else NORMAL
func AdvisorPriority(total float64) string {
	switch {
	case total > 75:
		return AdvisorUrgent
	case total > 55:
		return AdvisorHigh
	default:
		return AdvisorNormal
	}
}

// Effort estimates advisor workload from the total score
func Effort(total float64) string {
	switch {
	case total < 40:
		return "low (< 1h)"
	case total < 60:
		return "moderate (1-3h)"
	default:
		return "high (> 3h)"
	}
}

// EmotionalContext describes the claimant's state for the advisor
func EmotionalContext(cs model.ClaimStructure) string {
	var context string
	switch stress := cs.EmotionalStressLevel; {
	case stress < 3:
		context = "Calm and factual claimant"
	case stress < 6:
		context = "Slightly worried claimant"
	case stress < 8:
		context = "Anxious claimant, needs careful listening"
	default:
		context = "Highly stressed claimant, empathetic approach essential"
	}

	if len(cs.EmotionalKeywords) > 0 {
		context += fmt.Sprintf(" (markers: %s)", strings.Join(firstN(cs.EmotionalKeywords, 3), ", "))
	}
	return context
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
