package summary

import (
	"fmt"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

// costBands is a rough settlement range per category
var costBands = map[model.Category]string{
	model.CategoryAuto:      "2000-5000 EUR",
	model.CategoryHome:      "3000-8000 EUR",
	model.CategoryHealth:    "1000-10000 EUR",
	model.CategoryLiability: "5000-20000 EUR",
	model.CategoryTravel:    "500-2000 EUR",
}

const highCostScore = 70.0

// Management builds the executive summary
func (g *Generator) Management(r *claim.Record) (model.ManagementSummary, error) {
	cs, cb, err := triaged(r)
	if err != nil {
		return model.ManagementSummary{}, err
	}

	reason := r.EscalationReason
	if reason == "" {
		reason = "N/A"
	}

	return model.ManagementSummary{
		ClaimID:           r.ID,
		Category:          cs.Category,
		ComplexityScore:   cb.TotalScore,
		EscalationReason:  reason,
		RiskIndicators:    managementRisks(cs, cb),
		ProcessingStatus:  processingStatus(r),
		CostImpact:        CostImpact(cs.Category, cb.TotalScore),
		RequiresAttention: cb.Level == model.LevelCritical || cb.TotalScore > 75,
	}, nil
}

func managementRisks(cs model.ClaimStructure, cb model.ComplexityBreakdown) []string {
	risks := []string{}
	if cb.TotalScore > highCostScore {
		risks = append(risks, "High complexity")
	}
	if cb.ThirdPartyScore > 60 {
		risks = append(risks, "Litigation risk (third parties)")
	}
	if cb.InconsistencyScore > 60 {
		risks = append(risks, "Inconsistencies to investigate")
	}
	if cs.EmotionalStressLevel > 7 {
		risks = append(risks, "Customer complaint risk")
	}
	return risks
}

func processingStatus(r *claim.Record) string {
	if r.IsEscalated {
		reviewer := r.AssignedReviewer
		if reviewer == "" {
			reviewer = "awaiting assignment"
		}
		return fmt.Sprintf("Escalated - %s", reviewer)
	}
	return fmt.Sprintf("Autonomous handling - %s", r.State)
}

// CostImpact returns the cost band of a category, flagged when complexity is high
func CostImpact(category model.Category, total float64) string {
	band, ok := costBands[category]
	if !ok {
		band = "to be assessed"
	}
	if total > highCostScore {
		return band + " (potentially higher)"
	}
	return band
}
