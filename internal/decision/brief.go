package decision

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/score"
)

// Brief thresholds
const (
	mainFactorFloor       = 30.0
	maxMainFactors        = 3
	clarifyAmbiguityAbove = 50.0
	empatheticStressAbove = 6
	contractGuaranteesAbv = 60.0
	maxListedMissing      = 3
)

// BriefBuilder packages a claim for the reviewer it is escalated to
type BriefBuilder struct {
	now func() time.Time
}

// NewBriefBuilder creates a builder; now stamps the brief and defaults to time.Now
func NewBriefBuilder(now func() time.Time) *BriefBuilder {
	if now == nil {
		now = time.Now
	}
	return &BriefBuilder{now: now}
}

// Build assembles the escalation brief
func (b *BriefBuilder) Build(cs model.ClaimStructure, cb model.ComplexityBreakdown, reason string) model.Brief {
	return model.Brief{
		Reason:   reason,
		Priority: Priority(cb.TotalScore),
		Summary: model.ClaimSummary{
			Category:   cs.Category,
			Confidence: cs.CategoryConfidence,
			Date:       cs.IncidentDate,
			Location:   cs.Location,
			Damages:    cs.DamagesDescription,
		},
		TotalScore:         cb.TotalScore,
		Level:              cb.Level,
		Explanation:        cb.Explanation,
		MainFactors:        MainFactors(cb),
		Ambiguities:        append([]model.AmbiguityFlag{}, cs.Ambiguities...),
		MissingInformation: append([]string{}, cs.MissingInformation...),
		Parties:            append([]model.Party{}, cs.Parties...),
		Recommendations:    Recommendations(cs, cb),
		StressLevel:        cs.EmotionalStressLevel,
		GeneratedAt:        b.now().UTC(),
	}
}

// Priority labels a total score: >80 HIGH, >60 MEDIUM, else NORMAL
func Priority(total float64) string {
	switch {
	case total > PriorityThreshold:
		return model.PriorityHigh
	case total > EscalationThreshold:
		return model.PriorityMedium
	default:
		return model.PriorityNormal
	}
}

// MainFactors returns up to three sub-scores above 30, highest first.
// Ties keep the canonical factor order.
func MainFactors(cb model.ComplexityBreakdown) []model.BriefFactor {
	var factors []model.BriefFactor
	for _, f := range cb.SubScores() {
		if f.Score > mainFactorFloor {
			factors = append(factors, model.BriefFactor{Factor: f.Name, Label: score.Label(f.Name), Score: f.Score})
		}
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Score > factors[j].Score
	})

	if len(factors) > maxMainFactors {
		factors = factors[:maxMainFactors]
	}
	if factors == nil {
		factors = []model.BriefFactor{}
	}
	return factors
}

// Recommendations derives advisor actions from fixed threshold checks
func Recommendations(cs model.ClaimStructure, cb model.ComplexityBreakdown) []string {
	recs := []string{}

	if cb.AmbiguityScore > clarifyAmbiguityAbove {
		recs = append(recs, "Clarify the identified ambiguities before processing")
	}
	if n := len(cs.MissingInformation); n > 0 {
		listed := cs.MissingInformation
		if n > maxListedMissing {
			listed = listed[:maxListedMissing]
		}
		recs = append(recs, fmt.Sprintf("Request missing documents: %s", strings.Join(listed, ", ")))
	}
	if len(cs.Parties) > 1 {
		recs = append(recs, "Cross-check statements with the third parties involved")
	}
	if cs.EmotionalStressLevel > empatheticStressAbove {
		recs = append(recs, "Claimant under stress, use an empathetic approach")
	}
	if cb.GuaranteesScore > contractGuaranteesAbv {
		recs = append(recs, "Verify the applicable contract clauses (multiple guarantees)")
	}

	return recs
}
