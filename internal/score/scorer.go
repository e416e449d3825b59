package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/model"
)

// Weights are the percentage weights of the six sub-scores; they sum to 100
var Weights = map[model.FactorName]float64{
	model.FactorGuarantees:    15,
	model.FactorThirdParty:    20,
	model.FactorMissingDocs:   20,
	model.FactorAmbiguity:     20,
	model.FactorEmotional:     10,
	model.FactorInconsistency: 15,
}

// Level thresholds, closed-open
const (
	ModerateThreshold = 30.0
	ComplexThreshold  = 55.0
	CriticalThreshold = 75.0
)

// MainFactorThreshold is the sub-score above which a factor is named in the explanation
const MainFactorThreshold = 50.0

// baseGuarantees is the intrinsic complexity of each category
var baseGuarantees = map[model.Category]float64{
	model.CategoryAuto:      30,
	model.CategoryHome:      40,
	model.CategoryHealth:    50,
	model.CategoryLife:      70,
	model.CategoryLiability: 60,
	model.CategoryTravel:    35,
	model.CategoryUnknown:   50,
}

// defaultMultiplicityMarkers apply when no markers are configured
var defaultMultiplicityMarkers = []string{"et", ",", "aussi", "également"}

var labels = map[model.FactorName]string{
	model.FactorGuarantees:    "guarantees involved",
	model.FactorThirdParty:    "third-party involvement",
	model.FactorMissingDocs:   "missing documents",
	model.FactorAmbiguity:     "ambiguity",
	model.FactorEmotional:     "emotional stress",
	model.FactorInconsistency: "narrative inconsistencies",
}

var recommendations = map[model.Level]string{
	model.LevelSimple:   "Autonomous handling recommended.",
	model.LevelModerate: "Autonomous handling possible with validation.",
	model.LevelComplex:  "Advisor review recommended.",
	model.LevelCritical: "Immediate escalation required.",
}

// Label returns the human-readable name of a factor
func Label(name model.FactorName) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return string(name)
}

// Scorer computes the complexity breakdown of a claim structure.
// It is pure: no I/O, no shared mutable state.
type Scorer struct {
	multiplicity []string
	markersFor   func(locale string) []string
}

// NewScorer creates a scorer. Multiplicity markers (conjunctions, commas)
// count damaged items in the damages description; nil uses the French defaults.
func NewScorer(multiplicityMarkers []string) *Scorer {
	if len(multiplicityMarkers) == 0 {
		multiplicityMarkers = defaultMultiplicityMarkers
	}
	return &Scorer{multiplicity: multiplicityMarkers}
}

// NewLocaleScorer creates a scorer that takes multiplicity markers from the
// lexicon the structure was extracted with. Locales without markers use the
// French defaults.
func NewLocaleScorer(markersFor func(locale string) []string) *Scorer {
	s := NewScorer(nil)
	s.markersFor = markersFor
	return s
}

func (s *Scorer) markers(locale string) []string {
	if s.markersFor != nil {
		if m := s.markersFor(locale); len(m) > 0 {
			return m
		}
	}
	return s.multiplicity
}

// Calculate scores a claim structure
func (s *Scorer) Calculate(cs model.ClaimStructure) model.ComplexityBreakdown {
	factors := []model.Factor{
		s.calculateGuarantees(cs),
		calculateThirdParty(cs),
		calculateMissingDocs(cs),
		calculateAmbiguity(cs),
		calculateEmotional(cs),
		calculateInconsistency(cs),
	}

	total := 0.0
	for i := range factors {
		f := &factors[i]
		f.Weight = Weights[f.Name]
		f.Contribution = round2(f.Score * f.Weight / 100)
		total += f.Score * f.Weight / 100
		f.Score = round2(f.Score)
	}
	total = round2(total)
	level := LevelFor(total)

	return model.ComplexityBreakdown{
		GuaranteesScore:    factors[0].Score,
		ThirdPartyScore:    factors[1].Score,
		MissingDocsScore:   factors[2].Score,
		AmbiguityScore:     factors[3].Score,
		EmotionalScore:     factors[4].Score,
		InconsistencyScore: factors[5].Score,
		TotalScore:         total,
		Level:              level,
		Explanation:        explain(total, level, factors),
		Factors:            factors,
	}
}

// LevelFor maps a total score onto its level
func LevelFor(total float64) model.Level {
	switch {
	case total < ModerateThreshold:
		return model.LevelSimple
	case total < ComplexThreshold:
		return model.LevelModerate
	case total < CriticalThreshold:
		return model.LevelComplex
	default:
		return model.LevelCritical
	}
}

// calculateGuarantees is the category base plus 10 per multiplicity marker in the damages
func (s *Scorer) calculateGuarantees(cs model.ClaimStructure) model.Factor {
	base, ok := baseGuarantees[cs.Category]
	if !ok {
		base = baseGuarantees[model.CategoryUnknown]
	}

	lower := strings.ToLower(cs.DamagesDescription)
	markers := 0
	for _, m := range s.markers(cs.Locale) {
		if locale.ContainsMarker(lower, m) {
			markers++
		}
	}

	return model.Factor{
		Name:    model.FactorGuarantees,
		Score:   math.Min(100, base+10*float64(markers)),
		Formula: fmt.Sprintf("min(100, base[%s]=%.0f + 10 * markers=%d)", cs.Category, base, markers),
	}
}

func calculateThirdParty(cs model.ClaimStructure) model.Factor {
	n := len(cs.Parties)
	var score float64
	switch {
	case n <= 1:
		score = 0
	case n == 2:
		score = 40
	case n == 3:
		score = 70
	default:
		score = 90
	}

	return model.Factor{
		Name:    model.FactorThirdParty,
		Score:   score,
		Formula: fmt.Sprintf("step(parties=%d): <=1 -> 0, 2 -> 40, 3 -> 70, >=4 -> 90", n),
	}
}

// calculateMissingDocs treats a structure with neither documents nor missing
// information as suspicious silence (50)
func calculateMissingDocs(cs model.ClaimStructure) model.Factor {
	mentioned := len(cs.MentionedDocuments)
	missing := len(cs.MissingInformation)

	if mentioned == 0 && missing == 0 {
		return model.Factor{
			Name:    model.FactorMissingDocs,
			Score:   50,
			Formula: "no documents and no missing information -> 50",
		}
	}

	return model.Factor{
		Name:    model.FactorMissingDocs,
		Score:   100 * float64(missing) / float64(missing+mentioned),
		Formula: fmt.Sprintf("100 * missing=%d / (missing=%d + mentioned=%d)", missing, missing, mentioned),
	}
}

func calculateAmbiguity(cs model.ClaimStructure) model.Factor {
	n := len(cs.Ambiguities)
	if n == 0 {
		return model.Factor{
			Name:    model.FactorAmbiguity,
			Score:   0,
			Formula: "no ambiguities -> 0",
		}
	}

	total := 0
	for _, a := range cs.Ambiguities {
		total += a.Severity
	}
	avg := float64(total) / float64(n)

	return model.Factor{
		Name:    model.FactorAmbiguity,
		Score:   math.Min(100, math.Min(50, 15*float64(n))+10*avg),
		Formula: fmt.Sprintf("min(100, min(50, 15 * count=%d) + 10 * avg_severity=%.2f)", n, avg),
	}
}

func calculateEmotional(cs model.ClaimStructure) model.Factor {
	bonus := 0.0
	if distinct(cs.EmotionalKeywords) >= 3 {
		bonus = 20
	}

	return model.Factor{
		Name:    model.FactorEmotional,
		Score:   math.Min(100, float64(cs.EmotionalStressLevel)/10*100+bonus),
		Formula: fmt.Sprintf("min(100, stress=%d / 10 * 100 + keyword_bonus=%.0f)", cs.EmotionalStressLevel, bonus),
	}
}

// calculateInconsistency applies at most one of the zero-facts (+40) and
// assumptions-over-facts (+30) penalties; zero facts takes precedence
func calculateInconsistency(cs model.ClaimStructure) model.Factor {
	score := 0.0
	var parts []string

	facts, assumptions := len(cs.Facts), len(cs.Assumptions)
	if facts == 0 {
		score += 40
		parts = append(parts, "no_facts(40)")
	} else if assumptions > facts {
		score += 30
		parts = append(parts, "assumptions>facts(30)")
	}
	if cs.DateUnresolved() {
		score += 25
		parts = append(parts, "date_unresolved(25)")
	}
	if cs.LocationUnresolved() {
		score += 25
		parts = append(parts, "location_unresolved(25)")
	}
	if cs.CategoryConfidence < 0.6 {
		score += 20
		parts = append(parts, "low_category_confidence(20)")
	}

	formula := "min(100, 0)"
	if len(parts) > 0 {
		formula = "min(100, " + strings.Join(parts, " + ") + ")"
	}

	return model.Factor{
		Name:    model.FactorInconsistency,
		Score:   math.Min(100, score),
		Formula: formula,
	}
}

func explain(total float64, level model.Level, factors []model.Factor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Complexity %s (score: %.1f/100). ", level, total)

	var main []string
	for _, f := range factors {
		if f.Score > MainFactorThreshold {
			main = append(main, Label(f.Name))
		}
	}
	if len(main) > 0 {
		fmt.Fprintf(&b, "Main factors: %s. ", strings.Join(main, ", "))
	} else {
		b.WriteString("All factors are within acceptable levels. ")
	}

	b.WriteString(recommendations[level])
	return b.String()
}

func distinct(values []string) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[strings.ToLower(strings.TrimSpace(v))] = true
	}
	delete(seen, "")
	return len(seen)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
