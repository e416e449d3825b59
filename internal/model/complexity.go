package model

// Level is the categorical complexity derived from the total score
type Level string

const (
	LevelSimple   Level = "simple"   // [0,30)
	LevelModerate Level = "moderate" // [30,55)
	LevelComplex  Level = "complex"  // [55,75)
	LevelCritical Level = "critical" // [75,100]
)

// FactorName identifies one of the six complexity sub-scores
type FactorName string

const (
	FactorGuarantees    FactorName = "guarantees"
	FactorThirdParty    FactorName = "third_party"
	FactorMissingDocs   FactorName = "missing_docs"
	FactorAmbiguity     FactorName = "ambiguity"
	FactorEmotional     FactorName = "emotional"
	FactorInconsistency FactorName = "inconsistency"
)

// Factor is the transparent record of one sub-score
type Factor struct {
	Name         FactorName `json:"name" yaml:"name"`
	Score        float64    `json:"score" yaml:"score"`               // 0-100
	Weight       float64    `json:"weight" yaml:"weight"`             // Percentage points, all weights sum to 100
	Contribution float64    `json:"contribution" yaml:"contribution"` // Score * Weight / 100
	Formula      string     `json:"formula" yaml:"formula"`
}

// ComplexityBreakdown is the explainable output of the complexity scorer
type ComplexityBreakdown struct {
	GuaranteesScore    float64 `json:"guarantees_score" yaml:"guarantees_score"`
	ThirdPartyScore    float64 `json:"third_party_score" yaml:"third_party_score"`
	MissingDocsScore   float64 `json:"missing_docs_score" yaml:"missing_docs_score"`
	AmbiguityScore     float64 `json:"ambiguity_score" yaml:"ambiguity_score"`
	EmotionalScore     float64 `json:"emotional_score" yaml:"emotional_score"`
	InconsistencyScore float64 `json:"inconsistency_score" yaml:"inconsistency_score"`

	TotalScore  float64  `json:"total_score" yaml:"total_score"`
	Level       Level    `json:"level" yaml:"level"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	Factors     []Factor `json:"factors,omitempty" yaml:"factors,omitempty"`
}

// SubScores returns the six sub-scores in their canonical order
func (b ComplexityBreakdown) SubScores() []Factor {
	return []Factor{
		{Name: FactorGuarantees, Score: b.GuaranteesScore},
		{Name: FactorThirdParty, Score: b.ThirdPartyScore},
		{Name: FactorMissingDocs, Score: b.MissingDocsScore},
		{Name: FactorAmbiguity, Score: b.AmbiguityScore},
		{Name: FactorEmotional, Score: b.EmotionalScore},
		{Name: FactorInconsistency, Score: b.InconsistencyScore},
	}
}
