package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/model"
)

// defaultDelegateConfidence applies when a delegate names a category without a confidence
const defaultDelegateConfidence = 0.7

var categoryAliases = map[string]model.Category{
	"auto":                  model.CategoryAuto,
	"automobile":            model.CategoryAuto,
	"car":                   model.CategoryAuto,
	"home":                  model.CategoryHome,
	"habitation":            model.CategoryHome,
	"health":                model.CategoryHealth,
	"santé":                 model.CategoryHealth,
	"sante":                 model.CategoryHealth,
	"life":                  model.CategoryLife,
	"vie":                   model.CategoryLife,
	"liability":             model.CategoryLiability,
	"responsabilité_civile": model.CategoryLiability,
	"responsabilité civile": model.CategoryLiability,
	"responsabilite_civile": model.CategoryLiability,
	"travel":                model.CategoryTravel,
	"voyage":                model.CategoryTravel,
}

var roleAliases = map[string]model.PartyRole{
	"claimant":       model.RoleClaimant,
	"insured":        model.RoleClaimant,
	"assuré":         model.RoleClaimant,
	"déclarant":      model.RoleClaimant,
	"third_party":    model.RoleThirdParty,
	"third party":    model.RoleThirdParty,
	"tiers":          model.RoleThirdParty,
	"tiers_impliqué": model.RoleThirdParty,
	"witness":        model.RoleWitness,
	"témoin":         model.RoleWitness,
	"expert":         model.RoleExpert,
}

var ambiguityAliases = map[string]model.AmbiguityCategory{
	"temporal":      model.AmbiguityTemporal,
	"temporelle":    model.AmbiguityTemporal,
	"factual":       model.AmbiguityFactual,
	"factuelle":     model.AmbiguityFactual,
	"contractual":   model.AmbiguityContractual,
	"contractuelle": model.AmbiguityContractual,
	"emotional":     model.AmbiguityEmotional,
	"émotionnelle":  model.AmbiguityEmotional,
}

// coerce turns a delegate answer into a structure holding the same invariants
// as the rule-based path. An answer with no narrative content is rejected.
func (r *RuleExtractor) coerce(lex *locale.Lexicon, t model.TranscriptRecord, raw *model.RawStructure, source string) (*model.ClaimStructure, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty answer", ErrDelegateFailed)
	}
	if len(raw.Facts) == 0 && len(raw.Assumptions) == 0 && strings.TrimSpace(raw.Damages) == "" {
		return nil, fmt.Errorf("%w: answer carries no facts, assumptions or damages", ErrDelegateFailed)
	}

	text := locale.Normalize(t.Text())
	lower := lex.Lower(text)

	category, confidence := coerceCategory(raw.ClaimType, raw.Confidence)

	facts, assumptions := coercePartition(lex, lower, raw.Facts, raw.Assumptions)
	if len(facts) == 0 && len(assumptions) == 0 {
		// Clauses not found verbatim in the narrative
		facts, assumptions = partition(lex, text)
	}

	date := nonEmpty(raw.IncidentDate, lex.Sentinels.Date)

	cs := &model.ClaimStructure{
		Category:             category,
		CategoryConfidence:   confidence,
		IncidentDate:         date,
		Location:             nonEmpty(raw.Location, lex.Sentinels.Location),
		Parties:              coerceParties(lex, raw.Parties),
		DamagesDescription:   nonEmpty(raw.Damages, lex.Sentinels.Damages),
		MentionedDocuments:   coerceDocuments(lex, raw.DocumentsMentioned, category),
		MissingInformation:   dedupe(raw.MissingInfo),
		Facts:                facts,
		Assumptions:          assumptions,
		Ambiguities:          coerceAmbiguities(raw.Ambiguities),
		TimelineEvents:       r.timeline(lex, lower, date),
		EmotionalStressLevel: coerceStress(lex, t, raw.EmotionalLevel),
		EmotionalKeywords:    t.Markers(),
		DateSentinel:         lex.Sentinels.Date,
		LocationSentinel:     lex.Sentinels.Location,
		Locale:               lex.Code,
		Source:               source,
	}

	return cs, nil
}

func coerceCategory(name string, confidence *float64) (model.Category, float64) {
	category, ok := categoryAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.CategoryUnknown, 0
	}

	c := defaultDelegateConfidence
	if confidence != nil {
		c = clamp(*confidence, 0, 1)
	}
	if c <= 0 {
		return model.CategoryUnknown, 0
	}
	return category, c
}

// coercePartition keeps clauses found in the narrative; a clause reported in
// both lists is kept as an assumption only
func coercePartition(lex *locale.Lexicon, lower string, facts, assumptions []string) ([]string, []string) {
	inNarrative := func(clauses []string) []string {
		out := []string{}
		for _, c := range dedupe(clauses) {
			if strings.Contains(lower, clauseKey(lex.Lower(locale.Normalize(c)))) {
				out = append(out, c)
			}
		}
		return out
	}

	keptAssumptions := inNarrative(assumptions)
	hedged := make(map[string]bool, len(keptAssumptions))
	for _, a := range keptAssumptions {
		hedged[clauseKey(a)] = true
	}

	keptFacts := []string{}
	for _, f := range inNarrative(facts) {
		if !hedged[clauseKey(f)] {
			keptFacts = append(keptFacts, f)
		}
	}
	return keptFacts, keptAssumptions
}

func coerceParties(lex *locale.Lexicon, raw []model.RawParty) []model.Party {
	parties := []model.Party{}
	var first *model.Party

	for _, rp := range raw {
		name := strings.TrimSpace(rp.Name)
		roleName := strings.ToLower(strings.TrimSpace(rp.Role))
		if name == "" && roleName == "" {
			continue
		}

		role, ok := roleAliases[roleName]
		if !ok {
			role = model.RoleOther
		}
		p := model.Party{Name: name, Role: role, InvolvementNote: strings.TrimSpace(rp.Involvement)}

		if role == model.RoleClaimant {
			if first == nil {
				first = &p
			}
			continue
		}
		parties = append(parties, p)
	}

	if first == nil {
		c := claimant(lex)
		first = &c
	}
	return append([]model.Party{*first}, parties...)
}

func coerceDocuments(lex *locale.Lexicon, mentioned []string, category model.Category) []model.DocumentRef {
	docs := []model.DocumentRef{}
	for _, m := range dedupe(mentioned) {
		docs = append(docs, model.DocumentRef{
			Type:     documentType(lex, m),
			Status:   model.DocumentMentioned,
			Required: true,
		})
	}
	return withRequiredDocuments(lex, docs, category)
}

// documentType maps a free-text document mention onto the lexicon's types
func documentType(lex *locale.Lexicon, mention string) string {
	lower := lex.Lower(mention)
	for _, dm := range lex.Documents {
		if dm.Phrase != "" && (strings.Contains(lower, dm.Phrase) || strings.Contains(lower, dm.Type)) {
			return dm.Type
		}
	}
	return strings.TrimSpace(lower)
}

func coerceAmbiguities(raw []model.RawAmbiguity) []model.AmbiguityFlag {
	flags := []model.AmbiguityFlag{}
	for _, ra := range raw {
		category, ok := ambiguityAliases[strings.ToLower(strings.TrimSpace(ra.Category))]
		if !ok || strings.TrimSpace(ra.Description) == "" {
			continue
		}
		flags = append(flags, model.AmbiguityFlag{
			Category:       category,
			Description:    strings.TrimSpace(ra.Description),
			Severity:       clampInt(ra.Severity, 1, 5),
			DecisionImpact: strings.TrimSpace(ra.Impact),
		})
	}
	return flags
}

func coerceStress(lex *locale.Lexicon, t model.TranscriptRecord, level *int) int {
	if level == nil {
		return stressLevel(lex, t)
	}
	return clampInt(*level, 0, 10)
}

func nonEmpty(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
