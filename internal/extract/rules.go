package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/model"
)

// SourceRules marks structures produced by the rule-based extractor
const SourceRules = "rules"

// RuleExtractor is the deterministic keyword/pattern extractor.
// It holds no mutable state and is safe for concurrent use.
type RuleExtractor struct {
	now func() time.Time
}

// NewRuleExtractor creates a rule extractor; now stamps the declaration
// timeline event and defaults to time.Now.
func NewRuleExtractor(now func() time.Time) *RuleExtractor {
	if now == nil {
		now = time.Now
	}
	return &RuleExtractor{now: now}
}

// Extract builds a claim structure from the transcript using the lexicon.
// The transcript must have been validated.
func (r *RuleExtractor) Extract(lex *locale.Lexicon, t model.TranscriptRecord) *model.ClaimStructure {
	text := locale.Normalize(t.Text())
	lower := lex.Lower(text)

	category, confidence := classify(lex, lower)
	date := firstMatch(lex.DateRegexps(), text, lex.Sentinels.Date)
	location := firstMatch(lex.LocationRegexps(), text, lex.Sentinels.Location)
	documents := extractDocuments(lex, lower, category)
	facts, assumptions := partition(lex, text)

	cs := &model.ClaimStructure{
		Category:             category,
		CategoryConfidence:   confidence,
		IncidentDate:         date,
		Location:             location,
		Parties:              extractParties(lex, lower),
		DamagesDescription:   extractDamages(lex, text),
		MentionedDocuments:   documents,
		MissingInformation:   missingInformation(lex, lower, category, documents),
		Facts:                facts,
		Assumptions:          assumptions,
		EmotionalStressLevel: stressLevel(lex, t),
		EmotionalKeywords:    t.Markers(),
		DateSentinel:         lex.Sentinels.Date,
		LocationSentinel:     lex.Sentinels.Location,
		Locale:               lex.Code,
		Source:               SourceRules,
	}
	cs.Ambiguities = detectAmbiguities(lex, cs, t.HesitationCount)
	cs.TimelineEvents = r.timeline(lex, lower, date)

	return cs
}

// classify scores every category by keyword hits; the first category in
// lexicon order reaching the maximum wins.
func classify(lex *locale.Lexicon, lower string) (model.Category, float64) {
	best := model.CategoryUnknown
	bestHits := 0
	bestTotal := 0

	for _, ck := range lex.Categories {
		if len(ck.Keywords) == 0 {
			continue
		}
		hits := locale.CountHits(lower, ck.Keywords)
		if hits > bestHits {
			best, bestHits, bestTotal = ck.Category, hits, len(ck.Keywords)
		}
	}

	if bestHits == 0 {
		return model.CategoryUnknown, 0
	}

	confidence := float64(bestHits) / (float64(bestTotal) * 0.3)
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence
}

func firstMatch(patterns []*regexp.Regexp, text, sentinel string) string {
	for _, re := range patterns {
		if m := strings.TrimSpace(re.FindString(text)); m != "" {
			return m
		}
	}
	return sentinel
}

func extractParties(lex *locale.Lexicon, lower string) []model.Party {
	parties := []model.Party{claimant(lex)}

	if locale.ContainsAny(lower, lex.ThirdPartyKeywords) {
		parties = append(parties, model.Party{
			Name:            lex.Parties.ThirdParty.Name,
			Role:            model.RoleThirdParty,
			InvolvementNote: lex.Parties.ThirdParty.Note,
		})
	}
	if locale.ContainsAny(lower, lex.WitnessKeywords) {
		parties = append(parties, model.Party{
			Name:            lex.Parties.Witness.Name,
			Role:            model.RoleWitness,
			InvolvementNote: lex.Parties.Witness.Note,
		})
	}

	return parties
}

func claimant(lex *locale.Lexicon) model.Party {
	return model.Party{
		Name:            lex.Parties.Claimant.Name,
		Role:            model.RoleClaimant,
		InvolvementNote: lex.Parties.Claimant.Note,
	}
}

func extractDamages(lex *locale.Lexicon, text string) string {
	var matched []string
	for _, s := range splitSentences(text) {
		if locale.ContainsAny(lex.Lower(s), lex.DamageKeywords) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return lex.Sentinels.Damages
	}
	return strings.Join(matched, ". ")
}

func extractDocuments(lex *locale.Lexicon, lower string, category model.Category) []model.DocumentRef {
	docs := []model.DocumentRef{}
	seen := make(map[string]bool)

	for _, dm := range lex.Documents {
		if dm.Phrase == "" || seen[dm.Type] || !strings.Contains(lower, dm.Phrase) {
			continue
		}
		seen[dm.Type] = true
		docs = append(docs, model.DocumentRef{
			Type:     dm.Type,
			Status:   model.DocumentMentioned,
			Required: true,
		})
	}

	return withRequiredDocuments(lex, docs, category)
}

// withRequiredDocuments appends a missing reference for every document the
// category requires that no mentioned document satisfies
func withRequiredDocuments(lex *locale.Lexicon, docs []model.DocumentRef, category model.Category) []model.DocumentRef {
	for _, rd := range lex.RequiredDocuments {
		if rd.Category != category || hasMentioned(docs, rd.SatisfiedBy) {
			continue
		}
		docs = append(docs, model.DocumentRef{
			Type:     rd.Type,
			Status:   model.DocumentMissing,
			Required: true,
			Note:     rd.Note,
		})
	}
	return docs
}

func hasMentioned(docs []model.DocumentRef, types []string) bool {
	for _, d := range docs {
		if d.Status != model.DocumentMentioned {
			continue
		}
		for _, t := range types {
			if d.Type == t {
				return true
			}
		}
	}
	return false
}

// partition splits the narrative into facts and assumptions. A hedged sentence
// is an assumption whatever its length; other sentences are facts when longer
// than four words and dropped otherwise.
func partition(lex *locale.Lexicon, text string) (facts, assumptions []string) {
	facts = []string{}
	assumptions = []string{}

	for _, s := range dedupe(splitSentences(text)) {
		if locale.ContainsAny(lex.Lower(s), lex.HedgingMarkers) {
			assumptions = append(assumptions, s)
		} else if len(strings.Fields(s)) > 4 {
			facts = append(facts, s)
		}
	}
	return facts, assumptions
}

func detectAmbiguities(lex *locale.Lexicon, cs *model.ClaimStructure, hesitations int) []model.AmbiguityFlag {
	flags := []model.AmbiguityFlag{}

	if cs.DateUnresolved() {
		flags = append(flags, model.AmbiguityFlag{
			Category:       model.AmbiguityTemporal,
			Description:    lex.Ambiguities.Temporal.Description,
			Severity:       3,
			DecisionImpact: lex.Ambiguities.Temporal.Impact,
		})
	}
	if n := len(cs.Assumptions); n > 2 {
		flags = append(flags, model.AmbiguityFlag{
			Category:       model.AmbiguityFactual,
			Description:    sprintfCount(lex.Ambiguities.Factual.Description, n),
			Severity:       2,
			DecisionImpact: lex.Ambiguities.Factual.Impact,
		})
	}
	if hesitations > 5 {
		flags = append(flags, model.AmbiguityFlag{
			Category:       model.AmbiguityEmotional,
			Description:    sprintfCount(lex.Ambiguities.Emotional.Description, hesitations),
			Severity:       2,
			DecisionImpact: lex.Ambiguities.Emotional.Impact,
		})
	}

	return flags
}

// sprintfCount fills a %d template, tolerating templates without a verb
func sprintfCount(template string, n int) string {
	if strings.Contains(template, "%d") {
		return fmt.Sprintf(template, n)
	}
	return template
}

func (r *RuleExtractor) timeline(lex *locale.Lexicon, lower, date string) []model.TimelineEvent {
	events := []model.TimelineEvent{{
		Moment:      date,
		Event:       lex.Timeline.Incident.Event,
		Description: lex.Timeline.Incident.Description,
	}}

	for _, ce := range lex.Timeline.Conditional {
		if locale.ContainsAny(lower, ce.Keywords) {
			events = append(events, model.TimelineEvent{
				Moment:      ce.Moment,
				Event:       ce.Event,
				Description: ce.Description,
			})
		}
	}

	events = append(events, model.TimelineEvent{
		Moment:      r.now().Format("2006-01-02 15:04"),
		Event:       lex.Timeline.Declaration.Event,
		Description: lex.Timeline.Declaration.Description,
	})

	return events
}

func missingInformation(lex *locale.Lexicon, lower string, category model.Category, docs []model.DocumentRef) []string {
	missing := []string{}

	for _, rule := range lex.MissingRules {
		if rule.Category != "" && rule.Category != category {
			continue
		}
		if locale.ContainsAny(lower, rule.UnlessText) {
			continue
		}
		if len(rule.UnlessDocument) > 0 && hasMentioned(docs, rule.UnlessDocument) {
			continue
		}
		missing = append(missing, rule.Label)
	}

	return missing
}

// stressLevel is min(3, hesitations/2) plus 2 per stress marker reported by
// transcription, capped at 10
func stressLevel(lex *locale.Lexicon, t model.TranscriptRecord) int {
	score := t.HesitationCount / 2
	if score > 3 {
		score = 3
	}
	if score < 0 {
		score = 0
	}

	for _, m := range t.Markers() {
		m = lex.Lower(m)
		for _, sm := range lex.StressMarkers {
			if m == sm {
				score += 2
				break
			}
		}
	}

	if score > 10 {
		score = 10
	}
	return score
}
