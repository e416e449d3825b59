package locale

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/claimtriage/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lexicon holds the locale-specific keyword tables used by rule-based extraction.
// It is data, not logic: adding a locale means adding a YAML file.
type Lexicon struct {
	Code                string             `yaml:"code"`
	Categories          []CategoryKeywords `yaml:"categories"`
	DatePatterns        []string           `yaml:"date_patterns"`
	LocationPatterns    []string           `yaml:"location_patterns"`
	ThirdPartyKeywords  []string           `yaml:"third_party_keywords"`
	WitnessKeywords     []string           `yaml:"witness_keywords"`
	DamageKeywords      []string           `yaml:"damage_keywords"`
	Documents           []DocumentMention  `yaml:"documents"`
	RequiredDocuments   []RequiredDocument `yaml:"required_documents"`
	MissingRules        []MissingRule      `yaml:"missing_rules"`
	HedgingMarkers      []string           `yaml:"hedging_markers"`
	StressMarkers       []string           `yaml:"stress_markers"`
	MultiplicityMarkers []string           `yaml:"multiplicity_markers"`
	Timeline            TimelineLabels     `yaml:"timeline"`
	Parties             PartyLabels        `yaml:"parties"`
	Ambiguities         AmbiguityLabels    `yaml:"ambiguities"`
	Sentinels           Sentinels          `yaml:"sentinels"`

	dateRegexps     []*regexp.Regexp
	locationRegexps []*regexp.Regexp
	tag             language.Tag
}

// CategoryKeywords lists the keywords voting for one category
type CategoryKeywords struct {
	Category model.Category `yaml:"category"`
	Keywords []string       `yaml:"keywords"`
}

// DocumentMention maps a narrative phrase to a document type
type DocumentMention struct {
	Phrase string `yaml:"phrase"`
	Type   string `yaml:"type"`
}

// RequiredDocument is synthesized as missing for a category unless a satisfying type was mentioned
type RequiredDocument struct {
	Category    model.Category `yaml:"category"`
	Type        string         `yaml:"type"`
	SatisfiedBy []string       `yaml:"satisfied_by"`
	Note        string         `yaml:"note"`
}

// MissingRule flags a missing piece of information.
// An empty Category applies to every claim.
type MissingRule struct {
	Category       model.Category `yaml:"category,omitempty"`
	Label          string         `yaml:"label"`
	UnlessText     []string       `yaml:"unless_text,omitempty"`
	UnlessDocument []string       `yaml:"unless_document,omitempty"`
}

// TimelineLabels names the timeline events
type TimelineLabels struct {
	Incident    EventLabel         `yaml:"incident"`
	Declaration EventLabel         `yaml:"declaration"`
	Conditional []ConditionalEvent `yaml:"conditional"`
}

// EventLabel is a fixed timeline event text
type EventLabel struct {
	Event       string `yaml:"event"`
	Description string `yaml:"description"`
}

// ConditionalEvent is added to the timeline when any keyword appears
type ConditionalEvent struct {
	Keywords    []string `yaml:"keywords"`
	Moment      string   `yaml:"moment"`
	Event       string   `yaml:"event"`
	Description string   `yaml:"description"`
}

// PartyLabels names the synthesized parties
type PartyLabels struct {
	Claimant   PartyLabel `yaml:"claimant"`
	ThirdParty PartyLabel `yaml:"third_party"`
	Witness    PartyLabel `yaml:"witness"`
}

// PartyLabel is the display name and involvement note of a synthesized party
type PartyLabel struct {
	Name string `yaml:"name"`
	Note string `yaml:"note"`
}

// AmbiguityLabels holds the ambiguity texts; factual and emotional descriptions take one %d
type AmbiguityLabels struct {
	Temporal  AmbiguityLabel `yaml:"temporal"`
	Factual   AmbiguityLabel `yaml:"factual"`
	Emotional AmbiguityLabel `yaml:"emotional"`
}

// AmbiguityLabel is the description and decision impact of an ambiguity
type AmbiguityLabel struct {
	Description string `yaml:"description"`
	Impact      string `yaml:"impact"`
}

// Sentinels are the detectable placeholders for unresolved fields
type Sentinels struct {
	Date     string `yaml:"date"`
	Location string `yaml:"location"`
	Damages  string `yaml:"damages"`
}

// compile validates the lexicon and prepares its regular expressions
func (l *Lexicon) compile() error {
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	if l.Code == "" {
		return fmt.Errorf("lexicon has no code")
	}

	tag, err := language.Parse(l.Code)
	if err != nil {
		tag = language.Und
	}
	l.tag = tag

	for _, ck := range l.Categories {
		if model.ParseCategory(string(ck.Category)) == model.CategoryUnknown {
			return fmt.Errorf("lexicon %s: unknown category %q", l.Code, ck.Category)
		}
	}

	if l.dateRegexps, err = compileAll(l.DatePatterns); err != nil {
		return fmt.Errorf("lexicon %s: date pattern: %w", l.Code, err)
	}
	if l.locationRegexps, err = compileAll(l.LocationPatterns); err != nil {
		return fmt.Errorf("lexicon %s: location pattern: %w", l.Code, err)
	}

	if l.Sentinels.Date == "" {
		l.Sentinels.Date = model.DefaultDateSentinel
	}
	if l.Sentinels.Location == "" {
		l.Sentinels.Location = model.DefaultLocationSentinel
	}
	if l.Sentinels.Damages == "" {
		l.Sentinels.Damages = model.DefaultDamagesSentinel
	}

	return nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// DateRegexps returns the compiled date patterns in priority order
func (l *Lexicon) DateRegexps() []*regexp.Regexp {
	return l.dateRegexps
}

// LocationRegexps returns the compiled location patterns in priority order
func (l *Lexicon) LocationRegexps() []*regexp.Regexp {
	return l.locationRegexps
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Normalize folds typographic apostrophes so patterns written with ' match dictated text
func Normalize(text string) string {
	return apostrophes.Replace(text)
}

// Lower lower-cases text with the lexicon's language rules and folds typographic apostrophes.
// A Caser is stateful, so one is built per call.
func (l *Lexicon) Lower(text string) string {
	return cases.Lower(l.tag).String(apostrophes.Replace(text))
}

// ContainsAny reports whether the lower-cased text contains any keyword
func ContainsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CountHits counts how many distinct keywords appear in the lower-cased text
func CountHits(lower string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

// ContainsMarker matches word markers on word boundaries and punctuation markers as substrings
func ContainsMarker(lower, marker string) bool {
	if marker == "" {
		return false
	}
	if !isWord(marker) {
		return strings.Contains(lower, marker)
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if w == marker {
			return true
		}
	}
	return false
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
