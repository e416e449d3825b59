package model

// Category classifies the insurance line a claim belongs to
type Category string

const (
	CategoryAuto      Category = "auto"
	CategoryHome      Category = "home"
	CategoryHealth    Category = "health"
	CategoryLife      Category = "life"
	CategoryLiability Category = "liability"
	CategoryTravel    Category = "travel"
	CategoryUnknown   Category = "unknown"
)

// Categories is the fixed enumeration order used for classification tie-breaks
var Categories = []Category{
	CategoryAuto,
	CategoryHome,
	CategoryHealth,
	CategoryLife,
	CategoryLiability,
	CategoryTravel,
}

// ParseCategory maps a category name to a Category, returning CategoryUnknown for anything else
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryUnknown
}

// PartyRole is the role a party plays in the claim
type PartyRole string

const (
	RoleClaimant   PartyRole = "claimant"
	RoleThirdParty PartyRole = "third_party"
	RoleWitness    PartyRole = "witness"
	RoleExpert     PartyRole = "expert"
	RoleOther      PartyRole = "other"
)

// Party is a person or entity involved in the claim
type Party struct {
	Name            string    `json:"name,omitempty" yaml:"name,omitempty"`
	Role            PartyRole `json:"role" yaml:"role"`
	InvolvementNote string    `json:"involvement_note,omitempty" yaml:"involvement_note,omitempty"`
}

// DocumentStatus tells whether a document was mentioned or is known to be missing
type DocumentStatus string

const (
	DocumentMentioned DocumentStatus = "mentioned"
	DocumentMissing   DocumentStatus = "missing"
)

// DocumentRef references a supporting document
type DocumentRef struct {
	Type     string         `json:"type" yaml:"type"`
	Status   DocumentStatus `json:"status" yaml:"status"`
	Required bool           `json:"required" yaml:"required"`
	Note     string         `json:"note,omitempty" yaml:"note,omitempty"`
}

// AmbiguityCategory classifies an ambiguity
type AmbiguityCategory string

const (
	AmbiguityTemporal    AmbiguityCategory = "temporal"
	AmbiguityFactual     AmbiguityCategory = "factual"
	AmbiguityContractual AmbiguityCategory = "contractual"
	AmbiguityEmotional   AmbiguityCategory = "emotional"
)

// AmbiguityFlag marks an unresolved point in the narrative.
// Severity is ordinal (1-5).
type AmbiguityFlag struct {
	Category       AmbiguityCategory `json:"category" yaml:"category"`
	Description    string            `json:"description" yaml:"description"`
	Severity       int               `json:"severity" yaml:"severity"`
	DecisionImpact string            `json:"decision_impact" yaml:"decision_impact"`
}

// TimelineEvent is one step of the reconstructed incident timeline
type TimelineEvent struct {
	Moment      string `json:"moment" yaml:"moment"`
	Event       string `json:"event" yaml:"event"`
	Description string `json:"description" yaml:"description"`
}

// ClaimStructure is the typed output of narrative extraction.
// It is treated as an immutable value once produced.
type ClaimStructure struct {
	Category           Category `json:"category" yaml:"category"`
	CategoryConfidence float64  `json:"category_confidence" yaml:"category_confidence"` // 0 iff Category == unknown

	IncidentDate string `json:"incident_date" yaml:"incident_date"` // Sentinel when unresolved
	Location     string `json:"location" yaml:"location"`           // Sentinel when unresolved

	Parties            []Party       `json:"parties" yaml:"parties"` // Claimant always first
	DamagesDescription string        `json:"damages_description" yaml:"damages_description"`
	MentionedDocuments []DocumentRef `json:"mentioned_documents" yaml:"mentioned_documents"`
	MissingInformation []string      `json:"missing_information" yaml:"missing_information"`

	Facts       []string `json:"facts" yaml:"facts"`
	Assumptions []string `json:"assumptions" yaml:"assumptions"`

	Ambiguities    []AmbiguityFlag `json:"ambiguities" yaml:"ambiguities"`
	TimelineEvents []TimelineEvent `json:"timeline_events" yaml:"timeline_events"`

	EmotionalStressLevel int      `json:"emotional_stress_level" yaml:"emotional_stress_level"` // 0-10
	EmotionalKeywords    []string `json:"emotional_keywords" yaml:"emotional_keywords"`         // Set semantics

	// Sentinels carried with the structure so scoring can detect unresolved fields
	// without knowing which locale produced it.
	DateSentinel     string `json:"date_sentinel,omitempty" yaml:"date_sentinel,omitempty"`
	LocationSentinel string `json:"location_sentinel,omitempty" yaml:"location_sentinel,omitempty"`

	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"` // Lexicon used
	Source string `json:"source,omitempty" yaml:"source,omitempty"` // "rules" or "delegate:<provider>"
}

// Default sentinels of the reference (fr) lexicon
const (
	DefaultDateSentinel     = "date non précisée"
	DefaultLocationSentinel = "lieu non précisé"
	DefaultDamagesSentinel  = "Dommages à évaluer"
)

// DateUnresolved reports whether the incident date is missing or the unresolved sentinel
func (c ClaimStructure) DateUnresolved() bool {
	return unresolved(c.IncidentDate, c.DateSentinel, DefaultDateSentinel)
}

// LocationUnresolved reports whether the location is missing or the unresolved sentinel
func (c ClaimStructure) LocationUnresolved() bool {
	return unresolved(c.Location, c.LocationSentinel, DefaultLocationSentinel)
}

func unresolved(value, sentinel, fallback string) bool {
	if value == "" || value == fallback {
		return true
	}
	return sentinel != "" && value == sentinel
}
