package model

import (
	"encoding/json"
	"strings"
)

// RawStructure is the uncoerced claim structure returned by a text-understanding delegate.
// Pointer fields distinguish "absent" from zero values.
type RawStructure struct {
	ClaimType          string         `json:"claim_type" jsonschema_description:"Claim category: auto, home, health, life, liability, travel or unknown"`
	Confidence         *float64       `json:"confidence" jsonschema_description:"Category confidence between 0 and 1"`
	IncidentDate       string         `json:"date_incident" jsonschema_description:"Incident date as stated in the narrative, empty if not stated"`
	Location           string         `json:"location" jsonschema_description:"Incident location as stated in the narrative, empty if not stated"`
	Parties            []RawParty     `json:"parties"`
	Damages            string         `json:"damages" jsonschema_description:"Description of the damages"`
	DocumentsMentioned []string       `json:"documents_mentioned" jsonschema_description:"Documents mentioned by the claimant"`
	Facts              []string       `json:"facts" jsonschema_description:"Sentences from the narrative stated as certain"`
	Assumptions        []string       `json:"assumptions" jsonschema_description:"Sentences from the narrative stated with hedging"`
	MissingInfo        []string       `json:"missing_info" jsonschema_description:"Critical information missing from the narrative"`
	Ambiguities        []RawAmbiguity `json:"ambiguities"`
	EmotionalLevel     *int           `json:"emotional_level" jsonschema_description:"Emotional stress level between 0 and 10"`
}

// RawParty is a delegate-reported party; it also decodes from a bare name string
type RawParty struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Involvement string `json:"involvement"`
}

// UnmarshalJSON accepts either an object or a plain string
func (p *RawParty) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = RawParty{Name: strings.TrimSpace(name)}
		return nil
	}
	type plain RawParty
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = RawParty(v)
	return nil
}

// RawAmbiguity is a delegate-reported ambiguity
type RawAmbiguity struct {
	Category    string `json:"category" jsonschema_description:"temporal, factual, contractual or emotional"`
	Description string `json:"description"`
	Severity    int    `json:"severity" jsonschema_description:"Ordinal severity between 1 and 5"`
	Impact      string `json:"impact"`
}
