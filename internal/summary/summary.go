package summary

import (
	"errors"
	"strings"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

// ErrIncomplete is returned when a record has not been triaged yet
var ErrIncomplete = errors.New("record has no structure or complexity")

// DefaultContact is used when no contact line is configured
const DefaultContact = "0800 123 456"

// Advisor priority labels
const (
	AdvisorUrgent = "URGENT"
	AdvisorHigh   = "HIGH"
	AdvisorNormal = "NORMAL"
)

// Generator builds audience-specific projections of a triaged record.
// Every string is templated from the record; no new decisions are made here.
type Generator struct {
	contact string
}

// NewGenerator creates a generator with the contact line shown to claimants
func NewGenerator(contact string) *Generator {
	if strings.TrimSpace(contact) == "" {
		contact = DefaultContact
	}
	return &Generator{contact: contact}
}

// Summaries bundles the three projections
type Summaries struct {
	Client     model.ClientSummary     `json:"client_summary" yaml:"client_summary"`
	Advisor    model.AdvisorBrief      `json:"advisor_brief" yaml:"advisor_brief"`
	Management model.ManagementSummary `json:"management_summary" yaml:"management_summary"`
}

// All builds every projection at once
func (g *Generator) All(r *claim.Record) (*Summaries, error) {
	client, err := g.Client(r)
	if err != nil {
		return nil, err
	}
	advisor, err := g.Advisor(r)
	if err != nil {
		return nil, err
	}
	mgmt, err := g.Management(r)
	if err != nil {
		return nil, err
	}
	return &Summaries{Client: client, Advisor: advisor, Management: mgmt}, nil
}

func triaged(r *claim.Record) (model.ClaimStructure, model.ComplexityBreakdown, error) {
	if r == nil || r.Structure == nil || r.Complexity == nil {
		return model.ClaimStructure{}, model.ComplexityBreakdown{}, ErrIncomplete
	}
	return *r.Structure, *r.Complexity, nil
}

// ProcessingTime estimates the handling delay for a complexity level
func ProcessingTime(level model.Level) string {
	switch level {
	case model.LevelSimple:
		return "24-48h"
	case model.LevelModerate:
		return "3-5 business days"
	case model.LevelComplex:
		return "1-2 weeks"
	default:
		return "2-4 weeks"
	}
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
