package summary

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

var clientStatus = map[claim.State]string{
	claim.StateReceived:    "Your claim has been received",
	claim.StateAnalyzing:   "Your claim is being analyzed",
	claim.StatePendingDocs: "Waiting for additional documents",
	claim.StateAutonomous:  "Your claim is being processed",
	claim.StateEscalated:   "An advisor will contact you",
	claim.StateResolved:    "Your claim has been settled",
	claim.StateRejected:    "A decision has been made on your claim",
}

// Client builds the claimant-facing summary
func (g *Generator) Client(r *claim.Record) (model.ClientSummary, error) {
	cs, cb, err := triaged(r)
	if err != nil {
		return model.ClientSummary{}, err
	}

	status, ok := clientStatus[r.State]
	if !ok {
		status = "Your claim is in progress"
	}

	return model.ClientSummary{
		ClaimID:                 r.ID,
		Status:                  status,
		NextSteps:               g.nextSteps(r, cs),
		DocumentsRequired:       requiredDocuments(cs),
		EstimatedProcessingTime: ProcessingTime(cb.Level),
		Contact:                 g.contact,
		Message:                 clientMessage(r, cb),
	}, nil
}

func (g *Generator) nextSteps(r *claim.Record, cs model.ClaimStructure) []string {
	var steps []string

	if len(cs.MissingInformation) > 0 {
		steps = append(steps, fmt.Sprintf("Send us the following: %s", strings.Join(firstN(cs.MissingInformation, 2), ", ")))
	}

	if r.IsEscalated {
		steps = append(steps, "An advisor will contact you within 24-48 hours")
	} else {
		steps = append(steps, "We are reviewing your claim and will get back to you shortly")
	}

	steps = append(steps, fmt.Sprintf("For any question, call us at %s", g.contact))
	return steps
}

// requiredDocuments merges missing information and missing documents, first seen order
func requiredDocuments(cs model.ClaimStructure) []string {
	docs := []string{}
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		docs = append(docs, s)
	}

	for _, m := range cs.MissingInformation {
		add(m)
	}
	for _, d := range cs.MentionedDocuments {
		if d.Status == model.DocumentMissing {
			add(d.Type)
		}
	}
	return docs
}

func clientMessage(r *claim.Record, cb model.ComplexityBreakdown) string {
	switch {
	case r.IsEscalated:
		return "We have registered your claim. Given its nature, an expert advisor will handle your file personally. " +
			"We are doing everything we can to support you."
	case cb.Level == model.LevelSimple:
		return "Good news! Your claim can be handled quickly. " +
			"We have the information we need and will process it as soon as possible."
	default:
		return "We have received your claim. Our team is reviewing it carefully. " +
			"You will receive an update soon."
	}
}
