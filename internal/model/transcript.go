package model

import (
	"errors"
	"strings"
)

// ErrInvalidTranscript is returned when a transcript carries no usable text
var ErrInvalidTranscript = errors.New("invalid transcript: missing text")

// UnknownLanguage is used when the transcription collaborator did not report a language
const UnknownLanguage = "unknown"

// TranscriptRecord is the output of the speech-to-text collaborator
type TranscriptRecord struct {
	RawText          string   `json:"raw_text" yaml:"raw_text"`
	NormalizedText   string   `json:"normalized_text" yaml:"normalized_text"`     // Post-translation / cleanup text
	Language         string   `json:"language" yaml:"language"`                   // Language code (e.g., "fr")
	ConfidenceScore  float64  `json:"confidence_score" yaml:"confidence_score"`   // STT confidence in [0,1]
	EmotionalMarkers []string `json:"emotional_markers" yaml:"emotional_markers"` // Set semantics, order preserved
	HesitationCount  int      `json:"hesitation_count" yaml:"hesitation_count"`
	DurationSeconds  float64  `json:"duration_seconds" yaml:"duration_seconds"`
}

// Text returns the narrative used for extraction: normalized text when present, raw text otherwise
func (t TranscriptRecord) Text() string {
	if s := strings.TrimSpace(t.NormalizedText); s != "" {
		return s
	}
	return strings.TrimSpace(t.RawText)
}

// Lang returns the transcript language, or UnknownLanguage when absent
func (t TranscriptRecord) Lang() string {
	lang := strings.ToLower(strings.TrimSpace(t.Language))
	if lang == "" {
		return UnknownLanguage
	}
	return lang
}

// Validate checks that the transcript can be extracted from
func (t TranscriptRecord) Validate() error {
	if t.Text() == "" {
		return ErrInvalidTranscript
	}
	return nil
}

// Markers returns the emotional markers de-duplicated, in first-seen order
func (t TranscriptRecord) Markers() []string {
	seen := make(map[string]bool, len(t.EmotionalMarkers))
	out := make([]string, 0, len(t.EmotionalMarkers))
	for _, m := range t.EmotionalMarkers {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
