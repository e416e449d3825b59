package extract

import (
	"strings"
	"unicode"
)

// splitSentences splits a narrative into trimmed, non-empty sentences.
// A terminator only ends a sentence when followed by whitespace or the end of
// the text, so decimals and references like "n°12.3" stay whole.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		if r == '.' || r == '!' || r == '?' || r == '…' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()

	return sentences
}

// dedupe removes repeated clauses, comparing case-insensitively, keeping first occurrences
func dedupe(clauses []string) []string {
	seen := make(map[string]bool, len(clauses))
	unique := make([]string, 0, len(clauses))

	for _, c := range clauses {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := clauseKey(c)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, c)
		}
	}

	return unique
}

// clauseKey normalizes a clause for comparison
func clauseKey(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	return strings.TrimRight(c, ".!?…;:, ")
}
