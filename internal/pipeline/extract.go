package pipeline

import (
	"regexp"
	"strings"
)

// clarifyPrefix is the sentinel the oracle uses to ask the user a question
// instead of producing SQL. The whole sentinel convention lives in this file
// so its brittleness stays contained.
const clarifyPrefix = "CLARIFY:"

// Extraction is the decoded form of an oracle synthesis or repair answer
type Extraction struct {
	Clarify  bool
	Question string
	SQL      string
}

var fencedBlock = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

// ExtractSQL decodes free-form oracle text into a clarification or a
// candidate SQL query. No syntactic validation happens here; an invalid
// query is discovered by the database at execution time.
func ExtractSQL(raw string) Extraction {
	text := strings.TrimSpace(raw)

	if len(text) >= len(clarifyPrefix) && strings.EqualFold(text[:len(clarifyPrefix)], clarifyPrefix) {
		return Extraction{Clarify: true, Question: strings.TrimSpace(text[len(clarifyPrefix):])}
	}

	candidate := text
	if match := fencedBlock.FindStringSubmatch(text); match != nil {
		candidate = strings.TrimSpace(match[1])
	}

	// A single trailing statement terminator upsets some drivers
	candidate = strings.TrimSpace(strings.TrimSuffix(candidate, ";"))

	return Extraction{SQL: candidate}
}

// decodeRelevance reports whether the oracle's relevance answer marks the
// question off-topic. The match is on the token NO, not a raw substring, so
// answers like "Normally yes" do not trip the gate.
func decodeRelevance(answer string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(answer))

	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return r < 'A' || r > 'Z'
	})

	for _, token := range tokens {
		if token == "NO" {
			return true
		}
	}

	return false
}
