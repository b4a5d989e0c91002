package scanning

import "strings"

// Outcome classifies a scan against the configured ownership tokens
type Outcome string

const (
	NotFound Outcome = "not_found"
	Foreign  Outcome = "foreign"
	Ours     Outcome = "ours"
)

// ParseTokens splits a comma or semicolon separated token list, dropping blanks
func ParseTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// IsOurs reports whether any code contains any non-empty token. Matching is case sensitive.
func IsOurs(codes []string, tokens []string) bool {
	for _, code := range codes {
		for _, t := range tokens {
			if t != "" && strings.Contains(code, t) {
				return true
			}
		}
	}
	return false
}

// Classify returns Ours if any code is ours, Foreign if codes were found but none match,
// and NotFound when there are no codes
func Classify(codes []string, tokens []string) Outcome {
	switch {
	case len(codes) == 0:
		return NotFound
	case IsOurs(codes, tokens):
		return Ours
	}
	return Foreign
}
