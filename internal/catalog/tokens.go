package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// minTokenRunes drops short noise words; tokens of exactly 3 runes
	// ("bag") are kept, 2 runes ("pc", "10") are not.
	minTokenRunes  = 3
	maxQueryTokens = 8
)

// Tokenize converts free text into the case-folded, deduplicated token set
// used for substring matching: punctuation stripped, split on whitespace,
// tokens shorter than three runes dropped, capped at maxQueryTokens.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	tokens := make([]string, 0, maxQueryTokens)
	for _, field := range strings.Fields(b.String()) {
		if utf8.RuneCountInString(field) < minTokenRunes {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
		if len(tokens) == maxQueryTokens {
			break
		}
	}
	return tokens
}
