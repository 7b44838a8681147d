package indexstore

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenRegex matches alphanumeric runs, keeping underscores attached so
// SplitNameToken can further break snake_case and camelCase segments.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// TokenizeName splits filenames and file content with the same
// camelCase/snake_case/dot-separated splitting rules a developer's eye
// uses when scanning a directory listing: "IMG_2024-summary.v2.FINAL.txt"
// tokenizes to img, 2024, summary, v2, final, txt. Grounded in the
// teacher's TokenizeCode (internal/store/tokenizer.go), generalized from
// code identifiers to filenames.
func TokenizeName(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range SplitNameToken(word) {
			lower := strings.ToLower(t)
			if len(lower) >= 1 {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

// SplitNameToken splits snake_case first, then camelCase within each part.
func SplitNameToken(token string) []string {
	var result []string
	if strings.Contains(token, "_") {
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

// splitCamelCase splits camelCase/PascalCase runs, keeping acronyms
// ("HTTPHandler" -> "HTTP", "Handler") intact.
func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// BuildStopWordMap converts a stop-word slice to a lookup set.
func BuildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}

// DefaultContentStopWords trims common English function words from
// content indexing; filenames are never stop-filtered since name tokens
// are short and every one is meaningful for a file search tool.
var DefaultContentStopWords = []string{
	"the", "a", "an", "and", "or", "of", "to", "in", "is", "it", "for",
	"on", "with", "as", "by", "at", "this", "that", "be", "are", "was",
}
