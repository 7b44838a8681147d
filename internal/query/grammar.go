// Package query implements the query planner: parsing the compact
// query grammar, building a weighted disjunction over the index's
// fields, applying the ext/glob filters, and assembling ranked,
// tie-broken results.
package query

import "strings"

// Combinator is how adjacent clauses combine.
type Combinator int

const (
	CombinatorAnd Combinator = iota
	CombinatorOr
)

// ClauseKind distinguishes the grammar's token kinds.
type ClauseKind int

const (
	ClauseTerm ClauseKind = iota
	ClausePhrase
	ClauseExt
)

// Clause is one parsed grammar token, paired with the combinator that
// joins it to the clause before it (ignored for the first clause).
type Clause struct {
	Kind       ClauseKind
	Text       string
	Combinator Combinator
}

// Parse splits a query string into clauses:
// ext:<term>, OR, "quoted phrase", and bare words.
func Parse(q string) []Clause {
	var clauses []Clause
	nextCombinator := CombinatorAnd

	runes := []rune(q)
	i := 0
	for i < len(runes) {
		for i < len(runes) && isSpace(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}

		if runes[i] == '"' {
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			phrase := string(runes[i+1 : min(j, len(runes))])
			if strings.TrimSpace(phrase) != "" {
				clauses = append(clauses, Clause{Kind: ClausePhrase, Text: phrase, Combinator: nextCombinator})
				nextCombinator = CombinatorAnd
			}
			if j < len(runes) {
				j++
			}
			i = j
			continue
		}

		j := i
		for j < len(runes) && !isSpace(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		i = j

		switch {
		case word == "OR":
			nextCombinator = CombinatorOr
		case strings.HasPrefix(word, "ext:") && len(word) > 4:
			clauses = append(clauses, Clause{Kind: ClauseExt, Text: strings.ToLower(word[4:]), Combinator: nextCombinator})
			nextCombinator = CombinatorAnd
		case word != "":
			clauses = append(clauses, Clause{Kind: ClauseTerm, Text: word, Combinator: nextCombinator})
			nextCombinator = CombinatorAnd
		}
	}

	return clauses
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
