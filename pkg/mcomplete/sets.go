package mcomplete

import "strings"

// ExpressionKeywords is the full set offered wherever an expression is
// expected: the expression-starting keywords plus the three literal
// keywords (true/false/null read as bare literal expressions).
var ExpressionKeywords = []string{
	"each", "error", "if", "let", "not", "try", "type", "true", "false", "null",
}

// StartOfDocumentKeywords is offered for an empty or single-identifier
// document.
var StartOfDocumentKeywords = []string{"let", "section"}

// ConjunctionKeywords are the binary operators spellable as bare keywords.
var ConjunctionKeywords = []string{"and", "or", "is", "as", "meta"}

// partialConjunctions maps the first letter of a trailing, not-yet-resolved
// identifier-like token to the conjunction keywords it could still become.
// There is deliberately no "n" -> {"not"} entry: upstream omits it and this
// port preserves that until a concrete report proves it wrong.
var partialConjunctions = map[string][]string{
	"a": {"and", "as"},
	"i": {"is"},
	"m": {"meta"},
	"o": {"or"},
}

func prefixFilter(candidates []string, prefix string) []string {
	if prefix == "" {
		return candidates
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
