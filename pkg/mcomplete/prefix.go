package mcomplete

import "github.com/powerquery-lang/mquery/pkg/mactive"
import "github.com/powerquery-lang/mquery/pkg/mlexer"

// effectivePrefix returns the text an analysis should prefix-filter
// against: the resolved identifierUnderPosition when one exists, otherwise
// the literal of the most recent parse error's token when the cursor sits
// within that token's span and the token is itself identifier-shaped —
// covering partially-typed text that never became a graph node at all (e.g.
// "nul" on the way to "nullable", which the parser rejects outright rather
// than accepting as an Identifier). A trailing token like "]" or ")" is
// punctuation already in the buffer, not text the user is mid-typing, so it
// must never narrow the candidate list.
func effectivePrefix(active *mactive.ActiveNode, trailing *mlexer.Token) string {
	if active.IdentifierUnderPosition != nil {
		return active.IdentifierUnderPosition.Literal
	}
	if trailing != nil && isIdentifierShaped(trailing.Kind) && isInOrOnTrailing(active, trailing) {
		return trailing.Literal
	}
	return ""
}

func isIdentifierShaped(kind mlexer.Kind) bool {
	return kind == mlexer.KindIdentifier || kind == mlexer.KindGeneralizedIdentifier
}
