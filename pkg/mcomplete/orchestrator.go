// Orchestrator (spec.md §4.I): lexes and parses a buffer, resolves the
// active node at a cursor, and runs the four autocomplete analyses in a
// fixed order, containing any one analysis's failure to its own Result.
// Grounded on vito/dang's pkg/dang/complete.go CompleteInput (one entry
// point gathering several independent completion sources) and krotik-ecal's
// layered error containment (each stage wraps its own failure).
package mcomplete

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mparse"
)

// Request is one autocomplete run: a correlation id (for logging/tracing
// across the lex/parse/resolve/analyze pipeline), the source buffer, the
// cursor position within it, and the external type engine the field-access
// analysis calls into. A nil Logger defaults to slog.Default().
type Request struct {
	ID       uuid.UUID
	Source   string
	Position mlexer.Position
	Engine   TypeEngine
	Logger   *slog.Logger
}

// NewRequest builds a Request with a fresh correlation id.
func NewRequest(source string, position mlexer.Position, engine TypeEngine) Request {
	return Request{ID: uuid.New(), Source: source, Position: position, Engine: engine}
}

// Run lexes and parses req.Source, resolves the active node at
// req.Position, and runs field access, keyword, primitive type, and
// language constant analyses in that order (spec.md §4.I). A nil
// *ActiveNode (empty buffer, or cursor before the first token) yields the
// default keyword completion with the other three results empty and no
// error. ctx cancellation is checked between analyses; a
// cancellation mid-analysis surfaces only in that analysis's own Err.
func Run(ctx context.Context, req Request) (Autocomplete, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("request", req.ID)
	logger.Debug("running autocomplete", "sourceLen", len(req.Source), "position", req.Position)

	tokens := mlexer.Lex(req.Source)
	state, parseErr := mparse.ParseDocument(tokens)
	state.Map.SetLogger(logger)

	active, err := mactive.Resolve(state.Map, state.Tokens, req.Position)
	if err != nil {
		logger.Warn("resolving active node failed", "error", err)
		return Autocomplete{}, fmt.Errorf("mcomplete: resolving active node for request %s: %w", req.ID, err)
	}
	if active == nil {
		// spec.md §4.I: an absent active node (empty buffer, or cursor before
		// the first token) still returns the default completion — the
		// expression keyword set plus "section" — with the other three
		// analyses reporting empty, error-free results.
		logger.Debug("no active node; returning default completion")
		return Autocomplete{Keyword: Keyword(nil, nil, nil)}, nil
	}

	var trailing *mparse.Error
	if pe, ok := parseErr.(*mparse.Error); ok {
		trailing = pe
		logger.Debug("parse ended with trailing error", "variant", pe.Variant, "token", pe.Token.Kind)
	}

	var out Autocomplete
	out.FieldAccess = ensureFieldAccess(func() FieldAccessResult {
		if err := ctx.Err(); err != nil {
			return FieldAccessResult{Err: wrapCancellation(err)}
		}
		return FieldAccess(ctx, state.Map, active, trailing, state, req.Engine)
	})
	out.Keyword = ensureKeyword(func() KeywordResult {
		if err := ctx.Err(); err != nil {
			return KeywordResult{Err: wrapCancellation(err)}
		}
		return Keyword(state.Map, active, trailingToken(trailing))
	})
	out.PrimitiveType = ensurePrimitiveType(func() PrimitiveTypeResult {
		if err := ctx.Err(); err != nil {
			return PrimitiveTypeResult{Err: wrapCancellation(err)}
		}
		return PrimitiveType(active, trailingToken(trailing))
	})
	out.LanguageConstant = ensureLanguageConstant(func() LanguageConstantResult {
		if err := ctx.Err(); err != nil {
			return LanguageConstantResult{Err: wrapCancellation(err)}
		}
		return LanguageConstant(active, trailing, state)
	})

	if out.FieldAccess.Err != nil {
		logger.Warn("field access analysis failed", "error", out.FieldAccess.Err)
	}
	if out.Keyword.Err != nil {
		logger.Warn("keyword analysis failed", "error", out.Keyword.Err)
	}
	if out.PrimitiveType.Err != nil {
		logger.Warn("primitive type analysis failed", "error", out.PrimitiveType.Err)
	}
	if out.LanguageConstant.Err != nil {
		logger.Warn("language constant analysis failed", "error", out.LanguageConstant.Err)
	}

	return out, nil
}

// ensure* recover a panicking analysis into an ErrorKindInvariant Err
// rather than letting one analysis's bug abort the whole request (spec.md
// §7's "ensure-result" containment discipline).

func ensureFieldAccess(fn func() FieldAccessResult) (result FieldAccessResult) {
	defer func() {
		if r := recover(); r != nil {
			result = FieldAccessResult{Err: wrapInvariant("field access analysis panicked", fmt.Errorf("%v", r))}
		}
	}()
	return fn()
}

func ensureKeyword(fn func() KeywordResult) (result KeywordResult) {
	defer func() {
		if r := recover(); r != nil {
			result = KeywordResult{Err: wrapInvariant("keyword analysis panicked", fmt.Errorf("%v", r))}
		}
	}()
	return fn()
}

func ensurePrimitiveType(fn func() PrimitiveTypeResult) (result PrimitiveTypeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = PrimitiveTypeResult{Err: wrapInvariant("primitive type analysis panicked", fmt.Errorf("%v", r))}
		}
	}()
	return fn()
}

func ensureLanguageConstant(fn func() LanguageConstantResult) (result LanguageConstantResult) {
	defer func() {
		if r := recover(); r != nil {
			result = LanguageConstantResult{Err: wrapInvariant("language constant analysis panicked", fmt.Errorf("%v", r))}
		}
	}()
	return fn()
}
