// Package mcomplete implements the four autocomplete analyses — keywords,
// primitive types, language constants, field access — plus the orchestrator
// that runs them and the speculative re-parse helper two of them lean on
// when a trailing unterminated token makes the active node ambiguous.
//
// The per-analysis Result-with-error shape and the "an error in one
// analysis never cancels the others" aggregation discipline are grounded on
// vito/dang's pkg/dang/complete.go (CompletionItem list plus per-source
// error containment) and krotik-ecal's layered interpreter error handling
// (each stage wraps its own failure rather than aborting the pipeline).
package mcomplete

import (
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mtype"
)

// FieldCompletion is one candidate field-access suggestion, carrying the
// type the type engine inferred for it.
type FieldCompletion struct {
	Name string
	Type mtype.Type
}

// FieldAccessResult is the field-access analysis' outcome: either a (possibly
// empty) list of candidate fields and the names already projected, or Err.
type FieldAccessResult struct {
	Fields           []FieldCompletion
	AlreadyProjected []string
	Err              error
}

// KeywordResult is the keyword analysis' outcome.
type KeywordResult struct {
	Keywords []string
	Err      error
}

// PrimitiveTypeResult is the primitive-type analysis' outcome.
type PrimitiveTypeResult struct {
	Names []string
	Err   error
}

// LanguageConstantResult is the language-constant analysis' outcome: at
// most "nullable" and/or "optional".
type LanguageConstantResult struct {
	Constants []string
	Err       error
}

// Autocomplete aggregates the four analyses run for one cursor position.
type Autocomplete struct {
	FieldAccess      FieldAccessResult
	Keyword          KeywordResult
	PrimitiveType    PrimitiveTypeResult
	LanguageConstant LanguageConstantResult
}

// TypeEngine is the opaque external collaborator the field-access analysis
// calls into to infer the receiver's type. The concrete type-inference
// engine lives outside this module; this core only consumes its result.
type TypeEngine interface {
	TryType(id mnode.ID) (mtype.Type, error)
}
