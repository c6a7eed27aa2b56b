package mcomplete

import "fmt"

// ErrorKind is the closed error taxonomy of spec.md §7: cancellation,
// invariant violation, and type-engine failure. Parse errors are not part
// of this taxonomy — they are an input the core consumes, not an error it
// raises (spec.md §7 "Parse error ... Not an error of the core").
type ErrorKind int

const (
	// ErrorKindCancellation means a cancellation token fired mid-analysis.
	// Surfaced immediately; no partial result is returned for that analysis.
	ErrorKindCancellation ErrorKind = iota
	// ErrorKindInvariant means the NodeIdMap was internally inconsistent —
	// a claimed child was missing, or an expected kind didn't match. This
	// is fatal to the analysis that hit it, but never to the others.
	ErrorKindInvariant
	// ErrorKindTypeEngine means the external type engine failed. Contained
	// within the field-access analysis.
	ErrorKindTypeEngine
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindCancellation:
		return "cancellation"
	case ErrorKindInvariant:
		return "invariant violation"
	case ErrorKindTypeEngine:
		return "type engine error"
	default:
		return "unknown"
	}
}

// Error is the common error type every analysis Result's Err field carries
// (spec.md §3 "a common error type"). The "ensure-result" wrapper described
// in spec.md §7 is the set of ensure* helpers in orchestrator.go
// (ensureFieldAccess, ensureKeyword, and so on): they catch
// an analysis's own panics/errors and tags them with this shape rather than
// letting one analysis's failure abort the others.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func wrapInvariant(message string, cause error) *Error {
	return &Error{Kind: ErrorKindInvariant, Message: message, Cause: cause}
}

func wrapCancellation(cause error) *Error {
	return &Error{Kind: ErrorKindCancellation, Message: "analysis cancelled", Cause: cause}
}

func wrapTypeEngine(cause error) *Error {
	return &Error{Kind: ErrorKindTypeEngine, Message: "type engine failed", Cause: cause}
}
