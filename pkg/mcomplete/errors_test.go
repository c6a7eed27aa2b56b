package mcomplete

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "cancellation", ErrorKindCancellation.String())
	assert.Equal(t, "invariant violation", ErrorKindInvariant.String())
	assert.Equal(t, "type engine error", ErrorKindTypeEngine.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("boom")
	err := wrapInvariant("child missing", cause)
	assert.Equal(t, "invariant violation: child missing: boom", err.Error())
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_ErrorWithoutCause(t *testing.T) {
	err := &Error{Kind: ErrorKindCancellation, Message: "analysis cancelled"}
	assert.Equal(t, "cancellation: analysis cancelled", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapCancellation(t *testing.T) {
	cause := errors.New("context canceled")
	err := wrapCancellation(cause)
	assert.Equal(t, ErrorKindCancellation, err.Kind)
	assert.Equal(t, cause, err.Cause)
}

func TestWrapTypeEngine(t *testing.T) {
	cause := errors.New("engine down")
	err := wrapTypeEngine(cause)
	assert.Equal(t, ErrorKindTypeEngine, err.Kind)
	assert.Equal(t, cause, err.Cause)
}
