package facility

import (
	"errors"
	"fmt"
)

var (
	// ErrInputValidation matches every error caused by a malformed or
	// inconsistent input document.
	ErrInputValidation = errors.New("input validation failed")
	// ErrModelConstruction matches inconsistencies found while assembling the
	// optimization model.
	ErrModelConstruction = errors.New("model construction failed")
)

// InputValidationError describes one rejected input field.
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputValidationError) Is(target error) bool { return target == ErrInputValidation }

func invalid(field, format string, args ...any) error {
	return &InputValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ModelConstructionError reports an internal inconsistency detected while
// building variables or constraints.
type ModelConstructionError struct {
	Reason string
}

func (e *ModelConstructionError) Error() string {
	return "model construction: " + e.Reason
}

func (e *ModelConstructionError) Is(target error) bool { return target == ErrModelConstruction }

// ModelErrorf builds a ModelConstructionError.
func ModelErrorf(format string, args ...any) error {
	return &ModelConstructionError{Reason: fmt.Sprintf(format, args...)}
}
