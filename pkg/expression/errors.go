package expression

import (
	"errors"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
)

var (
	// ErrUnresolvedReference is returned when a <+...> reference has no value.
	ErrUnresolvedReference = errors.New("unresolved expression reference")

	// ErrNotBoolean is returned when a condition does not produce a boolean.
	ErrNotBoolean = errors.New("condition did not evaluate to a boolean")

	// ErrMalformedReference is returned for an unterminated <+ reference.
	ErrMalformedReference = errors.New("malformed expression reference")
)

// EvaluationError wraps any failure to evaluate a condition.
type EvaluationError struct {
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// FailureType classifies evaluation failures for step responses.
func (e *EvaluationError) FailureType() domain.FailureType {
	return domain.FailureExpressionEvaluation
}
