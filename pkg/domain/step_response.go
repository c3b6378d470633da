package domain

import (
	"errors"
	"fmt"
)

// ExpressionBlock records what a referenced expression resolved to and how
// many times that value was observed.
type ExpressionBlock struct {
	Expression      string `json:"expression"`
	ExpressionValue string `json:"expression_value"`
	Count           int    `json:"count"`
}

// NodeRunInfo is the provenance of a when-condition decision.
type NodeRunInfo struct {
	WhenCondition      string            `json:"when_condition"`
	EvaluatedCondition bool              `json:"evaluated_condition"`
	Expressions        []ExpressionBlock `json:"expressions,omitempty"`
}

// SkipInfo is the provenance of a skip-condition decision.
type SkipInfo struct {
	SkipCondition      string `json:"skip_condition"`
	EvaluatedCondition bool   `json:"evaluated_condition"`
}

// FailureType classifies a failure.
type FailureType string

const (
	FailureApplication          FailureType = "APPLICATION"
	FailureConfiguration        FailureType = "CONFIGURATION"
	FailureExpressionEvaluation FailureType = "EXPRESSION_EVALUATION"
)

// FailureInfo describes why a node failed or errored.
type FailureInfo struct {
	Message      string        `json:"message"`
	FailureTypes []FailureType `json:"failure_types,omitempty"`
}

// StepResponse is the outcome the engine records for a node.
// Exactly one of NodeRunInfo, SkipInfo or FailureInfo explains a terminal
// non-success status.
type StepResponse struct {
	Status      Status       `json:"status"`
	NodeRunInfo *NodeRunInfo `json:"node_run_info,omitempty"`
	SkipInfo    *SkipInfo    `json:"skip_info,omitempty"`
	FailureInfo *FailureInfo `json:"failure_info,omitempty"`
}

// ErrInvalidStepResponse is returned by StepResponse.Validate.
var ErrInvalidStepResponse = errors.New("invalid step response")

// Validate checks the status and the single-cause rule.
// A SUCCEEDED response may carry no cause at all.
func (r StepResponse) Validate() error {
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStepResponse, r.Status)
	}
	causes := 0
	if r.NodeRunInfo != nil {
		causes++
	}
	if r.SkipInfo != nil {
		causes++
	}
	if r.FailureInfo != nil {
		causes++
	}
	if causes > 1 {
		return fmt.Errorf("%w: %d causes set, expected one", ErrInvalidStepResponse, causes)
	}
	if causes == 0 && r.Status != StatusSucceeded && r.Status.IsFinal() {
		return fmt.Errorf("%w: status %s requires a cause", ErrInvalidStepResponse, r.Status)
	}
	return nil
}

// Skipped builds the response for a node skipped by its skip condition.
func Skipped(condition string, evaluated bool) StepResponse {
	return StepResponse{
		Status:   StatusSkipped,
		SkipInfo: &SkipInfo{SkipCondition: condition, EvaluatedCondition: evaluated},
	}
}

// NotRun builds the response for a node whose when condition did not hold.
func NotRun(condition string, evaluated bool, expressions []ExpressionBlock) StepResponse {
	return StepResponse{
		Status: StatusSkipped,
		NodeRunInfo: &NodeRunInfo{
			WhenCondition:      condition,
			EvaluatedCondition: evaluated,
			Expressions:        expressions,
		},
	}
}

// Errored builds an ERRORED response.
func Errored(message string, types ...FailureType) StepResponse {
	return StepResponse{
		Status:      StatusErrored,
		FailureInfo: &FailureInfo{Message: message, FailureTypes: types},
	}
}

// FailureTyper is implemented by errors that know their failure type.
type FailureTyper interface {
	FailureType() FailureType
}

// ClassifyFailure returns the failure type carried by err, or APPLICATION.
func ClassifyFailure(err error) FailureType {
	var typed FailureTyper
	if errors.As(err, &typed) {
		return typed.FailureType()
	}
	return FailureApplication
}
