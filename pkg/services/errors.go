// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/ordering"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrStepNameRequired     = errors.New("step name is required")
	ErrInvalidStepType      = errors.New("invalid step type, must be one of: TASK, APPROVAL, NOTIFICATION")
	ErrRoleNameRequired     = errors.New("role name is required")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrStepNameRequired) ||
		errors.Is(err, ErrInvalidStepType) ||
		errors.Is(err, ErrRoleNameRequired) ||
		errors.Is(err, graph.ErrCrossWorkflowConnection) ||
		errors.Is(err, graph.ErrSelfLoopConnection) ||
		errors.Is(err, graph.ErrInvalidConditionType) ||
		errors.Is(err, ordering.ErrIndexOutOfRange) ||
		errors.Is(err, ordering.ErrNotDense)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
