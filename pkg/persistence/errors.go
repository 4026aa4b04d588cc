// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStepNotFound indicates a step was not found by the given identifier.
	ErrStepNotFound = errors.New("step not found")

	// ErrConnectionNotFound indicates a connection was not found by the given identifier.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrRoleNotFound indicates a role was not found by the given identifier.
	ErrRoleNotFound = errors.New("role not found")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Update", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// StepError wraps step-related errors with additional context.
type StepError struct {
	Op     string
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s operation failed for step %s: %v", e.Op, e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStepError creates a new step error with context.
func NewStepError(op, stepID string, err error) *StepError {
	return &StepError{Op: op, StepID: stepID, Err: err}
}

// ConnectionError wraps connection-related errors with additional context.
type ConnectionError struct {
	Op           string
	ConnectionID string
	Err          error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s operation failed for connection %s: %v", e.Op, e.ConnectionID, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewConnectionError creates a new connection error with context.
func NewConnectionError(op, connectionID string, err error) *ConnectionError {
	return &ConnectionError{Op: op, ConnectionID: connectionID, Err: err}
}

// RoleError wraps role-related errors with additional context.
type RoleError struct {
	Op     string
	RoleID string
	Err    error
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("%s operation failed for role %s: %v", e.Op, e.RoleID, e.Err)
}

func (e *RoleError) Unwrap() error {
	return e.Err
}

func (e *RoleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRoleError creates a new role error with context.
func NewRoleError(op, roleID string, err error) *RoleError {
	return &RoleError{Op: op, RoleID: roleID, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsConnectionNotFound checks if an error indicates a connection was not found.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

// IsRoleNotFound checks if an error indicates a role was not found.
func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

// IsNotFound checks if an error indicates any referenced entity was absent.
func IsNotFound(err error) bool {
	return IsWorkflowNotFound(err) ||
		IsStepNotFound(err) ||
		IsConnectionNotFound(err) ||
		IsRoleNotFound(err)
}
