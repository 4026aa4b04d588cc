package models

import (
	"slices"
	"time"
)

// StepType labels the kind of work a step represents.
type StepType string

const (
	StepTypeTask         StepType = "TASK"
	StepTypeApproval     StepType = "APPROVAL"
	StepTypeNotification StepType = "NOTIFICATION"
)

// StepTypes lists every accepted step type.
func StepTypes() []StepType {
	return []StepType{StepTypeTask, StepTypeApproval, StepTypeNotification}
}

// Valid reports whether t is one of the known step types.
func (t StepType) Valid() bool {
	return slices.Contains(StepTypes(), t)
}

// Step is a unit of work inside a workflow. OrderIndex is the dense 1-based rank among its siblings.
type Step struct {
	ID          string    `json:"id"`
	WorkflowID  string    `json:"workflow_id" validate:"required"`
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description"`
	StepType    StepType  `json:"step_type"   validate:"required,oneof=TASK APPROVAL NOTIFICATION"`
	OrderIndex  int       `json:"order_index" validate:"min=1"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
