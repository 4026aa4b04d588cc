// Package graph holds the consistency rules of a workflow's step/connection graph.
package graph

import (
	"errors"
	"fmt"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
)

var (
	// ErrCrossWorkflowConnection indicates connection endpoints in different workflows.
	ErrCrossWorkflowConnection = errors.New("steps must belong to the same workflow")

	// ErrSelfLoopConnection indicates a connection from a step to itself.
	ErrSelfLoopConnection = errors.New("a step cannot be connected to itself")

	// ErrInvalidConditionType indicates an unknown condition type.
	ErrInvalidConditionType = errors.New("invalid condition type, must be one of: ALWAYS, IF_APPROVED, IF_REJECTED")

	// ErrDanglingConnection indicates a connection endpoint that is not a step of the workflow.
	ErrDanglingConnection = errors.New("connection references a step outside the workflow")

	// ErrForeignStep indicates a step, or a role of a step, that does not belong to the aggregate it was loaded with.
	ErrForeignStep = errors.New("step does not belong to the workflow")
)

// ConditionOrDefault returns ALWAYS for an empty condition.
func ConditionOrDefault(condition models.ConditionType) models.ConditionType {
	if condition == "" {
		return models.ConditionAlways
	}

	return condition
}

// ValidateCondition rejects unknown condition types.
func ValidateCondition(condition models.ConditionType) error {
	if !condition.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidConditionType, condition)
	}

	return nil
}

// ValidateConnection checks a new edge between two resolved steps.
func ValidateConnection(from, to *models.Step, condition models.ConditionType) error {
	if from.WorkflowID != to.WorkflowID {
		return fmt.Errorf("%w: %s belongs to %s, %s belongs to %s",
			ErrCrossWorkflowConnection, from.ID, from.WorkflowID, to.ID, to.WorkflowID)
	}

	if from.ID == to.ID {
		return fmt.Errorf("%w: %s", ErrSelfLoopConnection, from.ID)
	}

	return ValidateCondition(condition)
}

// StepRemoval is everything a step delete touches, collected before any row is
// removed. Repositories apply it as one unit.
type StepRemoval struct {
	Step          *models.Step     `json:"step"`
	ConnectionIDs []string         `json:"connection_ids"`
	RoleIDs       []string         `json:"role_ids"`
	Reorder       ordering.Changes `json:"reorder"`
}

// PlanStepRemoval computes the removal of step from its workflow. siblings are
// all steps of the workflow including step itself; connections and roles may
// contain rows unrelated to step, which are ignored.
func PlanStepRemoval(
	step *models.Step,
	siblings []*models.Step,
	connections []*models.Connection,
	roles []*models.Role,
) (*StepRemoval, error) {
	stored := make(map[string]int, len(siblings))

	for _, sibling := range siblings {
		if sibling.WorkflowID != step.WorkflowID {
			return nil, fmt.Errorf("%w: %s", ErrForeignStep, sibling.ID)
		}

		stored[sibling.ID] = sibling.OrderIndex
	}

	sequence := ordering.FromStored(stored)

	err := sequence.Remove(step.ID)
	if err != nil {
		return nil, err
	}

	removal := &StepRemoval{
		Step:          step,
		ConnectionIDs: make([]string, 0),
		RoleIDs:       make([]string, 0),
		Reorder:       sequence.Diff(stored),
	}

	for _, connection := range connections {
		if connection.Touches(step.ID) {
			removal.ConnectionIDs = append(removal.ConnectionIDs, connection.ID)
		}
	}

	for _, role := range roles {
		if role.StepID == step.ID {
			removal.RoleIDs = append(removal.RoleIDs, role.ID)
		}
	}

	return removal, nil
}

// Check verifies every invariant of a composed workflow view and returns all
// violations joined together, or nil.
func Check(view *models.WorkflowView) error {
	var violations []error

	steps := make(map[string]*models.StepView, len(view.Steps))
	indices := make([]int, 0, len(view.Steps))

	for _, step := range view.Steps {
		steps[step.ID] = step
		indices = append(indices, step.OrderIndex)

		if step.WorkflowID != view.ID {
			violations = append(violations, fmt.Errorf("%w: step %s in workflow %s", ErrForeignStep, step.ID, step.WorkflowID))
		}

		for _, role := range step.Roles {
			if role.StepID != step.ID {
				violations = append(violations, fmt.Errorf("%w: role %s listed under step %s", ErrForeignStep, role.ID, step.ID))
			}
		}
	}

	if err := ordering.Verify(indices); err != nil {
		violations = append(violations, err)
	}

	for _, connection := range view.Connections {
		if connection.FromStepID == connection.ToStepID {
			violations = append(violations, fmt.Errorf("%w: connection %s", ErrSelfLoopConnection, connection.ID))
		}

		for _, endpoint := range []string{connection.FromStepID, connection.ToStepID} {
			if _, ok := steps[endpoint]; !ok {
				violations = append(violations, fmt.Errorf("%w: connection %s -> step %s", ErrDanglingConnection, connection.ID, endpoint))
			}
		}

		if !connection.ConditionType.Valid() {
			violations = append(violations, fmt.Errorf("%w: connection %s", ErrInvalidConditionType, connection.ID))
		}
	}

	return errors.Join(violations...)
}
