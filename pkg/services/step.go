package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// ErrStepNotFound is returned when a step is not found.
var ErrStepNotFound = persistence.ErrStepNotFound

// Step manages the steps of a workflow, their ordering and their roles.
type Step struct {
	base
}

func NewStep(persistence persistence.Persistence, opts ...Option) *Step {
	return &Step{base: newBase(persistence, opts)}
}

type CreateStepRequest struct {
	Name        string
	Description string
	StepType    models.StepType
}

// UpdateStepRequest is a partial update. A non-nil OrderIndex moves the step
// and re-sequences its siblings; a non-nil Roles replaces every role of the step.
type UpdateStepRequest struct {
	Name        *string
	Description *string
	StepType    *models.StepType
	OrderIndex  *int
	Roles       *[]string
}

func validateStepName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError(op, "STEP_NAME_REQUIRED", "", ErrStepNameRequired)
	}

	return nil
}

func validateStepType(op string, stepType models.StepType) error {
	if !stepType.Valid() {
		return NewValidationError(op, "INVALID_STEP_TYPE", fmt.Sprintf("invalid step type %q", stepType), ErrInvalidStepType)
	}

	return nil
}

func validateRoleName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError(op, "ROLE_NAME_REQUIRED", "", ErrRoleNameRequired)
	}

	return nil
}

func (r UpdateStepRequest) validate() error {
	if r.Name != nil {
		if err := validateStepName("UpdateStep", *r.Name); err != nil {
			return err
		}
	}

	if r.StepType != nil {
		if err := validateStepType("UpdateStep", *r.StepType); err != nil {
			return err
		}
	}

	if r.OrderIndex != nil && *r.OrderIndex < 1 {
		return NewValidationError("UpdateStep", "INVALID_ORDER_INDEX",
			fmt.Sprintf("order index must be positive, got %d", *r.OrderIndex), ordering.ErrIndexOutOfRange)
	}

	if r.Roles != nil {
		for _, name := range *r.Roles {
			if err := validateRoleName("UpdateStep", name); err != nil {
				return err
			}
		}
	}

	return nil
}

// Add appends a step to the workflow; its order_index is the current maximum + 1.
func (s *Step) Add(ctx context.Context, workflowID string, req CreateStepRequest) (*models.Step, error) {
	ctx, span := s.span(ctx, "step.add",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.StepTypeKey, string(req.StepType)))
	defer span.End()

	err := validateStepName("AddStep", req.Name)
	if err != nil {
		return nil, s.fail(span, err)
	}

	err = validateStepType("AddStep", req.StepType)
	if err != nil {
		return nil, s.fail(span, err)
	}

	step := &models.Step{
		WorkflowID:  workflowID,
		Name:        req.Name,
		Description: req.Description,
		StepType:    req.StepType,
	}

	err = s.persistence.StepRepository().Append(ctx, step)
	if err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.String(otelhelper.StepIDKey, step.ID))

	s.changed(ctx, workflowID, events.StepAdded{
		BaseEvent: events.NewBaseEvent(events.StepAddedEvent, workflowID),
		Step:      step,
	})

	return step, nil
}

// Update applies the supplied fields of req to the step.
func (s *Step) Update(ctx context.Context, id string, req UpdateStepRequest) (*models.Step, error) {
	ctx, span := s.span(ctx, "step.update", attribute.String(otelhelper.StepIDKey, id))
	defer span.End()

	err := req.validate()
	if err != nil {
		return nil, s.fail(span, err)
	}

	repo := s.persistence.StepRepository()

	step, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, step.WorkflowID))

	if req.Name != nil {
		step.Name = *req.Name
	}

	if req.Description != nil {
		step.Description = *req.Description
	}

	if req.StepType != nil {
		step.StepType = *req.StepType
	}

	previous := step.OrderIndex

	var roles []string
	if req.Roles != nil {
		roles = make([]string, 0, len(*req.Roles))
		roles = append(roles, *req.Roles...)
	}

	err = repo.Update(ctx, step, req.OrderIndex, roles)
	if err != nil {
		return nil, s.fail(span, err)
	}

	reordered := req.OrderIndex != nil && step.OrderIndex != previous

	event := events.StepUpdated{
		BaseEvent: events.NewBaseEvent(events.StepUpdatedEvent, step.WorkflowID),
		Step:      step,
		Reordered: reordered,
	}

	if roles != nil {
		event.Roles, err = s.persistence.RoleRepository().ListByStep(ctx, step.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to load replaced roles", "step_id", step.ID, "error", err)
		}
	}

	s.changed(ctx, step.WorkflowID, event)

	return step, nil
}

// Delete removes the step, its connections and roles, and compacts the
// order_index of the remaining steps.
func (s *Step) Delete(ctx context.Context, id string) error {
	ctx, span := s.span(ctx, "step.delete", attribute.String(otelhelper.StepIDKey, id))
	defer span.End()

	removal, err := s.persistence.StepRepository().Delete(ctx, id)
	if err != nil {
		return s.fail(span, err)
	}

	workflowID := removal.Step.WorkflowID

	span.SetAttributes(
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.Int("stepflow.step.removed_connections", len(removal.ConnectionIDs)),
		attribute.Int("stepflow.step.removed_roles", len(removal.RoleIDs)),
	)

	s.changed(ctx, workflowID, events.StepDeleted{
		BaseEvent: events.NewBaseEvent(events.StepDeletedEvent, workflowID),
		Removal:   removal,
	})

	return nil
}

// FetchWithConnections returns the step with its roles and outgoing connections.
func (s *Step) FetchWithConnections(ctx context.Context, id string) (*models.StepDetail, error) {
	ctx, span := s.span(ctx, "step.fetch", attribute.String(otelhelper.StepIDKey, id))
	defer span.End()

	step, err := s.persistence.StepRepository().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	roles, err := s.persistence.RoleRepository().ListByStep(ctx, id)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to list roles: %w", err))
	}

	connections, err := s.persistence.ConnectionRepository().ListFromStep(ctx, id)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to list connections: %w", err))
	}

	return &models.StepDetail{Step: *step, Roles: roles, Connections: connections}, nil
}

// ListRoles returns the roles of an existing step.
func (s *Step) ListRoles(ctx context.Context, id string) ([]*models.Role, error) {
	_, err := s.persistence.StepRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	roles, err := s.persistence.RoleRepository().ListByStep(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}
