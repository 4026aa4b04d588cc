package services

import (
	"context"

	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// Role assigns responsible parties to steps.
type Role struct {
	base
}

func NewRole(persistence persistence.Persistence, opts ...Option) *Role {
	return &Role{base: newBase(persistence, opts)}
}

// Add assigns roleName to the step. Duplicate names are allowed.
func (r *Role) Add(ctx context.Context, stepID, roleName string) (*models.Role, error) {
	ctx, span := r.span(ctx, "role.add", attribute.String(otelhelper.StepIDKey, stepID))
	defer span.End()

	err := validateRoleName("AddRole", roleName)
	if err != nil {
		return nil, r.fail(span, err)
	}

	step, err := r.persistence.StepRepository().GetByID(ctx, stepID)
	if err != nil {
		return nil, r.fail(span, err)
	}

	role := &models.Role{StepID: stepID, RoleName: roleName}

	err = r.persistence.RoleRepository().Create(ctx, role)
	if err != nil {
		return nil, r.fail(span, err)
	}

	r.changed(ctx, step.WorkflowID, events.RoleAdded{
		BaseEvent: events.NewBaseEvent(events.RoleAddedEvent, step.WorkflowID),
		Role:      role,
	})

	return role, nil
}

func (r *Role) Delete(ctx context.Context, id string) error {
	ctx, span := r.span(ctx, "role.delete", attribute.String(otelhelper.RoleIDKey, id))
	defer span.End()

	role, err := r.persistence.RoleRepository().GetByID(ctx, id)
	if err != nil {
		return r.fail(span, err)
	}

	step, err := r.persistence.StepRepository().GetByID(ctx, role.StepID)
	if err != nil {
		return r.fail(span, err)
	}

	err = r.persistence.RoleRepository().Delete(ctx, id)
	if err != nil {
		return r.fail(span, err)
	}

	r.changed(ctx, step.WorkflowID, events.RoleDeleted{
		BaseEvent: events.NewBaseEvent(events.RoleDeletedEvent, step.WorkflowID),
		Role:      role,
	})

	return nil
}
