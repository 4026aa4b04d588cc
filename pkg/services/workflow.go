package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/stepflow/pkg/cache"
	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	base
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...Option) *Workflow {
	return &Workflow{base: newBase(persistence, opts)}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateWorkflowRequest holds the fields of a new workflow. IsActive defaults to true.
type CreateWorkflowRequest struct {
	Name        string
	Description string
	IsActive    *bool
}

// UpdateWorkflowRequest is a partial update; nil fields keep their stored value.
type UpdateWorkflowRequest struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func validateWorkflowName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError(op, "WORKFLOW_NAME_REQUIRED", "", ErrWorkflowNameRequired)
	}

	return nil
}

// List returns every workflow, newest first.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	ctx, span := w.span(ctx, "workflow.list")
	defer span.End()

	workflows, err := w.persistence.WorkflowRepository().List(ctx)
	if err != nil {
		return nil, w.fail(span, fmt.Errorf("failed to list workflows: %w", err))
	}

	return workflows, nil
}

// FetchByID retrieves a workflow without its steps.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, id)
}

// View returns the composed workflow: steps ordered by order_index with their
// roles, and every connection of the workflow.
func (w *Workflow) View(ctx context.Context, id string) (*models.WorkflowView, error) {
	ctx, span := w.span(ctx, "workflow.view", attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	cached, found, err := w.cache.Get(ctx, id)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to read cached workflow view", "workflow_id", id, "error", err)
	} else if found {
		span.SetAttributes(attribute.Bool("stepflow.cache.hit", true))

		return cached, nil
	}

	// The generation is read first so a mutation landing while the view is
	// composed keeps it out of the cache.
	generation, generationErr := w.cache.Generation(ctx, id)
	if generationErr != nil {
		w.logger.WarnContext(ctx, "Failed to read workflow view generation", "workflow_id", id, "error", generationErr)
	}

	view, err := ComposeView(ctx, w.persistence, id)
	if err != nil {
		return nil, w.fail(span, err)
	}

	if generationErr != nil {
		return view, nil
	}

	err = w.cache.Set(ctx, view, generation)

	switch {
	case errors.Is(err, cache.ErrStale):
		w.logger.DebugContext(ctx, "Workflow changed while composing view, not caching", "workflow_id", id)
	case err != nil:
		w.logger.WarnContext(ctx, "Failed to cache workflow view", "workflow_id", id, "error", err)
	}

	return view, nil
}

// ComposeView reads a workflow view straight from the store.
func ComposeView(ctx context.Context, p persistence.Persistence, id string) (*models.WorkflowView, error) {
	workflow, err := p.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	steps, err := p.StepRepository().ListByWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}

	view := &models.WorkflowView{
		Workflow: *workflow,
		Steps:    make([]*models.StepView, 0, len(steps)),
	}

	for _, step := range steps {
		roles, err := p.RoleRepository().ListByStep(ctx, step.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list roles of step %s: %w", step.ID, err)
		}

		view.Steps = append(view.Steps, &models.StepView{Step: *step, Roles: roles})
	}

	view.Connections, err = p.ConnectionRepository().ListByWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	return view, nil
}

// Create stores a new, empty workflow.
func (w *Workflow) Create(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := w.span(ctx, "workflow.create", attribute.String(otelhelper.WorkflowNameKey, req.Name))
	defer span.End()

	err := validateWorkflowName("Create", req.Name)
	if err != nil {
		return nil, w.fail(span, err)
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	if req.IsActive != nil {
		workflow.IsActive = *req.IsActive
	}

	err = w.persistence.WorkflowRepository().Create(ctx, workflow)
	if err != nil {
		return nil, w.fail(span, fmt.Errorf("failed to create workflow: %w", err))
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, workflow.ID))

	w.changed(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, workflow.ID),
		Workflow:  workflow,
	})

	return workflow, nil
}

// Update applies the supplied fields; is_active toggles freely.
func (w *Workflow) Update(ctx context.Context, id string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := w.span(ctx, "workflow.update", attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if req.Name != nil {
		err := validateWorkflowName("Update", *req.Name)
		if err != nil {
			return nil, w.fail(span, err)
		}
	}

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, w.fail(span, err)
	}

	if req.Name != nil {
		workflow.Name = *req.Name
	}

	if req.Description != nil {
		workflow.Description = *req.Description
	}

	if req.IsActive != nil {
		workflow.IsActive = *req.IsActive
	}

	err = w.persistence.WorkflowRepository().Update(ctx, workflow)
	if err != nil {
		return nil, w.fail(span, err)
	}

	w.changed(ctx, id, events.WorkflowUpdated{
		BaseEvent: events.NewBaseEvent(events.WorkflowUpdatedEvent, id),
		Workflow:  workflow,
	})

	return workflow, nil
}

// Delete removes the workflow with all of its steps, connections and roles.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	ctx, span := w.span(ctx, "workflow.delete", attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		return w.fail(span, err)
	}

	w.changed(ctx, id, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id),
	})

	return nil
}
