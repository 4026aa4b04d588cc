// Package persistence provides the data storage abstraction for workflows, steps, connections and roles.
package persistence

import (
	"context"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	StepRepository() StepRepository
	ConnectionRepository() ConnectionRepository
	RoleRepository() RoleRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows. Delete cascades to steps, and through
// them to connections and roles.
type WorkflowRepository interface {
	// List returns every workflow ordered by created_at descending.
	List(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// Create assigns ID and timestamps.
	Create(ctx context.Context, workflow *models.Workflow) error
	Update(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// StepRepository stores steps and owns their ordering.
type StepRepository interface {
	// ListByWorkflow returns the workflow's steps ordered by order_index.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error)
	GetByID(ctx context.Context, id string) (*models.Step, error)
	// Append assigns ID, timestamps and order_index = max + 1.
	Append(ctx context.Context, step *models.Step) error
	// Update writes the name, description and step type of step. A non-nil
	// orderIndex moves the step there and re-sequences the siblings; step.OrderIndex
	// is ignored on input. A non-nil roles slice replaces the step's roles.
	Update(ctx context.Context, step *models.Step, orderIndex *int, roles []string) error
	// Delete removes the step with its connections and roles and compacts the
	// remaining order_index values, atomically.
	Delete(ctx context.Context, id string) (*graph.StepRemoval, error)
	// Resequence rewrites the workflow's order_index values to 1..N.
	Resequence(ctx context.Context, workflowID string) (ordering.Changes, error)
}

// ConnectionRepository stores connections between steps.
type ConnectionRepository interface {
	// ListByWorkflow returns connections whose from step belongs to the workflow.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Connection, error)
	ListFromStep(ctx context.Context, stepID string) ([]*models.Connection, error)
	GetByID(ctx context.Context, id string) (*models.Connection, error)
	Create(ctx context.Context, connection *models.Connection) error
	UpdateCondition(ctx context.Context, id string, condition models.ConditionType) (*models.Connection, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepository stores role assignments.
type RoleRepository interface {
	ListByStep(ctx context.Context, stepID string) ([]*models.Role, error)
	GetByID(ctx context.Context, id string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
}
