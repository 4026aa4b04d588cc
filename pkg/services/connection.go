package services

import (
	"context"

	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// ErrConnectionNotFound is returned when a connection is not found.
var ErrConnectionNotFound = persistence.ErrConnectionNotFound

// Connection manages the conditional edges between steps.
type Connection struct {
	base
}

func NewConnection(persistence persistence.Persistence, opts ...Option) *Connection {
	return &Connection{base: newBase(persistence, opts)}
}

// CreateConnectionRequest describes a new edge. An empty ConditionType means ALWAYS.
type CreateConnectionRequest struct {
	FromStepID    string
	ToStepID      string
	ConditionType models.ConditionType
}

// Create resolves both endpoints, checks they form a valid edge and stores it.
func (c *Connection) Create(ctx context.Context, req CreateConnectionRequest) (*models.Connection, error) {
	ctx, span := c.span(ctx, "connection.create",
		attribute.String("stepflow.connection.from", req.FromStepID),
		attribute.String("stepflow.connection.to", req.ToStepID))
	defer span.End()

	steps := c.persistence.StepRepository()

	from, err := steps.GetByID(ctx, req.FromStepID)
	if err != nil {
		return nil, c.fail(span, err)
	}

	to, err := steps.GetByID(ctx, req.ToStepID)
	if err != nil {
		return nil, c.fail(span, err)
	}

	condition := graph.ConditionOrDefault(req.ConditionType)

	err = graph.ValidateConnection(from, to, condition)
	if err != nil {
		return nil, c.fail(span, err)
	}

	connection := &models.Connection{
		FromStepID:    from.ID,
		ToStepID:      to.ID,
		ConditionType: condition,
	}

	err = c.persistence.ConnectionRepository().Create(ctx, connection)
	if err != nil {
		return nil, c.fail(span, err)
	}

	span.SetAttributes(
		attribute.String(otelhelper.ConnectionIDKey, connection.ID),
		attribute.String(otelhelper.WorkflowIDKey, from.WorkflowID),
	)

	c.changed(ctx, from.WorkflowID, events.ConnectionCreated{
		BaseEvent:  events.NewBaseEvent(events.ConnectionCreatedEvent, from.WorkflowID),
		Connection: connection,
	})

	return connection, nil
}

// Update changes the condition of a connection. Endpoints never change.
func (c *Connection) Update(ctx context.Context, id string, condition models.ConditionType) (*models.Connection, error) {
	ctx, span := c.span(ctx, "connection.update", attribute.String(otelhelper.ConnectionIDKey, id))
	defer span.End()

	err := graph.ValidateCondition(condition)
	if err != nil {
		return nil, c.fail(span, err)
	}

	connections := c.persistence.ConnectionRepository()

	existing, err := connections.GetByID(ctx, id)
	if err != nil {
		return nil, c.fail(span, err)
	}

	// Resolved before writing so a failed lookup leaves the condition untouched.
	workflowID, err := c.workflowOf(ctx, existing)
	if err != nil {
		return nil, c.fail(span, err)
	}

	connection, err := connections.UpdateCondition(ctx, id, condition)
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.changed(ctx, workflowID, events.ConnectionUpdated{
		BaseEvent:  events.NewBaseEvent(events.ConnectionUpdatedEvent, workflowID),
		Connection: connection,
	})

	return connection, nil
}

func (c *Connection) Delete(ctx context.Context, id string) error {
	ctx, span := c.span(ctx, "connection.delete", attribute.String(otelhelper.ConnectionIDKey, id))
	defer span.End()

	connection, err := c.persistence.ConnectionRepository().GetByID(ctx, id)
	if err != nil {
		return c.fail(span, err)
	}

	workflowID, err := c.workflowOf(ctx, connection)
	if err != nil {
		return c.fail(span, err)
	}

	err = c.persistence.ConnectionRepository().Delete(ctx, id)
	if err != nil {
		return c.fail(span, err)
	}

	c.changed(ctx, workflowID, events.ConnectionDeleted{
		BaseEvent:  events.NewBaseEvent(events.ConnectionDeletedEvent, workflowID),
		Connection: connection,
	})

	return nil
}

func (c *Connection) workflowOf(ctx context.Context, connection *models.Connection) (string, error) {
	from, err := c.persistence.StepRepository().GetByID(ctx, connection.FromStepID)
	if err != nil {
		return "", err
	}

	return from.WorkflowID, nil
}
