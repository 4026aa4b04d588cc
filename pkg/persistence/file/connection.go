package file

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// ConnectionRepository keeps connections in the document of their from step's workflow.
type ConnectionRepository struct {
	store *store
}

func connectionNotFound(op, id string) error {
	return persistence.NewConnectionError(op, id, persistence.ErrConnectionNotFound)
}

func sortConnections(connections []*models.Connection) []*models.Connection {
	sorted := append(make([]*models.Connection, 0, len(connections)), connections...)
	slices.SortFunc(sorted, func(a, b *models.Connection) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return sorted
}

func (cr *ConnectionRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.Connection, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	doc, err := cr.store.load(workflowID)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return make([]*models.Connection, 0), nil
	}

	return sortConnections(doc.Connections), nil
}

func (cr *ConnectionRepository) ListFromStep(_ context.Context, stepID string) ([]*models.Connection, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	doc, _, err := cr.store.findStep(stepID)
	if err != nil {
		return nil, err
	}

	connections := make([]*models.Connection, 0)

	if doc == nil {
		return connections, nil
	}

	for _, connection := range doc.Connections {
		if connection.FromStepID == stepID {
			connections = append(connections, connection)
		}
	}

	return sortConnections(connections), nil
}

func (cr *ConnectionRepository) GetByID(_ context.Context, id string) (*models.Connection, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	doc, err := cr.findConnection(id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, connectionNotFound("GetByID", id)
	}

	return doc.connection(id), nil
}

// Create stores a connection. Both endpoints must exist.
func (cr *ConnectionRepository) Create(_ context.Context, connection *models.Connection) error {
	id, err := newID()
	if err != nil {
		return err
	}

	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	doc, from, err := cr.store.findStep(connection.FromStepID)
	if err != nil {
		return err
	}

	if from == nil {
		return stepNotFound("CreateConnection", connection.FromStepID)
	}

	if doc.step(connection.ToStepID) == nil {
		_, to, err := cr.store.findStep(connection.ToStepID)
		if err != nil {
			return err
		}

		if to == nil {
			return stepNotFound("CreateConnection", connection.ToStepID)
		}
	}

	created := *connection
	created.ID = id
	created.CreatedAt = time.Now().UTC()

	doc.Connections = append(doc.Connections, &created)

	err = cr.store.save(doc)
	if err != nil {
		return err
	}

	*connection = created

	return nil
}

func (cr *ConnectionRepository) UpdateCondition(
	_ context.Context,
	id string,
	condition models.ConditionType,
) (*models.Connection, error) {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	doc, err := cr.findConnection(id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, connectionNotFound("UpdateCondition", id)
	}

	connection := doc.connection(id)
	connection.ConditionType = condition

	err = cr.store.save(doc)
	if err != nil {
		return nil, err
	}

	return connection, nil
}

func (cr *ConnectionRepository) Delete(_ context.Context, id string) error {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	doc, err := cr.findConnection(id)
	if err != nil {
		return err
	}

	if doc == nil {
		return connectionNotFound("Delete", id)
	}

	doc.Connections = slices.DeleteFunc(doc.Connections, func(c *models.Connection) bool { return c.ID == id })

	return cr.store.save(doc)
}

func (cr *ConnectionRepository) findConnection(id string) (*document, error) {
	if !validID(id) {
		return nil, nil
	}

	return cr.store.find(func(d *document) bool { return d.connection(id) != nil })
}
