package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

const connectionColumns = `id, from_step_id, to_step_id, condition_type, created_at`

func errConnectionNotFound(op, id string) error {
	return persistence.NewConnectionError(op, id, persistence.ErrConnectionNotFound)
}

// ConnectionRepository handles connection-related database operations.
type ConnectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *sql.DB, logger *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, logger: logger}
}

// ListByWorkflow returns the connections leaving steps of the workflow.
func (r *ConnectionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Connection, error) {
	if !validID(workflowID) {
		return make([]*models.Connection, 0), nil
	}

	return queryConnections(ctx, r.db, r.logger, `
		SELECT c.id, c.from_step_id, c.to_step_id, c.condition_type, c.created_at
		FROM step_connections c
		JOIN workflow_steps s ON s.id = c.from_step_id
		WHERE s.workflow_id = $1
		ORDER BY c.created_at, c.id
	`, workflowID)
}

// ListFromStep returns the outgoing connections of a step.
func (r *ConnectionRepository) ListFromStep(ctx context.Context, stepID string) ([]*models.Connection, error) {
	if !validID(stepID) {
		return make([]*models.Connection, 0), nil
	}

	return queryConnections(ctx, r.db, r.logger,
		`SELECT `+connectionColumns+` FROM step_connections WHERE from_step_id = $1 ORDER BY created_at, id`, stepID)
}

// GetByID returns a connection by its ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	if !validID(id) {
		return nil, errConnectionNotFound("GetByID", id)
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM step_connections WHERE id = $1`, id)

	connection, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errConnectionNotFound("GetByID", id)
		}

		return nil, fmt.Errorf("failed to scan connection: %w", err)
	}

	return connection, nil
}

// Create inserts a new connection. A missing endpoint is reported as step not found.
func (r *ConnectionRepository) Create(ctx context.Context, connection *models.Connection) error {
	for _, stepID := range []string{connection.FromStepID, connection.ToStepID} {
		if !validID(stepID) {
			return errStepNotFound("CreateConnection", stepID)
		}
	}

	id, err := newID()
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO step_connections (id, from_step_id, to_step_id, condition_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		id,
		connection.FromStepID,
		connection.ToStepID,
		connection.ConditionType,
		now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errStepNotFound("CreateConnection", connection.FromStepID)
		}

		return fmt.Errorf("failed to insert connection: %w", err)
	}

	connection.ID = id
	connection.CreatedAt = now

	return nil
}

// UpdateCondition changes the condition of a connection and returns the stored row.
func (r *ConnectionRepository) UpdateCondition(
	ctx context.Context,
	id string,
	condition models.ConditionType,
) (*models.Connection, error) {
	if !validID(id) {
		return nil, errConnectionNotFound("UpdateCondition", id)
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE step_connections SET condition_type = $2 WHERE id = $1 RETURNING `+connectionColumns, id, condition)

	connection, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errConnectionNotFound("UpdateCondition", id)
		}

		return nil, fmt.Errorf("failed to update connection: %w", err)
	}

	return connection, nil
}

// Delete removes a connection.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errConnectionNotFound("Delete", id)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM step_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errConnectionNotFound("Delete", id)
	}

	return nil
}

func queryConnections(
	ctx context.Context,
	q querier,
	logger *slog.Logger,
	query string,
	args ...any,
) ([]*models.Connection, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	defer closeRows(ctx, logger, rows)

	connections := make([]*models.Connection, 0)

	for rows.Next() {
		connection, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		connections = append(connections, connection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

func scanConnection(row scanner) (*models.Connection, error) {
	var connection models.Connection

	err := row.Scan(
		&connection.ID,
		&connection.FromStepID,
		&connection.ToStepID,
		&connection.ConditionType,
		&connection.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &connection, nil
}
