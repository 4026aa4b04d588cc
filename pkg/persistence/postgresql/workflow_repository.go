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

const workflowColumns = `id, name, description, is_active, created_at, updated_at`

func errWorkflowNotFound(op, id string) error {
	return persistence.NewWorkflowError(op, id, persistence.ErrWorkflowNotFound)
}

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// List returns all workflows, newest first.
func (r *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns a workflow by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	if !validID(id) {
		return nil, errWorkflowNotFound("GetByID", id)
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errWorkflowNotFound("GetByID", id)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Create inserts a new workflow.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.Workflow) error {
	id, err := newID()
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		id,
		workflow.Name,
		workflow.Description,
		workflow.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}

	workflow.ID = id
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	return nil
}

// Update writes name, description and is_active of an existing workflow.
func (r *WorkflowRepository) Update(ctx context.Context, workflow *models.Workflow) error {
	if !validID(workflow.ID) {
		return errWorkflowNotFound("Update", workflow.ID)
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE workflows
		SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at, updated_at
	`,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.IsActive,
		time.Now().UTC(),
	)

	err := row.Scan(&workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errWorkflowNotFound("Update", workflow.ID)
		}

		return fmt.Errorf("failed to update workflow: %w", err)
	}

	return nil
}

// Delete removes a workflow. Steps, connections and roles go with it through ON DELETE CASCADE.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errWorkflowNotFound("Delete", id)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errWorkflowNotFound("Delete", id)
	}

	return nil
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	var workflow models.Workflow

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.IsActive,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}
