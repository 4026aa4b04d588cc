package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/lib/pq"
)

const stepColumns = `id, workflow_id, name, description, step_type, order_index, created_at, updated_at`

func errStepNotFound(op, id string) error {
	return persistence.NewStepError(op, id, persistence.ErrStepNotFound)
}

// StepRepository handles step rows and the order_index of every workflow.
type StepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStepRepository creates a new step repository.
func NewStepRepository(db *sql.DB, logger *slog.Logger) *StepRepository {
	return &StepRepository{db: db, logger: logger}
}

// ListByWorkflow returns the steps of a workflow ordered by order_index.
func (r *StepRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error) {
	if !validID(workflowID) {
		return make([]*models.Step, 0), nil
	}

	return r.listByWorkflow(ctx, r.db, workflowID)
}

// GetByID returns a step by its ID.
func (r *StepRepository) GetByID(ctx context.Context, id string) (*models.Step, error) {
	return getStep(ctx, r.db, "GetByID", id)
}

// Append inserts the step at the end of its workflow.
func (r *StepRepository) Append(ctx context.Context, step *models.Step) error {
	id, err := newID()
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	var orderIndex int

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := lockWorkflow(ctx, tx, step.WorkflowID)
		if err != nil {
			return err
		}

		stored, err := r.loadOrdering(ctx, tx, step.WorkflowID)
		if err != nil {
			return err
		}

		sequence := ordering.FromStored(stored)
		orderIndex = sequence.Append(id)

		changes := sequence.Diff(stored)
		delete(changes, id)

		err = r.applyOrdering(ctx, tx, changes)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO workflow_steps (id, workflow_id, name, description, step_type, order_index, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			id,
			step.WorkflowID,
			step.Name,
			step.Description,
			step.StepType,
			orderIndex,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	step.ID = id
	step.OrderIndex = orderIndex
	step.CreatedAt = now
	step.UpdatedAt = now

	return nil
}

// Update writes the step fields, moves the step when orderIndex is set and
// replaces the roles when roles is non-nil.
func (r *StepRepository) Update(ctx context.Context, step *models.Step, orderIndex *int, roles []string) error {
	now := time.Now().UTC()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getStep(ctx, tx, "Update", step.ID)
		if err != nil {
			return err
		}

		err = lockWorkflow(ctx, tx, current.WorkflowID)
		if err != nil {
			return err
		}

		newIndex := current.OrderIndex

		if orderIndex != nil {
			stored, err := r.loadOrdering(ctx, tx, current.WorkflowID)
			if err != nil {
				return err
			}

			sequence := ordering.FromStored(stored)

			err = sequence.Move(step.ID, *orderIndex)
			if err != nil {
				return err
			}

			err = r.applyOrdering(ctx, tx, sequence.Diff(stored))
			if err != nil {
				return err
			}

			newIndex = *orderIndex
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE workflow_steps
			SET name = $2, description = $3, step_type = $4, updated_at = $5
			WHERE id = $1
		`,
			step.ID,
			step.Name,
			step.Description,
			step.StepType,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to update step: %w", err)
		}

		if roles != nil {
			err = replaceRoles(ctx, tx, step.ID, roles)
			if err != nil {
				return err
			}
		}

		step.WorkflowID = current.WorkflowID
		step.OrderIndex = newIndex
		step.CreatedAt = current.CreatedAt
		step.UpdatedAt = now

		return nil
	})
}

// Delete removes a step, every connection touching it and its roles, then
// compacts the remaining order_index values. Everything runs in one transaction.
func (r *StepRepository) Delete(ctx context.Context, id string) (*graph.StepRemoval, error) {
	var removal *graph.StepRemoval

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		step, err := getStep(ctx, tx, "Delete", id)
		if err != nil {
			return err
		}

		err = lockWorkflow(ctx, tx, step.WorkflowID)
		if err != nil {
			return err
		}

		siblings, err := r.listByWorkflow(ctx, tx, step.WorkflowID)
		if err != nil {
			return err
		}

		connections, err := queryConnections(ctx, tx, r.logger,
			`SELECT `+connectionColumns+` FROM step_connections WHERE from_step_id = $1 OR to_step_id = $1`, id)
		if err != nil {
			return err
		}

		roles, err := queryRoles(ctx, tx, r.logger, `SELECT `+roleColumns+` FROM step_roles WHERE step_id = $1`, id)
		if err != nil {
			return err
		}

		removal, err = graph.PlanStepRemoval(step, siblings, connections, roles)
		if err != nil {
			if errors.Is(err, ordering.ErrUnknownStep) {
				return errStepNotFound("Delete", id)
			}

			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM step_connections WHERE id = ANY($1::uuid[])`, pq.Array(removal.ConnectionIDs))
		if err != nil {
			return fmt.Errorf("failed to delete step connections: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM step_roles WHERE id = ANY($1::uuid[])`, pq.Array(removal.RoleIDs))
		if err != nil {
			return fmt.Errorf("failed to delete step roles: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM workflow_steps WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete step: %w", err)
		}

		affected, err := rowsAffected(result)
		if err != nil {
			return err
		}

		if affected == 0 {
			return errStepNotFound("Delete", id)
		}

		return r.applyOrdering(ctx, tx, removal.Reorder)
	})
	if err != nil {
		return nil, err
	}

	return removal, nil
}

// Resequence rewrites the workflow's order_index values to 1..N.
func (r *StepRepository) Resequence(ctx context.Context, workflowID string) (ordering.Changes, error) {
	var changes ordering.Changes

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := lockWorkflow(ctx, tx, workflowID)
		if err != nil {
			return err
		}

		stored, err := r.loadOrdering(ctx, tx, workflowID)
		if err != nil {
			return err
		}

		changes = ordering.FromStored(stored).Diff(stored)

		return r.applyOrdering(ctx, tx, changes)
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

func (r *StepRepository) listByWorkflow(ctx context.Context, q querier, workflowID string) ([]*models.Step, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = $1 ORDER BY order_index, id`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow steps: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	steps := make([]*models.Step, 0)

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

// loadOrdering returns the stored order_index of every step in the workflow.
func (r *StepRepository) loadOrdering(ctx context.Context, tx *sql.Tx, workflowID string) (map[string]int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, order_index FROM workflow_steps WHERE workflow_id = $1`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step ordering: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	stored := make(map[string]int)

	for rows.Next() {
		var (
			id         string
			orderIndex int
		)

		if err := rows.Scan(&id, &orderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan step ordering: %w", err)
		}

		stored[id] = orderIndex
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating step ordering: %w", err)
	}

	return stored, nil
}

func (r *StepRepository) applyOrdering(ctx context.Context, tx *sql.Tx, changes ordering.Changes) error {
	for id, orderIndex := range changes {
		_, err := tx.ExecContext(ctx, `UPDATE workflow_steps SET order_index = $2 WHERE id = $1`, id, orderIndex)
		if err != nil {
			return fmt.Errorf("failed to update order of step %s: %w", id, err)
		}
	}

	return nil
}

func getStep(ctx context.Context, q querier, op, id string) (*models.Step, error) {
	if !validID(id) {
		return nil, errStepNotFound(op, id)
	}

	step, err := scanStep(q.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStepNotFound(op, id)
		}

		return nil, fmt.Errorf("failed to scan step: %w", err)
	}

	return step, nil
}

func scanStep(row scanner) (*models.Step, error) {
	var step models.Step

	err := row.Scan(
		&step.ID,
		&step.WorkflowID,
		&step.Name,
		&step.Description,
		&step.StepType,
		&step.OrderIndex,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &step, nil
}
