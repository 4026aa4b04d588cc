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

const roleColumns = `id, step_id, role_name, created_at`

func errRoleNotFound(op, id string) error {
	return persistence.NewRoleError(op, id, persistence.ErrRoleNotFound)
}

// RoleRepository handles role assignment database operations.
type RoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *sql.DB, logger *slog.Logger) *RoleRepository {
	return &RoleRepository{db: db, logger: logger}
}

// ListByStep returns the roles assigned to a step in insertion order.
func (r *RoleRepository) ListByStep(ctx context.Context, stepID string) ([]*models.Role, error) {
	if !validID(stepID) {
		return make([]*models.Role, 0), nil
	}

	return queryRoles(ctx, r.db, r.logger,
		`SELECT `+roleColumns+` FROM step_roles WHERE step_id = $1 ORDER BY created_at, id`, stepID)
}

// GetByID returns a role by its ID.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	if !validID(id) {
		return nil, errRoleNotFound("GetByID", id)
	}

	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM step_roles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errRoleNotFound("GetByID", id)
		}

		return nil, fmt.Errorf("failed to scan role: %w", err)
	}

	return role, nil
}

// Create assigns a role to a step. A missing step is reported as step not found.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	if !validID(role.StepID) {
		return errStepNotFound("CreateRole", role.StepID)
	}

	id, err := newID()
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO step_roles (id, step_id, role_name, created_at) VALUES ($1, $2, $3, $4)`,
		id, role.StepID, role.RoleName, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errStepNotFound("CreateRole", role.StepID)
		}

		return fmt.Errorf("failed to insert role: %w", err)
	}

	role.ID = id
	role.CreatedAt = now

	return nil
}

// Delete removes a role assignment.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errRoleNotFound("Delete", id)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM step_roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errRoleNotFound("Delete", id)
	}

	return nil
}

// replaceRoles swaps the full role set of a step inside tx.
func replaceRoles(ctx context.Context, tx *sql.Tx, stepID string, roleNames []string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM step_roles WHERE step_id = $1`, stepID)
	if err != nil {
		return fmt.Errorf("failed to clear step roles: %w", err)
	}

	now := time.Now().UTC()

	for _, name := range roleNames {
		id, err := newID()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO step_roles (id, step_id, role_name, created_at) VALUES ($1, $2, $3, $4)`,
			id, stepID, name, now)
		if err != nil {
			return fmt.Errorf("failed to insert role: %w", err)
		}
	}

	return nil
}

func queryRoles(ctx context.Context, q querier, logger *slog.Logger, query string, args ...any) ([]*models.Role, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}

	defer closeRows(ctx, logger, rows)

	roles := make([]*models.Role, 0)

	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}

		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

func scanRole(row scanner) (*models.Role, error) {
	var role models.Role

	err := row.Scan(&role.ID, &role.StepID, &role.RoleName, &role.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &role, nil
}
