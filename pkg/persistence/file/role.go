package file

import (
	"context"
	"slices"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// RoleRepository keeps role assignments in the document of the step's workflow.
type RoleRepository struct {
	store *store
}

func roleNotFound(op, id string) error {
	return persistence.NewRoleError(op, id, persistence.ErrRoleNotFound)
}

// ListByStep returns the step's roles in insertion order.
func (rr *RoleRepository) ListByStep(_ context.Context, stepID string) ([]*models.Role, error) {
	rr.store.mu.RLock()
	defer rr.store.mu.RUnlock()

	doc, _, err := rr.store.findStep(stepID)
	if err != nil {
		return nil, err
	}

	roles := make([]*models.Role, 0)

	if doc == nil {
		return roles, nil
	}

	for _, role := range doc.Roles {
		if role.StepID == stepID {
			roles = append(roles, role)
		}
	}

	return roles, nil
}

func (rr *RoleRepository) GetByID(_ context.Context, id string) (*models.Role, error) {
	rr.store.mu.RLock()
	defer rr.store.mu.RUnlock()

	doc, err := rr.findRole(id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, roleNotFound("GetByID", id)
	}

	return doc.role(id), nil
}

func (rr *RoleRepository) Create(_ context.Context, role *models.Role) error {
	id, err := newID()
	if err != nil {
		return err
	}

	rr.store.mu.Lock()
	defer rr.store.mu.Unlock()

	doc, step, err := rr.store.findStep(role.StepID)
	if err != nil {
		return err
	}

	if step == nil {
		return stepNotFound("CreateRole", role.StepID)
	}

	created := *role
	created.ID = id
	created.CreatedAt = time.Now().UTC()

	doc.Roles = append(doc.Roles, &created)

	err = rr.store.save(doc)
	if err != nil {
		return err
	}

	*role = created

	return nil
}

func (rr *RoleRepository) Delete(_ context.Context, id string) error {
	rr.store.mu.Lock()
	defer rr.store.mu.Unlock()

	doc, err := rr.findRole(id)
	if err != nil {
		return err
	}

	if doc == nil {
		return roleNotFound("Delete", id)
	}

	doc.Roles = slices.DeleteFunc(doc.Roles, func(r *models.Role) bool { return r.ID == id })

	return rr.store.save(doc)
}

func (rr *RoleRepository) findRole(id string) (*document, error) {
	if !validID(id) {
		return nil, nil
	}

	return rr.store.find(func(d *document) bool { return d.role(id) != nil })
}
