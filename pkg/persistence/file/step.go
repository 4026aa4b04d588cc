package file

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/dukex/stepflow/pkg/persistence"
)

// StepRepository keeps the steps of each workflow document and their ordering.
type StepRepository struct {
	store *store
}

func stepNotFound(op, id string) error {
	return persistence.NewStepError(op, id, persistence.ErrStepNotFound)
}

// ListByWorkflow returns the workflow's steps ordered by order_index.
func (sr *StepRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.Step, error) {
	sr.store.mu.RLock()
	defer sr.store.mu.RUnlock()

	doc, err := sr.store.load(workflowID)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return make([]*models.Step, 0), nil
	}

	steps := slices.Clone(doc.Steps)
	slices.SortFunc(steps, func(a, b *models.Step) int {
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex - b.OrderIndex
		}

		return strings.Compare(a.ID, b.ID)
	})

	return steps, nil
}

func (sr *StepRepository) GetByID(_ context.Context, id string) (*models.Step, error) {
	sr.store.mu.RLock()
	defer sr.store.mu.RUnlock()

	_, step, err := sr.store.findStep(id)
	if err != nil {
		return nil, err
	}

	if step == nil {
		return nil, stepNotFound("GetByID", id)
	}

	return step, nil
}

// Append adds the step at the end of its workflow.
func (sr *StepRepository) Append(_ context.Context, step *models.Step) error {
	id, err := newID()
	if err != nil {
		return err
	}

	sr.store.mu.Lock()
	defer sr.store.mu.Unlock()

	doc, err := sr.store.load(step.WorkflowID)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.NewWorkflowError("Append", step.WorkflowID, persistence.ErrWorkflowNotFound)
	}

	stored := doc.storedOrdering()
	sequence := ordering.FromStored(stored)

	now := time.Now().UTC()

	appended := *step
	appended.ID = id
	appended.OrderIndex = sequence.Append(id)
	appended.CreatedAt = now
	appended.UpdatedAt = now

	doc.applyOrdering(sequence.Diff(stored))
	doc.Steps = append(doc.Steps, &appended)

	err = sr.store.save(doc)
	if err != nil {
		return err
	}

	*step = appended

	return nil
}

// Update writes the step fields, moves the step when orderIndex is set and
// replaces the roles when roles is non-nil.
func (sr *StepRepository) Update(_ context.Context, step *models.Step, orderIndex *int, roles []string) error {
	sr.store.mu.Lock()
	defer sr.store.mu.Unlock()

	doc, current, err := sr.store.findStep(step.ID)
	if err != nil {
		return err
	}

	if current == nil {
		return stepNotFound("Update", step.ID)
	}

	if orderIndex != nil {
		stored := doc.storedOrdering()
		sequence := ordering.FromStored(stored)

		err = sequence.Move(step.ID, *orderIndex)
		if err != nil {
			return err
		}

		doc.applyOrdering(sequence.Diff(stored))
	}

	now := time.Now().UTC()

	current.Name = step.Name
	current.Description = step.Description
	current.StepType = step.StepType
	current.UpdatedAt = now

	if roles != nil {
		doc.Roles = slices.DeleteFunc(doc.Roles, func(role *models.Role) bool { return role.StepID == step.ID })

		for _, name := range roles {
			roleID, err := newID()
			if err != nil {
				return err
			}

			doc.Roles = append(doc.Roles, &models.Role{ID: roleID, StepID: step.ID, RoleName: name, CreatedAt: now})
		}
	}

	err = sr.store.save(doc)
	if err != nil {
		return err
	}

	*step = *current

	return nil
}

// Delete removes a step with every connection touching it and its roles, and
// compacts the remaining order_index values in the same document write.
func (sr *StepRepository) Delete(_ context.Context, id string) (*graph.StepRemoval, error) {
	sr.store.mu.Lock()
	defer sr.store.mu.Unlock()

	doc, step, err := sr.store.findStep(id)
	if err != nil {
		return nil, err
	}

	if step == nil {
		return nil, stepNotFound("Delete", id)
	}

	removal, err := graph.PlanStepRemoval(step, doc.Steps, doc.Connections, doc.Roles)
	if err != nil {
		if errors.Is(err, ordering.ErrUnknownStep) {
			return nil, stepNotFound("Delete", id)
		}

		return nil, err
	}

	doc.Steps = slices.DeleteFunc(doc.Steps, func(s *models.Step) bool { return s.ID == id })
	doc.Connections = slices.DeleteFunc(doc.Connections, func(c *models.Connection) bool {
		return slices.Contains(removal.ConnectionIDs, c.ID)
	})
	doc.Roles = slices.DeleteFunc(doc.Roles, func(r *models.Role) bool {
		return slices.Contains(removal.RoleIDs, r.ID)
	})
	doc.applyOrdering(removal.Reorder)

	err = sr.store.save(doc)
	if err != nil {
		return nil, err
	}

	return removal, nil
}

// Resequence rewrites the workflow's order_index values to 1..N.
func (sr *StepRepository) Resequence(_ context.Context, workflowID string) (ordering.Changes, error) {
	sr.store.mu.Lock()
	defer sr.store.mu.Unlock()

	doc, err := sr.store.load(workflowID)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, persistence.NewWorkflowError("Resequence", workflowID, persistence.ErrWorkflowNotFound)
	}

	stored := doc.storedOrdering()
	changes := ordering.FromStored(stored).Diff(stored)

	if len(changes) == 0 {
		return changes, nil
	}

	doc.applyOrdering(changes)

	err = sr.store.save(doc)
	if err != nil {
		return nil, err
	}

	return changes, nil
}
