package file

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	store *store
}

// List returns every workflow, newest first.
func (wr *WorkflowRepository) List(_ context.Context) ([]*models.Workflow, error) {
	wr.store.mu.RLock()
	defer wr.store.mu.RUnlock()

	docs, err := wr.store.all()
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(docs))
	for _, doc := range docs {
		workflows = append(workflows, doc.Workflow)
	}

	slices.SortFunc(workflows, func(a, b *models.Workflow) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(b.ID, a.ID)
	})

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	wr.store.mu.RLock()
	defer wr.store.mu.RUnlock()

	doc, err := wr.store.load(id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return doc.Workflow, nil
}

// Create writes a new, empty workflow document.
func (wr *WorkflowRepository) Create(_ context.Context, workflow *models.Workflow) error {
	id, err := newID()
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	stored := *workflow
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now

	wr.store.mu.Lock()
	defer wr.store.mu.Unlock()

	err = wr.store.save(&document{
		Workflow:    &stored,
		Steps:       make([]*models.Step, 0),
		Connections: make([]*models.Connection, 0),
		Roles:       make([]*models.Role, 0),
	})
	if err != nil {
		return err
	}

	*workflow = stored

	return nil
}

// Update writes name, description and is_active of an existing workflow.
func (wr *WorkflowRepository) Update(_ context.Context, workflow *models.Workflow) error {
	wr.store.mu.Lock()
	defer wr.store.mu.Unlock()

	doc, err := wr.store.load(workflow.ID)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.NewWorkflowError("Update", workflow.ID, persistence.ErrWorkflowNotFound)
	}

	doc.Workflow.Name = workflow.Name
	doc.Workflow.Description = workflow.Description
	doc.Workflow.IsActive = workflow.IsActive
	doc.Workflow.UpdatedAt = time.Now().UTC()

	err = wr.store.save(doc)
	if err != nil {
		return err
	}

	*workflow = *doc.Workflow

	return nil
}

// Delete removes the workflow document, and with it every step, connection and role.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.store.mu.Lock()
	defer wr.store.mu.Unlock()

	existed, err := wr.store.remove(id)
	if err != nil {
		return err
	}

	if !existed {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
