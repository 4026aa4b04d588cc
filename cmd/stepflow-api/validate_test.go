package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/cache"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence/file"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWorkflow stores a document directly, bypassing the repositories, so
// tests can seed states the services never produce.
func writeWorkflow(t *testing.T, root string, workflow *models.Workflow, steps []*models.Step, connections []*models.Connection) {
	t.Helper()

	doc := map[string]any{
		"workflow":    workflow,
		"steps":       steps,
		"connections": connections,
		"roles":       []*models.Role{},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	dir := filepath.Join(root, "workflows")
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, workflow.ID+".json"), data, 0600))
}

func gappedWorkflow(t *testing.T, root string) (*models.Workflow, []*models.Step) {
	t.Helper()

	now := time.Now().UTC()
	workflow := &models.Workflow{ID: uuid.NewString(), Name: "Gapped", IsActive: true, CreatedAt: now, UpdatedAt: now}

	steps := []*models.Step{
		{ID: uuid.NewString(), WorkflowID: workflow.ID, Name: "A", StepType: models.StepTypeTask, OrderIndex: 2, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), WorkflowID: workflow.ID, Name: "B", StepType: models.StepTypeApproval, OrderIndex: 5, CreatedAt: now, UpdatedAt: now},
	}

	writeWorkflow(t, root, workflow, steps, []*models.Connection{})

	return workflow, steps
}

func TestValidateWorkflows_Valid(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	workflow, err := services.NewWorkflow(p).Create(t.Context(), services.CreateWorkflowRequest{Name: "Approve PO"})
	require.NoError(t, err)

	_, err = services.NewStep(p).Add(t.Context(), workflow.ID, services.CreateStepRequest{Name: "A", StepType: models.StepTypeTask})
	require.NoError(t, err)

	report, err := validateWorkflows(t.Context(), slog.Default(), p, cache.Noop{}, false)
	require.NoError(t, err)

	assert.Equal(t, validationReport{Checked: 1}, report)
}

func TestValidateWorkflows_ReportsGaps(t *testing.T) {
	root := t.TempDir()
	gappedWorkflow(t, root)

	report, err := validateWorkflows(t.Context(), slog.Default(), file.NewPersistence(root), cache.Noop{}, false)
	require.NoError(t, err)

	assert.Equal(t, validationReport{Checked: 1, Invalid: 1}, report)
}

func TestValidateWorkflows_RepairsGaps(t *testing.T) {
	root := t.TempDir()
	workflow, steps := gappedWorkflow(t, root)
	p := file.NewPersistence(root)

	report, err := validateWorkflows(t.Context(), slog.Default(), p, cache.Noop{}, true)
	require.NoError(t, err)
	assert.Equal(t, validationReport{Checked: 1, Repaired: 1}, report)

	view, err := services.ComposeView(t.Context(), p, workflow.ID)
	require.NoError(t, err)

	require.Len(t, view.Steps, 2)
	assert.Equal(t, steps[0].ID, view.Steps[0].ID)
	assert.Equal(t, 1, view.Steps[0].OrderIndex)
	assert.Equal(t, 2, view.Steps[1].OrderIndex)
}

func TestValidateWorkflows_SelfLoopIsNotRepaired(t *testing.T) {
	root := t.TempDir()
	now := time.Now().UTC()

	workflow := &models.Workflow{ID: uuid.NewString(), Name: "Loop", IsActive: true, CreatedAt: now, UpdatedAt: now}
	step := &models.Step{ID: uuid.NewString(), WorkflowID: workflow.ID, Name: "A", StepType: models.StepTypeTask, OrderIndex: 1}
	loop := &models.Connection{ID: uuid.NewString(), FromStepID: step.ID, ToStepID: step.ID, ConditionType: models.ConditionAlways}

	writeWorkflow(t, root, workflow, []*models.Step{step}, []*models.Connection{loop})

	report, err := validateWorkflows(t.Context(), slog.Default(), file.NewPersistence(root), cache.Noop{}, true)
	require.NoError(t, err)

	assert.Equal(t, validationReport{Checked: 1, Invalid: 1}, report)
}
