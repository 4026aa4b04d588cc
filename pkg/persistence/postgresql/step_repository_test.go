package postgresql_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/persistence/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepNames(ctx context.Context, t *testing.T, p *postgresql.Persistence, workflowID string) []string {
	t.Helper()

	steps, err := p.StepRepository().ListByWorkflow(ctx, workflowID)
	require.NoError(t, err)

	names := make([]string, 0, len(steps))

	for i, step := range steps {
		assert.Equal(t, i+1, step.OrderIndex, "order_index must be dense")

		names = append(names, step.Name)
	}

	return names
}

func TestStepRepository_AppendAssignsNextIndex(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Onboarding")

	first := appendStep(ctx, t, p, workflow.ID, "Collect documents")
	second := appendStep(ctx, t, p, workflow.ID, "Manager approval")

	assert.Equal(t, 1, first.OrderIndex)
	assert.Equal(t, 2, second.OrderIndex)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	retrieved, err := p.StepRepository().GetByID(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, workflow.ID, retrieved.WorkflowID)
	assert.Equal(t, "Manager approval", retrieved.Name)
	assert.Equal(t, models.StepTypeTask, retrieved.StepType)
	assert.Equal(t, 2, retrieved.OrderIndex)
}

func TestStepRepository_AppendUnknownWorkflow(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	for _, id := range []string{uuid.NewString(), "nope"} {
		err := p.StepRepository().Append(ctx, &models.Step{WorkflowID: id, Name: "Orphan", StepType: models.StepTypeTask})
		assert.True(t, persistence.IsWorkflowNotFound(err), id)
	}
}

func TestStepRepository_ConcurrentAppendsStayDense(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Busy")

	var wg sync.WaitGroup

	errs := make(chan error, 8)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs <- p.StepRepository().Append(ctx, &models.Step{
				WorkflowID: workflow.ID,
				Name:       "Parallel",
				StepType:   models.StepTypeNotification,
			})
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, stepNames(ctx, t, p, workflow.ID), 8)
}

func TestStepRepository_UpdateFieldsAndRoles(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Expenses")
	step := appendStep(ctx, t, p, workflow.ID, "Submit")

	require.NoError(t, p.RoleRepository().Create(ctx, &models.Role{StepID: step.ID, RoleName: "Clerk"}))

	step.Name = "Review"
	step.Description = "Finance review"
	step.StepType = models.StepTypeApproval

	err := p.StepRepository().Update(ctx, step, nil, []string{"Finance", "Auditor"})
	require.NoError(t, err)

	retrieved, err := p.StepRepository().GetByID(ctx, step.ID)
	require.NoError(t, err)

	assert.Equal(t, "Review", retrieved.Name)
	assert.Equal(t, "Finance review", retrieved.Description)
	assert.Equal(t, models.StepTypeApproval, retrieved.StepType)

	roles, err := p.RoleRepository().ListByStep(ctx, step.ID)
	require.NoError(t, err)

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.RoleName)
	}

	assert.ElementsMatch(t, []string{"Finance", "Auditor"}, names)

	// nil roles keeps the current set
	err = p.StepRepository().Update(ctx, step, nil, nil)
	require.NoError(t, err)

	roles, err = p.RoleRepository().ListByStep(ctx, step.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	// empty roles clears them
	err = p.StepRepository().Update(ctx, step, nil, []string{})
	require.NoError(t, err)

	roles, err = p.RoleRepository().ListByStep(ctx, step.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestStepRepository_UpdateReorders(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Reorder")
	appendStep(ctx, t, p, workflow.ID, "A")
	appendStep(ctx, t, p, workflow.ID, "B")
	c := appendStep(ctx, t, p, workflow.ID, "C")

	first := 1

	err := p.StepRepository().Update(ctx, c, &first, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.OrderIndex)

	assert.Equal(t, []string{"C", "A", "B"}, stepNames(ctx, t, p, workflow.ID))

	beyond := 4

	err = p.StepRepository().Update(ctx, c, &beyond, nil)
	require.ErrorIs(t, err, ordering.ErrIndexOutOfRange)

	assert.Equal(t, []string{"C", "A", "B"}, stepNames(ctx, t, p, workflow.ID))
}

func TestStepRepository_UpdateWithStaleReadKeepsPosition(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Stale")
	a := appendStep(ctx, t, p, workflow.ID, "A")
	appendStep(ctx, t, p, workflow.ID, "B")
	c := appendStep(ctx, t, p, workflow.ID, "C")

	stale, err := p.StepRepository().GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stale.OrderIndex)

	_, err = p.StepRepository().Delete(ctx, a.ID)
	require.NoError(t, err)

	stale.Name = "C2"

	err = p.StepRepository().Update(ctx, stale, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stale.OrderIndex)
	assert.Equal(t, []string{"B", "C2"}, stepNames(ctx, t, p, workflow.ID))
}

func TestStepRepository_UpdateNotFound(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.StepRepository().Update(ctx, &models.Step{ID: uuid.NewString(), Name: "Ghost"}, nil, nil)
	assert.True(t, persistence.IsStepNotFound(err))
}

func TestStepRepository_DeleteCompactsAndRemovesEdges(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Compaction")
	a := appendStep(ctx, t, p, workflow.ID, "A")
	b := appendStep(ctx, t, p, workflow.ID, "B")
	c := appendStep(ctx, t, p, workflow.ID, "C")

	ab := &models.Connection{FromStepID: a.ID, ToStepID: b.ID, ConditionType: models.ConditionAlways}
	bc := &models.Connection{FromStepID: b.ID, ToStepID: c.ID, ConditionType: models.ConditionIfApproved}
	ac := &models.Connection{FromStepID: a.ID, ToStepID: c.ID, ConditionType: models.ConditionIfRejected}

	for _, connection := range []*models.Connection{ab, bc, ac} {
		require.NoError(t, p.ConnectionRepository().Create(ctx, connection))
	}

	role := &models.Role{StepID: b.ID, RoleName: "Approver"}
	require.NoError(t, p.RoleRepository().Create(ctx, role))

	removal, err := p.StepRepository().Delete(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, removal.Step.ID)
	assert.ElementsMatch(t, []string{ab.ID, bc.ID}, removal.ConnectionIDs)
	assert.Equal(t, []string{role.ID}, removal.RoleIDs)
	assert.Equal(t, ordering.Changes{c.ID: 2}, removal.Reorder)

	assert.Equal(t, []string{"A", "C"}, stepNames(ctx, t, p, workflow.ID))

	connections, err := p.ConnectionRepository().ListByWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, ac.ID, connections[0].ID)

	_, err = p.RoleRepository().GetByID(ctx, role.ID)
	assert.True(t, persistence.IsRoleNotFound(err))

	_, err = p.StepRepository().Delete(ctx, b.ID)
	assert.True(t, persistence.IsStepNotFound(err))
}

func TestStepRepository_Resequence(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	workflow := createWorkflow(ctx, t, p, "Damaged")
	appendStep(ctx, t, p, workflow.ID, "A")
	b := appendStep(ctx, t, p, workflow.ID, "B")

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	_, err = db.ExecContext(ctx, `UPDATE workflow_steps SET order_index = 7 WHERE id = $1`, b.ID)
	require.NoError(t, err)

	changes, err := p.StepRepository().Resequence(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, ordering.Changes{b.ID: 2}, changes)

	assert.Equal(t, []string{"A", "B"}, stepNames(ctx, t, p, workflow.ID))

	changes, err = p.StepRepository().Resequence(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
