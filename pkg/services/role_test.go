package services

import (
	"testing"

	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_AddAndDelete(t *testing.T) {
	f := newFixture(t)
	workflow := f.workflow(t, "Approve PO")
	step := f.step(t, workflow.ID, "Review", models.StepTypeApproval)

	manager, err := f.roles.Add(t.Context(), step.ID, "Manager")
	require.NoError(t, err)
	assert.NotEmpty(t, manager.ID)
	assert.Equal(t, step.ID, manager.StepID)

	// names are not unique
	duplicate, err := f.roles.Add(t.Context(), step.ID, "Manager")
	require.NoError(t, err)

	roles, err := f.steps.ListRoles(t.Context(), step.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	require.NoError(t, f.roles.Delete(t.Context(), manager.ID))

	roles, err = f.steps.ListRoles(t.Context(), step.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, duplicate.ID, roles[0].ID)

	types := f.publisher.Types()
	assert.Equal(t, []events.EventType{events.RoleAddedEvent, events.RoleAddedEvent, events.RoleDeletedEvent}, types[len(types)-3:])
	assert.Equal(t, workflow.ID, f.publisher.Keys[len(f.publisher.Keys)-1])
}

func TestRole_Errors(t *testing.T) {
	f := newFixture(t)
	workflow := f.workflow(t, "Approve PO")
	step := f.step(t, workflow.ID, "Review", models.StepTypeApproval)

	f.publisher.Reset()

	_, err := f.roles.Add(t.Context(), step.ID, " ")
	assert.ErrorIs(t, err, ErrRoleNameRequired)
	assert.True(t, IsValidationError(err))

	_, err = f.roles.Add(t.Context(), "missing", "Manager")
	assert.True(t, persistence.IsStepNotFound(err))

	err = f.roles.Delete(t.Context(), "missing")
	assert.True(t, persistence.IsRoleNotFound(err))

	assert.Empty(t, f.publisher.Events)
}
