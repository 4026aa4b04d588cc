package graph_test

import (
	"testing"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(id, workflowID string, order int) *models.Step {
	return &models.Step{
		ID:         id,
		WorkflowID: workflowID,
		Name:       id,
		StepType:   models.StepTypeTask,
		OrderIndex: order,
	}
}

func TestConditionOrDefault(t *testing.T) {
	assert.Equal(t, models.ConditionAlways, graph.ConditionOrDefault(""))
	assert.Equal(t, models.ConditionIfRejected, graph.ConditionOrDefault(models.ConditionIfRejected))
}

func TestValidateConnection(t *testing.T) {
	a := step("a", "wf-1", 1)
	b := step("b", "wf-1", 2)
	other := step("x", "wf-2", 1)

	tests := []struct {
		name      string
		from      *models.Step
		to        *models.Step
		condition models.ConditionType
		expected  error
	}{
		{name: "valid", from: a, to: b, condition: models.ConditionIfApproved},
		{name: "cross workflow", from: a, to: other, condition: models.ConditionAlways, expected: graph.ErrCrossWorkflowConnection},
		{name: "self loop", from: a, to: a, condition: models.ConditionAlways, expected: graph.ErrSelfLoopConnection},
		{name: "invalid condition", from: a, to: b, condition: "SOMETIMES", expected: graph.ErrInvalidConditionType},
		{name: "backwards edge allowed", from: b, to: a, condition: models.ConditionIfRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := graph.ValidateConnection(tt.from, tt.to, tt.condition)
			if tt.expected == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestPlanStepRemoval(t *testing.T) {
	a := step("a", "wf-1", 1)
	b := step("b", "wf-1", 2)
	c := step("c", "wf-1", 3)

	connections := []*models.Connection{
		{ID: "ab", FromStepID: "a", ToStepID: "b", ConditionType: models.ConditionAlways},
		{ID: "ba", FromStepID: "b", ToStepID: "a", ConditionType: models.ConditionIfRejected},
		{ID: "ac", FromStepID: "a", ToStepID: "c", ConditionType: models.ConditionIfApproved},
	}

	roles := []*models.Role{
		{ID: "r1", StepID: "b", RoleName: "Manager"},
		{ID: "r2", StepID: "a", RoleName: "Clerk"},
		{ID: "r3", StepID: "b", RoleName: "Manager"},
	}

	removal, err := graph.PlanStepRemoval(b, []*models.Step{a, b, c}, connections, roles)
	require.NoError(t, err)

	assert.Equal(t, b, removal.Step)
	assert.ElementsMatch(t, []string{"ab", "ba"}, removal.ConnectionIDs)
	assert.ElementsMatch(t, []string{"r1", "r3"}, removal.RoleIDs)
	assert.Equal(t, ordering.Changes{"c": 2}, removal.Reorder)
}

func TestPlanStepRemoval_LastStep(t *testing.T) {
	a := step("a", "wf-1", 1)

	removal, err := graph.PlanStepRemoval(a, []*models.Step{a}, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, removal.ConnectionIDs)
	assert.Empty(t, removal.RoleIDs)
	assert.Empty(t, removal.Reorder)
}

func TestPlanStepRemoval_Errors(t *testing.T) {
	a := step("a", "wf-1", 1)
	b := step("b", "wf-1", 2)

	_, err := graph.PlanStepRemoval(b, []*models.Step{a}, nil, nil)
	assert.ErrorIs(t, err, ordering.ErrUnknownStep)

	_, err = graph.PlanStepRemoval(a, []*models.Step{a, step("x", "wf-2", 1)}, nil, nil)
	assert.ErrorIs(t, err, graph.ErrForeignStep)
}

func TestCheck(t *testing.T) {
	valid := &models.WorkflowView{
		Workflow: models.Workflow{ID: "wf-1", Name: "Approve PO"},
		Steps: []*models.StepView{
			{Step: *step("a", "wf-1", 1), Roles: []*models.Role{{ID: "r1", StepID: "a", RoleName: "Clerk"}}},
			{Step: *step("b", "wf-1", 2)},
		},
		Connections: []*models.Connection{
			{ID: "ab", FromStepID: "a", ToStepID: "b", ConditionType: models.ConditionIfApproved},
		},
	}

	require.NoError(t, graph.Check(valid))

	broken := &models.WorkflowView{
		Workflow: models.Workflow{ID: "wf-1", Name: "Broken"},
		Steps: []*models.StepView{
			{Step: *step("a", "wf-1", 1)},
			{Step: *step("b", "wf-1", 3), Roles: []*models.Role{{ID: "r1", StepID: "a"}}},
		},
		Connections: []*models.Connection{
			{ID: "aa", FromStepID: "a", ToStepID: "a", ConditionType: models.ConditionAlways},
			{ID: "ax", FromStepID: "a", ToStepID: "x", ConditionType: "MAYBE"},
		},
	}

	err := graph.Check(broken)
	require.Error(t, err)

	assert.ErrorIs(t, err, ordering.ErrNotDense)
	assert.ErrorIs(t, err, graph.ErrSelfLoopConnection)
	assert.ErrorIs(t, err, graph.ErrDanglingConnection)
	assert.ErrorIs(t, err, graph.ErrInvalidConditionType)
	assert.ErrorIs(t, err, graph.ErrForeignStep)
}
