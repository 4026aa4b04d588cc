package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		stepErr := persistence.NewStepError("Delete", "step-1", persistence.ErrStepNotFound)
		connectionErr := persistence.NewConnectionError("Delete", "conn-1", persistence.ErrConnectionNotFound)
		roleErr := persistence.NewRoleError("Delete", "role-1", persistence.ErrRoleNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsStepNotFound(stepErr))
		assert.True(t, persistence.IsConnectionNotFound(connectionErr))
		assert.True(t, persistence.IsRoleNotFound(roleErr))

		assert.False(t, persistence.IsStepNotFound(workflowErr))
		assert.True(t, errors.Is(stepErr, persistence.ErrStepNotFound))
	})

	t.Run("not found covers every entity", func(t *testing.T) {
		for _, err := range []error{
			persistence.ErrWorkflowNotFound,
			persistence.ErrStepNotFound,
			persistence.ErrConnectionNotFound,
			persistence.ErrRoleNotFound,
			fmt.Errorf("wrapped: %w", persistence.ErrRoleNotFound),
		} {
			assert.True(t, persistence.IsNotFound(err), err.Error())
		}

		assert.False(t, persistence.IsNotFound(errors.New("connection refused")))
		assert.False(t, persistence.IsNotFound(nil))
	})

	t.Run("errors contain context", func(t *testing.T) {
		err := persistence.NewWorkflowError("Update", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Contains(t, err.Error(), "Update")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "workflow not found")

		stepErr := persistence.NewStepError("Append", "step-9", errors.New("boom"))
		assert.Contains(t, stepErr.Error(), "Append")
		assert.Contains(t, stepErr.Error(), "step-9")
		assert.Contains(t, stepErr.Error(), "boom")
	})
}
