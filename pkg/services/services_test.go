package services

import (
	"testing"

	"github.com/dukex/stepflow/pkg/mocks"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence/file"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	persistence *file.Persistence
	publisher   *mocks.RecordingPublisher
	workflows   *Workflow
	steps       *Step
	roles       *Role
	connections *Connection
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	publisher := &mocks.RecordingPublisher{}

	opts = append([]Option{WithEventPublisher(publisher)}, opts...)

	return &fixture{
		persistence: p,
		publisher:   publisher,
		workflows:   NewWorkflow(p, opts...),
		steps:       NewStep(p, opts...),
		roles:       NewRole(p, opts...),
		connections: NewConnection(p, opts...),
	}
}

func (f *fixture) workflow(t *testing.T, name string) *models.Workflow {
	t.Helper()

	workflow, err := f.workflows.Create(t.Context(), CreateWorkflowRequest{Name: name})
	require.NoError(t, err)

	return workflow
}

func (f *fixture) step(t *testing.T, workflowID, name string, stepType models.StepType) *models.Step {
	t.Helper()

	step, err := f.steps.Add(t.Context(), workflowID, CreateStepRequest{Name: name, StepType: stepType})
	require.NoError(t, err)

	return step
}

// orderOf returns step names keyed by order_index, failing unless the indices are 1..N.
func (f *fixture) orderOf(t *testing.T, workflowID string) []string {
	t.Helper()

	steps, err := f.persistence.StepRepository().ListByWorkflow(t.Context(), workflowID)
	require.NoError(t, err)

	names := make([]string, 0, len(steps))

	for i, step := range steps {
		require.Equal(t, i+1, step.OrderIndex, "order_index of %s", step.Name)

		names = append(names, step.Name)
	}

	return names
}

func ptr[T any](v T) *T {
	return &v
}
