package mocks

import (
	"context"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
// Its repositories are exposed so tests can set expectations on them.
type MockPersistence struct {
	mock.Mock

	Workflows   *MockWorkflowRepository
	Steps       *MockStepRepository
	Connections *MockConnectionRepository
	Roles       *MockRoleRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Workflows:   &MockWorkflowRepository{},
		Steps:       &MockStepRepository{},
		Connections: &MockConnectionRepository{},
		Roles:       &MockRoleRepository{},
	}
}

//nolint:ireturn
func (m *MockPersistence) WorkflowRepository() persistence.WorkflowRepository {
	return m.Workflows
}

//nolint:ireturn
func (m *MockPersistence) StepRepository() persistence.StepRepository {
	return m.Steps
}

//nolint:ireturn
func (m *MockPersistence) ConnectionRepository() persistence.ConnectionRepository {
	return m.Connections
}

//nolint:ireturn
func (m *MockPersistence) RoleRepository() persistence.RoleRepository {
	return m.Roles
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockWorkflowRepository is a mock implementation of persistence.WorkflowRepository interface.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) Create(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) Update(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockStepRepository is a mock implementation of persistence.StepRepository interface.
type MockStepRepository struct {
	mock.Mock
}

func (m *MockStepRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Step, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Step), args.Error(1)
}

func (m *MockStepRepository) GetByID(ctx context.Context, id string) (*models.Step, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Step), args.Error(1)
}

func (m *MockStepRepository) Append(ctx context.Context, step *models.Step) error {
	args := m.Called(ctx, step)

	return args.Error(0)
}

func (m *MockStepRepository) Update(ctx context.Context, step *models.Step, orderIndex *int, roles []string) error {
	args := m.Called(ctx, step, orderIndex, roles)

	return args.Error(0)
}

func (m *MockStepRepository) Delete(ctx context.Context, id string) (*graph.StepRemoval, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*graph.StepRemoval), args.Error(1)
}

func (m *MockStepRepository) Resequence(ctx context.Context, workflowID string) (ordering.Changes, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(ordering.Changes), args.Error(1)
}

// MockConnectionRepository is a mock implementation of persistence.ConnectionRepository interface.
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Connection, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) ListFromStep(ctx context.Context, stepID string) ([]*models.Connection, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) Create(ctx context.Context, connection *models.Connection) error {
	args := m.Called(ctx, connection)

	return args.Error(0)
}

func (m *MockConnectionRepository) UpdateCondition(
	ctx context.Context,
	id string,
	condition models.ConditionType,
) (*models.Connection, error) {
	args := m.Called(ctx, id, condition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockRoleRepository is a mock implementation of persistence.RoleRepository interface.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) ListByStep(ctx context.Context, stepID string) ([]*models.Role, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)

	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}
