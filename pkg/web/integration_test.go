//go:build integration

package web_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/mocks"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence/postgresql"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/dukex/stepflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupIntegrationApp(t *testing.T) (*fiber.App, *mocks.RecordingPublisher) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("stepflow_web"),
		postgres.WithUsername("stepflow"),
		postgres.WithPassword("stepflow"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	databaseURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, p.Close(context.Background()))
	})

	publisher := &mocks.RecordingPublisher{}
	opts := []services.Option{services.WithEventPublisher(publisher), services.WithLogger(logger)}

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(p, opts...),
		services.NewStep(p, opts...),
		services.NewRole(p, opts...),
		services.NewConnection(p, opts...),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.Register(app.Group("/api"))
	app.Get("/health", handlers.HealthCheck)

	return app, publisher
}

func TestApprovePO_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app, publisher := setupIntegrationApp(t)

	status, _ := call(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	workflow := createWorkflow(t, app, "Approve PO")
	a := addStep(t, app, workflow.ID, "A", models.StepTypeTask)
	b := addStep(t, app, workflow.ID, "B", models.StepTypeApproval)
	c := addStep(t, app, workflow.ID, "C", models.StepTypeNotification)

	status, body := call(t, app, http.MethodPost, "/api/connections", web.CreateConnectionRequest{
		FromStepID:    a.ID,
		ToStepID:      b.ID,
		ConditionType: models.ConditionIfApproved,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, app, http.MethodPost, "/api/steps/"+b.ID+"/roles", web.RoleRequest{RoleName: "Manager"})
	require.Equal(t, http.StatusCreated, status, string(body))

	// move C to the front
	status, body = call(t, app, http.MethodPatch, "/api/steps/"+c.ID, `{"order_index": 1}`)
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = call(t, app, http.MethodDelete, "/api/steps/"+a.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = call(t, app, http.MethodGet, "/api/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusOK, status)

	view := decode[*models.WorkflowView](t, body)
	assert.Equal(t, []string{c.ID, b.ID}, view.StepIDs())
	assert.Equal(t, 1, view.Steps[0].OrderIndex)
	assert.Equal(t, 2, view.Steps[1].OrderIndex)
	require.Len(t, view.Steps[1].Roles, 1)
	assert.Equal(t, "Manager", view.Steps[1].Roles[0].RoleName)
	assert.Empty(t, view.Connections)

	assert.Equal(t, []events.EventType{
		events.WorkflowCreatedEvent,
		events.StepAddedEvent,
		events.StepAddedEvent,
		events.StepAddedEvent,
		events.ConnectionCreatedEvent,
		events.RoleAddedEvent,
		events.StepUpdatedEvent,
		events.StepDeletedEvent,
	}, publisher.Types())

	status, _ = call(t, app, http.MethodDelete, "/api/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = call(t, app, http.MethodGet, "/api/steps/"+b.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "step_not_found", problemType(t, body))
}
