package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(StepAddedEvent, "wf-123")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, StepAddedEvent, event.Type)
	assert.Equal(t, "wf-123", event.WorkflowID)
	assert.False(t, event.Timestamp.IsZero())
	assert.NotNil(t, event.Metadata)
}

func TestDecoder(t *testing.T) {
	published := []interface{ GetType() EventType }{
		WorkflowCreated{}, WorkflowUpdated{}, WorkflowDeleted{},
		StepAdded{}, StepUpdated{}, StepDeleted{},
		RoleAdded{}, RoleDeleted{},
		ConnectionCreated{}, ConnectionUpdated{}, ConnectionDeleted{},
	}

	for _, event := range published {
		t.Run(string(event.GetType()), func(t *testing.T) {
			decoded := Decoder(event.GetType())
			require.NotNil(t, decoded)

			typed, ok := decoded.(interface{ GetType() EventType })
			require.True(t, ok)
			assert.Equal(t, event.GetType(), typed.GetType())
		})
	}

	assert.Nil(t, Decoder("workflow.exploded"))
}

func TestStepDeleted_Payload(t *testing.T) {
	event := StepDeleted{
		BaseEvent: NewBaseEvent(StepDeletedEvent, "wf-1"),
		Removal: &graph.StepRemoval{
			Step:          &models.Step{ID: "s-2", WorkflowID: "wf-1", Name: "Approve", OrderIndex: 2},
			ConnectionIDs: []string{"c-1"},
			RoleIDs:       []string{},
			Reorder:       ordering.Changes{"s-3": 2},
		},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"type":"step.deleted"`)
	assert.Contains(t, string(data), `"connection_ids":["c-1"]`)
	assert.Contains(t, string(data), `"reorder":{"s-3":2}`)
}

func TestTypes_AllDecodable(t *testing.T) {
	types := Types()
	assert.Len(t, types, 11)

	for _, eventType := range types {
		assert.NotNil(t, Decoder(eventType), eventType)
	}
}
