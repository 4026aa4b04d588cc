// Package events defines the change notifications published after every workflow mutation.
package events

import (
	"time"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every change event; the message key is the workflow id.
const Topic = "stepflow.changes"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"

	StepAddedEvent   EventType = "step.added"
	StepUpdatedEvent EventType = "step.updated"
	StepDeletedEvent EventType = "step.deleted"

	RoleAddedEvent   EventType = "role.added"
	RoleDeletedEvent EventType = "role.deleted"

	ConnectionCreatedEvent EventType = "connection.created"
	ConnectionUpdatedEvent EventType = "connection.updated"
	ConnectionDeletedEvent EventType = "connection.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowCreated struct {
	BaseEvent

	Workflow *models.Workflow `json:"workflow"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent

	Workflow *models.Workflow `json:"workflow"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

type StepAdded struct {
	BaseEvent

	Step *models.Step `json:"step"`
}

func (s StepAdded) GetType() EventType {
	return StepAddedEvent
}

// StepUpdated carries the stored step. Roles is set only when the update replaced them.
type StepUpdated struct {
	BaseEvent

	Step      *models.Step   `json:"step"`
	Roles     []*models.Role `json:"roles,omitempty"`
	Reordered bool           `json:"reordered"`
}

func (s StepUpdated) GetType() EventType {
	return StepUpdatedEvent
}

// StepDeleted lists everything the delete removed and the siblings it renumbered.
type StepDeleted struct {
	BaseEvent

	Removal *graph.StepRemoval `json:"removal"`
}

func (s StepDeleted) GetType() EventType {
	return StepDeletedEvent
}

type RoleAdded struct {
	BaseEvent

	Role *models.Role `json:"role"`
}

func (r RoleAdded) GetType() EventType {
	return RoleAddedEvent
}

type RoleDeleted struct {
	BaseEvent

	Role *models.Role `json:"role"`
}

func (r RoleDeleted) GetType() EventType {
	return RoleDeletedEvent
}

type ConnectionCreated struct {
	BaseEvent

	Connection *models.Connection `json:"connection"`
}

func (c ConnectionCreated) GetType() EventType {
	return ConnectionCreatedEvent
}

type ConnectionUpdated struct {
	BaseEvent

	Connection *models.Connection `json:"connection"`
}

func (c ConnectionUpdated) GetType() EventType {
	return ConnectionUpdatedEvent
}

type ConnectionDeleted struct {
	BaseEvent

	Connection *models.Connection `json:"connection"`
}

func (c ConnectionDeleted) GetType() EventType {
	return ConnectionDeletedEvent
}

// Types lists every change event type.
func Types() []EventType {
	return []EventType{
		WorkflowCreatedEvent, WorkflowUpdatedEvent, WorkflowDeletedEvent,
		StepAddedEvent, StepUpdatedEvent, StepDeletedEvent,
		RoleAddedEvent, RoleDeletedEvent,
		ConnectionCreatedEvent, ConnectionUpdatedEvent, ConnectionDeletedEvent,
	}
}

// Decoder returns an empty event value for eventType, or nil when the type is unknown.
func Decoder(eventType EventType) any {
	switch eventType {
	case WorkflowCreatedEvent:
		return &WorkflowCreated{}
	case WorkflowUpdatedEvent:
		return &WorkflowUpdated{}
	case WorkflowDeletedEvent:
		return &WorkflowDeleted{}
	case StepAddedEvent:
		return &StepAdded{}
	case StepUpdatedEvent:
		return &StepUpdated{}
	case StepDeletedEvent:
		return &StepDeleted{}
	case RoleAddedEvent:
		return &RoleAdded{}
	case RoleDeletedEvent:
		return &RoleDeleted{}
	case ConnectionCreatedEvent:
		return &ConnectionCreated{}
	case ConnectionUpdatedEvent:
		return &ConnectionUpdated{}
	case ConnectionDeletedEvent:
		return &ConnectionDeleted{}
	default:
		return nil
	}
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
