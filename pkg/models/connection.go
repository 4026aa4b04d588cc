package models

import (
	"slices"
	"time"
)

// ConditionType labels a connection. It is never evaluated.
type ConditionType string

const (
	ConditionAlways     ConditionType = "ALWAYS"
	ConditionIfApproved ConditionType = "IF_APPROVED"
	ConditionIfRejected ConditionType = "IF_REJECTED"
)

// ConditionTypes lists every accepted condition type.
func ConditionTypes() []ConditionType {
	return []ConditionType{ConditionAlways, ConditionIfApproved, ConditionIfRejected}
}

// Valid reports whether c is one of the known condition types.
func (c ConditionType) Valid() bool {
	return slices.Contains(ConditionTypes(), c)
}

// Connection is a directed edge between two steps of the same workflow.
// Endpoints are fixed at creation; only the condition may change.
type Connection struct {
	ID            string        `json:"id"`
	FromStepID    string        `json:"from_step_id"   validate:"required"`
	ToStepID      string        `json:"to_step_id"     validate:"required,nefield=FromStepID"`
	ConditionType ConditionType `json:"condition_type" validate:"required,oneof=ALWAYS IF_APPROVED IF_REJECTED"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Touches reports whether stepID is either endpoint of the connection.
func (c *Connection) Touches(stepID string) bool {
	return c.FromStepID == stepID || c.ToStepID == stepID
}
