// Package models defines the workflow designer domain: workflows, ordered steps, conditional connections and roles.
package models

import "time"

// Workflow is the root aggregate. It owns steps; steps own roles and are the endpoints of connections.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
