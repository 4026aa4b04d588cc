package models

import "time"

// Role is a free-text responsible party assigned to a step. Names are not unique.
type Role struct {
	ID        string    `json:"id"`
	StepID    string    `json:"step_id"   validate:"required"`
	RoleName  string    `json:"role_name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}
