// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/services"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
// is_active defaults to true.
type CreateWorkflowRequest struct {
	Name        string `json:"name"                validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating an existing workflow.
// All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type CreateStepRequest struct {
	Name        string          `json:"name"        validate:"required"`
	Description string          `json:"description"`
	StepType    models.StepType `json:"step_type"   validate:"required,oneof=TASK APPROVAL NOTIFICATION"`
}

// RoleRequest names one role, both for POST /steps/:id/roles and inside a step update.
type RoleRequest struct {
	RoleName string `json:"role_name" validate:"required"`
}

// UpdateStepRequest represents a partial step update. order_index moves the
// step within its workflow; roles, when present, replace the existing roles.
type UpdateStepRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	StepType    *models.StepType `json:"step_type,omitempty"   validate:"omitempty,oneof=TASK APPROVAL NOTIFICATION"`
	OrderIndex  *int             `json:"order_index,omitempty"`
	Roles       *[]RoleRequest   `json:"roles,omitempty"       validate:"omitempty,dive"`
}

// CreateConnectionRequest represents a new edge. condition_type defaults to ALWAYS.
type CreateConnectionRequest struct {
	FromStepID    string               `json:"from_step_id"             validate:"required"`
	ToStepID      string               `json:"to_step_id"               validate:"required"`
	ConditionType models.ConditionType `json:"condition_type,omitempty" validate:"omitempty,oneof=ALWAYS IF_APPROVED IF_REJECTED"`
}

// UpdateConnectionRequest changes only the condition; endpoints are immutable.
type UpdateConnectionRequest struct {
	ConditionType models.ConditionType `json:"condition_type" validate:"required,oneof=ALWAYS IF_APPROVED IF_REJECTED"`
}

func (r CreateWorkflowRequest) toService() services.CreateWorkflowRequest {
	return services.CreateWorkflowRequest{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

func (r UpdateWorkflowRequest) toService() services.UpdateWorkflowRequest {
	return services.UpdateWorkflowRequest{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

func (r CreateStepRequest) toService() services.CreateStepRequest {
	return services.CreateStepRequest{
		Name:        r.Name,
		Description: r.Description,
		StepType:    r.StepType,
	}
}

func (r UpdateStepRequest) toService() services.UpdateStepRequest {
	req := services.UpdateStepRequest{
		Name:        r.Name,
		Description: r.Description,
		StepType:    r.StepType,
		OrderIndex:  r.OrderIndex,
	}

	if r.Roles != nil {
		names := make([]string, 0, len(*r.Roles))
		for _, role := range *r.Roles {
			names = append(names, role.RoleName)
		}

		req.Roles = &names
	}

	return req
}

func (r CreateConnectionRequest) toService() services.CreateConnectionRequest {
	return services.CreateConnectionRequest{
		FromStepID:    r.FromStepID,
		ToStepID:      r.ToStepID,
		ConditionType: r.ConditionType,
	}
}
