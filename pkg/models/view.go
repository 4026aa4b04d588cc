package models

// StepView is a step together with its roles.
type StepView struct {
	Step

	Roles []*Role `json:"roles"`
}

// StepDetail is a step with its roles and its outgoing connections.
type StepDetail struct {
	Step

	Roles       []*Role       `json:"roles"`
	Connections []*Connection `json:"connections"`
}

// WorkflowView is the composed, fully materialised graph of a workflow.
// Steps are ordered by OrderIndex ascending.
type WorkflowView struct {
	Workflow

	Steps       []*StepView   `json:"steps"`
	Connections []*Connection `json:"connections"`
}

// StepIDs returns the ids of the view's steps in order.
func (v *WorkflowView) StepIDs() []string {
	ids := make([]string, 0, len(v.Steps))
	for _, step := range v.Steps {
		ids = append(ids, step.ID)
	}

	return ids
}
