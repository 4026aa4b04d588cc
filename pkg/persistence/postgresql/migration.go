package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL CHECK (name <> ''),
				description TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_workflows_created_at ON workflows(created_at);

			CREATE TABLE workflow_steps (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL CHECK (name <> ''),
				description TEXT NOT NULL DEFAULT '',
				step_type VARCHAR(20) NOT NULL CHECK (step_type IN ('TASK', 'APPROVAL', 'NOTIFICATION')),
				order_index INTEGER NOT NULL CHECK (order_index > 0),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

				-- Checked at commit so compaction and reorder can shift indices row by row
				CONSTRAINT workflow_steps_order_unique UNIQUE (workflow_id, order_index) DEFERRABLE INITIALLY DEFERRED
			);

			CREATE INDEX idx_workflow_steps_workflow_id ON workflow_steps(workflow_id);

			CREATE TABLE step_connections (
				id UUID PRIMARY KEY,
				from_step_id UUID NOT NULL REFERENCES workflow_steps(id) ON DELETE CASCADE,
				to_step_id UUID NOT NULL REFERENCES workflow_steps(id) ON DELETE CASCADE,
				condition_type VARCHAR(20) NOT NULL DEFAULT 'ALWAYS' CHECK (condition_type IN ('ALWAYS', 'IF_APPROVED', 'IF_REJECTED')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

				CHECK (from_step_id <> to_step_id)
			);

			CREATE INDEX idx_step_connections_from ON step_connections(from_step_id);
			CREATE INDEX idx_step_connections_to ON step_connections(to_step_id);

			CREATE TABLE step_roles (
				id UUID PRIMARY KEY,
				step_id UUID NOT NULL REFERENCES workflow_steps(id) ON DELETE CASCADE,
				role_name VARCHAR(255) NOT NULL CHECK (role_name <> ''),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_step_roles_step_id ON step_roles(step_id);
		`,
	}
}
