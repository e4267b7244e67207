package postgres

// migrations returns schema migrations indexed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				definition JSONB NOT NULL,
				owner TEXT NOT NULL DEFAULT '',
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				input_data JSONB,
				output_data JSONB,
				status TEXT NOT NULL DEFAULT 'pending',
				error_message TEXT,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow_id ON executions (workflow_id);
			CREATE INDEX IF NOT EXISTS idx_executions_status ON executions (status);

			CREATE TABLE IF NOT EXISTS execution_logs (
				id TEXT PRIMARY KEY,
				execution_id TEXT NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
				level TEXT NOT NULL DEFAULT 'info',
				message TEXT NOT NULL,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				seq BIGSERIAL
			);

			CREATE INDEX IF NOT EXISTS idx_execution_logs_execution_id ON execution_logs (execution_id, seq);
		`,
	}
}
