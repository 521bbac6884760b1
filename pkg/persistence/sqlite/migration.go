package sqlite

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				version INTEGER NOT NULL CHECK (version >= 1),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at DESC);

			CREATE TABLE workflow_versions (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				version INTEGER NOT NULL CHECK (version >= 1),
				graph TEXT NOT NULL,
				note TEXT NOT NULL DEFAULT '',
				checksum TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (workflow_id, version)
			);
		`,
		2: `
			CREATE TABLE workflow_executions (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL,
				version INTEGER NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('running', 'succeeded', 'failed')),
				started_at TEXT NOT NULL,
				finished_at TEXT,
				duration_ms INTEGER
			);

			CREATE INDEX idx_workflow_executions_workflow_id ON workflow_executions(workflow_id, started_at DESC);
		`,
	}
}
