package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE templates (
				id UUID PRIMARY KEY,
				title TEXT NOT NULL,
				ai_title TEXT,
				description TEXT NOT NULL DEFAULT '',
				ai_description TEXT,
				workflow_json JSONB NOT NULL,
				node_count INTEGER NOT NULL DEFAULT 0,
				nodes_used TEXT[],
				source TEXT,
				source_url TEXT,
				categories TEXT[],
				ai_categories TEXT,
				use_case TEXT,
				complexity_level VARCHAR(20),
				has_triggers BOOLEAN NOT NULL DEFAULT false,
				has_ai_nodes BOOLEAN NOT NULL DEFAULT false,
				workflow_hash VARCHAR(32),
				ai_use_cases TEXT[],
				ai_how_works TEXT[],
				ai_setup_steps TEXT[],
				ai_apps_used TEXT[],
				ai_roles TEXT[],
				ai_industries TEXT[],
				ai_tags TEXT[],
				popularity_score INTEGER NOT NULL DEFAULT 0,
				status VARCHAR(32),
				slug TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_templates_status ON templates(status);
			CREATE INDEX idx_templates_workflow_hash ON templates(workflow_hash);
			CREATE INDEX idx_templates_created_at ON templates(created_at);
			CREATE INDEX idx_templates_popularity ON templates(popularity_score);
			CREATE INDEX idx_templates_categories ON templates USING GIN (categories);
			CREATE INDEX idx_templates_ai_industries ON templates USING GIN (ai_industries);
			CREATE INDEX idx_templates_ai_roles ON templates USING GIN (ai_roles);
		`,
		2: `
			ALTER TABLE templates
				ADD COLUMN contributor_email TEXT,
				ADD COLUMN contributor_name TEXT,
				ADD COLUMN contributor_contact TEXT,
				ADD COLUMN contributor_website TEXT;
		`,
	}
}
