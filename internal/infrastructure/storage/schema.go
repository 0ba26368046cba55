package storage

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		raw_text TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'manual'
			CHECK (source IN ('manual', 'transcribed', 'imported')),
		word_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	)`,
	`CREATE TABLE IF NOT EXISTS blog_post_ideas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		usefulness_potential INTEGER NOT NULL CHECK (usefulness_potential BETWEEN 1 AND 10),
		fitwith_seo_strategy INTEGER NOT NULL CHECK (fitwith_seo_strategy BETWEEN 1 AND 10),
		fitwith_content_strategy INTEGER NOT NULL CHECK (fitwith_content_strategy BETWEEN 1 AND 10),
		inspiration_potential INTEGER NOT NULL CHECK (inspiration_potential BETWEEN 1 AND 10),
		collaboration_potential INTEGER NOT NULL CHECK (collaboration_potential BETWEEN 1 AND 10),
		innovation INTEGER NOT NULL CHECK (innovation BETWEEN 1 AND 10),
		difficulty INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 10),
		total_score INTEGER NOT NULL,
		sent_to_prod INTEGER NOT NULL DEFAULT 0,
		raw_llm_response TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blog_post_ideas_conversation ON blog_post_ideas (conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_blog_post_ideas_score ON blog_post_ideas (total_score DESC)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS blog_post_ideas`,
	`DROP TABLE IF EXISTS conversations`,
}

// Bootstrap creates the tables when they are missing.
func (r *Repository) Bootstrap(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema. All data is lost.
func (r *Repository) Reset(ctx context.Context) error {
	for _, stmt := range dropStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	return r.Bootstrap(ctx)
}
