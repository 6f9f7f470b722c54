package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateStageKeysToLabels(db); err != nil {
		return fmt.Errorf("normalizing connection stages: %w", err)
	}
	return nil
}

// migrateStageKeysToLabels rewrites rows stored with English stage keys
// (written by early imports) to the canonical Japanese labels.
func migrateStageKeysToLabels(db *sql.DB) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, st := range domain.Stages {
		if _, err := tx.ExecContext(ctx,
			`UPDATE connections SET current_stage = ? WHERE current_stage = ?`,
			string(st), st.Key()); err != nil {
			return fmt.Errorf("rewriting stage %s: %w", st.Key(), err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE progress_tracking SET to_stage = ? WHERE to_stage = ?`,
			string(st), st.Key()); err != nil {
			return fmt.Errorf("rewriting progress stage %s: %w", st.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stage normalization: %w", err)
	}
	committed = true
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		age           INTEGER,
		location      TEXT NOT NULL DEFAULT '',
		hobbies       TEXT NOT NULL DEFAULT '[]',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,

	`CREATE TABLE IF NOT EXISTS password_resets (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TEXT NOT NULL,
		used_at    TEXT,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS connections (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		nickname          TEXT NOT NULL,
		platform          TEXT NOT NULL DEFAULT '',
		current_stage     TEXT NOT NULL,
		age               INTEGER,
		occupation        TEXT NOT NULL DEFAULT '',
		location          TEXT NOT NULL DEFAULT '',
		hobbies           TEXT NOT NULL DEFAULT '[]',
		frequency         TEXT NOT NULL DEFAULT '',
		response_time     TEXT NOT NULL DEFAULT '',
		last_contact      TEXT,
		expectation       TEXT NOT NULL DEFAULT '',
		concerns          TEXT NOT NULL DEFAULT '[]',
		attractive_points TEXT NOT NULL DEFAULT '[]',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_connections_user ON connections(user_id)`,

	`ALTER TABLE connections ADD COLUMN communication_style TEXT NOT NULL DEFAULT ''`,

	`CREATE TABLE IF NOT EXISTS progress_tracking (
		id            TEXT PRIMARY KEY,
		connection_id TEXT NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
		user_id       TEXT NOT NULL,
		from_stage    TEXT NOT NULL DEFAULT '',
		to_stage      TEXT NOT NULL,
		note          TEXT NOT NULL DEFAULT '',
		hope_score    INTEGER NOT NULL DEFAULT 0 CHECK(hope_score BETWEEN 0 AND 100),
		recorded_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_progress_connection ON progress_tracking(connection_id, recorded_at)`,

	`CREATE TABLE IF NOT EXISTS prompt_history (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		connection_id TEXT NOT NULL DEFAULT '',
		use_case      TEXT NOT NULL,
		provider      TEXT NOT NULL,
		prompt        TEXT NOT NULL,
		response      TEXT NOT NULL DEFAULT '',
		model         TEXT NOT NULL DEFAULT '',
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_prompt_history_user ON prompt_history(user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS action_history (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		connection_id TEXT NOT NULL DEFAULT '',
		action_type   TEXT NOT NULL,
		use_case      TEXT NOT NULL DEFAULT '',
		provider      TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL CHECK(status IN ('success','failed')),
		error_message TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_action_history_user ON action_history(user_id, created_at)`,
}
