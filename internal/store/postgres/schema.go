package postgres

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the Cloudly tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS directory (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            user_id TEXT NOT NULL,
            recipient_name TEXT NOT NULL,
            recipient_email TEXT NOT NULL,
            recipient_relationship TEXT NOT NULL DEFAULT '',
            recipient_birthday TIMESTAMPTZ,
            sender_name TEXT NOT NULL DEFAULT '',
            sender_email TEXT NOT NULL DEFAULT '',
            connect BOOLEAN NOT NULL DEFAULT FALSE,
            creation_time TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_directory_user ON directory(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_directory_email ON directory(recipient_email)`,
		`CREATE TABLE IF NOT EXISTS messages (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            directory_id TEXT NOT NULL,
            message TEXT NOT NULL,
            context TEXT NOT NULL DEFAULT '',
            note TEXT NOT NULL DEFAULT '',
            creation_time TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_messages_directory ON messages(directory_id)`,
		`CREATE TABLE IF NOT EXISTS events (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            directory_id TEXT NOT NULL,
            event TEXT NOT NULL,
            event_date TIMESTAMPTZ,
            message TEXT NOT NULL DEFAULT '',
            creation_time TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_events_directory ON events(directory_id)`,
		`CREATE TABLE IF NOT EXISTS voices (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            user_id TEXT NOT NULL UNIQUE,
            voice_id TEXT NOT NULL,
            name TEXT NOT NULL,
            meta TEXT NOT NULL DEFAULT '',
            creation_time TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS assistants (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            directory_id TEXT NOT NULL UNIQUE,
            assistant_id TEXT NOT NULL,
            org_id TEXT NOT NULL DEFAULT '',
            assistant_name TEXT NOT NULL,
            content TEXT NOT NULL DEFAULT '',
            first_message TEXT NOT NULL DEFAULT '',
            publish BOOLEAN NOT NULL DEFAULT FALSE,
            creation_time TIMESTAMPTZ NOT NULL
        )`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
