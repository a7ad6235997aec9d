package history

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// CurrentVersion is the current schema version.
const CurrentVersion = 2

// connPragmas are applied by the driver to every pooled connection.
const connPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenDB opens a SQLite database with foreign keys and WAL enabled.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	return db, nil
}

// Migrate brings the database to CurrentVersion, creating it if empty.
func Migrate(db *sql.DB) error {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return initDB(db)
	}
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	version, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		return initDB(db)
	case version == CurrentVersion:
		return nil
	case version > CurrentVersion:
		return fmt.Errorf("history schema version %d is newer than supported version %d", version, CurrentVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 1 -> 2: replies remember which subscriber they belong to.
	if version < 2 {
		if _, err := tx.Exec(`ALTER TABLE replies ADD COLUMN user_id TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add replies.user_id: %w", err)
		}
		if _, err := tx.Exec(`UPDATE replies SET user_id = (SELECT m.user_id FROM messages m WHERE m.message_id = replies.message_id)`); err != nil {
			return fmt.Errorf("backfill replies.user_id: %w", err)
		}
		if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_replies_user ON replies(user_id)`); err != nil {
			return fmt.Errorf("create idx_replies_user: %w", err)
		}
	}

	if _, err := tx.Exec("UPDATE schema_version SET version = ?, applied_at = CURRENT_TIMESTAMP", CurrentVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// SchemaVersion returns the stored schema version, or 0 if none is set.
func SchemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

func initDB(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			content    TEXT NOT NULL,
			sent_at    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS replies (
			reply_id   TEXT PRIMARY KEY,
			message_id TEXT NOT NULL REFERENCES messages(message_id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL DEFAULT '',
			sender     TEXT NOT NULL,
			content    TEXT NOT NULL,
			replied_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_replies_message ON replies(message_id)`,
		`CREATE INDEX IF NOT EXISTS idx_replies_user ON replies(user_id)`,
		`DELETE FROM schema_version`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", CurrentVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
