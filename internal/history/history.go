// Package history keeps a local SQLite log of sent chat messages and the
// replies they received, so past conversations can be shown offline.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xyz-social/newsletter/internal/api"
	"github.com/xyz-social/newsletter/internal/identity"
	"github.com/xyz-social/newsletter/internal/paths"
)

// Store is the local message log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the log at path.
func Open(path string) (*Store, error) {
	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, migrating it first.
func New(db *sql.DB) (*Store, error) {
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSent logs a message the user sent. Recording the same id twice is a
// no-op.
func (s *Store) RecordSent(ctx context.Context, userID, messageID, content string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages (message_id, user_id, content, sent_at) VALUES (?, ?, ?, ?)`,
		messageID, userID, content, formatTime(at))
	if err != nil {
		return fmt.Errorf("record message %s: %w", messageID, err)
	}
	return nil
}

// RecordReply logs a reply. Replies without a server id get a local one.
// The replied-to message must already be recorded.
func (s *Store) RecordReply(ctx context.Context, userID string, r api.Reply, at time.Time) error {
	id := r.ID
	if id == "" {
		id = identity.NewLocalID("rpl")
	}
	if !r.CreatedAt.IsZero() {
		at = r.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO replies (reply_id, message_id, user_id, sender, content, replied_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.ReplyTo, userID, r.SenderName, r.Content, formatTime(at))
	if err != nil {
		return fmt.Errorf("record reply to %s: %w", r.ReplyTo, err)
	}
	return nil
}

// ListMessages returns the user's logged messages followed by the replies
// to them, each in chronological order, in the same shape as the messages
// endpoint.
func (s *Store) ListMessages(ctx context.Context, userID string) ([]api.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, content, sent_at FROM messages WHERE user_id = ? ORDER BY sent_at, message_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	var out []api.Message
	for rows.Next() {
		var m api.Message
		if err := rows.Scan(&m.ID, &m.Content, &m.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT reply_id, message_id, sender, content, replied_at FROM replies WHERE user_id = ? ORDER BY replied_at, reply_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m api.Message
		if err := rows.Scan(&m.ID, &m.ReplyTo, &m.UserName, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replies: %w", err)
	}
	return out, nil
}

// Count returns the number of logged messages and replies for userID.
func (s *Store) Count(ctx context.Context, userID string) (messages, replies int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM messages WHERE user_id = ?), (SELECT COUNT(*) FROM replies WHERE user_id = ?)`,
		userID, userID).Scan(&messages, &replies)
	if err != nil {
		return 0, 0, fmt.Errorf("count history: %w", err)
	}
	return messages, replies, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
