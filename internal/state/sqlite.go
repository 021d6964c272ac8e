package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps task records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
// The path ":memory:" opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// migrate creates the necessary tables
func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			conversation_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			assignees TEXT,
			issue_key TEXT NOT NULL,
			issue_url TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (conversation_id, title)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate state: %w", err)
	}
	return nil
}

// Conversation implements Store.
func (s *SQLiteStore) Conversation(ctx context.Context, id string) (Conversation, error) {
	return &sqliteConversation{db: s.db, id: id}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteConversation struct {
	db *sql.DB
	id string
}

func (c *sqliteConversation) Task(ctx context.Context, title string) (TaskRecord, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT title, description, assignees, issue_key, issue_url
		FROM tasks WHERE conversation_id = ? AND title = ?
	`, c.id, title)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TaskRecord{}, false, nil
	}
	if err != nil {
		return TaskRecord{}, false, err
	}
	return rec, true, nil
}

func (c *sqliteConversation) PutTask(ctx context.Context, rec TaskRecord) error {
	assignees, err := json.Marshal(rec.Assignees)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO tasks (conversation_id, title, description, assignees, issue_key, issue_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (conversation_id, title) DO UPDATE SET
			description = excluded.description,
			assignees = excluded.assignees,
			issue_key = excluded.issue_key,
			issue_url = excluded.issue_url,
			updated_at = excluded.updated_at
	`, c.id, rec.Title, rec.Description, string(assignees), rec.IssueKey, rec.IssueURL)
	if err != nil {
		return fmt.Errorf("store task %q: %w", rec.Title, err)
	}
	return nil
}

func (c *sqliteConversation) DeleteTask(ctx context.Context, title string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM tasks WHERE conversation_id = ? AND title = ?`, c.id, title); err != nil {
		return fmt.Errorf("delete task %q: %w", title, err)
	}
	return nil
}

func (c *sqliteConversation) Tasks(ctx context.Context) ([]TaskRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT title, description, assignees, issue_key, issue_url
		FROM tasks WHERE conversation_id = ? ORDER BY title
	`, c.id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TaskRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (TaskRecord, error) {
	var rec TaskRecord
	var assignees sql.NullString
	if err := row.Scan(&rec.Title, &rec.Description, &assignees, &rec.IssueKey, &rec.IssueURL); err != nil {
		return TaskRecord{}, err
	}
	if assignees.Valid && assignees.String != "" {
		if err := json.Unmarshal([]byte(assignees.String), &rec.Assignees); err != nil {
			return TaskRecord{}, fmt.Errorf("decode assignees: %w", err)
		}
	}
	return rec, nil
}
