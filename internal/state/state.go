// Package state keeps the per-conversation record of tasks created through
// the bot. The tracker remains the source of truth; these records exist so a
// conversation can refer back to what it created.
package state

import (
	"context"
	"fmt"

	"jtask/internal/config"
)

// TaskRecord is the local note kept for a task created in a conversation.
type TaskRecord struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Assignees   []string `yaml:"assignees,omitempty" json:"assignees,omitempty"`
	IssueKey    string   `yaml:"issue_key" json:"issueKey"`
	IssueURL    string   `yaml:"issue_url" json:"issueUrl"`
}

// Conversation holds the task records of one conversation, at most one per
// exact title.
type Conversation interface {
	// Task returns the record stored under title.
	Task(ctx context.Context, title string) (TaskRecord, bool, error)

	// PutTask stores rec, replacing any record with the same title.
	PutTask(ctx context.Context, rec TaskRecord) error

	// DeleteTask removes the record stored under title, if any.
	DeleteTask(ctx context.Context, title string) error

	// Tasks returns all records ordered by title.
	Tasks(ctx context.Context) ([]TaskRecord, error)
}

// Store opens conversations by id.
type Store interface {
	Conversation(ctx context.Context, id string) (Conversation, error)
	Close() error
}

// Open returns the store selected by cfg.State.Driver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.State.Driver {
	case config.StateMemory:
		return NewMemoryStore(), nil
	case config.StateYAML, "":
		return NewFileStore(cfg.StatePath())
	case config.StateSQLite:
		return NewSQLiteStore(cfg.StatePath())
	default:
		return nil, fmt.Errorf("unknown state driver %q (want memory, yaml or sqlite)", cfg.State.Driver)
	}
}
