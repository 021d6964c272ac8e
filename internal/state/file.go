package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk layout: conversation id -> title -> record.
type fileDocument struct {
	Conversations map[string]map[string]TaskRecord `yaml:"conversations"`
}

// FileStore persists every conversation in one YAML file. The file is
// rewritten through a temporary file and rename on each change.
type FileStore struct {
	path string
	mu   sync.Mutex
	doc  fileDocument
}

// NewFileStore loads path, or starts empty when it does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read state: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("parse state %s: %w", path, err)
		}
	}
	if s.doc.Conversations == nil {
		s.doc.Conversations = make(map[string]map[string]TaskRecord)
	}
	return s, nil
}

// Conversation implements Store.
func (s *FileStore) Conversation(ctx context.Context, id string) (Conversation, error) {
	return &fileConversation{store: s, id: id}, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// save writes the document. Callers hold s.mu.
func (s *FileStore) save() error {
	data, err := yaml.Marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// replace installs tasks as conversation id and saves. The previous tasks
// are restored when the save fails. Callers hold s.mu.
func (s *FileStore) replace(id string, tasks map[string]TaskRecord) error {
	prev, had := s.doc.Conversations[id]
	s.doc.Conversations[id] = tasks
	if err := s.save(); err != nil {
		if had {
			s.doc.Conversations[id] = prev
		} else {
			delete(s.doc.Conversations, id)
		}
		return err
	}
	return nil
}

type fileConversation struct {
	store *FileStore
	id    string
}

func (c *fileConversation) Task(ctx context.Context, title string) (TaskRecord, bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	rec, ok := c.store.doc.Conversations[c.id][title]
	return rec, ok, nil
}

func (c *fileConversation) PutTask(ctx context.Context, rec TaskRecord) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	tasks := maps.Clone(c.store.doc.Conversations[c.id])
	if tasks == nil {
		tasks = make(map[string]TaskRecord)
	}
	tasks[rec.Title] = rec
	return c.store.replace(c.id, tasks)
}

func (c *fileConversation) DeleteTask(ctx context.Context, title string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, ok := c.store.doc.Conversations[c.id][title]; !ok {
		return nil
	}
	tasks := maps.Clone(c.store.doc.Conversations[c.id])
	delete(tasks, title)
	return c.store.replace(c.id, tasks)
}

func (c *fileConversation) Tasks(ctx context.Context) ([]TaskRecord, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return sortedRecords(c.store.doc.Conversations[c.id]), nil
}
