package state

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	convs map[string]*MemoryConversation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*MemoryConversation)}
}

// Conversation implements Store.
func (s *MemoryStore) Conversation(ctx context.Context, id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		c = NewMemoryConversation()
		s.convs[id] = c
	}
	return c, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// MemoryConversation is a Conversation backed by a map. The map is created
// on first write.
type MemoryConversation struct {
	mu    sync.RWMutex
	tasks map[string]TaskRecord
}

// NewMemoryConversation creates an empty conversation.
func NewMemoryConversation() *MemoryConversation {
	return &MemoryConversation{}
}

// Task implements Conversation.
func (c *MemoryConversation) Task(ctx context.Context, title string) (TaskRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.tasks[title]
	return rec, ok, nil
}

// PutTask implements Conversation.
func (c *MemoryConversation) PutTask(ctx context.Context, rec TaskRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tasks == nil {
		c.tasks = make(map[string]TaskRecord)
	}
	rec.Assignees = slices.Clone(rec.Assignees)
	c.tasks[rec.Title] = rec
	return nil
}

// DeleteTask implements Conversation.
func (c *MemoryConversation) DeleteTask(ctx context.Context, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, title)
	return nil
}

// Tasks implements Conversation.
func (c *MemoryConversation) Tasks(ctx context.Context) ([]TaskRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedRecords(c.tasks), nil
}

func sortedRecords(m map[string]TaskRecord) []TaskRecord {
	out := make([]TaskRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b TaskRecord) int { return strings.Compare(a.Title, b.Title) })
	return out
}
