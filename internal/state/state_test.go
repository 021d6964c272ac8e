package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jtask/internal/config"
)

// storeFactories yields a fresh store per implementation.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"yaml": func() Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))
			if err != nil {
				t.Fatalf("NewFileStore() error = %v", err)
			}
			return s
		},
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			return s
		},
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			defer store.Close()

			conv, err := store.Conversation(ctx, "conv-1")
			if err != nil {
				t.Fatalf("Conversation() error = %v", err)
			}

			if _, ok, err := conv.Task(ctx, "Fix bug"); err != nil || ok {
				t.Fatalf("Task() on empty = ok %v, err %v", ok, err)
			}

			rec := TaskRecord{
				Title:       "Fix bug",
				Description: "details",
				Assignees:   []string{"Ada", "Grace"},
				IssueKey:    "PROJ-1",
				IssueURL:    "https://jira.example.com/browse/PROJ-1",
			}
			if err := conv.PutTask(ctx, rec); err != nil {
				t.Fatalf("PutTask() error = %v", err)
			}

			got, ok, err := conv.Task(ctx, "Fix bug")
			if err != nil || !ok {
				t.Fatalf("Task() = ok %v, err %v", ok, err)
			}
			if got.IssueKey != "PROJ-1" || got.IssueURL != rec.IssueURL || strings.Join(got.Assignees, ",") != "Ada,Grace" {
				t.Errorf("Task() = %+v", got)
			}

			// Same title replaces.
			rec.IssueKey = "PROJ-2"
			if err := conv.PutTask(ctx, rec); err != nil {
				t.Fatalf("PutTask() replace error = %v", err)
			}
			if err := conv.PutTask(ctx, TaskRecord{Title: "Another", IssueKey: "PROJ-3"}); err != nil {
				t.Fatalf("PutTask() error = %v", err)
			}

			all, err := conv.Tasks(ctx)
			if err != nil {
				t.Fatalf("Tasks() error = %v", err)
			}
			if len(all) != 2 || all[0].Title != "Another" || all[1].IssueKey != "PROJ-2" {
				t.Errorf("Tasks() = %+v", all)
			}

			// Conversations are isolated.
			other, _ := store.Conversation(ctx, "conv-2")
			if _, ok, _ := other.Task(ctx, "Fix bug"); ok {
				t.Error("record leaked into another conversation")
			}

			if err := conv.DeleteTask(ctx, "Fix bug"); err != nil {
				t.Fatalf("DeleteTask() error = %v", err)
			}
			if err := conv.DeleteTask(ctx, "never existed"); err != nil {
				t.Fatalf("DeleteTask() missing error = %v", err)
			}
			if _, ok, _ := conv.Task(ctx, "Fix bug"); ok {
				t.Error("record still present after DeleteTask")
			}
		})
	}
}

func TestFileStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	conv, _ := s.Conversation(ctx, "c")
	if err := conv.PutTask(ctx, TaskRecord{Title: "Persist me", IssueKey: "PROJ-9"}); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if !strings.Contains(string(data), "issue_key: PROJ-9") {
		t.Errorf("state file = %s", data)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	conv, _ = reopened.Conversation(ctx, "c")
	if rec, ok, _ := conv.Task(ctx, "Persist me"); !ok || rec.IssueKey != "PROJ-9" {
		t.Errorf("reopened Task() = %+v, %v", rec, ok)
	}
}

func TestFileStore_FailedSaveLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")
	s, err := NewFileStore(filepath.Join(dir, "state.yaml"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	conv, _ := s.Conversation(ctx, "c")
	if err := conv.PutTask(ctx, TaskRecord{Title: "Kept", IssueKey: "PROJ-1"}); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}

	// A regular file where the state directory was makes every save fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("not a dir"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := conv.PutTask(ctx, TaskRecord{Title: "Lost", IssueKey: "PROJ-2"}); err == nil {
		t.Fatal("PutTask() should fail when the state cannot be written")
	}
	if err := conv.DeleteTask(ctx, "Kept"); err == nil {
		t.Fatal("DeleteTask() should fail when the state cannot be written")
	}
	other, _ := s.Conversation(ctx, "other")
	if err := other.PutTask(ctx, TaskRecord{Title: "New"}); err == nil {
		t.Fatal("PutTask() on a new conversation should fail")
	}

	recs, _ := conv.Tasks(ctx)
	if len(recs) != 1 || recs[0].Title != "Kept" {
		t.Errorf("Tasks() = %+v, want only the saved record", recs)
	}
	if recs, _ := other.Tasks(ctx); len(recs) != 0 {
		t.Errorf("other Tasks() = %+v, want none", recs)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("conversations: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Error("NewFileStore() on corrupt file should fail")
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	conv, _ := s.Conversation(ctx, "c")
	if err := conv.PutTask(ctx, TaskRecord{Title: "Keep", IssueKey: "PROJ-4"}); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	conv, _ = s.Conversation(ctx, "c")
	rec, ok, err := conv.Task(ctx, "Keep")
	if err != nil || !ok || rec.IssueKey != "PROJ-4" || rec.Assignees != nil {
		t.Errorf("Task() = %+v, %v, %v", rec, ok, err)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{config.StateMemory, "*state.MemoryStore", false},
		{config.StateYAML, "*state.FileStore", false},
		{config.StateSQLite, "*state.SQLiteStore", false},
		{"redis", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg, _ := config.New(t.TempDir())
			cfg.State.Driver = tc.driver

			store, err := Open(cfg)
			if tc.wantErr {
				if err == nil {
					t.Error("Open() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer store.Close()

			if got := typeName(store); got != tc.want {
				t.Errorf("Open() type = %s, want %s", got, tc.want)
			}
		})
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *MemoryStore:
		return "*state.MemoryStore"
	case *FileStore:
		return "*state.FileStore"
	case *SQLiteStore:
		return "*state.SQLiteStore"
	default:
		return "unknown"
	}
}
