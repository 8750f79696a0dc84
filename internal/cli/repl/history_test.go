package repl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewHistory(t *testing.T) {
	h := NewHistory("")
	if h.maxSize != 1000 {
		t.Errorf("maxSize = %d, want %d", h.maxSize, 1000)
	}
	if h.entries == nil {
		t.Error("entries should be initialized")
	}
}

func TestHistory_Add_MaxSize(t *testing.T) {
	h := &History{
		entries: make([]string, 0),
		maxSize: 3,
	}

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")
	h.Add("cmd4") // Should evict cmd1

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want %d", h.Len(), 3)
	}
	if h.entries[0] != "cmd2" {
		t.Errorf("entries[0] = %q, want %q", h.entries[0], "cmd2")
	}
}

func TestHistory_Get(t *testing.T) {
	h := NewHistory("")
	h.Add("first")
	h.Add("second")
	h.Add("third")

	tests := []struct {
		index int
		want  string
	}{
		{0, "third"}, // Most recent
		{1, "second"},
		{2, "first"},
		{3, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		if got := h.Get(tt.index); got != tt.want {
			t.Errorf("Get(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	historyFile := filepath.Join(t.TempDir(), ".timerelay", "history")

	h := NewHistory(historyFile)
	h.Add("get k")
	h.Add("set k v")
	if err := h.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(historyFile)
	if err != nil {
		t.Fatalf("history file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("history file mode = %v, want 0600", info.Mode().Perm())
	}

	h2 := NewHistory(historyFile)
	if err := h2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h2.Len() != 2 || h2.Get(0) != "set k v" {
		t.Errorf("loaded entries = %v", h2.entries)
	}
}

func TestHistory_Load_NonexistentFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"))
	if err := h.Load(); err != nil {
		t.Errorf("Load of nonexistent file should not error: %v", err)
	}
	if h.Len() != 0 {
		t.Error("entries should be empty after loading nonexistent file")
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")
	h.Add("cmd")
	if err := h.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestDefaultHistoryFile(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	if got := DefaultHistoryFile(); got != "/home/test/.timerelay/history" {
		t.Errorf("DefaultHistoryFile() = %q", got)
	}
}
