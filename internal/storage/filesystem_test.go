package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteReturnsFullPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	path, err := store.Write("photo_golden_hour-20260824123456.png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("file written outside base path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("unexpected file contents: %v", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Write("../escape.png", []byte("x")); err == nil {
		t.Fatalf("expected traversal name to be rejected")
	}
	if _, err := store.Write("  ", []byte("x")); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
}
