package tempspool

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveUploadCreatesDatedLayout(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	path, err := s.SaveUpload([]byte("hello"), "photo.jpg")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}
	now := time.Now()
	wantPrefix := filepath.Join(
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
	)
	if !hasPrefix(rel, wantPrefix) {
		t.Fatalf("path %q does not start with dated layout %q", rel, wantPrefix)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q, want %q", data, "hello")
	}
	if !hasSuffix(filepath.Base(path), "photo.jpg") {
		t.Fatalf("filename %q does not preserve sanitized original name", filepath.Base(path))
	}
}

func TestSaveBytesUsesExtension(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	path, err := s.SaveBytes([]byte{0xff, 0xd8}, "jpg")
	if err != nil {
		t.Fatalf("SaveBytes: %v", err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Fatalf("got ext %q, want .jpg", filepath.Ext(path))
	}
}

func TestDeleteSwallowsMissingFile(t *testing.T) {
	s := New(t.TempDir())
	s.Delete(filepath.Join(s.root, "does", "not", "exist"))
}

func TestCleanupRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	oldDir := filepath.Join(dir, "2020", "01", "01")
	if err := os.MkdirAll(oldDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	oldFile := filepath.Join(oldDir, "old.jpg")
	if err := os.WriteFile(oldFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(oldFile, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	freshPath, err := s.SaveUpload([]byte("y"), "fresh.jpg")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	n := s.Cleanup(1)
	if n != 1 {
		t.Fatalf("got %d deleted, want 1", n)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatalf("expected old file removed")
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("expected fresh file to survive: %v", err)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatalf("expected emptied old directory to be removed")
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
