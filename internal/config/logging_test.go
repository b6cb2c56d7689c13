package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	f, err := OpenLogFile(dir, 5)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString("hello\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "draftly-*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 log file, got %d", len(files))
	}
}

func TestPruneLogFiles(t *testing.T) {
	dir := t.TempDir()

	names := []string{
		"draftly-2026-01-01T00-00-00.log",
		"draftly-2026-01-02T00-00-00.log",
		"draftly-2026-01-03T00-00-00.log",
		"draftly-2026-01-04T00-00-00.log",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatalf("seed %s: %v", n, err)
		}
	}

	if err := pruneLogFiles(dir, 2); err != nil {
		t.Fatalf("pruneLogFiles: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "draftly-*.log"))
	if len(files) != 2 {
		t.Fatalf("expected 2 files kept, got %d", len(files))
	}
	// Oldest two are gone, newest two remain.
	for _, want := range names[2:] {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("expected %s to survive pruning: %v", want, err)
		}
	}
}

func TestPruneLogFilesUnderLimit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "draftly-2026-01-01T00-00-00.log"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := pruneLogFiles(dir, 5); err != nil {
		t.Fatalf("pruneLogFiles: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "draftly-*.log"))
	if len(files) != 1 {
		t.Fatalf("file should be untouched, got %d", len(files))
	}
}
