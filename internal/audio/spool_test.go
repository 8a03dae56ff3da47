package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSpoolAddAndRemove(t *testing.T) {
	baseDir := t.TempDir()

	spool, err := NewSpool(baseDir, "session-abc")
	if err != nil {
		t.Fatalf("Failed to create spool: %v", err)
	}

	if err := spool.Add([]byte("chunk0")); err != nil {
		t.Fatalf("Failed to add first chunk: %v", err)
	}
	if err := spool.Add([]byte("chunk1")); err != nil {
		t.Fatalf("Failed to add second chunk: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(spool.Dir(), "chunk_1.webm"))
	if err != nil {
		t.Fatalf("Failed to read spooled chunk: %v", err)
	}
	if string(data) != "chunk1" {
		t.Errorf("Expected chunk1 contents, got %q", data)
	}

	if errs := spool.Remove(); len(errs) != 0 {
		t.Errorf("Expected clean removal, got errors: %v", errs)
	}

	if _, err := os.Stat(spool.Dir()); !os.IsNotExist(err) {
		t.Errorf("Expected spool directory to be removed, stat returned: %v", err)
	}
}

func TestSpoolRemoveMissingDirectoryReportsErrors(t *testing.T) {
	baseDir := t.TempDir()

	spool, err := NewSpool(baseDir, "session-gone")
	if err != nil {
		t.Fatalf("Failed to create spool: %v", err)
	}

	if err := os.RemoveAll(spool.Dir()); err != nil {
		t.Fatalf("Failed to pre-remove spool dir: %v", err)
	}

	// Removal failures are reported but must not panic; teardown continues
	errs := spool.Remove()
	if len(errs) == 0 {
		t.Error("Expected errors removing a missing spool directory, got none")
	}
}
