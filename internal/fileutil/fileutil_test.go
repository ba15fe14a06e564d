package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClearDirectoryRemovesChildren(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	results, err := ClearDirectory(dir)
	if err != nil {
		t.Fatalf("ClearDirectory: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two results, got %+v", results)
	}
	for _, result := range results {
		if !result.Removed || result.Err != nil {
			t.Fatalf("entry not removed: %+v", result)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("directory not empty: %v", entries)
	}
}

func TestClearDirectoryMissingIsNoop(t *testing.T) {
	results, err := ClearDirectory(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

func TestMoveDirectory(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "folder")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "clip.mp4"), []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	destRoot := filepath.Join(root, "archive")
	dest, err := MoveDirectory(src, destRoot)
	if err != nil {
		t.Fatalf("MoveDirectory: %v", err)
	}
	if dest != filepath.Join(destRoot, "folder") {
		t.Fatalf("unexpected destination: %s", dest)
	}
	if PathExists(src) {
		t.Fatal("source still exists")
	}
	data, err := os.ReadFile(filepath.Join(dest, "clip.mp4"))
	if err != nil || string(data) != "video" {
		t.Fatalf("moved content wrong: %q %v", data, err)
	}
}

func TestMoveDirectoryRejectsExistingDest(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "folder")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	destRoot := filepath.Join(root, "archive")
	if err := os.MkdirAll(filepath.Join(destRoot, "folder"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := MoveDirectory(src, destRoot); err == nil {
		t.Fatal("expected collision error")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "dst.txt")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("copy mismatch: %q %v", data, err)
	}
}
