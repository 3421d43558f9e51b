package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_CreateWritesThroughNestedDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "Movies", "clip.mp4.part")

	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("ftyp")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "ftyp" {
		t.Errorf("expected %q, got %q", "ftyp", data)
	}
}

func TestFileSystem_CreateTruncates(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	os.WriteFile(path, []byte("old contents"), 0644)

	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("new"))
	w.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("expected truncated file, got %q", data)
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()

	testPath := filepath.Join(t.TempDir(), "a", "b", "c", "test.txt")
	if err := fs.WriteFile(testPath, []byte("test")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	exists, err := fs.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}
}

func TestFileSystem_Rename(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	from := filepath.Join(dir, "clip.mp4.part")
	to := filepath.Join(dir, "clip.mp4")
	os.WriteFile(from, []byte("data"), 0644)

	if err := fs.Rename(from, to); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if exists, _ := fs.Exists(from); exists {
		t.Error("expected source to be gone")
	}
	if exists, _ := fs.Exists(to); !exists {
		t.Error("expected destination to exist")
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	testPath := filepath.Join(dir, "test.txt")
	os.WriteFile(testPath, []byte("test"), 0644)

	exists, err := fs.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}

	if err := fs.Remove(testPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	exists, err = fs.Exists(filepath.Join(dir, "test.txt"))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected file to be removed")
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()

	testPath := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := fs.MkdirAll(testPath); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if exists, _ := fs.Exists(testPath); !exists {
		t.Error("expected directory to exist")
	}
}
