package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_MkdirExisting(t *testing.T) {
	osfs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "VisualizerData")

	if err := osfs.Mkdir(dir, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	err := osfs.Mkdir(dir, 0755)
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("expected fs.ErrExist on second Mkdir, got %v", err)
	}
}

func TestOSFileSystem_TempFileOperations(t *testing.T) {
	osfs := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.pcd")

	w, err := osfs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("VERSION .7\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := osfs.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "cloud.pcd" {
		t.Errorf("unexpected entries %v", entries)
	}

	if err := osfs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if osfs.Exists(path) {
		t.Error("file should be gone after Remove")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}
}

func TestMemoryFileSystem_CreateAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/created.txt")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("created content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := mfs.Open("/created.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "created content" {
		t.Errorf("expected 'created content', got %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len("created content")) {
		t.Errorf("unexpected size %d", info.Size())
	}
}

func TestMemoryFileSystem_OpenNonExistent(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("/missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_Mkdir(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.Mkdir("out", 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if err := mfs.Mkdir("out", 0755); !errors.Is(err, fs.ErrExist) {
		t.Errorf("expected fs.ErrExist, got %v", err)
	}

	info, err := mfs.Stat("out")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		if !mfs.Exists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/data/sub", 0755)
	_ = mfs.WriteFile("/data/b.pcd", []byte("b"), 0644)
	_ = mfs.WriteFile("/data/a.pcd", []byte("a"), 0644)
	_ = mfs.WriteFile("/data/sub/c.pcd", []byte("c"), 0644)

	entries, err := mfs.ReadDir("/data")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"a.pcd", "b.pcd", "sub"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, names[i], want[i])
		}
	}
	if !entries[2].IsDir() || entries[2].Type() != fs.ModeDir {
		t.Error("expected sub to be a directory entry")
	}

	if _, err := mfs.ReadDir("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/d", 0755)
	_ = mfs.WriteFile("/d/f.txt", []byte("x"), 0644)

	if err := mfs.Remove("/d"); err == nil {
		t.Error("expected error removing non-empty directory")
	}
	if err := mfs.Remove("/d/f.txt"); err != nil {
		t.Fatalf("Remove file failed: %v", err)
	}
	if err := mfs.Remove("/d"); err != nil {
		t.Fatalf("Remove dir failed: %v", err)
	}
	if err := mfs.Remove("/d"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a/./b/../c.txt", []byte("clean"), 0644)

	data, err := mfs.ReadFile("/a/c.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "clean" {
		t.Errorf("expected 'clean', got %q", data)
	}
}
