package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanKey(t *testing.T) {
	valid := map[string]string{
		"files/a.pdf":        "files/a.pdf",
		"files//b.png":       "files/b.png",
		"files/./c/../d.txt": "files/d.txt",
	}
	for in, want := range valid {
		got, err := cleanKey(in)
		if err != nil || got != want {
			t.Fatalf("cleanKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, in := range []string{"", "/etc/passwd", "../secret", "a/../../b", ".."} {
		if _, err := cleanKey(in); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("cleanKey(%q) should fail, got %v", in, err)
		}
	}
}

func TestDiskStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := store.Put(context.Background(), "files/notes.txt", strings.NewReader("hello"), 5, "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/files/notes.txt" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "files", "notes.txt"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("file not written: %q, %v", data, err)
	}

	if err := store.Delete(context.Background(), "files/notes.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(context.Background(), "files/notes.txt"); err != nil {
		t.Fatalf("deleting a missing object should succeed, got %v", err)
	}
}
