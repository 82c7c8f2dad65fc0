package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveReturnsPublicURL(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost:3001/audio/")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	url, err := store.Save("abc123", []byte("fake-audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Failed to save asset: %v", err)
	}

	if url != "http://localhost:3001/audio/abc123.mp3" {
		t.Errorf("Unexpected URL: %s", url)
	}

	// File must exist on disk with the payload
	data, err := os.ReadFile(filepath.Join(store.Dir(), "abc123.mp3"))
	if err != nil {
		t.Fatalf("Saved asset not readable: %v", err)
	}
	if string(data) != "fake-audio" {
		t.Errorf("Payload mismatch: %s", data)
	}
}

func TestSaveExtensionByContentType(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost/audio")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	cases := []struct {
		contentType string
		wantExt     string
	}{
		{"audio/mpeg", ".mp3"},
		{"audio/wav", ".wav"},
		{"audio/ogg", ".ogg"},
		{"application/octet-stream", ".bin"},
	}

	for _, tc := range cases {
		url, err := store.Save("f-"+tc.wantExt[1:], []byte("x"), tc.contentType)
		if err != nil {
			t.Fatalf("Save failed for %s: %v", tc.contentType, err)
		}
		if !strings.HasSuffix(url, tc.wantExt) {
			t.Errorf("Content type %s: expected extension %s, got URL %s", tc.contentType, tc.wantExt, url)
		}
	}
}

func TestSaveRejectsPathTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost/audio")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for _, name := range []string{"", "../escape.mp3", "a/b.mp3"} {
		if _, err := store.Save(name, []byte("x"), "audio/mpeg"); err == nil {
			t.Errorf("Expected error for asset name %q", name)
		}
	}
}

func TestCleanupExpired(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "http://localhost/audio")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := store.Save("old", []byte("x"), "audio/mpeg"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save("fresh", []byte("x"), "audio/mpeg"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Age the first file past the retention window
	oldPath := filepath.Join(dir, "old.mp3")
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("Failed to age file: %v", err)
	}

	deleted := store.CleanupExpired(1*time.Hour, nil)
	if deleted != 1 {
		t.Errorf("Expected 1 deleted asset, got %d", deleted)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("Expired asset should be gone")
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.mp3")); err != nil {
		t.Error("Fresh asset should survive cleanup")
	}
}

func TestCleanupExpiredKeepsReferencedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "http://localhost/audio")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	// Both files are well past the retention window
	for _, name := range []string{"served", "orphan"} {
		if _, err := store.Save(name, []byte("x"), "audio/mpeg"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		past := time.Now().Add(-48 * time.Hour)
		if err := os.Chtimes(filepath.Join(dir, name+".mp3"), past, past); err != nil {
			t.Fatalf("Failed to age file: %v", err)
		}
	}

	deleted := store.CleanupExpired(1*time.Hour, map[string]bool{"served.mp3": true})
	if deleted != 1 {
		t.Errorf("Expected only the orphan deleted, got %d", deleted)
	}

	// A cache entry still points at this file; its age must not matter
	if _, err := os.Stat(filepath.Join(dir, "served.mp3")); err != nil {
		t.Error("Referenced asset must survive cleanup regardless of age")
	}
	if _, err := os.Stat(filepath.Join(dir, "orphan.mp3")); !os.IsNotExist(err) {
		t.Error("Unreferenced expired asset should be gone")
	}
}
