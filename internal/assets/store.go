package assets

import (
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists binary artifacts (synthesized audio) under a directory
// served as static files, returning the publicly resolvable URL. Cached audio
// references must point at durable storage, not at an ephemeral provider
// response body.
type Store struct {
	dir     string
	baseURL string // public prefix, e.g. http://host:port/audio
}

// NewStore creates an asset store rooted at dir. Files are addressable under
// baseURL, which the HTTP layer must serve from the same directory.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes the payload and returns its public URL. The name must be a bare
// filename (no path separators) — callers derive it from the fingerprint.
func (s *Store) Save(name string, data []byte, contentType string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}

	if filepath.Ext(name) == "" {
		name += extensionFor(contentType)
	}

	// Write to a temp name first so a concurrent request for the same
	// fingerprint never reads a partially written file
	path := filepath.Join(s.dir, name)
	tempPath := filepath.Join(s.dir, fmt.Sprintf(".tmp_%s", uuid.New().String()))
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize asset: %w", err)
	}

	log.Printf("💾 [ASSETS] Stored %s (%d bytes, %s)", name, len(data), contentType)
	return s.baseURL + "/" + name, nil
}

// Dir returns the directory assets are written to (for static serving).
func (s *Store) Dir() string { return s.dir }

// CleanupExpired deletes assets older than maxAge, skipping any filename in
// inUse. Cache entries reference their audio by URL forever, so an aged file
// that is still referenced must survive — deleting it would leave every
// future hit serving a dead URL.
func (s *Store) CleanupExpired(maxAge time.Duration, inUse map[string]bool) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("⚠️  [ASSETS] Failed to read asset directory: %v", err)
		return 0
	}

	now := time.Now()
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if inUse[entry.Name()] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) > maxAge {
			path := filepath.Join(s.dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("⚠️  [ASSETS] Failed to delete expired asset %s: %v", entry.Name(), err)
			} else {
				deleted++
			}
		}
	}

	if deleted > 0 {
		log.Printf("✅ [ASSETS] Cleaned up %d expired assets", deleted)
	}
	return deleted
}

func extensionFor(contentType string) string {
	// mime.ExtensionsByType is unordered; pin the common audio types
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/flac":
		return ".flac"
	}

	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
