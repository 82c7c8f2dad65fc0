package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"schoolgenius/internal/assets"
	"schoolgenius/internal/models"
)

type fakeCacheSource struct {
	stats   *models.CacheStats
	refs    []string
	refsErr error
}

func (f *fakeCacheSource) Stats(context.Context) (*models.CacheStats, error) {
	if f.stats == nil {
		return nil, errors.New("stats unavailable")
	}
	return f.stats, nil
}

func (f *fakeCacheSource) AudioRefs(context.Context) ([]string, error) {
	return f.refs, f.refsErr
}

func agedAssetStore(t *testing.T, names ...string) (*assets.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := assets.NewStore(dir, "http://localhost/audio")
	if err != nil {
		t.Fatalf("Failed to create asset store: %v", err)
	}
	for _, name := range names {
		if _, err := store.Save(name, []byte("x"), "audio/mpeg"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		past := time.Now().Add(-48 * time.Hour)
		if err := os.Chtimes(filepath.Join(dir, name+".mp3"), past, past); err != nil {
			t.Fatalf("Failed to age file: %v", err)
		}
	}
	return store, dir
}

func TestCleanupAudioKeepsCachedSpeech(t *testing.T) {
	// Audio served from the cache keeps hitting the same fingerprint forever,
	// so its file must outlive any retention window
	store, dir := agedAssetStore(t, "d725f91b", "stale")

	scheduler, err := NewScheduler(store, &fakeCacheSource{
		refs: []string{"http://localhost/audio/d725f91b.mp3"},
	}, 1*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}

	scheduler.cleanupAudio()

	if _, err := os.Stat(filepath.Join(dir, "d725f91b.mp3")); err != nil {
		t.Error("Audio referenced by a cache entry must survive retention cleanup")
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.mp3")); !os.IsNotExist(err) {
		t.Error("Unreferenced expired audio should be deleted")
	}
}

func TestCleanupAudioAbortsWithoutRefs(t *testing.T) {
	store, dir := agedAssetStore(t, "a", "b")

	scheduler, err := NewScheduler(store, &fakeCacheSource{
		refsErr: errors.New("db down"),
	}, 1*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}

	scheduler.cleanupAudio()

	// Unknown reference state: nothing may be deleted
	for _, name := range []string{"a.mp3", "b.mp3"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("File %s must survive when refs cannot be read", name)
		}
	}
}

func TestCleanupAudioDisabledRetention(t *testing.T) {
	store, dir := agedAssetStore(t, "a")

	scheduler, err := NewScheduler(store, &fakeCacheSource{}, 0)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}

	scheduler.cleanupAudio()

	if _, err := os.Stat(filepath.Join(dir, "a.mp3")); err != nil {
		t.Error("Zero retention disables cleanup entirely")
	}
}
