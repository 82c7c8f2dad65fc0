package jobs

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"schoolgenius/internal/assets"
	"schoolgenius/internal/models"

	"github.com/go-co-op/gocron/v2"
)

// CacheSource provides the cache reads the maintenance jobs depend on:
// aggregate stats for the report job and live audio references for cleanup
type CacheSource interface {
	Stats(ctx context.Context) (*models.CacheStats, error)
	AudioRefs(ctx context.Context) ([]string, error)
}

// Scheduler runs the periodic maintenance jobs: audio retention cleanup and
// a cache-stats report for the logs.
type Scheduler struct {
	scheduler gocron.Scheduler
	assets    *assets.Store
	cache     CacheSource
	retention time.Duration
}

// NewScheduler creates the maintenance scheduler.
func NewScheduler(assetStore *assets.Store, cache CacheSource, retention time.Duration) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		assets:    assetStore,
		cache:     cache,
		retention: retention,
	}, nil
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	log.Println("⏰ Starting maintenance scheduler...")

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(s.cleanupAudio),
		gocron.WithName("audio_cleanup"),
	)
	if err != nil {
		return fmt.Errorf("failed to register audio cleanup job: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(s.reportStats),
		gocron.WithName("cache_stats_report"),
	)
	if err != nil {
		return fmt.Errorf("failed to register stats report job: %w", err)
	}

	s.scheduler.Start()
	log.Println("✅ Maintenance scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	log.Println("⏹️ Stopping maintenance scheduler...")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) cleanupAudio() {
	if s.retention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Files the cache still points at must never be deleted, whatever their
	// age. If the references cannot be read, skip the sweep entirely rather
	// than risk orphaning a live entry's audio.
	refs, err := s.cache.AudioRefs(ctx)
	if err != nil {
		log.Printf("⚠️  [JOBS] Skipping audio cleanup, cannot read cache refs: %v", err)
		return
	}
	inUse := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if name := path.Base(ref); name != "" && name != "." && name != "/" {
			inUse[name] = true
		}
	}

	deleted := s.assets.CleanupExpired(s.retention, inUse)
	if deleted > 0 {
		log.Printf("🧹 [JOBS] Audio cleanup removed %d expired unreferenced files", deleted)
	}
}

func (s *Scheduler) reportStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := s.cache.Stats(ctx)
	if err != nil {
		log.Printf("⚠️  [JOBS] Failed to collect cache stats: %v", err)
		return
	}
	log.Printf("📊 [JOBS] Cache: %d entries, %d total hits, %d origins",
		stats.TotalEntries, stats.TotalHits, len(stats.ByOrigin))
}
