package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"schoolgenius/internal/fingerprint"
	"schoolgenius/internal/models"

	"gopkg.in/yaml.v3"
)

// SeedEntry is one curated question/answer pair from the seed file.
type SeedEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Category string `yaml:"category"`
}

type seedFile struct {
	Entries []SeedEntry `yaml:"entries"`
}

// SeedService loads curated Q&A pairs into the cache at startup so common
// questions are answered without ever paying a provider call.
type SeedService struct {
	store CacheStore
}

// NewSeedService creates a new seed service.
func NewSeedService(store CacheStore) *SeedService {
	return &SeedService{store: store}
}

// SeedFromFile loads the YAML seed file and inserts each entry that is not
// already cached. Existing entries are left untouched, so re-running on every
// startup is safe. Returns the number of newly inserted entries.
func (s *SeedService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	inserted := 0
	for i, entry := range file.Entries {
		if entry.Question == "" || entry.Answer == "" {
			log.Printf("⚠️  [SEED] Skipping entry %d: question and answer are required", i)
			continue
		}

		fp := fingerprint.Derive(entry.Question)
		existing, err := s.store.Lookup(ctx, fp)
		if err != nil {
			return inserted, fmt.Errorf("seed lookup failed: %w", err)
		}
		if existing != nil {
			continue
		}

		err = s.store.Insert(ctx, &models.CacheEntry{
			Fingerprint: fp,
			RequestText: entry.Question,
			AnswerText:  entry.Answer,
			Origin:      models.OriginUserAuthored,
			UserType:    models.UserTypeChild,
			Category:    entry.Category,
		})
		if err != nil {
			return inserted, fmt.Errorf("seed insert failed: %w", err)
		}
		inserted++
	}

	log.Printf("🌱 [SEED] Loaded %d entries from %s (%d new)", len(file.Entries), path, inserted)
	return inserted, nil
}
