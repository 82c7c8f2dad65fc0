package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"schoolgenius/internal/database"
	"schoolgenius/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

const (
	hotKeyPrefix = "qa:"
	hotTTL       = 1 * time.Hour

	mysqlDuplicateEntry = 1062
)

// Store is the durable fingerprint → CacheEntry mapping. MySQL is the source
// of truth; an optional Redis hot tier absorbs repeat lookups. Redis being
// absent or down never affects correctness — every Redis failure falls
// through to MySQL.
type Store struct {
	db  *database.DB
	rdb *redis.Client // nil when Redis is not configured
}

// NewStore creates a cache store. rdb may be nil.
func NewStore(db *database.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}

// Lookup returns the entry for a fingerprint, or nil, nil when absent.
// Safe to call speculatively; has no side effects beyond hot-tier population.
func (s *Store) Lookup(ctx context.Context, fp string) (*models.CacheEntry, error) {
	if entry := s.hotGet(ctx, fp); entry != nil {
		return entry, nil
	}

	entry, err := s.scanOne(ctx, fp)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.hotSet(ctx, entry)
	}
	return entry, nil
}

// Insert creates a new entry. A duplicate fingerprint is a benign conflict:
// two concurrent misses both generated, one insert won, and the caller's own
// artifact is still valid for its response. The winning entry's payload is
// never overwritten.
func (s *Store) Insert(ctx context.Context, entry *models.CacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO qa_cache (fingerprint, request_text, answer_text, audio_url, origin, user_type, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Fingerprint, entry.RequestText, nullIfEmpty(entry.AnswerText), nullIfEmpty(entry.AudioURL),
		entry.Origin, entry.UserType, nullIfEmpty(entry.Category))

	if isDuplicateEntry(err) {
		log.Printf("📦 [CACHE] Concurrent insert for %s lost the race (benign)", shortFP(entry.Fingerprint))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	s.hotSet(ctx, entry)
	return nil
}

// isDuplicateEntry reports whether err is the MySQL duplicate-key error.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// nullIfEmpty maps the empty string to SQL NULL for nullable columns, so a
// speech entry's missing answer_text is stored as NULL, not ''.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// RecordHit increments hit_count for an existing entry. The increment happens
// in the database, so concurrent hits never lose updates.
func (s *Store) RecordHit(ctx context.Context, fp string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE qa_cache
		SET hit_count = hit_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE fingerprint = ?
	`, fp)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}

	// Drop the hot copy so the next lookup sees the fresh count
	s.hotDel(ctx, fp)
	return nil
}

// AttachAudioRef links a synthesized-audio reference to an existing entry
// without disturbing the text payload. Returns ErrNotFound if no entry exists
// for the fingerprint.
func (s *Store) AttachAudioRef(ctx context.Context, fp, audioURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE qa_cache
		SET audio_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE fingerprint = ?
	`, audioURL, fp)
	if err != nil {
		return fmt.Errorf("failed to attach audio ref: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check attach result: %w", err)
	}
	if rows == 0 {
		// Distinguish "no such entry" from "audio_url already set to this value"
		entry, lookupErr := s.scanOne(ctx, fp)
		if lookupErr != nil {
			return lookupErr
		}
		if entry == nil {
			return ErrNotFound
		}
	}

	s.hotDel(ctx, fp)
	return nil
}

// Stats aggregates cache totals for the stats endpoint and the periodic job.
func (s *Store) Stats(ctx context.Context) (*models.CacheStats, error) {
	stats := &models.CacheStats{ByOrigin: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM qa_cache
	`).Scan(&stats.TotalEntries, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT origin, COUNT(*) FROM qa_cache GROUP BY origin
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query origin breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var origin string
		var count int64
		if err := rows.Scan(&origin, &count); err != nil {
			return nil, fmt.Errorf("failed to scan origin row: %w", err)
		}
		stats.ByOrigin[origin] = count
	}

	return stats, rows.Err()
}

// AudioRefs returns every audio URL the cache currently references. The
// retention job uses this to keep referenced files on disk.
func (s *Store) AudioRefs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT audio_url FROM qa_cache WHERE audio_url IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan audio ref: %w", err)
		}
		refs = append(refs, url)
	}
	return refs, rows.Err()
}

func (s *Store) scanOne(ctx context.Context, fp string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	var answerText, audioURL, category sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, request_text, answer_text, audio_url, origin, user_type, category, hit_count, created_at, updated_at
		FROM qa_cache
		WHERE fingerprint = ?
	`, fp).Scan(&entry.Fingerprint, &entry.RequestText, &answerText, &audioURL,
		&entry.Origin, &entry.UserType, &category, &entry.HitCount,
		&entry.CreatedAt, &entry.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}

	if answerText.Valid {
		entry.AnswerText = answerText.String
	}
	if audioURL.Valid {
		entry.AudioURL = audioURL.String
	}
	if category.Valid {
		entry.Category = category.String
	}

	return &entry, nil
}

// --- Redis hot tier (best-effort, never load-bearing) ---

func (s *Store) hotGet(ctx context.Context, fp string) *models.CacheEntry {
	if s.rdb == nil {
		return nil
	}

	data, err := s.rdb.Get(ctx, hotKeyPrefix+fp).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️  [CACHE] Hot-tier read failed for %s: %v", shortFP(fp), err)
		}
		return nil
	}

	return decodeHotEntry(fp, data)
}

// decodeHotEntry parses a hot-tier payload. A corrupt payload is treated as
// a miss so MySQL remains the source of truth.
func decodeHotEntry(fp string, data []byte) *models.CacheEntry {
	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("⚠️  [CACHE] Hot-tier entry corrupt for %s: %v", shortFP(fp), err)
		return nil
	}
	return &entry
}

func (s *Store) hotSet(ctx context.Context, entry *models.CacheEntry) {
	if s.rdb == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, hotKeyPrefix+entry.Fingerprint, data, hotTTL).Err(); err != nil {
		log.Printf("⚠️  [CACHE] Hot-tier write failed for %s: %v", shortFP(entry.Fingerprint), err)
	}
}

func (s *Store) hotDel(ctx context.Context, fp string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, hotKeyPrefix+fp).Err(); err != nil {
		log.Printf("⚠️  [CACHE] Hot-tier invalidation failed for %s: %v", shortFP(fp), err)
	}
}

func shortFP(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
