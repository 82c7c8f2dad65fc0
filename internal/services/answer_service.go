package services

import (
	"context"
	"log"
	"strings"
	"time"

	"schoolgenius/internal/fingerprint"
	"schoolgenius/internal/models"
	"schoolgenius/internal/providers"

	"golang.org/x/sync/singleflight"
)

// CacheStore is the persistence surface the orchestrators depend on.
// Implemented by cache.Store; faked in tests.
type CacheStore interface {
	Lookup(ctx context.Context, fp string) (*models.CacheEntry, error)
	Insert(ctx context.Context, entry *models.CacheEntry) error
	RecordHit(ctx context.Context, fp string) error
	AttachAudioRef(ctx context.Context, fp, audioURL string) error
}

// AnswerService satisfies text-generation requests from the cache when
// possible, and from the provider fallback chain otherwise. The provider
// chain is only ever paid once per unique fingerprint.
type AnswerService struct {
	store     CacheStore
	chain     []providers.TextProvider
	timeout   time.Duration
	maxTokens int
	group     *singleflight.Group // nil disables miss coalescing
}

// NewAnswerService creates the answer orchestrator. Providers are tried
// strictly in slice order on a miss.
func NewAnswerService(store CacheStore, chain []providers.TextProvider, timeout time.Duration, maxTokens int, coalesce bool) *AnswerService {
	s := &AnswerService{
		store:     store,
		chain:     chain,
		timeout:   timeout,
		maxTokens: maxTokens,
	}
	if coalesce {
		s.group = &singleflight.Group{}
	}
	return s
}

// ResolveAnswer resolves a text request: fingerprint, cache lookup, provider
// fallback on a miss, write-back. Storage failures never fail the request;
// the only error surfaced (beyond ErrEmptyRequest) is *providers.ExhaustedError.
func (s *AnswerService) ResolveAnswer(ctx context.Context, req models.AnswerRequest) (*models.AnswerResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyRequest
	}

	var contexts []string
	if req.ContextID != "" {
		contexts = append(contexts, req.ContextID)
	}
	fp := fingerprint.Derive(req.Text, contexts...)

	if entry := s.lookup(ctx, fp); entry != nil && entry.AnswerText != "" {
		s.recordHit(ctx, fp)
		if m := GetMetrics(); m != nil {
			m.RecordCacheHit("answer")
		}
		log.Printf("🎯 [ANSWER] Cache hit for %s (served %d times)", fp[:12], entry.HitCount+1)
		return &models.AnswerResult{
			Text:        entry.AnswerText,
			Provenance:  models.ProvenanceCache,
			Fingerprint: fp,
		}, nil
	}

	if m := GetMetrics(); m != nil {
		m.RecordCacheMiss("answer")
	}

	var result interface{}
	var err error
	if s.group != nil {
		// The coalesced generation is shared by every waiter, so it must not
		// die with the initiating caller's connection. Per-attempt timeouts
		// still bound each provider call.
		genCtx := context.WithoutCancel(ctx)
		result, err, _ = s.group.Do(fp, func() (interface{}, error) {
			return s.generate(genCtx, fp, req)
		})
	} else {
		result, err = s.generate(ctx, fp, req)
	}
	if err != nil {
		return nil, err
	}
	return result.(*models.AnswerResult), nil
}

// generate walks the provider chain in priority order. No retries within a
// provider; the first non-empty answer wins and all later providers are
// skipped.
func (s *AnswerService) generate(ctx context.Context, fp string, req models.AnswerRequest) (*models.AnswerResult, error) {
	start := time.Now()
	var failures []providers.ProviderFailure

	for _, provider := range s.chain {
		answer, err := s.tryProvider(ctx, provider, req)
		if err != nil {
			log.Printf("⚠️  [ANSWER] Provider %s failed, trying next: %v", provider.Name(), err)
			if m := GetMetrics(); m != nil {
				m.RecordProviderFailure(provider.Name())
			}
			failures = append(failures, providers.ProviderFailure{
				Provider: provider.Name(),
				Reason:   err.Error(),
			})
			continue
		}

		if m := GetMetrics(); m != nil {
			m.RecordProviderWin(provider.Name())
			m.RecordGenerationLatency("answer", time.Since(start).Seconds())
		}

		// Best-effort write-back: losing a cache-population opportunity is
		// not a user-visible failure
		entry := &models.CacheEntry{
			Fingerprint: fp,
			RequestText: req.Text,
			AnswerText:  answer,
			Origin:      provider.Name(),
			UserType:    models.UserTypeChild,
		}
		if err := s.store.Insert(ctx, entry); err != nil {
			log.Printf("⚠️  [ANSWER] Cache insert failed for %s (continuing): %v", fp[:12], err)
			if m := GetMetrics(); m != nil {
				m.RecordStoreError("insert")
			}
		}

		log.Printf("✅ [ANSWER] Generated via %s for %s (%d chars)", provider.Name(), fp[:12], len(answer))
		return &models.AnswerResult{
			Text:        answer,
			Provenance:  provider.Name(),
			Fingerprint: fp,
		}, nil
	}

	log.Printf("❌ [ANSWER] All %d providers exhausted for %s", len(s.chain), fp[:12])
	return nil, &providers.ExhaustedError{Failures: failures}
}

// tryProvider makes one bounded attempt against a single provider.
func (s *AnswerService) tryProvider(ctx context.Context, provider providers.TextProvider, req models.AnswerRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := provider.Generate(attemptCtx, providers.GenerateRequest{
		Prompt:    req.Text,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", &providers.ProviderError{Provider: provider.Name(), Err: providers.ErrEmptyResult}
	}
	return answer, nil
}

// lookup is fail-open: a storage error is logged and treated as a miss so a
// degraded cache never blocks generation.
func (s *AnswerService) lookup(ctx context.Context, fp string) *models.CacheEntry {
	entry, err := s.store.Lookup(ctx, fp)
	if err != nil {
		log.Printf("⚠️  [ANSWER] Cache lookup failed for %s, treating as miss: %v", fp[:12], err)
		if m := GetMetrics(); m != nil {
			m.RecordStoreError("lookup")
		}
		return nil
	}
	return entry
}

// recordHit is best-effort; a lost increment never surfaces to the caller.
func (s *AnswerService) recordHit(ctx context.Context, fp string) {
	if err := s.store.RecordHit(ctx, fp); err != nil {
		log.Printf("⚠️  [ANSWER] Failed to record hit for %s: %v", fp[:12], err)
		if m := GetMetrics(); m != nil {
			m.RecordStoreError("record_hit")
		}
	}
}
