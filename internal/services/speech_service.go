package services

import (
	"context"
	"log"
	"strings"
	"time"

	"schoolgenius/internal/assets"
	"schoolgenius/internal/fingerprint"
	"schoolgenius/internal/models"
	"schoolgenius/internal/providers"

	"golang.org/x/sync/singleflight"
)

// speechDiscriminator keeps speech fingerprints disjoint from answer
// fingerprints for the same request text.
const speechDiscriminator = "speech"

// SpeechService resolves text-to-speech requests through the cache and the
// audio provider fallback chain. Winning audio is persisted to the asset
// store and the cache holds only its public URL.
type SpeechService struct {
	store   CacheStore
	chain   []providers.AudioProvider
	assets  *assets.Store
	timeout time.Duration
	group   *singleflight.Group
}

// NewSpeechService creates the speech orchestrator.
func NewSpeechService(store CacheStore, chain []providers.AudioProvider, assetStore *assets.Store, timeout time.Duration, coalesce bool) *SpeechService {
	s := &SpeechService{
		store:   store,
		chain:   chain,
		assets:  assetStore,
		timeout: timeout,
	}
	if coalesce {
		s.group = &singleflight.Group{}
	}
	return s
}

// ResolveSpeech resolves a synthesis request. Same discipline as the answer
// path: cache first, provider fallback on a miss, best-effort write-back,
// and *providers.ExhaustedError as the only generation failure surfaced.
func (s *SpeechService) ResolveSpeech(ctx context.Context, req models.SpeechRequest) (*models.SpeechResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyRequest
	}

	contexts := []string{speechDiscriminator}
	if req.Voice != "" {
		contexts = append(contexts, req.Voice)
	}
	fp := fingerprint.Derive(req.Text, contexts...)

	if entry := s.lookup(ctx, fp); entry != nil && entry.AudioURL != "" {
		s.recordHit(ctx, fp)
		if m := GetMetrics(); m != nil {
			m.RecordCacheHit("speech")
		}
		log.Printf("🎯 [SPEECH] Cache hit for %s (served %d times)", fp[:12], entry.HitCount+1)
		return &models.SpeechResult{
			AudioURL:    entry.AudioURL,
			Provenance:  models.ProvenanceCache,
			Fingerprint: fp,
		}, nil
	}

	if m := GetMetrics(); m != nil {
		m.RecordCacheMiss("speech")
	}

	var result interface{}
	var err error
	if s.group != nil {
		// Shared by every coalesced waiter; must not die with the initiating
		// caller's connection
		genCtx := context.WithoutCancel(ctx)
		result, err, _ = s.group.Do(fp, func() (interface{}, error) {
			return s.synthesize(genCtx, fp, req)
		})
	} else {
		result, err = s.synthesize(ctx, fp, req)
	}
	if err != nil {
		return nil, err
	}
	return result.(*models.SpeechResult), nil
}

func (s *SpeechService) synthesize(ctx context.Context, fp string, req models.SpeechRequest) (*models.SpeechResult, error) {
	start := time.Now()
	var failures []providers.ProviderFailure

	for _, provider := range s.chain {
		audio, err := s.tryProvider(ctx, provider, req)
		if err != nil {
			log.Printf("⚠️  [SPEECH] Provider %s failed, trying next: %v", provider.Name(), err)
			if m := GetMetrics(); m != nil {
				m.RecordProviderFailure(provider.Name())
			}
			failures = append(failures, providers.ProviderFailure{
				Provider: provider.Name(),
				Reason:   err.Error(),
			})
			continue
		}

		url, err := s.assets.Save(fp, audio.Data, audio.ContentType)
		if err != nil {
			// Audio that cannot be persisted cannot be served; treat the
			// provider attempt as failed and move on
			log.Printf("❌ [SPEECH] Failed to persist audio from %s: %v", provider.Name(), err)
			failures = append(failures, providers.ProviderFailure{
				Provider: provider.Name(),
				Reason:   "asset store: " + err.Error(),
			})
			continue
		}

		if m := GetMetrics(); m != nil {
			m.RecordProviderWin(provider.Name())
			m.RecordGenerationLatency("speech", time.Since(start).Seconds())
		}

		entry := &models.CacheEntry{
			Fingerprint: fp,
			RequestText: req.Text,
			AudioURL:    url,
			Origin:      provider.Name(),
			UserType:    models.UserTypeChild,
		}
		if err := s.store.Insert(ctx, entry); err != nil {
			log.Printf("⚠️  [SPEECH] Cache insert failed for %s (continuing): %v", fp[:12], err)
			if m := GetMetrics(); m != nil {
				m.RecordStoreError("insert")
			}
		}

		// Cross-link: if an answer entry exists for the same text, attach
		// the audio so answer responses can carry it too. Purely best-effort.
		s.attachToAnswer(ctx, req.Text, url)

		log.Printf("✅ [SPEECH] Synthesized via %s for %s (%d bytes)", provider.Name(), fp[:12], len(audio.Data))
		return &models.SpeechResult{
			AudioURL:    url,
			Provenance:  provider.Name(),
			Fingerprint: fp,
		}, nil
	}

	log.Printf("❌ [SPEECH] All %d providers exhausted for %s", len(s.chain), fp[:12])
	return nil, &providers.ExhaustedError{Failures: failures}
}

func (s *SpeechService) tryProvider(ctx context.Context, provider providers.AudioProvider, req models.SpeechRequest) (providers.Audio, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	audio, err := provider.Synthesize(attemptCtx, providers.SynthesizeRequest{
		Text:     req.Text,
		VoiceRef: req.Voice,
	})
	if err != nil {
		return providers.Audio{}, err
	}
	if len(audio.Data) == 0 {
		return providers.Audio{}, &providers.ProviderError{Provider: provider.Name(), Err: providers.ErrEmptyResult}
	}
	return audio, nil
}

func (s *SpeechService) attachToAnswer(ctx context.Context, text, url string) {
	answerFP := fingerprint.Derive(text)
	if err := s.store.AttachAudioRef(ctx, answerFP, url); err != nil {
		log.Printf("📎 [SPEECH] No answer entry to attach audio for %s: %v", answerFP[:12], err)
	}
}

func (s *SpeechService) lookup(ctx context.Context, fp string) *models.CacheEntry {
	entry, err := s.store.Lookup(ctx, fp)
	if err != nil {
		log.Printf("⚠️  [SPEECH] Cache lookup failed for %s, treating as miss: %v", fp[:12], err)
		if m := GetMetrics(); m != nil {
			m.RecordStoreError("lookup")
		}
		return nil
	}
	return entry
}

func (s *SpeechService) recordHit(ctx context.Context, fp string) {
	if err := s.store.RecordHit(ctx, fp); err != nil {
		log.Printf("⚠️  [SPEECH] Failed to record hit for %s: %v", fp[:12], err)
		if m := GetMetrics(); m != nil {
			m.RecordStoreError("record_hit")
		}
	}
}
