package models

import "time"

// Entry origins. Provider-generated entries carry the provider name instead.
const (
	OriginUserAuthored = "user-authored"
	ProvenanceCache    = "cache"
)

// User types for cached Q&A (carried over from the seeded library).
const (
	UserTypeChild  = "child"
	UserTypeParent = "parent"
)

// CacheEntry is the unit of stored knowledge: one generated artifact per
// fingerprint. AnswerText holds the payload for text entries; AudioURL holds
// the payload for speech entries, or a secondary spoken rendition attached to
// a text entry. The payload is write-once; only HitCount, UpdatedAt and the
// audio attachment change after creation.
type CacheEntry struct {
	Fingerprint string    `json:"fingerprint"`
	RequestText string    `json:"request_text"`
	AnswerText  string    `json:"answer_text,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	Origin      string    `json:"origin"`
	UserType    string    `json:"user_type,omitempty"`
	Category    string    `json:"category,omitempty"`
	HitCount    int64     `json:"hit_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CacheStats summarizes the cache for the stats endpoint and the periodic
// stats job.
type CacheStats struct {
	TotalEntries int64            `json:"total_entries"`
	TotalHits    int64            `json:"total_hits"`
	ByOrigin     map[string]int64 `json:"by_origin"`
}
