package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"schoolgenius/internal/assets"
	"schoolgenius/internal/models"
	"schoolgenius/internal/providers"
	"schoolgenius/internal/services"

	"github.com/gofiber/fiber/v2"
)

// memStore is a minimal in-memory CacheStore for handler tests.
type memStore struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	stats   *models.CacheStats
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.CacheEntry)}
}

func (m *memStore) Lookup(_ context.Context, fp string) (*models.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[fp]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) Insert(_ context.Context, entry *models.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.Fingerprint]; !exists {
		copied := *entry
		m.entries[entry.Fingerprint] = &copied
	}
	return nil
}

func (m *memStore) RecordHit(_ context.Context, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[fp]; ok {
		entry.HitCount++
	}
	return nil
}

func (m *memStore) AttachAudioRef(_ context.Context, fp, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[fp]; ok {
		entry.AudioURL = url
		return nil
	}
	return errors.New("cache entry not found")
}

func (m *memStore) Stats(_ context.Context) (*models.CacheStats, error) {
	if m.stats == nil {
		return nil, errors.New("stats unavailable")
	}
	return m.stats, nil
}

type stubText struct {
	name  string
	reply string
	err   error
}

func (s *stubText) Name() string { return s.name }
func (s *stubText) Generate(context.Context, providers.GenerateRequest) (string, error) {
	return s.reply, s.err
}

type stubAudio struct {
	name string
	data []byte
	err  error
}

func (s *stubAudio) Name() string { return s.name }
func (s *stubAudio) Synthesize(context.Context, providers.SynthesizeRequest) (providers.Audio, error) {
	if s.err != nil {
		return providers.Audio{}, s.err
	}
	return providers.Audio{Data: s.data, ContentType: "audio/mpeg"}, nil
}

func newTestApp(t *testing.T, store *memStore, text []providers.TextProvider, audio []providers.AudioProvider) *fiber.App {
	t.Helper()

	sessions := services.NewSessionState(5 * time.Minute)
	answers := services.NewAnswerService(store, text, 5*time.Second, 300, false)

	assetStore, err := assets.NewStore(t.TempDir(), "http://localhost/audio")
	if err != nil {
		t.Fatalf("Failed to create asset store: %v", err)
	}
	speech := services.NewSpeechService(store, audio, assetStore, 5*time.Second, false)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/answers", NewAnswerHandler(answers, sessions).Resolve)
	api.Post("/speech", NewSpeechHandler(speech).Resolve)
	api.Get("/navigation/pending", NewNavigationHandler(sessions).Pending)
	api.Get("/cache/stats", NewStatsHandler(store).CacheStats)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to decode body %s: %v", data, err)
	}
}

func TestAnswerEndpoint(t *testing.T) {
	store := newMemStore()
	app := newTestApp(t, store,
		[]providers.TextProvider{&stubText{name: "grok", reply: "Rain is water from clouds!"}}, nil)

	resp := postJSON(t, app, "/api/answers", models.AnswerRequest{Text: "What is rain?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result models.AnswerResult
	decodeBody(t, resp, &result)
	if result.Text != "Rain is water from clouds!" || result.Provenance != "grok" {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.Fingerprint == "" {
		t.Error("Fingerprint missing from response")
	}

	// Repeat is served from cache
	resp = postJSON(t, app, "/api/answers", models.AnswerRequest{Text: "what is rain?  "})
	decodeBody(t, resp, &result)
	if result.Provenance != models.ProvenanceCache {
		t.Errorf("Expected cache provenance on repeat, got %s", result.Provenance)
	}
}

func TestAnswerEndpointEmptyText(t *testing.T) {
	app := newTestApp(t, newMemStore(),
		[]providers.TextProvider{&stubText{name: "grok", reply: "x"}}, nil)

	resp := postJSON(t, app, "/api/answers", models.AnswerRequest{Text: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestAnswerEndpointExhaustion(t *testing.T) {
	app := newTestApp(t, newMemStore(),
		[]providers.TextProvider{
			&stubText{name: "grok", err: errors.New("down")},
			&stubText{name: "claude", err: errors.New("also down")},
		}, nil)

	resp := postJSON(t, app, "/api/answers", models.AnswerRequest{Text: "q"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", resp.StatusCode)
	}

	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	if len(body.Details) != 2 {
		t.Errorf("Expected per-provider details, got %+v", body)
	}
}

func TestAnswerEndpointRecordsNavigation(t *testing.T) {
	app := newTestApp(t, newMemStore(),
		[]providers.TextProvider{&stubText{name: "grok", reply: "Off to math!"}}, nil)

	resp := postJSON(t, app, "/api/answers", models.AnswerRequest{
		Text:             "take me to math",
		SessionID:        "sess-9",
		NavigationTarget: "/kid/math",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/navigation/pending?sessionId=sess-9", nil)
	navResp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Navigation request failed: %v", err)
	}
	if navResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", navResp.StatusCode)
	}

	var nav struct {
		Target string `json:"target"`
	}
	decodeBody(t, navResp, &nav)
	if nav.Target != "/kid/math" {
		t.Errorf("Expected /kid/math, got %q", nav.Target)
	}

	// Popped: second read finds nothing
	navResp, err = app.Test(httptest.NewRequest("GET", "/api/navigation/pending?sessionId=sess-9", nil), 5000)
	if err != nil {
		t.Fatalf("Navigation request failed: %v", err)
	}
	if navResp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 after pop, got %d", navResp.StatusCode)
	}
}

func TestNavigationEndpointRequiresSession(t *testing.T) {
	app := newTestApp(t, newMemStore(), nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/navigation/pending", nil), 5000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestSpeechEndpoint(t *testing.T) {
	app := newTestApp(t, newMemStore(), nil,
		[]providers.AudioProvider{&stubAudio{name: "chatterbox", data: []byte("mp3")}})

	resp := postJSON(t, app, "/api/speech", models.SpeechRequest{Text: "Hello!"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result models.SpeechResult
	decodeBody(t, resp, &result)
	if result.AudioURL == "" || result.Provenance != "chatterbox" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestStatsEndpoint(t *testing.T) {
	store := newMemStore()
	store.stats = &models.CacheStats{
		TotalEntries: 12,
		TotalHits:    48,
		ByOrigin:     map[string]int64{"grok": 10, "user-authored": 2},
	}
	app := newTestApp(t, store, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cache/stats", nil), 5000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var stats models.CacheStats
	decodeBody(t, resp, &stats)
	if stats.TotalEntries != 12 || stats.TotalHits != 48 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestStatsEndpointError(t *testing.T) {
	app := newTestApp(t, newMemStore(), nil, nil) // stats unset → source errors

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cache/stats", nil), 5000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
}
