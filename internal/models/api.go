package models

// AnswerRequest is the body of POST /api/answers.
type AnswerRequest struct {
	Text      string `json:"text"`
	ContextID string `json:"contextId,omitempty"` // discriminating context (e.g. user type)
	SessionID string `json:"sessionId,omitempty"`

	// NavigationTarget is set by the caller's intent matcher when the request
	// should also move the UI somewhere. Recorded per session, never cached.
	NavigationTarget string `json:"navigationTarget,omitempty"`
}

// AnswerResult is returned by the answer orchestrator and the API.
type AnswerResult struct {
	Text        string `json:"text"`
	Provenance  string `json:"provenance"` // "cache" or the winning provider's name
	Fingerprint string `json:"fingerprint"`
}

// SpeechRequest is the body of POST /api/speech.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"` // voice selector; varies the fingerprint
}

// SpeechResult is returned by the speech orchestrator and the API.
type SpeechResult struct {
	AudioURL    string `json:"audioUrl"`
	Provenance  string `json:"provenance"`
	Fingerprint string `json:"fingerprint"`
}

// ErrorResponse is the uniform error body for API failures.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
