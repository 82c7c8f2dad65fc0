package providers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResult means a provider responded successfully but with no usable
// content. It is always wrapped in a *ProviderError so diagnostics can tell
// "service up, said nothing" apart from "service down".
var ErrEmptyResult = errors.New("provider returned empty content")

// ProviderError records a single provider's failure: network error, non-2xx
// response, timeout, or empty content.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ProviderFailure is one entry in an ExhaustedError's aggregate.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// ExhaustedError means every provider in the fallback chain failed. It is the
// only generation error surfaced to callers of the orchestrators.
type ExhaustedError struct {
	Failures []ProviderFailure
}

func (e *ExhaustedError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = fmt.Sprintf("%s: %s", f.Provider, f.Reason)
	}
	return "all generation providers failed: " + strings.Join(reasons, "; ")
}
