package services

import "errors"

// ErrEmptyRequest is returned when a resolve call carries no request text.
// Rejected before fingerprinting; surfaced as a caller-input error.
var ErrEmptyRequest = errors.New("request text is required")
