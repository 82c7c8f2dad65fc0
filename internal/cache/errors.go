package cache

import "errors"

// ErrNotFound is returned when an operation targets a fingerprint that has no
// cache entry (e.g. attaching audio to an entry that was never created).
// Plain lookup misses are not errors — Lookup returns nil, nil.
var ErrNotFound = errors.New("cache entry not found")
