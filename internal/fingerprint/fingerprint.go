package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// separator joins the normalized text and any discriminating contexts before
// hashing. The unit separator cannot appear in natural-language input, so
// ("a", "b") and ("a|b") can never collide.
const separator = "\x1f"

// Derive maps a generation request to its canonical cache key.
//
// The text is lowercased and trimmed of surrounding whitespace so trivial
// formatting differences collapse to the same key. Internal whitespace and
// punctuation are left alone — "what is 2+2?" and "what is 2 + 2?" are
// distinct on purpose, since broader normalization risks collapsing
// semantically different requests.
//
// Contexts discriminate otherwise-identical text: the same question asked
// for two different voices yields two distinct fingerprints. Contexts are
// matched verbatim (not normalized).
func Derive(text string, contexts ...string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))

	parts := make([]string, 0, len(contexts)+1)
	parts = append(parts, normalized)
	parts = append(parts, contexts...)

	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:])
}
