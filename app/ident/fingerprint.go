package ident

import (
	"crypto/sha256"
	"encoding/hex"
)

const unitSeparator = 0x1f

// Fingerprint hashes the parts in order, each followed by the unit separator,
// so ("ab", "c") and ("a", "bc") never collide.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{unitSeparator})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// URLHash names the archived HTML of a canonical URL.
func URLHash(canonicalURL string) string {
	return Fingerprint(canonicalURL)
}
