package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeText trims the input and collapses runs of whitespace into a
// single space, so trivially reformatted questions share one fingerprint.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Fingerprint is the SHA-256 hex digest of the normalized text. A
// cryptographic-strength hash keeps unrelated content from ever colliding
// in the vector cache.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}

// ContentHash digests every question text in record order. Any edit to any
// question changes it, which invalidates the whole vector cache at once.
func ContentHash(records []QARecord) string {
	h := sha256.New()
	for _, record := range records {
		h.Write([]byte(NormalizeText(record.Question)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
