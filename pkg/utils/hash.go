package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashString creates a SHA-256 hash of the input string
func HashString(input string) string {
	h := sha256.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a short, stable identifier for an applicant so log
// lines can be correlated without writing personal data. Input is compared
// case-insensitively and without surrounding whitespace.
func Fingerprint(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	return HashString(normalized)[:12]
}
