// Package checksum fingerprints stored values so unchanged data can be
// skipped.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// emptyList is how an unset word list is fingerprinted.
var emptyList = []byte("[]")

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// List returns the digest of an encoded list and the bytes it was taken
// over. An unset or empty value counts as "[]", so a cleared list and one
// that was never written share a fingerprint.
func List(raw []byte) (string, []byte) {
	if len(raw) == 0 {
		raw = emptyList
	}
	return Sum(raw), raw
}
