package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes the SHA-256 digest of data as a 64-character hex string.
// Besides cache key derivation, this is the content-addressing hash recorded
// for downloaded archives.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
