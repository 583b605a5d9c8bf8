package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// MinSigningKeyBytes is the smallest HMAC key handed out, matching the
// SHA-256 block the tokens are signed with.
const MinSigningKeyBytes = 32

// NewSigningKey returns size random bytes, hex encoded, for use as a token
// signing secret. Sizes below MinSigningKeyBytes are raised to it.
func NewSigningKey(size int) (string, error) {
	if size < MinSigningKeyBytes {
		size = MinSigningKeyBytes
	}
	key := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("read signing key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
