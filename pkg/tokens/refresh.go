package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	RefreshTTL = 30 * 24 * time.Hour

	refreshBytes = 64
)

// NewRefreshToken returns an opaque hex-encoded token with 512 bits of entropy.
func NewRefreshToken() (string, error) {
	b := make([]byte, refreshBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
