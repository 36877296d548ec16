// Package token generates the unguessable tokens used for shareable booking
// links and public contract-page access. Tokens are opaque random values
// stored on the document they protect; possession of the token is the only
// credential.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 24

// New returns a URL-safe random token with 192 bits of entropy.
func New() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
