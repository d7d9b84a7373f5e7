package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// APIKeyAuthenticator implements authentication using static API keys.
// Keys are held as SHA-256 digests.
type APIKeyAuthenticator struct {
	validKeys map[[sha256.Size]byte]string // digest -> client id
}

// NewAPIKeyAuthenticator creates a new API key authenticator
func NewAPIKeyAuthenticator(keys []string) *APIKeyAuthenticator {
	validKeys := make(map[[sha256.Size]byte]string)
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		digest := sha256.Sum256([]byte(key))
		validKeys[digest] = "key-" + hex.EncodeToString(digest[:4])
	}

	return &APIKeyAuthenticator{
		validKeys: validKeys,
	}
}

// Enabled reports whether any key is configured.
func (a *APIKeyAuthenticator) Enabled() bool {
	return len(a.validKeys) > 0
}

// Authenticate validates a token and returns a stable, non-secret client id
// derived from the key.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	// Remove "Bearer " prefix if present
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimSpace(token)

	if token == "" {
		return "", ErrMissingToken
	}

	clientID, ok := a.validKeys[sha256.Sum256([]byte(token))]
	if !ok {
		return "", ErrAuthenticationFailed
	}
	return clientID, nil
}
