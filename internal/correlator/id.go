package correlator

import (
	"crypto/rand"
	"fmt"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 14
)

// NewCorrelationID generates a 14-character alphanumeric correlation id.
// The id is the sole authorization token for applying a redirect-based
// payment, so it must come from a cryptographically secure source.
func NewCorrelationID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	id := make([]byte, idLength)
	for i, b := range buf {
		id[i] = idAlphabet[int(b)%len(idAlphabet)]
	}

	return string(id), nil
}
