package usecase

import (
	"crypto/rand"
	"io"
)

// generateCodeToken creates a secure random redemption token.
// 24 characters over a 62-symbol alphabet makes collisions negligible,
// but the caller still retries on a unique-constraint violation.
func generateCodeToken() (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const tokenLength = 24

	buffer := make([]byte, tokenLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < tokenLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
