package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewVerifyToken returns a hex-encoded random token. Must stay on crypto/rand:
// the value proves control of an email address.
func NewVerifyToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
