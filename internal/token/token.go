// Package token issues the short opaque access tokens that gate participant
// entry to a survey.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// Length is the fixed token length.
	Length = 10
	// MaxAttempts bounds the generate-and-check retry loop.
	MaxAttempts = 10

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrExhausted is returned when MaxAttempts candidates in a row collided
// with existing tokens. At 62^10 possible tokens this is effectively
// unreachable in practice, but the loop must not spin forever.
var ErrExhausted = errors.New("token generation exhausted retry attempts")

// ExistsFunc reports whether a candidate token is already taken.
type ExistsFunc func(token string) (bool, error)

// Generate produces a 10-character alphanumeric token that the exists check
// does not know. It performs no writes; persisting the token is the caller's
// responsibility.
func Generate(exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		candidate, err := random()
		if err != nil {
			return "", err
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("check token existence: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// random draws each character uniformly from the 62-symbol alphabet using
// crypto/rand.
func random() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
