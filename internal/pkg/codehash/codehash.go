// Package codehash derives lookup digests for promo codes so plaintext codes
// never reach the database.
package codehash

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var ErrEmptyPepper = errors.New("codehash: pepper must not be empty")

// Hasher computes keyed BLAKE2b-256 digests.
type Hasher struct {
	key []byte
}

func New(pepper string) (*Hasher, error) {
	if pepper == "" {
		return nil, ErrEmptyPepper
	}
	key := []byte(pepper)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Hasher{key: key}, nil
}

// Normalize trims surrounding whitespace and upper-cases the code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Hash returns the hex digest of the normalised code.
func (h *Hasher) Hash(code string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// key length is bounded in New
		panic(err)
	}
	mac.Write([]byte(Normalize(code)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Hint returns the first three characters of the normalised code for admin listings.
func Hint(code string) string {
	n := []rune(Normalize(code))
	if len(n) > 3 {
		n = n[:3]
	}
	return string(n)
}
