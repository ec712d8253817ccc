// Package password hashes and verifies account passwords.
//
// Two algorithms are supported: bcrypt and argon2id. New hashes use the configured
// algorithm; verification dispatches on the stored hash prefix so accounts hashed with
// the other algorithm keep working and can be rehashed on their next login.
package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// MaxLength is the longest password accepted, in bytes (bcrypt's input limit)
const MaxLength = 72

// ErrUnknownHashFormat is returned when a stored hash matches no supported algorithm
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Hasher hashes passwords with a tunable work factor
type Hasher struct {
	algorithm    string
	bcryptCost   int
	argon2Params *argon2id.Params
	dummyHash    string
}

// NewHasher creates a hasher for the given algorithm.
// bcryptCost is clamped to bcrypt's accepted range.
func NewHasher(algorithm string, bcryptCost int) (*Hasher, error) {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.MinCost
	}
	if bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.MaxCost
	}

	h := &Hasher{
		algorithm:    algorithm,
		bcryptCost:   bcryptCost,
		argon2Params: argon2id.DefaultParams,
	}

	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm: %q", algorithm)
	}

	// Verified against when the account does not exist, so both paths cost the same
	dummy, err := h.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	h.dummyHash = dummy

	return h, nil
}

// Hash returns a salted one-way hash of the plaintext password
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxLength {
		return "", bcrypt.ErrPasswordTooLong
	}

	if h.algorithm == AlgorithmArgon2id {
		hash, err := argon2id.CreateHash(plaintext, h.argon2Params)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash.
// A mismatch is (false, nil); an error means the hash itself could not be used.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		match, err := argon2id.ComparePasswordAndHash(plaintext, hash)
		if err != nil {
			return false, fmt.Errorf("failed to compare argon2id hash: %w", err)
		}
		return match, nil
	case strings.HasPrefix(hash, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to compare bcrypt hash: %w", err)
		}
		return true, nil
	default:
		return false, ErrUnknownHashFormat
	}
}

// VerifyDummy burns the same work as a real verification and always reports no match
func (h *Hasher) VerifyDummy(plaintext string) {
	_, _ = h.Verify(plaintext, h.dummyHash)
}

// NeedsRehash reports whether the hash was produced with another algorithm or a lower bcrypt cost
func (h *Hasher) NeedsRehash(hash string) bool {
	if h.algorithm == AlgorithmArgon2id {
		return !strings.HasPrefix(hash, "$argon2id$")
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.bcryptCost
}
