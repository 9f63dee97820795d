package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"haat/internal/apperr"
)

const MinPasswordLength = 8

// Hasher hashes and verifies passwords with bcrypt at a tunable cost.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{Cost: cost}
}

// Hash returns a salted bcrypt hash of pw.
func (h Hasher) Hash(pw string) (string, error) {
	if len(pw) < MinPasswordLength {
		return "", apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation("password must be at most 72 bytes")
	}
	return string(b), err
}

// Verify reports whether pw matches hash. A malformed hash is a mismatch.
func (h Hasher) Verify(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// dummyHash is compared against when the account does not exist, so unknown
// emails take as long as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func (h Hasher) VerifyMissing(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
