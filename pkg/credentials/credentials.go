// Package credentials owns the password hashing and verification policy.
//
// Raw passwords exist only transiently inside this package's call frames;
// they are never persisted or logged.
package credentials

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/taskforge/pkg/apperrors"
)

const (
	// MinPasswordLength is the minimum accepted raw password length.
	MinPasswordLength = 6

	// forbiddenPhrase may not appear anywhere in a password, any case.
	forbiddenPhrase = "password"
)

// Store hashes and verifies passwords at a fixed bcrypt cost.
type Store struct {
	cost int
}

// NewStore creates a credential store with the given bcrypt cost.
func NewStore(cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{cost: cost}
}

// ValidatePassword checks a raw password against the policy.
func ValidatePassword(raw string) error {
	if len(raw) < MinPasswordLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	if strings.Contains(strings.ToLower(raw), forbiddenPhrase) {
		return apperrors.NewValidationError("password must not contain the phrase 'password'")
	}
	return nil
}

// Hash validates a raw password and returns its salted bcrypt hash. Callers
// invoke this exactly once per password change; an already-hashed value is
// never passed back through.
func (s *Store) Hash(raw string) (string, error) {
	if err := ValidatePassword(raw); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether raw matches the stored hash. The comparison is
// delegated to bcrypt's own constant-time check.
func (s *Store) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
