// Package password hashes account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

// DefaultCost is the work factor used for new hashes.
const DefaultCost = 10

// Hasher implements model.PasswordHasher.
type Hasher struct {
	cost int
}

var _ model.PasswordHasher = (*Hasher)(nil)

// NewHasher creates a Hasher. Costs outside bcrypt's range fall back to
// DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Compare returns model.ErrAuthenticationFailed when password does not match
// hash.
func (h *Hasher) Compare(hash []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return model.ErrAuthenticationFailed
	}
	return fmt.Errorf("%w: %w", model.ErrAuthenticationFailed, err)
}
