// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt cost bounds. DefaultBcryptCost follows current OWASP guidance.
const (
	DefaultBcryptCost = 12
	MinBcryptCost     = bcrypt.MinCost
	MaxBcryptCost     = bcrypt.MaxCost
)

// Hasher provides password hashing and verification.
type Hasher interface {
	// Hash produces a hash of the password.
	Hash(password string) (string, error)

	// Check reports whether the password matches the hash.
	// Malformed hashes yield false, never an error.
	Check(password, hash string) bool

	// NeedsRehash reports whether the hash was produced with parameters
	// different from the currently configured ones.
	NeedsRehash(hash string) bool
}

// BcryptHasher implements Hasher using bcrypt with a configurable work cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the given cost.
// Costs outside the valid bcrypt range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work cost.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").
			With("operation", "bcrypt generate").
			Wrap(err)
	}
	return string(hashed), nil
}

// Check reports whether the password matches the hash.
// bcrypt's comparison is constant time over the derived key.
func (h *BcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether the stored hash should be regenerated.
// True when the hash is not bcrypt or was produced with a different cost,
// enabling lazy rehash-on-login upgrades.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}
