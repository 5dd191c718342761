// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/samber/oops"
)

// RememberTokenBytes is the entropy of a remember token: 32 bytes, 64 hex chars.
const RememberTokenBytes = 32

// SessionStore is a key-value store scoped to one client session.
// Guards use exactly two keys per guard name: one for the authenticated
// identifier and one for the remember token. Session lifecycle is owned by
// the host; guards only read and write their own keys.
type SessionStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Put stores a value under key, replacing any existing value.
	Put(key, value string)

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)
}

// MemorySessionStore is an in-process SessionStore for request-scoped use.
// The zero value is not usable; create one with NewMemorySessionStore.
type MemorySessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (s *MemorySessionStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Put stores a value under key.
func (s *MemorySessionStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Remove deletes key.
func (s *MemorySessionStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// GenerateRememberToken creates a cryptographically random remember token.
func GenerateRememberToken() (string, error) {
	buf := make([]byte, RememberTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", RememberTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}
