// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorkeep/doorkeep/internal/auth"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := auth.NewBcryptHasher(auth.MinBcryptCost)

	t.Run("produces valid bcrypt hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2"))
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("accepts empty password", func(t *testing.T) {
		hash, err := hasher.Hash("")
		require.NoError(t, err)
		assert.True(t, hasher.Check("", hash))
	})

	t.Run("invalid cost falls back to default", func(t *testing.T) {
		h := auth.NewBcryptHasher(-1)
		assert.Equal(t, auth.DefaultBcryptCost, h.Cost())

		h = auth.NewBcryptHasher(auth.MaxBcryptCost + 1)
		assert.Equal(t, auth.DefaultBcryptCost, h.Cost())
	})
}

func TestBcryptHasher_Check(t *testing.T) {
	hasher := auth.NewBcryptHasher(auth.MinBcryptCost)

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, hasher.Check("correctpassword", hash))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.False(t, hasher.Check("wrongpassword", hash))
	})

	t.Run("multi-byte passwords round trip", func(t *testing.T) {
		password := "pässwörd-日本語-🔑"
		hash, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.True(t, hasher.Check(password, hash))
		assert.False(t, hasher.Check("pässwörd-日本語", hash))
	})

	t.Run("malformed hash yields false, never panics", func(t *testing.T) {
		assert.False(t, hasher.Check("password", "not-a-valid-hash"))
		assert.False(t, hasher.Check("password", ""))
		assert.False(t, hasher.Check("password", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"))
	})
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	hasher := auth.NewBcryptHasher(auth.MinBcryptCost)

	t.Run("same cost does not need rehash", func(t *testing.T) {
		hash, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})

	t.Run("different cost needs rehash", func(t *testing.T) {
		weaker := auth.NewBcryptHasher(auth.MinBcryptCost)
		hash, err := weaker.Hash("password")
		require.NoError(t, err)

		stronger := auth.NewBcryptHasher(auth.MinBcryptCost + 1)
		assert.True(t, stronger.NeedsRehash(hash))
	})

	t.Run("non-bcrypt hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"))
		assert.True(t, hasher.NeedsRehash("garbage"))
	})
}
