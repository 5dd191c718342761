// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorkeep/doorkeep/internal/auth"
	"github.com/doorkeep/doorkeep/internal/auth/mocks"
	"github.com/doorkeep/doorkeep/pkg/errutil"
)

func managerConfig() auth.Config {
	return auth.Config{
		Default: "web",
		Guards: map[string]auth.GuardConfig{
			"web": {Driver: auth.DriverSession, Provider: "users"},
			"api": {Driver: auth.DriverSession, Provider: "users"},
		},
		Providers: map[string]auth.ProviderConfig{
			"users": {Entity: "users"},
		},
	}
}

func newManager(t *testing.T, cfg auth.Config) (*auth.Manager, *mocks.MockUserProvider, *mocks.MockHasher) {
	t.Helper()
	provider := mocks.NewMockUserProvider(t)
	hasher := mocks.NewMockHasher(t)
	m, err := auth.NewManager(cfg, map[string]auth.UserProvider{"users": provider},
		auth.NewMemorySessionStore(), hasher, nil)
	require.NoError(t, err)
	return m, provider, hasher
}

func TestNewManager(t *testing.T) {
	t.Run("rejects nil session store", func(t *testing.T) {
		_, err := auth.NewManager(managerConfig(), nil, nil, &auth.BcryptHasher{}, nil)
		errutil.AssertErrorCode(t, err, "AUTH_MANAGER_INVALID")
	})

	t.Run("rejects nil hasher", func(t *testing.T) {
		_, err := auth.NewManager(managerConfig(), nil, auth.NewMemorySessionStore(), nil, nil)
		errutil.AssertErrorCode(t, err, "AUTH_MANAGER_INVALID")
	})
}

func TestManager_Guard(t *testing.T) {
	t.Run("resolves the default guard", func(t *testing.T) {
		m, _, _ := newManager(t, managerConfig())

		guard, err := m.Guard()
		require.NoError(t, err)
		require.NotNil(t, guard)

		sg, ok := guard.(*auth.SessionGuard)
		require.True(t, ok)
		assert.Equal(t, "web", sg.Name())
	})

	t.Run("caches guards per name", func(t *testing.T) {
		m, _, _ := newManager(t, managerConfig())

		first, err := m.Guard("api")
		require.NoError(t, err)
		second, err := m.Guard("api")
		require.NoError(t, err)
		assert.Same(t, first, second)

		other, err := m.Guard("web")
		require.NoError(t, err)
		assert.NotSame(t, first, other)
	})

	t.Run("unknown guard name", func(t *testing.T) {
		m, _, _ := newManager(t, managerConfig())

		_, err := m.Guard("ldap")
		errutil.AssertErrorCode(t, err, "AUTH_GUARD_NOT_CONFIGURED")
		errutil.AssertErrorContext(t, err, "guard", "ldap")
	})

	t.Run("guard references unknown provider", func(t *testing.T) {
		cfg := managerConfig()
		cfg.Guards["broken"] = auth.GuardConfig{Driver: auth.DriverSession, Provider: "missing"}
		m, _, _ := newManager(t, cfg)

		_, err := m.Guard("broken")
		errutil.AssertErrorCode(t, err, "AUTH_PROVIDER_NOT_CONFIGURED")
		errutil.AssertErrorContext(t, err, "provider", "missing")
	})

	t.Run("provider entity has no registered implementation", func(t *testing.T) {
		cfg := managerConfig()
		cfg.Providers["users"] = auth.ProviderConfig{Entity: "accounts"}
		m, _, _ := newManager(t, cfg)

		_, err := m.Guard()
		errutil.AssertErrorCode(t, err, "AUTH_PROVIDER_NOT_REGISTERED")
		errutil.AssertErrorContext(t, err, "entity", "accounts")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := managerConfig()
		cfg.Guards["token"] = auth.GuardConfig{Driver: "jwt", Provider: "users"}
		m, _, _ := newManager(t, cfg)

		_, err := m.Guard("token")
		errutil.AssertErrorCode(t, err, "AUTH_UNSUPPORTED_DRIVER")
		errutil.AssertErrorContext(t, err, "driver", "jwt")
	})
}

func TestManager_ShouldUse(t *testing.T) {
	m, _, _ := newManager(t, managerConfig())

	guard, err := m.Guard()
	require.NoError(t, err)
	assert.Equal(t, "web", guard.(*auth.SessionGuard).Name())

	m.ShouldUse("api")

	guard, err = m.Guard()
	require.NoError(t, err)
	assert.Equal(t, "api", guard.(*auth.SessionGuard).Name())
}

func TestManager_Delegation(t *testing.T) {
	ctx := context.Background()

	t.Run("convenience methods target the default guard", func(t *testing.T) {
		m, provider, hasher := newManager(t, managerConfig())
		stored := &fakeUser{id: "user-1", hash: "stored-hash"}
		provider.On("RetrieveByCredentials", ctx, map[string]string{"email": "a@b.com"}).
			Return(stored, nil).Once()
		hasher.On("Check", "secret", "stored-hash").Return(true).Once()

		ok, err := m.Attempt(ctx, auth.Credentials{"email": "a@b.com", "password": "secret"}, false)
		require.NoError(t, err)
		assert.True(t, ok)

		check, err := m.Check(ctx)
		require.NoError(t, err)
		assert.True(t, check)

		id, err := m.ID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", id)

		user, err := m.User(ctx)
		require.NoError(t, err)
		assert.Same(t, auth.Authenticatable(stored), user)

		require.NoError(t, m.Logout(ctx))

		guest, err := m.Guest(ctx)
		require.NoError(t, err)
		assert.True(t, guest)
	})

	t.Run("resolution failure propagates through every delegate", func(t *testing.T) {
		cfg := managerConfig()
		cfg.Default = "ldap"
		m, _, _ := newManager(t, cfg)

		_, err := m.Check(ctx)
		errutil.AssertErrorCode(t, err, "AUTH_GUARD_NOT_CONFIGURED")

		err = m.Login(ctx, &fakeUser{id: "user-1"}, false)
		errutil.AssertErrorCode(t, err, "AUTH_GUARD_NOT_CONFIGURED")

		err = m.Logout(ctx)
		errutil.AssertErrorCode(t, err, "AUTH_GUARD_NOT_CONFIGURED")

		_, err = m.Validate(ctx, auth.Credentials{"email": "a@b.com", "password": "x"})
		errutil.AssertErrorCode(t, err, "AUTH_GUARD_NOT_CONFIGURED")
	})
}

// mapProvider is a map-backed UserProvider for full-stack tests with a real
// hasher and session store.
type mapProvider struct {
	byID    map[string]*fakeUser
	byEmail map[string]*fakeUser
}

func (p *mapProvider) RetrieveByID(ctx context.Context, id string) (auth.Authenticatable, error) {
	if u, ok := p.byID[id]; ok {
		return u, nil
	}
	return nil, auth.ErrNotFound
}

func (p *mapProvider) RetrieveByCredentials(ctx context.Context, criteria map[string]string) (auth.Authenticatable, error) {
	if u, ok := p.byEmail[criteria["email"]]; ok {
		return u, nil
	}
	return nil, auth.ErrNotFound
}

func TestManager_FullStack(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewBcryptHasher(auth.MinBcryptCost)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	alice := &fakeUser{id: "alice-1", email: "alice@example.com", hash: hash}
	provider := &mapProvider{
		byID:    map[string]*fakeUser{"alice-1": alice},
		byEmail: map[string]*fakeUser{"alice@example.com": alice},
	}

	session := auth.NewMemorySessionStore()
	m, err := auth.NewManager(managerConfig(),
		map[string]auth.UserProvider{"users": provider}, session, hasher, nil)
	require.NoError(t, err)

	ok, err := m.Attempt(ctx, auth.Credentials{"email": "alice@example.com", "password": "wrong"}, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Attempt(ctx, auth.Credentials{"email": "alice@example.com", "password": "correct horse"}, true)
	require.NoError(t, err)
	assert.True(t, ok)

	id, present := session.Get("auth_id_web")
	require.True(t, present)
	assert.Equal(t, "alice-1", id)
	assert.Len(t, alice.remember, auth.RememberTokenBytes*2)

	// A fresh manager over the same session store resolves the same user,
	// the way a later request in the same browser session would.
	m2, err := auth.NewManager(managerConfig(),
		map[string]auth.UserProvider{"users": provider}, session, hasher, nil)
	require.NoError(t, err)

	user, err := m2.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice-1", user.AuthIdentifier())

	require.NoError(t, m2.Logout(ctx))
	assert.Empty(t, alice.remember)

	m3, err := auth.NewManager(managerConfig(),
		map[string]auth.UserProvider{"users": provider}, session, hasher, nil)
	require.NoError(t, err)
	guest, err := m3.Guest(ctx)
	require.NoError(t, err)
	assert.True(t, guest)
}
