// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Driver identifies a guard strategy. Session-backed guards are the only
// kind today; the type exists as the extension point for future drivers.
type Driver string

// DriverSession is the session-backed guard driver.
const DriverSession Driver = "session"

// GuardConfig describes one named guard: its driver kind and the name of the
// provider it authenticates against.
type GuardConfig struct {
	Driver   Driver
	Provider string
}

// ProviderConfig describes one named provider entry. Entity is the handle a
// registered UserProvider was bound under.
type ProviderConfig struct {
	Entity string
}

// Config is the static guard configuration, loaded once at process start and
// immutable thereafter.
type Config struct {
	Default   string
	Guards    map[string]GuardConfig
	Providers map[string]ProviderConfig
}

// Manager resolves and caches Guard instances by name and exposes
// default-guard convenience methods.
//
// A Manager is request-scoped. ShouldUse mutates the default guard name, so
// one instance must not be shared by concurrent callers.
type Manager struct {
	config    Config
	providers map[string]UserProvider
	session   SessionStore
	hasher    Hasher
	logger    *slog.Logger

	defaultName string
	guards      map[string]Guard
}

// NewManager creates a Manager from static guard configuration.
// providers maps entity handles (ProviderConfig.Entity) to registered
// UserProvider implementations. logger may be nil.
func NewManager(config Config, providers map[string]UserProvider, session SessionStore, hasher Hasher, logger *slog.Logger) (*Manager, error) {
	if session == nil {
		return nil, oops.Code("AUTH_MANAGER_INVALID").Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_MANAGER_INVALID").Errorf("hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		providers = map[string]UserProvider{}
	}

	return &Manager{
		config:      config,
		providers:   providers,
		session:     session,
		hasher:      hasher,
		logger:      logger,
		defaultName: config.Default,
		guards:      make(map[string]Guard),
	}, nil
}

// Guard returns the guard for the given name, constructing it on first use
// and caching it for the manager's lifetime. With no name, the current
// default guard is returned.
func (m *Manager) Guard(name ...string) (Guard, error) {
	guardName := m.defaultName
	if len(name) > 0 && name[0] != "" {
		guardName = name[0]
	}

	if guard, ok := m.guards[guardName]; ok {
		return guard, nil
	}

	guard, err := m.resolve(guardName)
	if err != nil {
		return nil, err
	}
	m.guards[guardName] = guard
	return guard, nil
}

// ShouldUse changes the default guard for all subsequent calls.
func (m *Manager) ShouldUse(name string) {
	m.defaultName = name
}

// resolve constructs a guard from configuration. All misconfiguration is
// surfaced here, at first use, not at manager construction.
func (m *Manager) resolve(name string) (Guard, error) {
	guardCfg, ok := m.config.Guards[name]
	if !ok {
		return nil, oops.Code("AUTH_GUARD_NOT_CONFIGURED").
			With("guard", name).
			Errorf("guard %q is not defined in configuration", name)
	}

	providerCfg, ok := m.config.Providers[guardCfg.Provider]
	if !ok {
		return nil, oops.Code("AUTH_PROVIDER_NOT_CONFIGURED").
			With("guard", name).
			With("provider", guardCfg.Provider).
			Errorf("provider %q for guard %q is not defined in configuration", guardCfg.Provider, name)
	}

	provider, ok := m.providers[providerCfg.Entity]
	if !ok {
		return nil, oops.Code("AUTH_PROVIDER_NOT_REGISTERED").
			With("guard", name).
			With("provider", guardCfg.Provider).
			With("entity", providerCfg.Entity).
			Errorf("no user provider registered for entity %q", providerCfg.Entity)
	}

	switch guardCfg.Driver {
	case DriverSession:
		return NewSessionGuard(name, provider, m.session, m.hasher, m.logger), nil
	default:
		return nil, oops.Code("AUTH_UNSUPPORTED_DRIVER").
			With("guard", name).
			With("driver", string(guardCfg.Driver)).
			Errorf("unsupported guard driver %q", string(guardCfg.Driver))
	}
}

// The methods below delegate to the default guard with no additional logic.

// Attempt validates credentials against the default guard, logging the
// matched user in on success.
func (m *Manager) Attempt(ctx context.Context, credentials Credentials, remember bool) (bool, error) {
	guard, err := m.Guard()
	if err != nil {
		return false, err
	}
	return guard.Attempt(ctx, credentials, remember)
}

// Validate checks credentials against the default guard without mutation.
func (m *Manager) Validate(ctx context.Context, credentials Credentials) (bool, error) {
	guard, err := m.Guard()
	if err != nil {
		return false, err
	}
	return guard.Validate(ctx, credentials)
}

// Login attaches the user to the default guard's session.
func (m *Manager) Login(ctx context.Context, user Authenticatable, remember bool) error {
	guard, err := m.Guard()
	if err != nil {
		return err
	}
	return guard.Login(ctx, user, remember)
}

// Logout detaches the current user from the default guard.
func (m *Manager) Logout(ctx context.Context) error {
	guard, err := m.Guard()
	if err != nil {
		return err
	}
	guard.Logout(ctx)
	return nil
}

// User returns the default guard's current user, or nil.
func (m *Manager) User(ctx context.Context) (Authenticatable, error) {
	guard, err := m.Guard()
	if err != nil {
		return nil, err
	}
	return guard.User(ctx)
}

// ID returns the default guard's current user identifier, or "".
func (m *Manager) ID(ctx context.Context) (string, error) {
	guard, err := m.Guard()
	if err != nil {
		return "", err
	}
	return guard.ID(ctx)
}

// Check reports whether the default guard has an authenticated user.
func (m *Manager) Check(ctx context.Context) (bool, error) {
	guard, err := m.Guard()
	if err != nil {
		return false, err
	}
	return guard.Check(ctx)
}

// Guest reports whether the default guard has no authenticated user.
func (m *Manager) Guest(ctx context.Context) (bool, error) {
	guard, err := m.Guard()
	if err != nil {
		return false, err
	}
	return guard.Guest(ctx)
}
