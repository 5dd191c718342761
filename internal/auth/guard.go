// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
)

// PasswordKey is the credentials field carrying the plaintext password.
// It is excluded from provider lookup criteria.
const PasswordKey = "password"

// Credentials is an unordered mapping from field name to value, e.g.
// {"email": "a@b.com", "password": "secret"}.
type Credentials map[string]string

// criteria returns a copy of the credentials without the password field.
func (c Credentials) criteria() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		if k == PasswordKey {
			continue
		}
		out[k] = v
	}
	return out
}

// Guard is an authentication strategy bound to one session and credential
// backing mechanism.
type Guard interface {
	// User returns the currently authenticated user, or nil when the guard
	// resolves no one. Errors are infrastructure failures only.
	User(ctx context.Context) (Authenticatable, error)

	// ID returns the identifier of the current user, or "" when unauthenticated.
	ID(ctx context.Context) (string, error)

	// Check reports whether a user is authenticated.
	Check(ctx context.Context) (bool, error)

	// Guest reports whether no user is authenticated.
	Guest(ctx context.Context) (bool, error)

	// Validate reports whether the credentials match a stored record.
	// Pure check: no session mutation.
	Validate(ctx context.Context, credentials Credentials) (bool, error)

	// Attempt validates credentials and logs the matched user in on success.
	Attempt(ctx context.Context, credentials Credentials, remember bool) (bool, error)

	// Login attaches the user to the session unconditionally.
	Login(ctx context.Context, user Authenticatable, remember bool) error

	// LoginUsingID looks up a record by identifier and logs it in.
	// Returns (nil, nil) and mutates nothing when the record does not exist.
	LoginUsingID(ctx context.Context, id string, remember bool) (Authenticatable, error)

	// Logout detaches the current user and clears session state. Idempotent.
	Logout(ctx context.Context)
}

// SessionGuard authenticates against a UserProvider with login state held in
// a SessionStore. One instance lives for one request.
//
// Per-instance lifecycle: unresolved, then authenticated once a user is
// loaded or attached, then logged out - terminal, User returns nil forever
// after even if the session store still holds stale entries.
type SessionGuard struct {
	name     string
	provider UserProvider
	session  SessionStore
	hasher   Hasher
	logger   *slog.Logger

	user      Authenticatable
	loggedOut bool
}

// NewSessionGuard creates a SessionGuard. All dependencies are required
// except logger, which defaults to slog.Default().
func NewSessionGuard(name string, provider UserProvider, session SessionStore, hasher Hasher, logger *slog.Logger) *SessionGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGuard{
		name:     name,
		provider: provider,
		session:  session,
		hasher:   hasher,
		logger:   logger.With("guard", name),
	}
}

// Name returns the guard's configured name.
func (g *SessionGuard) Name() string {
	return g.name
}

func (g *SessionGuard) identifierKey() string {
	return "auth_id_" + g.name
}

func (g *SessionGuard) rememberKey() string {
	return "auth_remember_" + g.name
}

// User returns the currently authenticated user.
// Resolution order: logged-out short-circuit, in-memory cache, session
// identifier. A session identifier pointing at a deleted record triggers an
// implicit logout so the session heals instead of staying broken.
func (g *SessionGuard) User(ctx context.Context) (Authenticatable, error) {
	if g.loggedOut {
		return nil, nil
	}
	if g.user != nil {
		return g.user, nil
	}

	id, ok := g.session.Get(g.identifierKey())
	if !ok {
		return nil, nil
	}

	user, err := g.provider.RetrieveByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// Stale session pointing at a deleted record. Heal it by forcing
		// the logged-out state instead of leaving the session broken.
		g.logger.Debug("session references missing user, forcing logout", "user_id", id)
		RecordSessionHeal(g.name)
		g.clearState()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.user = user
	return g.user, nil
}

// ID returns the identifier of the current user without a provider round
// trip: the cached user's identifier if resolved, otherwise the raw session
// value.
func (g *SessionGuard) ID(ctx context.Context) (string, error) {
	if g.loggedOut {
		return "", nil
	}
	if g.user != nil {
		return g.user.AuthIdentifier(), nil
	}
	id, _ := g.session.Get(g.identifierKey())
	return id, nil
}

// Check reports whether a user is authenticated.
func (g *SessionGuard) Check(ctx context.Context) (bool, error) {
	user, err := g.User(ctx)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Guest reports whether no user is authenticated.
func (g *SessionGuard) Guest(ctx context.Context) (bool, error) {
	ok, err := g.Check(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Validate reports whether the credentials match a stored record.
// Fails closed when the password field is absent or when no non-password
// criteria remain. Credential mismatch is an expected outcome, never an error.
func (g *SessionGuard) Validate(ctx context.Context, credentials Credentials) (bool, error) {
	user, err := g.resolveCandidate(ctx, credentials)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Attempt validates credentials and, on success, logs the matched user in.
func (g *SessionGuard) Attempt(ctx context.Context, credentials Credentials, remember bool) (bool, error) {
	user, err := g.resolveCandidate(ctx, credentials)
	if err != nil {
		return false, err
	}
	if user == nil {
		RecordLoginAttempt(g.name, StatusFailure)
		return false, nil
	}

	if err := g.Login(ctx, user, remember); err != nil {
		return false, err
	}
	return true, nil
}

// resolveCandidate returns the record matching the credentials, or nil when
// the credentials are incomplete, no record matches, or the password is wrong.
func (g *SessionGuard) resolveCandidate(ctx context.Context, credentials Credentials) (Authenticatable, error) {
	password, hasPassword := credentials[PasswordKey]
	criteria := credentials.criteria()
	if !hasPassword || len(criteria) == 0 {
		return nil, nil
	}

	user, err := g.provider.RetrieveByCredentials(ctx, criteria)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !g.hasher.Check(password, user.AuthPassword()) {
		return nil, nil
	}
	return user, nil
}

// Login attaches the user to the session unconditionally. The only failure
// path is remember-token generation; attaching itself cannot fail.
func (g *SessionGuard) Login(ctx context.Context, user Authenticatable, remember bool) error {
	g.session.Put(g.identifierKey(), user.AuthIdentifier())

	if remember {
		if err := g.cycleRememberToken(ctx, user); err != nil {
			return err
		}
	}

	g.user = user
	g.loggedOut = false
	RecordLoginAttempt(g.name, StatusSuccess)
	g.logger.Debug("user logged in", "user_id", user.AuthIdentifier(), "remember", remember)
	return nil
}

// LoginUsingID looks up a record by identifier and logs it in.
func (g *SessionGuard) LoginUsingID(ctx context.Context, id string, remember bool) (Authenticatable, error) {
	user, err := g.provider.RetrieveByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := g.Login(ctx, user, remember); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout detaches the current user: clears the remember token on the record
// (best-effort persist), removes both session keys, drops the cache, and
// marks the guard logged out for the rest of its lifetime. Idempotent.
func (g *SessionGuard) Logout(ctx context.Context) {
	if user, err := g.User(ctx); err == nil && user != nil {
		user.SetRememberToken("")
		g.persist(ctx, user)
	}

	g.clearState()
}

// clearState removes both session keys, drops the cached user, and marks the
// guard logged out.
func (g *SessionGuard) clearState() {
	g.session.Remove(g.identifierKey())
	g.session.Remove(g.rememberKey())
	g.user = nil
	g.loggedOut = true
}

// cycleRememberToken generates a fresh token, assigns it to the record,
// persists best-effort, and mirrors it into the session.
//
// The token is currently write-only: nothing reads it back to resume an
// expired session. It exists for future resumption support.
func (g *SessionGuard) cycleRememberToken(ctx context.Context, user Authenticatable) error {
	token, err := GenerateRememberToken()
	if err != nil {
		return err
	}

	user.SetRememberToken(token)
	g.persist(ctx, user)
	g.session.Put(g.rememberKey(), token)
	return nil
}

// persist saves the record when it supports persistence. Failures are logged
// and swallowed: attaching or detaching a session never depends on a save.
func (g *SessionGuard) persist(ctx context.Context, user Authenticatable) {
	p, ok := user.(Persister)
	if !ok {
		return
	}
	if err := p.Save(ctx); err != nil {
		g.logger.Warn("best-effort user save failed",
			"user_id", user.AuthIdentifier(),
			"error", err)
	}
}
