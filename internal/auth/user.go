// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth

import "context"

// Authenticatable is the capability contract a user record must satisfy to
// participate in authentication. The auth core never constructs or destroys
// these records; it only reads them and mutates the remember token.
type Authenticatable interface {
	// AuthIdentifierName returns the name of the identifier field (e.g., "id").
	AuthIdentifierName() string

	// AuthIdentifier returns the identifier value in its string form.
	AuthIdentifier() string

	// AuthPasswordName returns the name of the password hash field.
	AuthPasswordName() string

	// AuthPassword returns the stored password hash.
	AuthPassword() string

	// RememberTokenName returns the name of the remember-token field.
	RememberTokenName() string

	// RememberToken returns the current remember token, or "" if unset.
	RememberToken() string

	// SetRememberToken replaces the remember token. An empty string clears it.
	SetRememberToken(token string)
}

// Persister is the optional persistence capability of a user record.
// Guards check for it with a type assertion; records without it are valid,
// their remember-token mutations are simply not saved.
type Persister interface {
	// Save persists pending changes to the record.
	Save(ctx context.Context) error
}

// UserProvider looks up user records for a guard. Absence is modeled with
// ErrNotFound, never with a nil record and nil error.
type UserProvider interface {
	// RetrieveByID retrieves a record by its identifier value.
	RetrieveByID(ctx context.Context, id string) (Authenticatable, error)

	// RetrieveByCredentials retrieves a record matching all criteria fields.
	// Criteria never include the password field; callers strip it first.
	RetrieveByCredentials(ctx context.Context, criteria map[string]string) (Authenticatable, error)
}
