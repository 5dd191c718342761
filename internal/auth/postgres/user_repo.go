// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

// Package postgres provides PostgreSQL-backed user storage for auth guards.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/doorkeep/doorkeep/internal/auth"
)

// User is a stored user account. It satisfies auth.Authenticatable, and when
// loaded through a UserRepository it also satisfies auth.Persister.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	rememberToken *string
	repo          *UserRepository
}

// NewUser creates a validated User with a fresh identifier.
func NewUser(email, passwordHash string) (*User, error) {
	if email == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AuthIdentifierName returns the identifier field name.
func (u *User) AuthIdentifierName() string { return "id" }

// AuthIdentifier returns the identifier in string form.
func (u *User) AuthIdentifier() string { return u.ID.String() }

// AuthPasswordName returns the password hash field name.
func (u *User) AuthPasswordName() string { return "password_hash" }

// AuthPassword returns the stored password hash.
func (u *User) AuthPassword() string { return u.PasswordHash }

// RememberTokenName returns the remember-token field name.
func (u *User) RememberTokenName() string { return "remember_token" }

// RememberToken returns the current remember token, or "" if unset.
func (u *User) RememberToken() string {
	if u.rememberToken != nil {
		return *u.rememberToken
	}
	return ""
}

// SetRememberToken replaces the remember token. An empty string clears it.
func (u *User) SetRememberToken(token string) {
	if token == "" {
		u.rememberToken = nil
	} else {
		u.rememberToken = &token
	}
	u.UpdatedAt = time.Now()
}

// Save persists the remember-token state of a repository-loaded user.
// Users constructed directly (not yet stored) cannot save themselves.
func (u *User) Save(ctx context.Context) error {
	if u.repo == nil {
		return oops.Code("USER_NOT_ATTACHED").
			With("id", u.ID.String()).
			Errorf("user is not attached to a repository")
	}
	return u.repo.UpdateRememberToken(ctx, u.ID, u.rememberToken)
}

// poolIface abstracts pgxpool.Pool for testing with pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// criteriaColumns is the allow-list of credential criteria accepted by
// RetrieveByCredentials. Anything outside it is rejected rather than
// interpolated into SQL.
var criteriaColumns = map[string]struct{}{
	"email": {},
}

// UserRepository implements auth.UserProvider using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. A duplicate email maps to USER_ALREADY_EXISTS.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, remember_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.rememberToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_ALREADY_EXISTS").
				With("email", user.Email).
				Wrap(err)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}

	user.repo = r
	return nil
}

// RetrieveByID retrieves a user by its identifier value.
func (r *UserRepository) RetrieveByID(ctx context.Context, id string) (auth.Authenticatable, error) {
	if _, err := ulid.Parse(id); err != nil {
		// A session can only hold identifiers this repository wrote, so a
		// malformed value is equivalent to a record that no longer exists.
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}

	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, remember_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// RetrieveByCredentials retrieves a user matching all criteria fields.
// Criteria keys must be allow-listed columns; the password field never
// reaches this method.
func (r *UserRepository) RetrieveByCredentials(ctx context.Context, criteria map[string]string) (auth.Authenticatable, error) {
	if len(criteria) == 0 {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}

	// Deterministic column order keeps queries stable for tests and logs.
	columns := make([]string, 0, len(criteria))
	for column := range criteria {
		if _, ok := criteriaColumns[column]; !ok {
			return nil, oops.Code("USER_INVALID_CRITERIA").
				With("column", column).
				Errorf("unsupported credential criteria column %q", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	conditions := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, criteria[column])
	}

	query := fmt.Sprintf(`
		SELECT id, email, password_hash, remember_token, created_at, updated_at
		FROM users
		WHERE %s
	`, strings.Join(conditions, " AND "))

	row := r.pool.QueryRow(ctx, query, args...)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_CREDENTIALS_FAILED").
			With("operation", "get user by credentials").
			Wrap(err)
	}
	return user, nil
}

// UpdateRememberToken updates only the remember token for a user.
func (r *UserRepository) UpdateRememberToken(ctx context.Context, id ulid.ULID, token *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET remember_token = $2, updated_at = $3 WHERE id = $1
	`, id.String(), token, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_TOKEN_FAILED").
			With("operation", "update remember token").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans one user row and attaches the repository for persistence.
func (r *UserRepository) scanUser(row pgx.Row) (*User, error) {
	var user User
	var idStr string

	if err := row.Scan(
		&idStr,
		&user.Email,
		&user.PasswordHash,
		&user.rememberToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	user.ID = id
	user.repo = r
	return &user, nil
}
