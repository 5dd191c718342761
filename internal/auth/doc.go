// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

// Package auth provides session-based authentication primitives for Doorkeep.
//
// # Contracts
//
// Integration happens through three small contracts:
//   - Authenticatable - the capability a user record needs to participate in
//     authentication (identifier, password hash, remember token accessors)
//   - UserProvider - lookup of user records by identifier or by credential
//     criteria
//   - SessionStore - a key-value store scoped to one client session
//
// User records that additionally implement Persister get their remember-token
// mutations saved; persistence is best-effort and never required.
//
// # Guards
//
// A Guard binds one authentication strategy to one provider and session
// backing. SessionGuard is the only driver today; the Driver kind is the
// extension point for future strategies.
//
// The Manager resolves guards by name from static configuration, caches one
// instance per name, and exposes default-guard convenience methods. Managers
// are request-scoped: one instance per request, no shared mutable state.
package auth
