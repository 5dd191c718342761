// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

// Package mocks provides testify mocks for the auth package contracts.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/doorkeep/doorkeep/internal/auth"
)

// testingT is the subset of *testing.T the mock constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserProvider is a testify mock for auth.UserProvider.
type MockUserProvider struct {
	mock.Mock
}

// NewMockUserProvider creates a MockUserProvider whose expectations are
// asserted on test cleanup.
func NewMockUserProvider(t testingT) *MockUserProvider {
	m := &MockUserProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RetrieveByID implements auth.UserProvider.
func (m *MockUserProvider) RetrieveByID(ctx context.Context, id string) (auth.Authenticatable, error) {
	args := m.Called(ctx, id)
	var user auth.Authenticatable
	if v := args.Get(0); v != nil {
		user = v.(auth.Authenticatable)
	}
	return user, args.Error(1)
}

// RetrieveByCredentials implements auth.UserProvider.
func (m *MockUserProvider) RetrieveByCredentials(ctx context.Context, criteria map[string]string) (auth.Authenticatable, error) {
	args := m.Called(ctx, criteria)
	var user auth.Authenticatable
	if v := args.Get(0); v != nil {
		user = v.(auth.Authenticatable)
	}
	return user, args.Error(1)
}

// MockHasher is a testify mock for auth.Hasher.
type MockHasher struct {
	mock.Mock
}

// NewMockHasher creates a MockHasher whose expectations are asserted on
// test cleanup.
func NewMockHasher(t testingT) *MockHasher {
	m := &MockHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.Hasher.
func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Check implements auth.Hasher.
func (m *MockHasher) Check(password, hash string) bool {
	args := m.Called(password, hash)
	return args.Bool(0)
}

// NeedsRehash implements auth.Hasher.
func (m *MockHasher) NeedsRehash(hash string) bool {
	args := m.Called(hash)
	return args.Bool(0)
}
