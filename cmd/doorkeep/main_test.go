// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/doorkeep/doorkeep/pkg/errutil"
)

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	t.Cleanup(func() { configFile = "" })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := executeCmd(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"migrate", "status", "hash-password", "create-user", "serve"} {
		assert.Contains(t, output, sub, "help missing %q command", sub)
	}
}

func TestMigrate_Properties(t *testing.T) {
	cmd := NewMigrateCmd()
	assert.Equal(t, "migrate", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("down"))
	assert.NotNil(t, cmd.Flags().Lookup("database-url"))
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	_, err := executeCmd(t, "migrate")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestStatus_RequiresDatabaseURL(t *testing.T) {
	_, err := executeCmd(t, "status")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestStatus_Flags(t *testing.T) {
	output, err := executeCmd(t, "status", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "--json")
	assert.Contains(t, output, "--database-url")
}

func TestCreateUser_RequiresDatabaseURL(t *testing.T) {
	_, err := executeCmd(t, "create-user", "alice@example.com", "secret")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServe_RequiresDatabaseURL(t *testing.T) {
	_, err := executeCmd(t, "serve")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServe_Flags(t *testing.T) {
	output, err := executeCmd(t, "serve", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "--metrics-addr")
	assert.Contains(t, output, "--log-format")
}

func TestHashPassword(t *testing.T) {
	t.Run("produces a verifiable hash", func(t *testing.T) {
		output, err := executeCmd(t, "hash-password", "correct horse", "--bcrypt-cost", "4")
		require.NoError(t, err)

		hash := strings.TrimSpace(output)
		assert.True(t, strings.HasPrefix(hash, "$2"), "unexpected hash %q", hash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		_, err := executeCmd(t, "hash-password")
		require.Error(t, err)
	})

	t.Run("rejects out-of-range cost", func(t *testing.T) {
		_, err := executeCmd(t, "hash-password", "secret", "--bcrypt-cost", "99")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}
