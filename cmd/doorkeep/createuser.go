// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/doorkeep/doorkeep/internal/auth"
	"github.com/doorkeep/doorkeep/internal/auth/postgres"
	"github.com/doorkeep/doorkeep/internal/config"
	"github.com/doorkeep/doorkeep/internal/store"
)

const defaultCreateUserTimeout = 30 * time.Second

// NewCreateUserCmd creates the create-user subcommand.
func NewCreateUserCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "create-user <email> <password>",
		Short: "Create a user record in the backing database",
		Long: `Hashes the password and inserts a user record. Fails when a user
with the same email already exists.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(cmd, args, timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultCreateUserTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().Int("bcrypt-cost", 0, "bcrypt work cost (default from config)")

	return cmd
}

func runCreateUser(cmd *cobra.Command, args []string, timeout time.Duration) error {
	cfg, err := config.Load(configPath(), cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (config file or --database-url)")
	}

	hasher := auth.NewBcryptHasher(cfg.Hashing.BcryptCost)
	hash, err := hasher.Hash(args[1])
	if err != nil {
		return err
	}

	user, err := postgres.NewUser(args[0], hash)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	st, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()

	repo := postgres.NewUserRepository(st.Pool())
	if err := repo.Create(ctx, user); err != nil {
		return err
	}

	cmd.Println("created user", user.Email, "with id", user.AuthIdentifier())
	return nil
}
