// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/doorkeep/doorkeep/internal/auth"
	"github.com/doorkeep/doorkeep/internal/config"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Produce a bcrypt hash for seeding user records",
		Args:  cobra.ExactArgs(1),
		RunE:  runHashPassword,
	}

	cmd.Flags().Int("bcrypt-cost", 0, "bcrypt work cost (default from config)")

	return cmd
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath(), cmd.Flags())
	if err != nil {
		return err
	}

	hasher := auth.NewBcryptHasher(cfg.Hashing.BcryptCost)
	hash, err := hasher.Hash(args[0])
	if err != nil {
		return err
	}

	cmd.Println(hash)
	return nil
}
