// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/doorkeep/doorkeep/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// configPath returns the config file to load: the --config flag when set,
// otherwise the XDG default location if a file exists there.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return xdg.DefaultConfigFile()
}

// NewRootCmd creates the root command for the Doorkeep CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doorkeep",
		Short: "Doorkeep - session-based authentication toolkit",
		Long: `Doorkeep provides session-backed authentication guards over a
pluggable user store, with operational tooling for the backing database.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewCreateUserCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}
