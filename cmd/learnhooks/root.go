// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/learnhooks/learnhooks/internal/config"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the learnhooks CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "learnhooks",
		Short: "Named hook registry with block extensions, enrollment events and Lua plugins",
		Long: `learnhooks runs a registry of named actions and filters. Built-in block
extensions, the enrollment service and Lua plugins extend each other through
it without referring to one another.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/learnhooks/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newEnrollCmd(opts))
	cmd.AddCommand(newDemoCmd(opts))
	cmd.AddCommand(newPluginsCmd(opts))
	cmd.AddCommand(newHooksCmd(opts))

	return cmd
}
