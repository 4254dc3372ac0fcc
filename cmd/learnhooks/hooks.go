// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHooksCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List registered hook callbacks after wiring extensions, services and plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			out := cmd.OutOrStdout()
			for _, hook := range a.hooks.Hooks() {
				fmt.Fprintln(out, hook)
				for _, e := range a.hooks.Entries(hook) {
					fmt.Fprintf(out, "  %-6s %4d  %s\n", e.Kind, e.Priority, e.Namespace)
				}
			}
			return nil
		},
	}
}
