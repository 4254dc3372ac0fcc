// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/learnhooks/learnhooks/internal/enrollment"
	"github.com/learnhooks/learnhooks/pkg/errutil"
)

func newEnrollCmd(opts *globalOptions) *cobra.Command {
	var courseID, userID int64

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a user in a course and fire the enrollment hooks",
		Example: `  learnhooks enroll --course 42 --user 101
  learnhooks enroll --course 123 --user 7 --plugins-enabled=false`,
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

			data, err := a.enroll(ctx, courseID, userID)
			if err != nil {
				errutil.LogErrorContext(ctx, slog.Default(), "enrollment failed", err)
				return err
			}

			msg, err := enrollment.Message(ctx, a.hooks, data.UserID(), data.CourseID())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, msg)
			fmt.Fprintf(out, "enrolled at %s\n", data[enrollment.KeyDate])
			return nil
		},
	}

	cmd.Flags().Int64Var(&courseID, "course", 0, "course id (required)")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
