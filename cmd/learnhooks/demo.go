// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learnhooks/learnhooks/internal/blocks"
	"github.com/learnhooks/learnhooks/internal/enrollment"
)

func newDemoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through block registration, edit, save and enrollment with the configured extensions and plugins",
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

			return runDemo(ctx, a, cmd.OutOrStdout())
		},
	}
}

func runDemo(ctx context.Context, a *app, out io.Writer) error {
	fmt.Fprintln(out, "== block types")
	for _, name := range a.editor.BlockTypes() {
		settings, _ := a.editor.BlockType(name)
		attrs := make([]string, 0)
		for attr := range settings.AttributeSchema() {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)
		fmt.Fprintf(out, "%s: %s\n", name, strings.Join(attrs, ", "))
	}

	fmt.Fprintln(out, "== edit core/image")
	el, err := a.editor.Edit(ctx, blocks.EditProps{
		Name:       "core/image",
		Attributes: blocks.Attributes{"url": "sunset.jpg", "customAlt": "Sunset over the bay"},
	})
	if err != nil {
		return err
	}
	if err := writeJSON(out, el); err != nil {
		return err
	}

	fmt.Fprintln(out, "== save props")
	saves := []struct {
		name  string
		attrs blocks.Attributes
	}{
		{"core/image", blocks.Attributes{"customAlt": "Sunset over the bay"}},
		{"core/button", blocks.Attributes{"text": "Sign up", "dataTrackingId": "cta-signup"}},
		{"core/paragraph", blocks.Attributes{"content": "Hello"}},
	}
	for _, s := range saves {
		props, err := a.editor.SaveProps(ctx, s.name, s.attrs)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: ", s.name)
		if err := writeJSON(out, props); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "== enrollment")
	for _, e := range []struct{ course, user int64 }{{42, 101}, {enrollment.FeaturedCourseID, 7}} {
		data, err := a.enroll(ctx, e.course, e.user)
		if err != nil {
			return err
		}
		msg, err := enrollment.Message(ctx, a.hooks, data.UserID(), data.CourseID())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
