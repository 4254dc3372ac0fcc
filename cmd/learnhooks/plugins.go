// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/learnhooks/learnhooks/internal/plugin"
)

func newPluginsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect Lua plugins",
	}
	cmd.AddCommand(newPluginsListCmd(opts))
	cmd.AddCommand(newPluginsValidateCmd(opts))
	return cmd
}

func newPluginsListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plugins found in the plugins directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			found, invalid, err := plugin.NewManager(cfg.PluginsDir).Scan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 && len(invalid) == 0 {
				fmt.Fprintf(out, "no plugins in %s\n", cfg.PluginsDir)
				return nil
			}
			for _, dp := range found {
				fmt.Fprintf(out, "%s\t%s\t%s\n", dp.Manifest.Name, dp.Manifest.Version, strings.Join(dp.Manifest.Hooks, ","))
			}
			for _, bad := range invalid {
				fmt.Fprintf(out, "%s\tinvalid\t%s\n", bad.Dir, plugin.FormatSchemaError(bad.Err))
			}
			return nil
		},
	}
}

func newPluginsValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path or glob...]",
		Short: "Validate plugin manifests",
		Long: `Validate plugin.yaml manifests against the manifest schema and rules.

Each argument is a plugin directory, a manifest file, or a glob ("**" allowed)
matching either. Without arguments every plugin in the plugins directory is
validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg, err := loadConfig(cmd, opts)
				if err != nil {
					return err
				}
				args = []string{filepath.Join(cfg.PluginsDir, "*")}
			}

			paths, err := expandManifestPaths(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range paths {
				m, err := readManifest(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %s\n", path, plugin.FormatSchemaError(err))
					continue
				}
				fmt.Fprintf(out, "ok   %s: %s %s\n", path, m.Name, m.Version)
			}

			if failed > 0 {
				return oops.Code(plugin.CodeInvalidManifest).
					In("cli").
					With("failed", failed).
					Errorf("%d of %d manifests invalid", failed, len(paths))
			}
			return nil
		},
	}
}

// expandManifestPaths resolves args to manifest file paths. Directories map
// to their plugin.yaml; directories without one are skipped when they came
// from a glob.
func expandManifestPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, oops.In("cli").With("pattern", arg).Wrapf(err, "bad pattern")
		}
		literal := len(matches) == 0
		if literal {
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			switch {
			case err != nil && literal:
				paths = append(paths, match)
			case err != nil:
				continue
			case info.IsDir():
				manifest := filepath.Join(match, plugin.ManifestFile)
				if _, err := os.Stat(manifest); err == nil || literal {
					paths = append(paths, manifest)
				}
			default:
				paths = append(paths, match)
			}
		}
	}
	if len(paths) == 0 {
		return nil, oops.In("cli").With("args", args).Errorf("no plugin manifests found")
	}
	return paths, nil
}

func readManifest(path string) (*plugin.Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return plugin.ParseManifest(data)
}
