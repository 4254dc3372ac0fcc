// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/learnhooks/learnhooks/internal/blocks"
	"github.com/learnhooks/learnhooks/internal/config"
	"github.com/learnhooks/learnhooks/internal/enrollment"
	"github.com/learnhooks/learnhooks/internal/extension"
	"github.com/learnhooks/learnhooks/internal/logging"
	"github.com/learnhooks/learnhooks/internal/observability"
	"github.com/learnhooks/learnhooks/internal/plugin"
	"github.com/learnhooks/learnhooks/internal/plugin/capability"
	"github.com/learnhooks/learnhooks/internal/plugin/hostfunc"
	pluginlua "github.com/learnhooks/learnhooks/internal/plugin/lua"
	"github.com/learnhooks/learnhooks/pkg/hooks"
)

const serviceName = "learnhooks"

// coreBlocks are the block types the editor knows before any extension runs.
var coreBlocks = []struct {
	name     string
	settings blocks.Settings
}{
	{"core/paragraph", blocks.Settings{
		"title":      "Paragraph",
		"attributes": map[string]any{"content": map[string]any{"type": "string", "default": ""}},
	}},
	{"core/image", blocks.Settings{
		"title": "Image",
		"attributes": map[string]any{
			"url": map[string]any{"type": "string", "default": ""},
			"alt": map[string]any{"type": "string", "default": ""},
		},
	}},
	{"core/button", blocks.Settings{
		"title": "Button",
		"attributes": map[string]any{
			"text": map[string]any{"type": "string", "default": ""},
			"url":  map[string]any{"type": "string", "default": ""},
		},
	}},
}

// app is the wired set of services every subcommand runs against.
type app struct {
	cfg        *config.Config
	hooks      *hooks.Registry
	editor     *blocks.Editor
	enrollment *enrollment.Service
	logger     *enrollment.Logger
	metrics    *observability.Metrics
	plugins    *plugin.Manager
	extensions []*extension.Extension
}

// loadConfig reads the config file named by --config and the flags of cmd,
// then installs the configured default logger.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.Setup(serviceName, version, cfg.LogFormat, level, cmd.ErrOrStderr()))
	return cfg, nil
}

// newApp wires the registry and every service on it.
//
// Order matters: extensions and the enrollment logger register first, then
// plugins load so they can filter the core block types registered last.
// A nil metrics records into a private registry.
func newApp(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*app, error) {
	if metrics == nil {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	reg := hooks.New()
	a := &app{
		cfg:        cfg,
		hooks:      reg,
		editor:     blocks.NewEditor(reg),
		enrollment: enrollment.NewService(reg),
		logger:     enrollment.NewLogger(slog.Default()),
		metrics:    metrics,
	}

	for _, name := range cfg.Extensions {
		ext, err := extension.Builtin(name)
		if err != nil {
			return nil, err
		}
		if _, err := extension.Register(ctx, ext, reg); err != nil {
			return nil, err
		}
		a.extensions = append(a.extensions, ext)
	}

	if err := hooks.RegisterAll(reg, a.logger); err != nil {
		return nil, oops.In("app").Wrapf(err, "register enrollment logger")
	}

	if cfg.PluginsEnabled {
		funcs := hostfunc.New(reg, capability.NewEnforcer())
		a.plugins = plugin.NewManager(cfg.PluginsDir,
			plugin.WithLuaHost(pluginlua.NewHost(funcs)),
			plugin.WithHostVersion(version),
			plugin.WithLoadObserver(metrics.RecordPluginLoad))
		if err := a.plugins.LoadAll(ctx); err != nil {
			return nil, err
		}
	}

	for _, b := range coreBlocks {
		if _, err := a.editor.RegisterBlockType(ctx, b.name, b.settings); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	slog.Debug("application wired",
		"extensions", len(a.extensions),
		"hooks", len(reg.Hooks()),
		"plugins", a.loadedPlugins())
	return a, nil
}

// enroll enrolls a user and counts the attempt.
func (a *app) enroll(ctx context.Context, courseID, userID int64) (enrollment.Data, error) {
	data, err := a.enrollment.Enroll(ctx, courseID, userID)
	a.metrics.RecordEnrollment(err)
	return data, err
}

func (a *app) loadedPlugins() []string {
	if a.plugins == nil {
		return nil
	}
	return a.plugins.ListPlugins()
}

// Close unloads plugins.
func (a *app) Close(ctx context.Context) {
	if a.plugins == nil {
		return
	}
	if err := a.plugins.Close(ctx); err != nil {
		slog.Warn("failed to close plugins", "error", err)
	}
}
