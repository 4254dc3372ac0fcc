// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

//go:build integration

package hooks_test

import (
	"context"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/learnhooks/learnhooks/internal/observability"
	"github.com/learnhooks/learnhooks/internal/plugin"
	"github.com/learnhooks/learnhooks/internal/plugin/capability"
	"github.com/learnhooks/learnhooks/internal/plugin/hostfunc"
	pluginlua "github.com/learnhooks/learnhooks/internal/plugin/lua"
)

var _ = Describe("Observability", func() {
	var (
		s      *stack
		server *observability.Server
	)

	BeforeEach(func() {
		s = newStack()
		server = observability.NewServer("127.0.0.1:0", func() bool { return true })
		errCh, err := server.Start(s.ctx)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			Expect(server.Stop(ctx)).To(Succeed())
			Eventually(errCh).Should(BeClosed())
		})
	})

	scrape := func() string {
		resp, err := http.Get("http://" + server.Addr() + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return string(body)
	}

	It("counts plugin loads and hook dispatches", func() {
		s.writePlugin(`
name: broken
version: 1.0.0
type: lua
lua-plugin:
  entry: main.lua
`, `error("broken on purpose")`)

		metrics := server.Metrics()
		enforcer := capability.NewEnforcer()
		manager := plugin.NewManager(repoPlugins,
			plugin.WithLuaHost(pluginlua.NewHost(hostfunc.New(s.registry, enforcer))),
			plugin.WithHostVersion("0.1.0"),
			plugin.WithLoadObserver(metrics.RecordPluginLoad))
		DeferCleanup(func() { Expect(manager.Close(context.Background())).To(Succeed()) })
		Expect(manager.LoadAll(s.ctx)).To(Succeed())

		brokenManager := plugin.NewManager(s.pluginsDir,
			plugin.WithLuaHost(pluginlua.NewHost(hostfunc.New(s.registry, enforcer))),
			plugin.WithLoadObserver(metrics.RecordPluginLoad))
		DeferCleanup(func() { Expect(brokenManager.Close(context.Background())).To(Succeed()) })
		Expect(brokenManager.LoadAll(s.ctx)).To(Succeed())

		_, err := s.enrollment.Enroll(s.ctx, 42, 101)
		metrics.RecordEnrollment(err)
		Expect(err).NotTo(HaveOccurred())

		body := scrape()
		Expect(body).To(ContainSubstring(`learnhooks_plugin_loads_total{status="loaded"} 1`))
		Expect(body).To(ContainSubstring(`learnhooks_plugin_loads_total{status="failed"} 1`))
		Expect(body).To(ContainSubstring(`learnhooks_enrollments_total{status="success"} 1`))
		Expect(body).To(ContainSubstring(`learnhooks_hook_dispatches_total{kind="filter",status="success"}`))
	})

	It("serves health probes", func() {
		for _, path := range []string{"/healthz/liveness", "/healthz/readiness"} {
			resp, err := http.Get("http://" + server.Addr() + path)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK), path)
		}
	})
})
