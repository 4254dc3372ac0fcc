// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

//go:build integration

package hooks_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/learnhooks/learnhooks/internal/blocks"
	"github.com/learnhooks/learnhooks/internal/enrollment"
	"github.com/learnhooks/learnhooks/internal/extension"
	"github.com/learnhooks/learnhooks/pkg/hooks"
)

const redirectManifest = `
name: redirect
version: 0.2.0
type: lua
requires: ">= 0.1.0"
hooks:
  - learninghooks/**
  - blocks.registerBlockType
lua-plugin:
  entry: main.lua
`

const redirectCode = `
enrolled = {}

learnhooks.add_filter("learninghooks/enrollment_data", "redirect", function(data)
	if data.course_id == 1 then
		data.course_id = 2
	end
	return data
end, 5)

learnhooks.add_action("learninghooks/user_enrolled", "record", function(data)
	table.insert(enrolled, data.course_id)
	learnhooks.do_action("learninghooks/plugin_saw_" .. data.course_id, data.user_id)
end)

learnhooks.add_filter("blocks.registerBlockType", "subtitle", function(settings, name)
	if name == "core/paragraph" then
		settings.attributes.subtitle = { type = "string", default = "" }
	end
	return settings
end)
`

var _ = Describe("Hook pipeline", func() {
	var s *stack

	BeforeEach(func() {
		s = newStack()
	})

	Describe("block extensions", func() {
		It("extends settings, edit UI and save props of their target blocks only", func() {
			image, err := s.editor.RegisterBlockType(s.ctx, "core/image", blocks.Settings{
				"attributes": map[string]any{"url": map[string]any{"type": "string"}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(image.AttributeSchema()).To(HaveKey("customAlt"))
			Expect(image.AttributeSchema()).NotTo(HaveKey("dataTrackingId"))

			el, err := s.editor.Edit(s.ctx, blocks.EditProps{
				Name:       "core/button",
				Attributes: blocks.Attributes{"dataTrackingId": "cta"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(el).To(BeAssignableToTypeOf(blocks.Fragment{}))
			Expect(el.(blocks.Fragment)[1]).To(HaveField("Value", "cta"))

			props, err := s.editor.SaveProps(s.ctx, "core/button", blocks.Attributes{"dataTrackingId": ""})
			Expect(err).NotTo(HaveOccurred())
			Expect(props).To(BeEmpty())
		})
	})

	Describe("Lua plugins", func() {
		BeforeEach(func() {
			s.writePlugin(redirectManifest, redirectCode)
			Expect(s.manager.LoadAll(s.ctx)).To(Succeed())
			Expect(s.manager.ListPlugins()).To(ConsistOf("redirect"))
		})

		It("filters enrollment data and observes the enrollment", func() {
			var saw []any
			Expect(s.registry.RegisterAction("learninghooks/plugin_saw_2", "test", hooks.DefaultPriority,
				hooks.ActionOf(func(_ context.Context, args ...any) { saw = args }))).To(Succeed())

			data, err := s.enrollment.Enroll(s.ctx, 1, 77)
			Expect(err).NotTo(HaveOccurred())
			Expect(data.CourseID()).To(Equal(int64(2)))
			Expect(saw).To(Equal([]any{int64(77)}))
		})

		It("filters core block types registered after loading", func() {
			settings, err := s.editor.RegisterBlockType(s.ctx, "core/paragraph", blocks.Settings{
				"attributes": map[string]any{"content": map[string]any{"type": "string"}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.AttributeSchema()).To(HaveKey("subtitle"))
			Expect(settings.AttributeSchema()).To(HaveKey("content"))
		})

		It("removes every callback on unload", func() {
			Expect(s.registry.Has(enrollment.HookEnrollmentData, "redirect/redirect")).To(BeTrue())

			Expect(s.manager.Unload(s.ctx, "redirect")).To(Succeed())

			for _, hook := range s.registry.Hooks() {
				for _, e := range s.registry.Entries(hook) {
					Expect(e.Namespace).NotTo(HavePrefix("redirect/"))
				}
			}
			Expect(s.enforcer.IsRegistered("redirect")).To(BeFalse())

			data, err := s.enrollment.Enroll(s.ctx, 1, 77)
			Expect(err).NotTo(HaveOccurred())
			Expect(data.CourseID()).To(Equal(int64(1)))
		})
	})

	Describe("grants", func() {
		It("refuses a plugin that registers outside its grants", func() {
			s.writePlugin(`
name: sneaky
version: 1.0.0
type: lua
hooks: [learnhooks.modifyEnrollmentMessage]
lua-plugin:
  entry: main.lua
`, `learnhooks.add_filter("learninghooks/enrollment_data", "steal", function(d) return nil end)`)

			discovered, err := s.manager.Discover(s.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(discovered).To(HaveLen(1))

			loadErr := s.manager.Load(s.ctx, discovered[0])
			Expect(loadErr).To(HaveOccurred())
			Expect(loadErr.Error()).To(ContainSubstring("capability denied"))
			Expect(s.registry.Has(enrollment.HookEnrollmentData, "")).To(BeFalse())
			Expect(s.enforcer.IsRegistered("sneaky")).To(BeFalse())
			Expect(s.manager.ListPlugins()).To(BeEmpty())
		})

		It("refuses a plugin requiring a newer host", func() {
			s.writePlugin(`
name: future
version: 1.0.0
type: lua
requires: ">= 9.0.0"
lua-plugin:
  entry: main.lua
`, `learnhooks.log("info", "never runs")`)

			Expect(s.manager.LoadAll(s.ctx)).To(Succeed())
			Expect(s.manager.ListPlugins()).To(BeEmpty())
		})
	})

	Describe("the repository example plugin", func() {
		It("decorates the enrollment message", func() {
			s.loadRepoPlugins()

			msg, err := enrollment.Message(s.ctx, s.registry, 101, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("User 101 enrolled in course 42 🎉"))
		})

		It("watches the lifecycle of an extension registered after it", func() {
			logs := captureLogs()

			ext := extension.ButtonTracking()
			extension.Unregister(ext, s.registry)
			s.loadRepoPlugins()

			registered, err := extension.Register(s.ctx, ext, s.registry)
			Expect(err).NotTo(HaveOccurred())
			Expect(registered).To(BeTrue())

			settings, err := s.editor.RegisterBlockType(s.ctx, "core/button", blocks.Settings{
				"title":      "Button",
				"attributes": map[string]any{"text": map[string]any{"type": "string", "default": ""}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(settings).To(HaveKeyWithValue("title", "Button"))
			Expect(settings.AttributeSchema()).To(HaveKey("text"))
			Expect(settings.AttributeSchema()).To(HaveKeyWithValue("dataTrackingId",
				map[string]any{"type": "string", "default": ""}))

			attrs := blocks.Attributes{"dataTrackingId": "cta-signup"}
			_, err = s.editor.Edit(s.ctx, blocks.EditProps{Name: "core/button", Attributes: attrs})
			Expect(err).NotTo(HaveOccurred())

			props, err := s.editor.SaveProps(s.ctx, "core/button", attrs)
			Expect(err).NotTo(HaveOccurred())
			Expect(props).To(Equal(blocks.Props{"data-tracking-id": "cta-signup"}))

			entries := logs.entries()
			for _, msg := range []string{
				"extension init starting",
				"extension init finished",
				"extension attributes seen",
				"extension controls rendered",
				"extension save props seen",
			} {
				Expect(entries).To(ContainElement(SatisfyAll(
					HaveKeyWithValue("msg", msg),
					HaveKeyWithValue("plugin", "try-hooks"),
					HaveKeyWithValue("extension", "button-tracking"),
					HaveKeyWithValue("block", "core/button"),
				)), msg)
			}
		})
	})

	Describe("failure propagation", func() {
		It("returns the first callback failure and stops the chain", func() {
			boom := errors.New("boom")
			ran := false
			Expect(s.registry.RegisterAction(enrollment.HookUserEnrolled, "first", 1,
				func(context.Context, ...any) error { return boom })).To(Succeed())
			Expect(s.registry.RegisterAction(enrollment.HookUserEnrolled, "later", 99,
				hooks.ActionOf(func(context.Context, ...any) { ran = true }))).To(Succeed())

			_, err := s.enrollment.Enroll(s.ctx, 5, 6)
			Expect(err).To(MatchError(boom))

			var cbErr *hooks.CallbackError
			Expect(errors.As(err, &cbErr)).To(BeTrue())
			Expect(cbErr.Namespace).To(Equal("first"))
			Expect(ran).To(BeFalse())
		})
	})
})
