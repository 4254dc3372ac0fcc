// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package extension

import (
	"sort"

	"github.com/samber/oops"

	"github.com/learnhooks/learnhooks/internal/blocks"
)

// CodeUnknownExtension is returned by Builtin for names it does not know.
const CodeUnknownExtension = "UNKNOWN_EXTENSION"

// builtins maps configuration names to constructors.
var builtins = map[string]func() *Extension{
	"image-alt-source": ImageAltSource,
	"button-tracking":  ButtonTracking,
}

// ImageAltSource adds a customAlt attribute to core/image, a sidebar control to
// edit it, and writes it as data-alt-source when saving.
func ImageAltSource() *Extension {
	return mustNew(Config{
		Namespace:   "image-alt-source",
		TargetBlock: "core/image",
		Attribute:   "customAlt",
		Controls: func(props blocks.EditProps) blocks.Element {
			return blocks.TextControl{
				Label:     "Custom Alt Attribute",
				Attribute: "customAlt",
				Value:     props.Attributes.String("customAlt"),
			}
		},
		PropsModifier: func(props blocks.Props, attrs blocks.Attributes) blocks.Props {
			props["data-alt-source"] = attrs.String("customAlt")
			return props
		},
	})
}

// ButtonTracking adds a dataTrackingId attribute to core/button and writes it
// as data-tracking-id when saving, only when it is set.
func ButtonTracking() *Extension {
	return mustNew(Config{
		Namespace:   "button-tracking",
		TargetBlock: "core/button",
		Attribute:   "dataTrackingId",
		Controls: func(props blocks.EditProps) blocks.Element {
			return blocks.TextControl{
				Panel:     "Tracking ID",
				Label:     "Data Tracking ID",
				Help:      "This will be added as a data-tracking-id attribute in the frontend.",
				Attribute: "dataTrackingId",
				Value:     props.Attributes.String("dataTrackingId"),
			}
		},
		PropsModifier: func(props blocks.Props, attrs blocks.Attributes) blocks.Props {
			if id := attrs.String("dataTrackingId"); id != "" {
				props["data-tracking-id"] = id
			}
			return props
		},
	})
}

// Builtin returns the built-in extension registered under name.
func Builtin(name string) (*Extension, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, oops.Code(CodeUnknownExtension).
			In("extension").
			With("extension", name).
			With("available", BuiltinNames()).
			Errorf("unknown extension %q", name)
	}
	return ctor(), nil
}

// BuiltinNames returns the names accepted by Builtin, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustNew(cfg Config) *Extension {
	ext, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return ext
}
