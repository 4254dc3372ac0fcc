// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package enrollment

import (
	"context"
	"log/slog"

	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// LoggerNamespace is the namespace the Logger registers under.
const LoggerNamespace = "learnhooks/enrollment-logger"

// FeaturedCourseID is the course the Logger watches individually.
const FeaturedCourseID int64 = 123

// Logger listens for enrollments and logs a notification line for each.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a listener writing to logger, or to slog.Default when nil.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// RegisterHooks implements hooks.Hookable.
func (l *Logger) RegisterHooks(r *hooks.Registry) error {
	if err := r.RegisterAction(HookUserEnrolled, LoggerNamespace, hooks.DefaultPriority,
		hooks.ActionOf(l.logGeneric)); err != nil {
		return err
	}
	return r.RegisterAction(CourseHook(FeaturedCourseID), LoggerNamespace, hooks.DefaultPriority,
		hooks.ActionOf(l.logFeatured))
}

// UnregisterHooks removes the Logger's callbacks from r.
func (l *Logger) UnregisterHooks(r *hooks.Registry) {
	r.Unregister(HookUserEnrolled, LoggerNamespace)
	r.Unregister(CourseHook(FeaturedCourseID), LoggerNamespace)
}

func (l *Logger) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

func (l *Logger) logGeneric(ctx context.Context, args ...any) {
	data := dataArg(args)
	l.log().InfoContext(ctx, "send enrollment notification",
		"scope", "generic",
		"user_id", data.UserID(),
		"course_id", data.CourseID())
}

func (l *Logger) logFeatured(ctx context.Context, args ...any) {
	data := dataArg(args)
	l.log().InfoContext(ctx, "user enrolled in featured course",
		"scope", "specific",
		"user_id", data.UserID(),
		"course_id", data.CourseID())
}

func dataArg(args []any) Data {
	if len(args) == 0 {
		return Data{}
	}
	switch d := args[0].(type) {
	case Data:
		return d
	case map[string]any:
		return Data(d)
	default:
		return Data{}
	}
}
