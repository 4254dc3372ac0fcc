// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package enrollment enrolls users in courses and exposes the enrollment
// record and the enrollment event as hooks.
package enrollment

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// Hook names.
const (
	// HookEnrollmentData filters the enrollment record before it is saved.
	HookEnrollmentData = "learninghooks/enrollment_data"
	// HookUserEnrolled fires after any enrollment.
	HookUserEnrolled = "learninghooks/user_enrolled"
)

// CodeInvalidEnrollment marks a rejected enrollment.
const CodeInvalidEnrollment = "INVALID_ENROLLMENT"

// DateLayout is the layout of Data["date"].
const DateLayout = "2006-01-02 15:04:05"

// Record keys.
const (
	KeyUserID   = "user_id"
	KeyCourseID = "course_id"
	KeyDate     = "date"
)

// CourseHook returns the action fired after an enrollment in courseID.
func CourseHook(courseID int64) string {
	return HookUserEnrolled + "_" + strconv.FormatInt(courseID, 10)
}

// Data is an enrollment record. Filters may add, override or remove keys.
type Data map[string]any

// UserID returns the record's user id, or 0 when it is missing or not a positive integer.
func (d Data) UserID() int64 { return toID(d[KeyUserID]) }

// CourseID returns the record's course id, or 0 when it is missing or not a positive integer.
func (d Data) CourseID() int64 { return toID(d[KeyCourseID]) }

// Service enrolls users in courses.
type Service struct {
	hooks *hooks.Registry
	now   func() time.Time
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithClock sets the clock used for the record's date. Defaults to time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an enrollment service that dispatches through reg.
func NewService(reg *hooks.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		hooks: reg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enroll enrolls userID in courseID and returns the saved record.
//
// The record is filtered through HookEnrollmentData and its ids are validated
// again afterwards. Once saved, CourseHook(courseID) fires, then HookUserEnrolled,
// both with the record. Callback failures are returned unchanged.
func (s *Service) Enroll(ctx context.Context, courseID, userID int64) (Data, error) {
	requestID := ulid.Make().String()
	logger := slog.Default().With("request_id", requestID)

	if courseID <= 0 || userID <= 0 {
		return nil, oops.Code(CodeInvalidEnrollment).
			In("enrollment").
			With("course_id", courseID).
			With("user_id", userID).
			With("request_id", requestID).
			Errorf("invalid course or user id")
	}

	data := Data{
		KeyUserID:   userID,
		KeyCourseID: courseID,
		KeyDate:     s.now().Format(DateLayout),
	}

	filtered, err := s.hooks.ApplyFilter(ctx, HookEnrollmentData, data)
	if err != nil {
		return nil, err
	}
	data, err = asData(filtered)
	if err != nil {
		return nil, oops.With("request_id", requestID).Wrap(err)
	}

	user, course := data.UserID(), data.CourseID()
	if user == 0 || course == 0 {
		return nil, oops.Code(CodeInvalidEnrollment).
			In("enrollment").
			With("hook", HookEnrollmentData).
			With("request_id", requestID).
			Errorf("filtered data is missing a valid user_id or course_id")
	}
	data[KeyUserID] = user
	data[KeyCourseID] = course

	s.addUserToCourse(ctx, logger, data)
	s.addCourseToUser(ctx, logger, data)

	if err := s.hooks.DoAction(ctx, CourseHook(course), data); err != nil {
		return nil, err
	}
	if err := s.hooks.DoAction(ctx, HookUserEnrolled, data); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "user enrolled", "user_id", user, "course_id", course)
	return data, nil
}

func (s *Service) addUserToCourse(ctx context.Context, logger *slog.Logger, data Data) {
	logger.InfoContext(ctx, "[SIMULATED] user added to course",
		"user_id", data.UserID(), "course_id", data.CourseID())
}

func (s *Service) addCourseToUser(ctx context.Context, logger *slog.Logger, data Data) {
	logger.InfoContext(ctx, "[SIMULATED] course added to user",
		"course_id", data.CourseID(), "user_id", data.UserID())
}

func asData(v any) (Data, error) {
	switch d := v.(type) {
	case Data:
		return d, nil
	case map[string]any:
		return Data(d), nil
	case nil:
		return Data{}, nil
	default:
		return nil, hooks.ErrInvalidResult(HookEnrollmentData, "enrollment.Data", v)
	}
}

// maxFloatID is 2^63, the first float64 outside the int64 range.
var maxFloatID = math.Ldexp(1, 63)

// toID returns v as a positive integer id, or 0.
func toID(v any) int64 {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0
		}
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return 0
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x >= maxFloatID {
			return 0
		}
		n = int64(x)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n <= 0 {
		return 0
	}
	return n
}
