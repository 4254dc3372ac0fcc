// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package enrollment

import (
	"context"
	"fmt"

	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// HookModifyMessage filters the enrollment message: (message, userID, courseID).
const HookModifyMessage = "learnhooks.modifyEnrollmentMessage"

// Message returns the display message for an enrollment, filtered through HookModifyMessage.
func Message(ctx context.Context, reg *hooks.Registry, userID, courseID int64) (string, error) {
	msg := fmt.Sprintf("User %d enrolled in course %d", userID, courseID)
	return hooks.Apply(ctx, reg, HookModifyMessage, msg, userID, courseID)
}
