// Package notify is the outbound email port. The core treats delivery as a
// fallible external collaborator: implementations report success or failure
// and callers decide whether to compensate.
package notify

import "context"

// Result carries delivery metadata for a sent message.
type Result struct {
	MessageID string
}

// Notifier sends the two kinds of mail this system produces.
type Notifier interface {
	// SendVerificationCode delivers a one-time code. Purpose selects the
	// subject line ("student_verification" or "password_reset").
	SendVerificationCode(ctx context.Context, email, code, purpose string) (Result, error)

	// SendApprovalDecision delivers a college registration decision.
	SendApprovalDecision(ctx context.Context, email, collegeName string, approved bool, reason string) (Result, error)
}
