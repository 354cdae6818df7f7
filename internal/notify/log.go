package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogNotifier writes notifications to the log instead of sending mail. It is
// the default when SMTP is not configured; development only, since it logs
// the code itself.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendVerificationCode(ctx context.Context, email, code, purpose string) (Result, error) {
	id := uuid.NewString()
	n.Logger.InfoContext(ctx, "verification code (log notifier, dev only)",
		"email", email,
		"code", code,
		"purpose", purpose,
		"message_id", id,
	)
	return Result{MessageID: id}, nil
}

func (n LogNotifier) SendApprovalDecision(ctx context.Context, email, collegeName string, approved bool, reason string) (Result, error) {
	id := uuid.NewString()
	n.Logger.InfoContext(ctx, "approval decision (log notifier, dev only)",
		"email", email,
		"college", collegeName,
		"approved", approved,
		"reason", reason,
		"message_id", id,
	)
	return Result{MessageID: id}, nil
}
