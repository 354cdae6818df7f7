// Package service is the OTP ledger: it issues, resends, and consumes
// one-time verification codes. Preconditions (domain trust, account absence)
// belong to the callers; the ledger only guarantees single-live-code,
// single-use, and no-orphan-unsent-code.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"collegenet/internal/notify"
	"collegenet/internal/otp/models"
	"collegenet/internal/otp/store"
	"collegenet/internal/platform/metrics"
	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/platform/sentinel"
	"collegenet/pkg/requestcontext"
)

// DefaultTTL is how long a code stays valid.
const DefaultTTL = 10 * time.Minute

type Service struct {
	store    store.Store
	notifier notify.Notifier
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// New constructs the ledger. The notifier is required: a code that cannot be
// delivered must not exist.
func New(st store.Store, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{store: st, notifier: notifier, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Issue replaces any live code for (email, purpose) with a fresh one and
// delivers it. If delivery fails the record is rolled back so no unsent code
// is ever left behind.
func (s *Service) Issue(ctx context.Context, email string, purpose models.Purpose, profile *models.ProfileDraft) error {
	if !purpose.Valid() {
		return dErrors.New(dErrors.CodeValidation, "unknown verification purpose")
	}

	code, err := models.GenerateCode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}

	now := requestcontext.Now(ctx)
	rec := models.Record{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl),
		Profile:   profile,
		CreatedAt: now,
	}
	if err := s.store.Replace(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store code")
	}

	result, err := s.notifier.SendVerificationCode(ctx, email, code, string(purpose))
	if err != nil {
		if delErr := s.store.Delete(ctx, email, purpose); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back undelivered code",
				"email", email, "error", delErr)
		}
		return dErrors.Wrap(err, dErrors.CodeNotifyFailed, "failed to send verification code")
	}

	s.logger.InfoContext(ctx, "verification code issued",
		"email", email,
		"purpose", string(purpose),
		"message_id", result.MessageID,
	)
	if s.metrics != nil {
		s.metrics.OTPIssued.Inc()
	}
	return nil
}

// Resend issues a fresh code for the key. When the caller does not resupply a
// profile draft, the draft from the still-live record is carried over; with no
// live record the resend fails with not_found.
func (s *Service) Resend(ctx context.Context, email string, purpose models.Purpose, profile *models.ProfileDraft) error {
	if profile == nil {
		rec, err := s.store.FindActive(ctx, email, purpose, requestcontext.Now(ctx))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no active verification code for this email")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load existing code")
		}
		profile = rec.Profile
	}
	return s.Issue(ctx, email, purpose, profile)
}

// Consume atomically spends a code and returns the profile draft it carried.
// Wrong code, already used, and expired are deliberately indistinguishable.
func (s *Service) Consume(ctx context.Context, email, code string, purpose models.Purpose) (*models.ProfileDraft, error) {
	profile, err := s.store.Consume(ctx, email, code, purpose, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidCode, "invalid or expired verification code")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify code")
	}

	if s.metrics != nil {
		s.metrics.OTPConsumed.Inc()
	}
	return profile, nil
}
