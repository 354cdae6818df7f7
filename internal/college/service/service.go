// Package service orchestrates the domain trust registry and the registration
// approval workflow.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"collegenet/internal/college/models"
	"collegenet/internal/college/store"
	"collegenet/internal/notify"
	"collegenet/internal/platform/metrics"
	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/platform/sentinel"
	"collegenet/pkg/requestcontext"
)

// Action is an admin decision on a pending registration.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Service owns all mutations of the trust registry. Callers never touch the
// stores directly.
type Service struct {
	colleges store.CollegeStore
	pending  store.PendingStore
	notifier notify.Notifier
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

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New constructs a Service.
func New(colleges store.CollegeStore, pending store.PendingStore, opts ...Option) *Service {
	s := &Service{colleges: colleges, pending: pending}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// SubmitRequest is an institution's self-submitted application.
type SubmitRequest struct {
	Name          string
	ContactEmail  string
	DocsRef       string
	TermsAccepted bool
}

// Submit records a new pending registration. Fails with a conflict when the
// contact email already has a pending registration or already originated an
// approved college.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.PendingRegistration, error) {
	reg, err := models.NewPendingRegistration(uuid.New(), req.Name, req.ContactEmail, req.DocsRef, req.TermsAccepted, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if _, err := s.colleges.FindByContactEmail(ctx, reg.ContactEmail); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "a college with this email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing colleges")
	}

	if err := s.pending.CreateIfEmailAvailable(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a college with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	s.logAudit(ctx, "college_registration_submitted", "registration_id", reg.ID, "domain", reg.Domain())
	if s.metrics != nil {
		s.metrics.CollegeRegistrations.Inc()
	}
	return reg, nil
}

// DecisionOutcome reports what a decision produced. College is set only on
// approval.
type DecisionOutcome struct {
	Registration *models.PendingRegistration
	College      *models.College
}

// Decide applies an admin decision to a pending registration. The
// pending->terminal transition happens atomically in the store; a second
// decision on the same registration fails with invalid_state. On approval the
// derived domain becomes a trust record; the decision notification is
// fire-and-forget and never rolls back the decision.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, action Action, reason string, deciderID uuid.UUID) (*DecisionOutcome, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, dErrors.New(dErrors.CodeValidation, "action must be either approve or reject")
	}

	if action == ActionApprove {
		reg, err := s.pending.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "pending registration not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
		}
		// Preflight only; the unique domain index is the real guard.
		if _, err := s.colleges.FindByDomain(ctx, reg.Domain()); err == nil {
			return nil, dErrors.New(dErrors.CodeConflict, "domain is already trusted")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check domain")
		}
	}

	now := requestcontext.Now(ctx)
	reg, err := s.pending.Execute(ctx, id,
		func(r *models.PendingRegistration) error {
			if err := r.CanDecide(); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, "registration already decided")
			}
			return nil
		},
		func(r *models.PendingRegistration) {
			if action == ActionApprove {
				r.ApplyApproval(deciderID, now)
			} else {
				r.ApplyRejection(deciderID, reason, now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pending registration not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidState) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decide registration")
	}

	outcome := &DecisionOutcome{Registration: reg}
	if action == ActionApprove {
		college := &models.College{
			ID:           uuid.New(),
			Name:         reg.Name,
			ContactEmail: reg.ContactEmail,
			Domain:       reg.Domain(),
			Active:       true,
			ApprovedBy:   deciderID,
			ApprovedAt:   now,
			CreatedAt:    now,
		}
		if err := s.colleges.CreateIfDomainAvailable(ctx, college); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost a race on the domain after the approval was stamped.
				s.logger.ErrorContext(ctx, "approved registration lost domain race",
					"registration_id", reg.ID, "domain", college.Domain)
				return nil, dErrors.New(dErrors.CodeConflict, "domain is already trusted")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create trust record")
		}
		outcome.College = college
	}

	s.notifyDecision(ctx, reg, action == ActionApprove)

	s.logAudit(ctx, "college_registration_decided",
		"registration_id", reg.ID,
		"decision", string(action),
		"decided_by", deciderID,
	)
	if s.metrics != nil {
		s.metrics.CollegeDecisions.WithLabelValues(string(action)).Inc()
	}
	return outcome, nil
}

// notifyDecision is fire-and-forget: delivery failure is logged, never
// surfaced, and never rolls back the decision.
func (s *Service) notifyDecision(ctx context.Context, reg *models.PendingRegistration, approved bool) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.SendApprovalDecision(ctx, reg.ContactEmail, reg.Name, approved, reg.RejectionReason)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to send decision notification",
			"registration_id", reg.ID, "error", err)
	}
}

// ListPending returns undecided registrations, newest first.
func (s *Service) ListPending(ctx context.Context) ([]*models.PendingRegistration, error) {
	regs, err := s.pending.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending registrations")
	}
	return regs, nil
}

// ListVerified returns active colleges ordered by name.
func (s *Service) ListVerified(ctx context.Context) ([]*models.College, error) {
	colleges, err := s.colleges.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list colleges")
	}
	return colleges, nil
}

// ResolveDomain returns the active college for a domain, or not_found when the
// domain is unknown or retired. Callers decide how to phrase the rejection.
func (s *Service) ResolveDomain(ctx context.Context, domain string) (*models.College, error) {
	college, err := s.colleges.FindByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "this email domain is not from a verified college")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve domain")
	}
	if !college.Active {
		return nil, dErrors.New(dErrors.CodeNotFound, "this email domain is not from a verified college")
	}
	return college, nil
}

// Deactivate retires a domain without deleting its approval history.
func (s *Service) Deactivate(ctx context.Context, domain string) (*models.College, error) {
	college, err := s.colleges.SetActive(ctx, domain, false)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "college not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate college")
	}
	s.logAudit(ctx, "college_deactivated", "domain", domain)
	return college, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
