// Package onboarding coordinates the domain trust registry, the OTP ledger,
// the account store, and the session issuer to turn a prospective student into
// a persisted account.
package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"collegenet/internal/account"
	accountmodels "collegenet/internal/account/models"
	accountstore "collegenet/internal/account/store"
	collegemodels "collegenet/internal/college/models"
	otpmodels "collegenet/internal/otp/models"
	"collegenet/internal/platform/metrics"
	dErrors "collegenet/pkg/domain-errors"
	pkgemail "collegenet/pkg/email"
	"collegenet/pkg/platform/sentinel"
	"collegenet/pkg/requestcontext"
)

// CollegeRegistry resolves a domain to its active college.
type CollegeRegistry interface {
	ResolveDomain(ctx context.Context, domain string) (*collegemodels.College, error)
}

// Ledger is the OTP issue/resend/consume surface this orchestrator drives.
type Ledger interface {
	Issue(ctx context.Context, email string, purpose otpmodels.Purpose, profile *otpmodels.ProfileDraft) error
	Resend(ctx context.Context, email string, purpose otpmodels.Purpose, profile *otpmodels.ProfileDraft) error
	Consume(ctx context.Context, email, code string, purpose otpmodels.Purpose) (*otpmodels.ProfileDraft, error)
}

// TokenMinter issues the session credential for a freshly created account.
type TokenMinter interface {
	Mint(accountID uuid.UUID, role string, now time.Time) (token string, expiresAt time.Time, err error)
}

type Service struct {
	registry CollegeRegistry
	ledger   Ledger
	accounts accountstore.Store
	tokens   TokenMinter
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

func New(registry CollegeRegistry, ledger Ledger, accounts accountstore.Store, tokens TokenMinter, opts ...Option) *Service {
	s := &Service{registry: registry, ledger: ledger, accounts: accounts, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// BeginRequest starts student onboarding.
type BeginRequest struct {
	Email    string
	Name     string
	Semester string
	Gender   string
}

// Begin validates the prospect, checks domain trust and account absence, and
// has the ledger issue a verification code carrying the profile draft.
func (s *Service) Begin(ctx context.Context, req BeginRequest) error {
	req.Email = pkgemail.Normalize(req.Email)
	if req.Email == "" || strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Semester) == "" || strings.TrimSpace(req.Gender) == "" {
		return dErrors.New(dErrors.CodeValidation, "all fields are required")
	}

	college, err := s.resolveTrustedDomain(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.requireNoAccount(ctx, req.Email); err != nil {
		return err
	}

	draft := &otpmodels.ProfileDraft{
		Name:        strings.TrimSpace(req.Name),
		Semester:    strings.TrimSpace(req.Semester),
		Gender:      strings.TrimSpace(req.Gender),
		CollegeID:   college.ID,
		CollegeName: college.Name,
	}
	if err := s.ledger.Issue(ctx, req.Email, otpmodels.PurposeStudentVerification, draft); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "student onboarding started", "email", req.Email, "domain", college.Domain)
	return nil
}

// Resend re-checks that the domain is still trusted and has the ledger issue
// a fresh code, reusing the draft from the live record.
func (s *Service) Resend(ctx context.Context, email string) error {
	email = pkgemail.Normalize(email)
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := s.resolveTrustedDomain(ctx, email); err != nil {
		return err
	}
	return s.ledger.Resend(ctx, email, otpmodels.PurposeStudentVerification, nil)
}

// CompleteResult is a created account plus its session credential.
type CompleteResult struct {
	Account        *accountmodels.Account
	Token          string
	TokenExpiresAt time.Time
}

// Complete consumes the code and materializes the account. The consume is the
// single-winner step; the unique email constraint on account creation is the
// backstop for any race that slips past it.
func (s *Service) Complete(ctx context.Context, email, code string) (*CompleteResult, error) {
	email = pkgemail.Normalize(email)
	if email == "" || strings.TrimSpace(code) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and code are required")
	}

	draft, err := s.ledger.Consume(ctx, email, strings.TrimSpace(code), otpmodels.PurposeStudentVerification)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "verification record carried no profile")
	}

	// Defends against two verification attempts racing before either
	// created the account.
	if err := s.requireNoAccount(ctx, email); err != nil {
		return nil, err
	}

	placeholder, err := account.RandomPlaceholder()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate placeholder credential")
	}

	now := requestcontext.Now(ctx)
	first, last := pkgemail.SplitName(draft.Name)
	acct := &accountmodels.Account{
		ID:          uuid.New(),
		Email:       email,
		FirstName:   first,
		LastName:    last,
		Role:        accountmodels.RoleStudent,
		Affiliation: draft.CollegeName,
		// Same estimate the registration form shows applicants.
		GraduationYear: now.Year() + 4,
		PasswordHash:   placeholder,
		PasswordSet:    false,
		Active:         true,
		CreatedAt:      now,
	}
	if err := s.accounts.CreateIfEmailAvailable(ctx, acct); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	tok, expiresAt, err := s.tokens.Mint(acct.ID, string(acct.Role), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	s.logAudit(ctx, "student_onboarded", "account_id", acct.ID, "affiliation", acct.Affiliation)
	if s.metrics != nil {
		s.metrics.StudentsOnboarded.Inc()
	}
	return &CompleteResult{Account: acct, Token: tok, TokenExpiresAt: expiresAt}, nil
}

func (s *Service) resolveTrustedDomain(ctx context.Context, email string) (*collegemodels.College, error) {
	domain, ok := pkgemail.Domain(email)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "email must contain a domain")
	}
	college, err := s.registry.ResolveDomain(ctx, domain)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUntrustedDomain, "this email domain is not from a verified college")
		}
		return nil, err
	}
	return college, nil
}

func (s *Service) requireNoAccount(ctx context.Context, email string) error {
	_, err := s.accounts.FindByEmail(ctx, email)
	if err == nil {
		return dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing accounts")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
