// Package auth covers credential-based entry points: direct registration,
// login, and the OTP-backed credential (re)set flow.
package auth

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
	otpmodels "collegenet/internal/otp/models"
	dErrors "collegenet/pkg/domain-errors"
	pkgemail "collegenet/pkg/email"
	"collegenet/pkg/platform/sentinel"
	"collegenet/pkg/requestcontext"
)

// MinPasswordLength applies to every user-chosen credential.
const MinPasswordLength = 8

// Ledger is the OTP surface the credential-reset flow drives.
type Ledger interface {
	Issue(ctx context.Context, email string, purpose otpmodels.Purpose, profile *otpmodels.ProfileDraft) error
	Consume(ctx context.Context, email, code string, purpose otpmodels.Purpose) (*otpmodels.ProfileDraft, error)
}

// TokenMinter issues session credentials.
type TokenMinter interface {
	Mint(accountID uuid.UUID, role string, now time.Time) (token string, expiresAt time.Time, err error)
}

type Service struct {
	accounts accountstore.Store
	ledger   Ledger
	tokens   TokenMinter
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(accounts accountstore.Store, ledger Ledger, tokens TokenMinter, opts ...Option) *Service {
	s := &Service{accounts: accounts, ledger: ledger, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RegisterRequest creates an account directly, outside the OTP flow.
type RegisterRequest struct {
	Email       string
	FirstName   string
	LastName    string
	Password    string
	Role        accountmodels.Role
	Affiliation string
}

// Session is an authenticated account plus its bearer token.
type Session struct {
	Account        *accountmodels.Account
	Token          string
	TokenExpiresAt time.Time
}

// Register creates an account with a usable credential and logs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Email = pkgemail.Normalize(req.Email)
	if req.Email == "" || strings.TrimSpace(req.FirstName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and first name are required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if !req.Role.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role")
	}

	hash, err := account.HashPassword(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	acct := &accountmodels.Account{
		ID:           uuid.New(),
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Affiliation:  strings.TrimSpace(req.Affiliation),
		PasswordHash: hash,
		PasswordSet:  true,
		Active:       true,
		CreatedAt:    now,
	}
	if err := s.accounts.CreateIfEmailAvailable(ctx, acct); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.logAudit(ctx, "account_registered", "account_id", acct.ID, "role", string(acct.Role))
	return s.startSession(ctx, acct, now)
}

// Login verifies a credential. Unknown email and wrong password return the
// same error so the endpoint cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = pkgemail.Normalize(email)
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if !acct.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is deactivated")
	}
	if !acct.PasswordSet {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no password set for this account; complete a password reset first")
	}
	if !account.PasswordMatches(acct.PasswordHash, password) {
		return nil, invalidCredentials()
	}

	now := requestcontext.Now(ctx)
	if err := s.accounts.TouchLastLogin(ctx, acct.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login time", "account_id", acct.ID, "error", err)
	}
	acct.LastLoginAt = &now

	s.logAudit(ctx, "account_logged_in", "account_id", acct.ID)
	return s.startSession(ctx, acct, now)
}

// RequestPasswordReset issues a reset code. Unlike onboarding, the account
// must already exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = pkgemail.Normalize(email)
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no account with this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return s.ledger.Issue(ctx, email, otpmodels.PurposePasswordReset, nil)
}

// CompletePasswordReset spends the reset code and installs the new
// credential. This is also how OTP-onboarded accounts set their first
// password.
func (s *Service) CompletePasswordReset(ctx context.Context, email, code, newPassword string) error {
	email = pkgemail.Normalize(email)
	if email == "" || strings.TrimSpace(code) == "" {
		return dErrors.New(dErrors.CodeValidation, "email and code are required")
	}
	if len(newPassword) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.ledger.Consume(ctx, email, strings.TrimSpace(code), otpmodels.PurposePasswordReset); err != nil {
		return err
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no account with this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	hash, err := account.HashPassword(newPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.accounts.UpdatePassword(ctx, acct.ID, hash); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.logAudit(ctx, "password_reset_completed", "account_id", acct.ID)
	return nil
}

func (s *Service) startSession(ctx context.Context, acct *accountmodels.Account, now time.Time) (*Session, error) {
	tok, expiresAt, err := s.tokens.Mint(acct.ID, string(acct.Role), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}
	return &Session{Account: acct, Token: tok, TokenExpiresAt: expiresAt}, nil
}

func invalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
