package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	accountmodels "collegenet/internal/account/models"
	"collegenet/internal/auth"
	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/platform/httputil"
	"collegenet/pkg/requestcontext"
)

// AuthService is the credential surface the handler needs.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, email, code, newPassword string) error
}

type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/password-reset/request", h.handleResetRequest)
		r.Post("/password-reset/complete", h.handleResetComplete)
	})
}

type registerRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	session, err := h.auth.Register(ctx, auth.RegisterRequest{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		Role:        accountmodels.Role(req.Role),
		Affiliation: req.Affiliation,
	})
	if err != nil {
		h.logError(ctx, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeSession(w, http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	session, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logError(ctx, "login failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeSession(w, http.StatusOK, session)
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	if err := h.auth.RequestPasswordReset(ctx, req.Email); err != nil {
		h.logError(ctx, "password reset request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset code sent to your email",
	})
}

type resetCompleteRequest struct {
	Email       string `json:"email"`
	Code        string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.auth.CompletePasswordReset(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		h.logError(ctx, "password reset failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

func writeSession(w http.ResponseWriter, status int, session *auth.Session) {
	httputil.WriteJSON(w, status, map[string]any{
		"user":       session.Account,
		"token":      session.Token,
		"expires_at": session.TokenExpiresAt,
	})
}

func (h *AuthHandler) logError(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeNotifyFailed) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}
