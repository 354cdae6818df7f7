package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"collegenet/internal/onboarding"
	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/platform/httputil"
	"collegenet/pkg/requestcontext"
)

// OnboardingService is the student verification surface the handler needs.
type OnboardingService interface {
	Begin(ctx context.Context, req onboarding.BeginRequest) error
	Resend(ctx context.Context, email string) error
	Complete(ctx context.Context, email, code string) (*onboarding.CompleteResult, error)
}

type OnboardingHandler struct {
	onboarding OnboardingService
	logger     *slog.Logger
}

func NewOnboardingHandler(svc OnboardingService, logger *slog.Logger) *OnboardingHandler {
	return &OnboardingHandler{onboarding: svc, logger: logger}
}

func (h *OnboardingHandler) Register(r chi.Router) {
	r.Route("/otp", func(r chi.Router) {
		r.Post("/send", h.handleSend)
		r.Post("/resend", h.handleResend)
		r.Post("/verify", h.handleVerify)
	})
}

type sendOTPRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Semester string `json:"semester"`
	Gender   string `json:"gender"`
}

func (h *OnboardingHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	err := h.onboarding.Begin(ctx, onboarding.BeginRequest{
		Email:    req.Email,
		Name:     req.Name,
		Semester: req.Semester,
		Gender:   req.Gender,
	})
	if err != nil {
		h.logError(ctx, "otp send failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent successfully to your email",
	})
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

func (h *OnboardingHandler) handleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	if err := h.onboarding.Resend(ctx, req.Email); err != nil {
		h.logError(ctx, "otp resend failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "OTP resent successfully to your email",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

func (h *OnboardingHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) || req.Code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "email and otp are required"))
		return
	}

	result, err := h.onboarding.Complete(ctx, req.Email, req.Code)
	if err != nil {
		h.logError(ctx, "otp verify failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":    "Account verified and created successfully",
		"user":       result.Account,
		"token":      result.Token,
		"expires_at": result.TokenExpiresAt,
	})
}

func (h *OnboardingHandler) logError(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeNotifyFailed) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}
