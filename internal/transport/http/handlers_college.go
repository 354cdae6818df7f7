package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	collegemodels "collegenet/internal/college/models"
	collegeservice "collegenet/internal/college/service"
	"collegenet/internal/platform/middleware"
	dErrors "collegenet/pkg/domain-errors"
	pkgemail "collegenet/pkg/email"
	"collegenet/pkg/platform/httputil"
	"collegenet/pkg/requestcontext"
)

// CollegeService is the registry surface the handler needs.
type CollegeService interface {
	Submit(ctx context.Context, req collegeservice.SubmitRequest) (*collegemodels.PendingRegistration, error)
	Decide(ctx context.Context, id uuid.UUID, action collegeservice.Action, reason string, deciderID uuid.UUID) (*collegeservice.DecisionOutcome, error)
	ListPending(ctx context.Context) ([]*collegemodels.PendingRegistration, error)
	ListVerified(ctx context.Context) ([]*collegemodels.College, error)
	ResolveDomain(ctx context.Context, domain string) (*collegemodels.College, error)
}

type CollegeHandler struct {
	colleges  CollegeService
	validator middleware.TokenValidator
	logger    *slog.Logger
}

func NewCollegeHandler(colleges CollegeService, validator middleware.TokenValidator, logger *slog.Logger) *CollegeHandler {
	return &CollegeHandler{colleges: colleges, validator: validator, logger: logger}
}

func (h *CollegeHandler) Register(r chi.Router) {
	r.Route("/colleges", func(r chi.Router) {
		r.Post("/register", h.handleSubmit)
		r.Get("/", h.handleListVerified)
		r.Get("/domain-check/{email}", h.handleDomainCheck)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.validator, "staff", h.logger))
			r.Get("/pending", h.handleListPending)
			r.Post("/decide", h.handleDecide)
		})
	})
}

type submitCollegeRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	DocsRef       string `json:"verification_docs"`
	TermsAccepted bool   `json:"terms_accepted"`
}

func (h *CollegeHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitCollegeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Name, "1", "255") {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid name"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	reg, err := h.colleges.Submit(ctx, collegeservice.SubmitRequest{
		Name:          req.Name,
		ContactEmail:  req.Email,
		DocsRef:       req.DocsRef,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		h.logError(ctx, "college submit failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":      "College registration submitted successfully. Our team will verify and approve within 24-48 hours.",
		"registration": reg,
	})
}

type decideRequest struct {
	RegistrationID string `json:"registration_id"`
	Action         string `json:"action"`
	Reason         string `json:"reason,omitempty"`
}

func (h *CollegeHandler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	regID, err := uuid.Parse(req.RegistrationID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid registration_id"))
		return
	}
	deciderID, err := uuid.Parse(requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	outcome, err := h.colleges.Decide(ctx, regID, collegeservice.Action(req.Action), req.Reason, deciderID)
	if err != nil {
		h.logError(ctx, "college decision failed", err)
		httputil.WriteError(w, err)
		return
	}

	resp := map[string]any{"registration": outcome.Registration}
	if outcome.College != nil {
		resp["college"] = outcome.College
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *CollegeHandler) handleListPending(w http.ResponseWriter, r *http.Request) {
	regs, err := h.colleges.ListPending(r.Context())
	if err != nil {
		h.logError(r.Context(), "pending list failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *CollegeHandler) handleListVerified(w http.ResponseWriter, r *http.Request) {
	colleges, err := h.colleges.ListVerified(r.Context())
	if err != nil {
		h.logError(r.Context(), "college list failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"colleges": colleges})
}

// handleDomainCheck lets the signup form ask up front whether an email would
// be accepted, without issuing a code.
func (h *CollegeHandler) handleDomainCheck(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "email")
	domain, ok := pkgemail.Domain(pkgemail.Normalize(address))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	college, err := h.colleges.ResolveDomain(r.Context(), domain)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, map[string]any{"trusted": false, "domain": domain})
			return
		}
		h.logError(r.Context(), "domain check failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"trusted": true,
		"domain":  domain,
		"college": map[string]any{"id": college.ID, "name": college.Name},
	})
}

func (h *CollegeHandler) logError(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeNotifyFailed) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}
