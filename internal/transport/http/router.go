// Package httptransport is the thin HTTP layer. Handlers decode, validate,
// delegate to domain services, and encode; business rules live below.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"collegenet/internal/platform/middleware"
	"collegenet/pkg/requestcontext"
)

// Deps carries everything the router wires together.
type Deps struct {
	Colleges   CollegeService
	Onboarding OnboardingService
	Auth       AuthService
	Validator  middleware.TokenValidator
	Logger     *slog.Logger
}

// NewRouter assembles the full route tree. Admin-only routes are fenced to
// staff accounts; everything else is public by design since the endpoints
// gate themselves on codes and credentials.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestScope)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	NewCollegeHandler(deps.Colleges, deps.Validator, deps.Logger).Register(r)
	NewOnboardingHandler(deps.Onboarding, deps.Logger).Register(r)
	NewAuthHandler(deps.Auth, deps.Logger).Register(r)
	return r
}

// requestScope pins one timestamp per request and mirrors the chi request ID
// into the transport-independent context, so services and audit logs see both
// without importing chi.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
