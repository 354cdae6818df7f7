// Package middleware holds the HTTP middleware shared across routes.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/platform/httputil"
	"collegenet/pkg/requestcontext"
)

// Claims represents what the middleware needs from a validated session token.
type Claims struct {
	AccountID string
	Role      string
}

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// account identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(validator, r)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized request",
					"error", err,
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithAccountID(r.Context(), claims.AccountID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is RequireAuth plus a role check. Used to fence the admin-only
// approval endpoints to staff accounts.
func RequireRole(validator TokenValidator, role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(validator, r)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized request",
					"error", err,
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
				httputil.WriteError(w, err)
				return
			}
			if claims.Role != role {
				logger.WarnContext(r.Context(), "forbidden request",
					"required_role", role,
					"role", claims.Role,
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
				return
			}

			ctx := requestcontext.WithAccountID(r.Context(), claims.AccountID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFromRequest(validator TokenValidator, r *http.Request) (*Claims, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")
	}
	return validator.ValidateToken(raw)
}
