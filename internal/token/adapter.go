package token

import "collegenet/internal/platform/middleware"

// MiddlewareAdapter bridges Service to the middleware's validator interface so
// the middleware package does not depend on JWT internals.
type MiddlewareAdapter struct {
	Service *Service
}

func (a MiddlewareAdapter) ValidateToken(raw string) (*middleware.Claims, error) {
	claims, err := a.Service.Validate(raw)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{AccountID: claims.AccountID, Role: claims.Role}, nil
}
