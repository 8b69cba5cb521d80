package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"sponsorhub/internal/token"
	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/requestcontext"
)

// TokenValidator defines the interface for validating access tokens.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireAuth validates the bearer token and injects tenant, user, and role
// into the request context. Requests without a valid token get 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				unauthorized(w, "Missing bearer token")
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			tenantID, err := id.ParseTenantID(claims.TenantID)
			if err != nil {
				unauthorized(w, "Invalid tenant claim")
				return
			}
			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				unauthorized(w, "Invalid user claim")
				return
			}
			role, err := id.ParseRole(claims.Role)
			if err != nil {
				unauthorized(w, "Invalid role claim")
				return
			}

			ctx = requestcontext.WithTenantID(ctx, tenantID)
			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
