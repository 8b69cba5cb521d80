package testutil

import (
	"context"
	"net/http"

	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsedUserID))
	}
	return req
}

// WithTenantID adds a tenant ID to the request context.
// If the tenantID is not a valid UUID, it will not be added to the context.
func WithTenantID(req *http.Request, tenantID string) *http.Request {
	if parsedTenantID, err := id.ParseTenantID(tenantID); err == nil {
		return req.WithContext(requestcontext.WithTenantID(req.Context(), parsedTenantID))
	}
	return req
}

// WithAuth adds tenant ID, user ID, and role to the request context.
// This is the typical state for an authenticated request.
// Invalid IDs are silently ignored.
func WithAuth(req *http.Request, tenantID, userID string, role id.Role) *http.Request {
	ctx := req.Context()
	if tenantID != "" {
		if parsedTenantID, err := id.ParseTenantID(tenantID); err == nil {
			ctx = requestcontext.WithTenantID(ctx, parsedTenantID)
		}
	}
	if userID != "" {
		if parsedUserID, err := id.ParseUserID(userID); err == nil {
			ctx = requestcontext.WithUserID(ctx, parsedUserID)
		}
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
