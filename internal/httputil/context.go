package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey   contextKey = "userID"
	tenantIDKey contextKey = "tenantID"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithTenantID adds the tenant ID to the request context. Every document
// operation is tenant-scoped.
func WithTenantID(r *http.Request, tenantID string) *http.Request {
	ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
	return r.WithContext(ctx)
}

// GetTenantID retrieves the tenant ID from context, returns empty string if not found
func GetTenantID(r *http.Request) string {
	tenantID, _ := r.Context().Value(tenantIDKey).(string)
	return tenantID
}
