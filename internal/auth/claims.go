// Package auth verifies bearer tokens against a JWKS endpoint.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the service cares about. TenantID scopes
// every document operation; tokens without it fall back to the subject as
// a single-user tenant.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Tenant returns the tenant the token is scoped to.
func (c *Claims) Tenant() string {
	if c.TenantID != "" {
		return c.TenantID
	}
	return c.Subject
}
