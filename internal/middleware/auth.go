package middleware

import (
	"net/http"
	"strings"

	"draftly/internal/auth"
	"draftly/internal/httputil"
)

// Auth validates the bearer token and stores the user and tenant IDs in
// the request context. Requests without a valid token get 401.
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			r = httputil.WithUserID(r, claims.Subject)
			r = httputil.WithTenantID(r, claims.Tenant())
			next.ServeHTTP(w, r)
		})
	}
}

// StaticAuth bypasses token verification and pins every request to a fixed
// user and tenant. Development only.
func StaticAuth(userID, tenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = httputil.WithUserID(r, userID)
			r = httputil.WithTenantID(r, tenantID)
			next.ServeHTTP(w, r)
		})
	}
}
