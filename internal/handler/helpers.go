package handler

import (
	"errors"
	"net/http"

	"draftly/internal/domain"
	"draftly/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrReadOnly):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGeneration), errors.Is(err, domain.ErrExport):
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrFlush):
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireTenant extracts the tenant from the request context; requests
// reaching handlers without one were not authenticated.
func requireTenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := httputil.GetTenantID(r)
	if tenantID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "missing tenant")
		return "", false
	}
	return tenantID, true
}
