package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"draftly/internal/domain"
	"draftly/internal/httputil"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"typed validation error", &domain.ValidationError{Message: "bad title"}, http.StatusBadRequest},
		{"typed forbidden error", &domain.ForbiddenError{Message: "locked"}, http.StatusForbidden},
		{"wrapped validation sentinel", fmt.Errorf("%w: title too long", domain.ErrValidation), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("document x: %w", domain.ErrNotFound), http.StatusNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"read only maps to conflict", fmt.Errorf("%w: document is sent", domain.ErrReadOnly), http.StatusConflict},
		{"generation failure is a bad gateway", fmt.Errorf("%w: model timeout", domain.ErrGeneration), http.StatusBadGateway},
		{"export failure is a bad gateway", fmt.Errorf("%w: chromium crashed", domain.ErrExport), http.StatusBadGateway},
		{"flush failure is a server error", fmt.Errorf("%w: db down", domain.ErrFlush), http.StatusInternalServerError},
		{"unknown error is a server error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var problem map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
				t.Fatalf("body is not a problem document: %v", err)
			}
			if _, ok := problem["detail"]; !ok {
				t.Errorf("problem document missing detail: %v", problem)
			}
		})
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	handleError(w, errors.New("pq: password authentication failed"))

	var problem map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatal(err)
	}
	if detail, _ := problem["detail"].(string); detail != "internal server error" {
		t.Errorf("detail = %q, want the raw error hidden", detail)
	}
}

func TestRequireTenant(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = httputil.WithTenantID(r, "t1")
		w := httptest.NewRecorder()

		tenantID, ok := requireTenant(w, r)
		if !ok || tenantID != "t1" {
			t.Fatalf("got %q / %v", tenantID, ok)
		}
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		_, ok := requireTenant(w, r)
		if ok {
			t.Fatal("expected failure without a tenant in context")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", w.Code)
		}
	})
}
