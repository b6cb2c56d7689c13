// Package handler exposes the workspace document API over net/http.
package handler

import (
	"net/http"
	"strconv"

	"draftly/internal/domain/models/workspace"
	wsrepo "draftly/internal/domain/repositories/workspace"
	wssvc "draftly/internal/domain/services/workspace"
	"draftly/internal/export"
	"draftly/internal/httputil"
	"draftly/internal/schema"

	"log/slog"
)

// WorkspaceDocumentHandler serves document CRUD, duplication, direct
// content writes, preview and export.
type WorkspaceDocumentHandler struct {
	docs     wssvc.DocumentService
	repo     wsrepo.DocumentRepository
	exporter *export.Service
	logger   *slog.Logger
}

// NewWorkspaceDocumentHandler creates the document handler.
func NewWorkspaceDocumentHandler(docs wssvc.DocumentService, repo wsrepo.DocumentRepository, exporter *export.Service, logger *slog.Logger) *WorkspaceDocumentHandler {
	return &WorkspaceDocumentHandler{docs: docs, repo: repo, exporter: exporter, logger: logger}
}

// List handles GET /api/workspace-documents
func (h *WorkspaceDocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	filter := wsrepo.ListFilter{Status: r.URL.Query().Get("status")}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	docs, err := h.docs.ListDocuments(r.Context(), tenantID, filter)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}

// Create handles POST /api/workspace-documents
func (h *WorkspaceDocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req wssvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docs.CreateDocument(r.Context(), tenantID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// Get handles GET /api/workspace-documents/{id}
func (h *WorkspaceDocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.GetDocument(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// updateDocumentRequest is the PATCH wire shape. assistant_id uses
// RFC 7396 semantics: absent leaves the binding, null clears it.
type updateDocumentRequest struct {
	Title       *string                 `json:"title,omitempty"`
	DocType     *string                 `json:"doc_type,omitempty"`
	Status      *string                 `json:"status,omitempty"`
	AssistantID httputil.OptionalString `json:"assistant_id"`
}

// Update handles PATCH /api/workspace-documents/{id}
func (h *WorkspaceDocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var body updateDocumentRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := wssvc.UpdateDocumentRequest{
		Title:   body.Title,
		DocType: body.DocType,
		Status:  body.Status,
	}
	if body.AssistantID.Present {
		if body.AssistantID.Value == nil {
			req.ClearAssistant = true
		} else {
			req.AssistantID = body.AssistantID.Value
		}
	}

	doc, err := h.docs.UpdateDocument(r.Context(), tenantID, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/workspace-documents/{id}
func (h *WorkspaceDocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	if err := h.docs.DeleteDocument(r.Context(), tenantID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Duplicate handles POST /api/workspace-documents/{id}/duplicate
func (h *WorkspaceDocumentHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.DuplicateDocument(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// PatchContent handles PATCH /api/workspace-documents/{id}/content: a
// direct full-content write bypassing the editor session. Last write wins;
// an open session's next flush may overwrite this.
func (h *WorkspaceDocumentHandler) PatchContent(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	model := &workspace.DocModel{}
	if err := httputil.ParseJSON(w, r, model); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	model.Normalize()

	doc, err := h.repo.PatchContent(r.Context(), tenantID, r.PathValue("id"), model)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Preview handles GET /api/workspace-documents/{id}/preview: the stored
// model rendered read-only as a standalone HTML page. Invalid blocks show
// as inline error placeholders, never dropped.
func (h *WorkspaceDocumentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.GetDocument(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	model := doc.Content
	if model == nil {
		model = workspace.NewDocModel()
	}
	model.Normalize()

	page, err := export.RenderHTML(doc.Title, model, h.exporter.Renderer())
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// ExportPDF handles POST /api/workspace-documents/{id}/export/pdf
func (h *WorkspaceDocumentHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	url, err := h.exporter.Export(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// validateBlockPayload runs the schema registry over an incoming block
// payload and writes the 400 response itself when invalid.
func validateBlockPayload(w http.ResponseWriter, blockType string, payload map[string]any) (map[string]any, bool) {
	normalized, fieldErrs, err := schema.Validate(blockType, payload)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if len(fieldErrs) > 0 {
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, "block validation failed",
			map[string]interface{}{"errors": fieldErrs})
		return nil, false
	}
	return normalized, true
}
