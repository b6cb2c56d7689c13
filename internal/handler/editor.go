package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"draftly/internal/domain/models/workspace"
	wssvc "draftly/internal/domain/services/workspace"
	"draftly/internal/editor"
	"draftly/internal/httputil"
)

// EditorHandler serves the stateful editing surface: session open/close,
// block mutations, AI actions and lifecycle transitions.
type EditorHandler struct {
	sessions   *editor.Manager
	generation wssvc.GenerationService
	logger     *slog.Logger
}

// NewEditorHandler creates the editor handler.
func NewEditorHandler(sessions *editor.Manager, generation wssvc.GenerationService, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{sessions: sessions, generation: generation, logger: logger}
}

// sessionResponse is the session state returned by open and save-state.
type sessionResponse struct {
	DocID       string              `json:"doc_id"`
	Status      workspace.Status    `json:"status"`
	IsSaving    bool                `json:"is_saving"`
	LastSavedAt *time.Time          `json:"last_saved_at,omitempty"`
	Model       *workspace.DocModel `json:"model,omitempty"`
}

func sessionState(s *editor.Session, includeModel bool) sessionResponse {
	isSaving, lastSaved := s.SaveState()
	resp := sessionResponse{
		DocID:    s.DocID,
		Status:   s.Status(),
		IsSaving: isSaving,
	}
	if !lastSaved.IsZero() {
		resp.LastSavedAt = &lastSaved
	}
	if includeModel {
		resp.Model = s.Store().Snapshot()
	}
	return resp
}

// Open handles POST /api/workspace-documents/{id}/open
func (h *EditorHandler) Open(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.Open(r.Context(), tenantID, r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionState(session, true))
}

// Close handles POST /api/workspace-documents/{id}/close
func (h *EditorHandler) Close(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	if err := h.sessions.Close(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveState handles GET /api/workspace-documents/{id}/save-state
func (h *EditorHandler) SaveState(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionState(session, false))
}

// addBlockRequest adds one block, optionally after an existing one.
type addBlockRequest struct {
	Block   map[string]any `json:"block"`
	AfterID string         `json:"after_id,omitempty"`
}

// AddBlock handles POST /api/workspace-documents/{id}/blocks
func (h *EditorHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	var req addBlockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	blockType, _ := req.Block["type"].(string)
	normalized, ok := validateBlockPayload(w, blockType, req.Block)
	if !ok {
		return
	}

	block, err := session.AddBlock(workspace.BlockFromRaw(normalized), req.AfterID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, block)
}

// UpdateBlock handles PATCH /api/workspace-documents/{id}/blocks/{blockID}.
// The body is a partial payload shallow-merged into the block; a missing
// target is a silent no-op by protocol.
func (h *EditorHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	var partial map[string]any
	if err := httputil.ParseJSON(w, r, &partial); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := session.UpdateBlock(r.PathValue("blockID"), partial); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionState(session, true))
}

// RemoveBlock handles DELETE /api/workspace-documents/{id}/blocks/{blockID}
func (h *EditorHandler) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if err := session.RemoveBlock(r.PathValue("blockID")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// aiResponse is the result envelope for every AI action.
type aiResponse struct {
	Message string                `json:"message"`
	Patches []workspace.Patch     `json:"patches"`
	Sources []workspace.DocSource `json:"sources"`
}

func (h *EditorHandler) runGeneration(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, s *editor.Session) (*workspace.GenerationResult, error)) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := session.Generate(r.Context(), func(ctx context.Context) (*workspace.GenerationResult, error) {
		return fn(ctx, session)
	}, h.logger)
	if err != nil {
		if errors.Is(err, editor.ErrSuperseded) {
			httputil.RespondError(w, http.StatusConflict, "generation superseded by a newer request")
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, aiResponse{
		Message: result.Message,
		Patches: result.Patches,
		Sources: result.Sources,
	})
}

// Generate handles POST /api/workspace-documents/{id}/ai/generate
func (h *EditorHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req wssvc.GenerateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runGeneration(w, r, func(ctx context.Context, s *editor.Session) (*workspace.GenerationResult, error) {
		req.DocType = s.DocType
		req.Model = s.Store().Snapshot()
		return h.generation.Generate(ctx, &req)
	})
}

// Rewrite handles POST /api/workspace-documents/{id}/ai/rewrite
func (h *EditorHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	var req wssvc.RewriteBlockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runGeneration(w, r, func(ctx context.Context, s *editor.Session) (*workspace.GenerationResult, error) {
		req.DocType = s.DocType
		req.Model = s.Store().Snapshot()
		return h.generation.RewriteBlock(ctx, &req)
	})
}

// Check handles POST /api/workspace-documents/{id}/ai/check. A check with
// no corrective patches is a plain report, not a failed generation, so it
// bypasses the apply step.
func (h *EditorHandler) Check(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.generation.CheckDocument(r.Context(), &wssvc.CheckDocumentRequest{
		DocType: session.DocType,
		Model:   session.Store().Snapshot(),
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, aiResponse{
		Message: result.Message,
		Patches: result.Patches,
		Sources: result.Sources,
	})
}

// LineItems handles POST /api/workspace-documents/{id}/ai/line-items
func (h *EditorHandler) LineItems(w http.ResponseWriter, r *http.Request) {
	var req wssvc.AddLineItemsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runGeneration(w, r, func(ctx context.Context, s *editor.Session) (*workspace.GenerationResult, error) {
		req.DocType = s.DocType
		req.Model = s.Store().Snapshot()
		return h.generation.AddLineItems(ctx, &req)
	})
}

// actionResponse reports the outcome of a lifecycle transition.
type actionResponse struct {
	Status      workspace.Status `json:"status"`
	ExportedURL string           `json:"exported_url,omitempty"`
}

// Action handles POST /api/workspace-documents/{id}/actions/{action}
func (h *EditorHandler) Action(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenant(w, r); !ok {
		return
	}

	session, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	action := workspace.Action(r.PathValue("action"))
	status, exportURL, err := session.Transition(r.Context(), action)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, actionResponse{Status: status, ExportedURL: exportURL})
}
