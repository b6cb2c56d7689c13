package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
	"draftly/internal/domain/repositories"
	wsrepo "draftly/internal/domain/repositories/workspace"
	wssvc "draftly/internal/domain/services/workspace"
)

// documentService implements the DocumentService interface.
type documentService struct {
	repo      wsrepo.DocumentRepository
	txManager repositories.TransactionManager
	templates *TemplateSet
	logger    *slog.Logger
}

// NewDocumentService creates a new workspace document service.
func NewDocumentService(repo wsrepo.DocumentRepository, txManager repositories.TransactionManager, templates *TemplateSet, logger *slog.Logger) wssvc.DocumentService {
	if templates == nil {
		templates = &TemplateSet{}
	}
	return &documentService{repo: repo, txManager: txManager, templates: templates, logger: logger}
}

func (s *documentService) CreateDocument(ctx context.Context, tenantID string, req *wssvc.CreateDocumentRequest) (*workspace.Document, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	title := req.Title
	if title == "" {
		title = workspace.DefaultTitle
	}
	docType := req.DocType
	if docType == "" {
		docType = workspace.DefaultDocType
	}

	content, err := modelFromRaw(req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: content_json: %v", domain.ErrValidation, err)
	}
	if content == nil {
		content = workspace.NewDocModel()
		content.Blocks = s.templates.BlocksFor(docType)
	}
	content.Normalize()

	doc := &workspace.Document{
		TenantID:    tenantID,
		AssistantID: req.AssistantID,
		Title:       title,
		DocType:     docType,
		Status:      workspace.StatusDraft,
		Content:     content,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("workspace document created",
		"document_id", doc.ID, "tenant_id", tenantID, "doc_type", docType)
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, tenantID, id string) (*workspace.Document, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *documentService) ListDocuments(ctx context.Context, tenantID string, filter wsrepo.ListFilter) ([]*workspace.Document, error) {
	if filter.Status != "" && !workspace.Status(filter.Status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, tenantID, filter)
}

func (s *documentService) UpdateDocument(ctx context.Context, tenantID, id string, req *wssvc.UpdateDocumentRequest) (*workspace.Document, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	fields := wsrepo.UpdateFields{
		Title:   req.Title,
		DocType: req.DocType,
	}
	if req.AssistantID != nil || req.ClearAssistant {
		fields.AssistantID = req.AssistantID
		fields.SetAssistant = true
	}

	// A status change must be a legal lifecycle transition. Export-gated
	// transitions only go through the action endpoint, which produces the
	// PDF artifact first.
	if req.Status != nil {
		target := workspace.Status(*req.Status)
		if !target.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *req.Status)
		}
		doc, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		action, ok := doc.Status.ActionTo(target)
		if !ok {
			return nil, fmt.Errorf("%w: cannot move a %s document to %s", domain.ErrValidation, doc.Status, target)
		}
		if action.RequiresExport() {
			return nil, fmt.Errorf("%w: transition to %s requires the %s action", domain.ErrValidation, target, action)
		}
		fields.Status = &target
	}

	return s.repo.Update(ctx, tenantID, id, fields)
}

// DuplicateDocument clones an existing document into a fresh draft. The
// copy starts at version 1 with no export history; block ids are kept
// since they only need to be unique within one document. Read and insert
// run in one transaction so the copy reflects a single source version.
func (s *documentService) DuplicateDocument(ctx context.Context, tenantID, id string) (*workspace.Document, error) {
	var dup *workspace.Document
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		src, err := s.repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}

		var content *workspace.DocModel
		if src.Content != nil {
			content = src.Content.Clone()
		} else {
			content = workspace.NewDocModel()
		}

		dup = &workspace.Document{
			TenantID:    tenantID,
			AssistantID: src.AssistantID,
			Title:       src.Title + " (copie)",
			DocType:     src.DocType,
			Status:      workspace.StatusDraft,
			Content:     content,
		}
		return s.repo.Create(txCtx, dup)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workspace document duplicated",
		"source_id", id, "document_id", dup.ID, "tenant_id", tenantID)
	return dup, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, tenantID, id string) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("workspace document deleted", "document_id", id, "tenant_id", tenantID)
	return nil
}

func (s *documentService) validateCreateRequest(req *wssvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(0, 300)),
		validation.Field(&req.DocType, validation.Length(0, 64)),
	)
}

func (s *documentService) validateUpdateRequest(req *wssvc.UpdateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(1, 300)),
		validation.Field(&req.DocType, validation.Length(1, 64)),
	)
}

// modelFromRaw decodes an arbitrary JSON object into a DocModel through a
// marshal round trip, keeping block payloads in their flat wire shape.
func modelFromRaw(raw map[string]interface{}) (*workspace.DocModel, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	model := &workspace.DocModel{}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, err
	}
	return model, nil
}
