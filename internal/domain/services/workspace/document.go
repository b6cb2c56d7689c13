package workspace

import (
	"context"

	"draftly/internal/domain/models/workspace"
	wsrepo "draftly/internal/domain/repositories/workspace"
)

// DocumentService handles workspace document business logic outside of an
// open editor session: CRUD, listing and duplication.
type DocumentService interface {
	// CreateDocument creates a new document, defaulting title, doc type
	// and content, optionally seeding blocks from a doc-type template.
	CreateDocument(ctx context.Context, tenantID string, req *CreateDocumentRequest) (*workspace.Document, error)

	// GetDocument retrieves a single document by id.
	GetDocument(ctx context.Context, tenantID, id string) (*workspace.Document, error)

	// ListDocuments lists the tenant's documents, newest first.
	ListDocuments(ctx context.Context, tenantID string, filter wsrepo.ListFilter) ([]*workspace.Document, error)

	// UpdateDocument updates record metadata (title, doc type, assistant).
	UpdateDocument(ctx context.Context, tenantID, id string, req *UpdateDocumentRequest) (*workspace.Document, error)

	// DuplicateDocument creates a draft copy of an existing document with
	// a " (copie)" title suffix and a fresh version counter.
	DuplicateDocument(ctx context.Context, tenantID, id string) (*workspace.Document, error)

	// DeleteDocument removes a document permanently.
	DeleteDocument(ctx context.Context, tenantID, id string) error
}

// CreateDocumentRequest represents a document creation request.
type CreateDocumentRequest struct {
	Title       string                 `json:"title"`
	DocType     string                 `json:"doc_type"`
	AssistantID *string                `json:"assistant_id,omitempty"`
	Content     map[string]interface{} `json:"content_json,omitempty"`
}

// UpdateDocumentRequest represents a metadata update. Nil fields are
// untouched; content changes go through the editor session instead.
// Status is validated against the lifecycle table; export-gated
// transitions (send, resend) are rejected here and must go through the
// action endpoint so the PDF artifact is produced.
// Transport-agnostic: the handler maps JSON null vs absent for the
// assistant binding into AssistantID / ClearAssistant.
type UpdateDocumentRequest struct {
	Title          *string
	DocType        *string
	AssistantID    *string
	ClearAssistant bool
	Status         *string
}
