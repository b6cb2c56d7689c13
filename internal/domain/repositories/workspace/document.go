package workspace

import (
	"context"

	"draftly/internal/domain/models/workspace"
)

// ListFilter narrows and pages document listings.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// UpdateFields is a partial update of the document record's metadata.
// Nil fields are left untouched. Content updates go through PatchContent,
// which is the flush path and bumps the record version.
type UpdateFields struct {
	Title   *string
	DocType *string
	Status  *workspace.Status

	// AssistantID is written only when SetAssistant is true; a nil value
	// then clears the binding.
	AssistantID  *string
	SetAssistant bool
}

// DocumentRepository persists workspace documents. All operations are
// tenant-scoped: a document id from another tenant behaves as not found.
type DocumentRepository interface {
	Create(ctx context.Context, doc *workspace.Document) error
	GetByID(ctx context.Context, tenantID, id string) (*workspace.Document, error)
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*workspace.Document, error)
	Update(ctx context.Context, tenantID, id string, fields UpdateFields) (*workspace.Document, error)

	// PatchContent replaces content_json with the given model and
	// increments the record version. This is the write used by both the
	// debounced autosave path and the forced flush path.
	PatchContent(ctx context.Context, tenantID, id string, model *workspace.DocModel) (*workspace.Document, error)

	// UpdateStatus persists a lifecycle transition outcome, optionally
	// recording the export artifact URL produced by send/resend.
	UpdateStatus(ctx context.Context, tenantID, id string, status workspace.Status, exportedURL *string) (*workspace.Document, error)

	Delete(ctx context.Context, tenantID, id string) error
}
