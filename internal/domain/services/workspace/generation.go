package workspace

import (
	"context"

	"draftly/internal/domain/models/workspace"
)

// GenerationService turns user instructions into document patches by
// calling an LLM provider and parsing its structured JSON response.
// All methods return a result whose patches may be empty; a patchless
// result with an error message is a reported failure.
type GenerationService interface {
	// Generate produces patches from a free-form instruction against the
	// whole document.
	Generate(ctx context.Context, req *GenerateRequest) (*workspace.GenerationResult, error)

	// RewriteBlock rewrites one block in place according to an optional
	// instruction (tone, length, phrasing).
	RewriteBlock(ctx context.Context, req *RewriteBlockRequest) (*workspace.GenerationResult, error)

	// CheckDocument reviews the document for inconsistencies and missing
	// information; it returns suggestions as patches plus a verdict.
	CheckDocument(ctx context.Context, req *CheckDocumentRequest) (*workspace.GenerationResult, error)

	// AddLineItems proposes line items for a line_items block from a
	// short description of the work to bill.
	AddLineItems(ctx context.Context, req *AddLineItemsRequest) (*workspace.GenerationResult, error)
}

// GenerateRequest carries the instruction plus the document context the
// prompt is built from. CollectionIDs name the reference collections the
// generation should ground itself on and cite as sources.
type GenerateRequest struct {
	Instruction   string   `json:"instruction"`
	CollectionIDs []string `json:"collection_ids,omitempty"`
	DocType       string   `json:"-"`
	Model         *workspace.DocModel
}

// RewriteBlockRequest targets a rewrite at one block.
type RewriteBlockRequest struct {
	BlockID     string `json:"block_id"`
	Instruction string `json:"instruction,omitempty"`
	DocType     string `json:"-"`
	Model       *workspace.DocModel
}

// CheckDocumentRequest reviews the full document.
type CheckDocumentRequest struct {
	DocType string `json:"-"`
	Model   *workspace.DocModel
}

// AddLineItemsRequest proposes items for a line_items block.
type AddLineItemsRequest struct {
	BlockID     string `json:"block_id"`
	Description string `json:"description"`
	DocType     string `json:"-"`
	Model       *workspace.DocModel
}
