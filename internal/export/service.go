package export

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
	wsrepo "draftly/internal/domain/repositories/workspace"
	"draftly/internal/render"
	"draftly/internal/storage"
)

var slugStrip = regexp.MustCompile(`[^\w\s-]`)
var slugDashes = regexp.MustCompile(`[\s_]+`)

// slugify derives a filename-safe slug from a document title.
func slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

// Service is the full export pipeline: model to HTML, HTML to PDF, PDF to
// object storage, presigned URL back to the caller.
type Service struct {
	repo     wsrepo.DocumentRepository
	store    *storage.ArtifactStore
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewService creates the export service.
func NewService(repo wsrepo.DocumentRepository, store *storage.ArtifactStore, renderer *render.Renderer, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, renderer: renderer, logger: logger}
}

// Renderer exposes the block renderer for read paths sharing the preview
// pipeline.
func (s *Service) Renderer() *render.Renderer {
	return s.renderer
}

// Export runs the pipeline for a document and returns the artifact URL.
// Any stage failing aborts the export; callers gating a status transition
// on the artifact must not proceed.
func (s *Service) Export(ctx context.Context, tenantID, docID string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("%w: artifact storage is not configured", domain.ErrExport)
	}

	doc, err := s.repo.GetByID(ctx, tenantID, docID)
	if err != nil {
		return "", err
	}

	model := doc.Content
	if model == nil {
		model = workspace.NewDocModel()
	}
	model.Normalize()

	html, err := RenderHTML(doc.Title, model, s.renderer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExport, err)
	}

	pdf, err := HTMLToPDF(ctx, html)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExport, err)
	}

	slug := slugify(doc.Title)
	if slug == "" {
		slug = docID
	}
	filename := fmt.Sprintf("%s-%s.pdf", slug, time.Now().UTC().Format("2006-01-02"))
	key := fmt.Sprintf("%s/exports/%s/%s", tenantID, docID, filename)

	if err := s.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExport, err)
	}

	url, err := s.store.PresignedURL(ctx, key, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExport, err)
	}

	s.logger.Info("document exported",
		"document_id", docID, "tenant_id", tenantID,
		"key", key, "bytes", len(pdf))
	return url, nil
}

// TenantExporter binds the service to one tenant to satisfy the editor's
// per-session export dependency.
type TenantExporter struct {
	Service  *Service
	TenantID string
}

// ExportPDF exports the document for the bound tenant.
func (e *TenantExporter) ExportPDF(ctx context.Context, docID string) (string, error) {
	return e.Service.Export(ctx, e.TenantID, docID)
}
