package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
	wsrepo "draftly/internal/domain/repositories/workspace"
	"draftly/internal/repository/postgres"
)

type documentRepository struct {
	cfg postgres.RepositoryConfig
}

// NewDocumentRepository creates the Postgres-backed document repository.
func NewDocumentRepository(cfg postgres.RepositoryConfig) wsrepo.DocumentRepository {
	return &documentRepository{cfg: cfg}
}

func (r *documentRepository) table() string {
	return r.cfg.Tables.WorkspaceDocuments
}

func (r *documentRepository) logger() *slog.Logger {
	if r.cfg.Logger != nil {
		return r.cfg.Logger
	}
	return slog.Default()
}

const documentColumns = `id, tenant_id, assistant_id, title, doc_type, status, content_json, version, last_exported_url, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *workspace.Document) error {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Title == "" {
		doc.Title = workspace.DefaultTitle
	}
	if doc.DocType == "" {
		doc.DocType = workspace.DefaultDocType
	}
	if doc.Status == "" {
		doc.Status = workspace.StatusDraft
	}
	if doc.Content == nil {
		doc.Content = workspace.NewDocModel()
	}
	doc.Content.Normalize()
	if doc.Version == 0 {
		doc.Version = 1
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	content, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.table(), documentColumns)

	_, err = executor.Exec(ctx, query,
		doc.ID, doc.TenantID, doc.AssistantID, doc.Title, doc.DocType,
		doc.Status, content, doc.Version, doc.LastExportedURL,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert document: %w", err)
	}

	r.logger().Debug("document created", "document_id", doc.ID, "tenant_id", doc.TenantID)
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, tenantID, id string) (*workspace.Document, error) {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND tenant_id = $2`,
		documentColumns, r.table())

	row := executor.QueryRow(ctx, query, id, tenantID)
	doc, err := scanDocument(row)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *documentRepository) List(ctx context.Context, tenantID string, filter wsrepo.ListFilter) ([]*workspace.Document, error) {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	var sb strings.Builder
	args := []any{tenantID}
	fmt.Fprintf(&sb, `SELECT %s FROM %s WHERE tenant_id = $1`, documentColumns, r.table())

	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY updated_at DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := executor.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*workspace.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) Update(ctx context.Context, tenantID, id string, fields wsrepo.UpdateFields) (*workspace.Document, error) {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Title != nil {
		addSet("title", *fields.Title)
	}
	if fields.DocType != nil {
		addSet("doc_type", *fields.DocType)
	}
	if fields.SetAssistant {
		// nil clears the binding.
		addSet("assistant_id", fields.AssistantID)
	}
	if fields.Status != nil {
		addSet("status", *fields.Status)
	}

	args = append(args, id, tenantID)
	query := fmt.Sprintf(`
		UPDATE %s SET %s
		WHERE id = $%d AND tenant_id = $%d
		RETURNING %s`,
		r.table(), strings.Join(sets, ", "), len(args)-1, len(args), documentColumns)

	row := executor.QueryRow(ctx, query, args...)
	doc, err := scanDocument(row)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

func (r *documentRepository) PatchContent(ctx context.Context, tenantID, id string, model *workspace.DocModel) (*workspace.Document, error) {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	content, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET content_json = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4
		RETURNING %s`,
		r.table(), documentColumns)

	row := executor.QueryRow(ctx, query, content, time.Now().UTC(), id, tenantID)
	doc, err := scanDocument(row)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("patch document content: %w", err)
	}

	r.logger().Debug("document content persisted",
		"document_id", id, "tenant_id", tenantID, "version", doc.Version)
	return doc, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, tenantID, id string, status workspace.Status, exportedURL *string) (*workspace.Document, error) {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	sets := []string{"status = $1", "updated_at = $2"}
	args := []any{status, time.Now().UTC()}
	if exportedURL != nil {
		args = append(args, *exportedURL)
		sets = append(sets, fmt.Sprintf("last_exported_url = $%d", len(args)))
	}

	args = append(args, id, tenantID)
	query := fmt.Sprintf(`
		UPDATE %s SET %s
		WHERE id = $%d AND tenant_id = $%d
		RETURNING %s`,
		r.table(), strings.Join(sets, ", "), len(args)-1, len(args), documentColumns)

	row := executor.QueryRow(ctx, query, args...)
	doc, err := scanDocument(row)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update document status: %w", err)
	}
	return doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, tenantID, id string) error {
	executor := postgres.GetExecutor(ctx, r.cfg.Pool)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND tenant_id = $2`, r.table())
	tag, err := executor.Exec(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanDocument.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*workspace.Document, error) {
	var (
		doc     workspace.Document
		content []byte
	)
	err := row.Scan(
		&doc.ID, &doc.TenantID, &doc.AssistantID, &doc.Title, &doc.DocType,
		&doc.Status, &content, &doc.Version, &doc.LastExportedURL,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		model := &workspace.DocModel{}
		if err := json.Unmarshal(content, model); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		doc.Content = model
	}
	return &doc, nil
}
