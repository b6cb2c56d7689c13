package editor

import (
	"context"
	"fmt"
	"log/slog"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
)

// StatusPersister writes a document's lifecycle status to durable storage.
type StatusPersister interface {
	PersistStatus(ctx context.Context, docID string, status workspace.Status, exportedURL *string) error
}

// Exporter produces the derived PDF artifact for a document and returns
// its retrievable URL.
type Exporter interface {
	ExportPDF(ctx context.Context, docID string) (string, error)
}

// Controller is the finite state machine governing draft / validated /
// sent / archived transitions. Every transition first flushes the
// in-memory model, bypassing the debounce: without this, a transition
// inside the debounce quiet period could persist stale content or export a
// PDF missing the latest edits.
type Controller struct {
	engine   *Engine
	statuses StatusPersister
	exporter Exporter
	logger   *slog.Logger
}

// NewController creates a lifecycle controller. exporter may be nil when
// export is not configured; send/resend then fail cleanly.
func NewController(engine *Engine, statuses StatusPersister, exporter Exporter, logger *slog.Logger) *Controller {
	return &Controller{
		engine:   engine,
		statuses: statuses,
		exporter: exporter,
		logger:   logger,
	}
}

// Transition performs one lifecycle action from the current status.
// Returns the new status and, for export-gated actions, the artifact URL.
//
// Order matters: flush, then export (send/resend), then status write. A
// failed flush or export aborts before anything is persisted, so the
// document's durable state never gets ahead of its content.
func (c *Controller) Transition(ctx context.Context, docID string, current workspace.Status, action workspace.Action) (workspace.Status, string, error) {
	next, ok := current.Apply(action)
	if !ok {
		return current, "", &domain.ValidationError{
			Message: fmt.Sprintf("cannot %s a %s document", action, current),
		}
	}

	if err := c.engine.Flush(ctx); err != nil {
		return current, "", fmt.Errorf("transition %s aborted: %w", action, err)
	}

	var exportURL string
	if action.RequiresExport() {
		if c.exporter == nil {
			return current, "", fmt.Errorf("%w: export is not configured", domain.ErrExport)
		}
		url, err := c.exporter.ExportPDF(ctx, docID)
		if err != nil {
			return current, "", fmt.Errorf("%w: %v", domain.ErrExport, err)
		}
		exportURL = url
	}

	var urlPtr *string
	if exportURL != "" {
		urlPtr = &exportURL
	}
	if err := c.statuses.PersistStatus(ctx, docID, next, urlPtr); err != nil {
		return current, "", fmt.Errorf("persist status %s: %w", next, err)
	}

	if c.logger != nil {
		c.logger.Info("document status transition",
			"document_id", docID,
			"action", action,
			"from", current,
			"to", next,
		)
	}
	return next, exportURL, nil
}
