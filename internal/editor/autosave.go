package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
)

// DefaultDebounce is the quiet period after the last change before a
// debounced write fires.
const DefaultDebounce = 3 * time.Second

// debouncedWriteTimeout bounds the background persistence call.
const debouncedWriteTimeout = 30 * time.Second

// Persister writes a document model to durable storage.
type Persister interface {
	Persist(ctx context.Context, docID string, model *workspace.DocModel) error
}

// Engine persists store changes without the caller orchestrating timing.
// It implements Observer: a load sets the just-loaded sentinel and the
// first ModelChanged afterwards is consumed as a no-op, so loading a
// document never counts as an edit. Real changes schedule a debounced
// write that reads the latest model at fire time; Flush bypasses the
// debounce for transition-adjacent writes and cancels any pending timer so
// a stale write cannot race the deliberate one.
type Engine struct {
	persister Persister
	logger    *slog.Logger
	debounce  time.Duration

	mu          sync.Mutex
	docID       string
	latest      *workspace.DocModel
	justLoaded  bool
	timer       *time.Timer
	saving      bool
	lastSavedAt time.Time
}

// NewEngine creates an autosave engine. A non-positive debounce falls back
// to DefaultDebounce.
func NewEngine(persister Persister, logger *slog.Logger, debounce time.Duration) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Engine{
		persister: persister,
		logger:    logger,
		debounce:  debounce,
	}
}

// DocumentLoaded implements Observer. Switching documents cancels any
// pending write from the previous document so no autosave can target the
// wrong document id.
func (e *Engine) DocumentLoaded(docID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimerLocked()
	e.docID = docID
	e.latest = nil
	e.justLoaded = true
}

// ModelChanged implements Observer.
func (e *Engine) ModelChanged(docID string, model *workspace.DocModel) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if docID != e.docID {
		// Notification from a document that is no longer loaded.
		return
	}
	e.latest = model
	if e.justLoaded {
		// This change is the load itself, not a user or AI edit.
		e.justLoaded = false
		return
	}
	e.scheduleLocked(docID)
}

// scheduleLocked (re)arms the debounce timer for docID.
func (e *Engine) scheduleLocked(docID string) {
	e.cancelTimerLocked()
	e.timer = time.AfterFunc(e.debounce, func() {
		e.fireDebounced(docID)
	})
}

// fireDebounced performs the timer-gated write path. The model persisted is
// the latest one at write time, since multiple mutations may have coalesced
// during the quiet period. A failed debounced write is logged and not
// retried: the next edit naturally re-triggers the debounce.
func (e *Engine) fireDebounced(docID string) {
	e.mu.Lock()
	if docID != e.docID || e.latest == nil {
		// Document switched while the timer was pending.
		e.mu.Unlock()
		return
	}
	model := e.latest
	e.timer = nil
	e.saving = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), debouncedWriteTimeout)
	defer cancel()
	err := e.persister.Persist(ctx, docID, model)

	e.mu.Lock()
	e.saving = false
	if err == nil {
		e.lastSavedAt = time.Now()
	}
	e.mu.Unlock()

	if err != nil && e.logger != nil {
		e.logger.Error("autosave write failed",
			"document_id", docID,
			"error", err,
		)
	}
}

// Flush cancels any pending debounce timer and writes the latest model
// immediately. A failed flush propagates the error (wrapped in
// domain.ErrFlush) and leaves the in-memory model untouched, so the caller
// can abort its transition without losing data. Normal debouncing resumes
// for subsequent changes.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	e.cancelTimerLocked()
	docID := e.docID
	model := e.latest
	if model == nil || docID == "" {
		// Nothing loaded; nothing to write.
		e.mu.Unlock()
		return nil
	}
	e.saving = true
	e.mu.Unlock()

	err := e.persister.Persist(ctx, docID, model)

	e.mu.Lock()
	e.saving = false
	if err == nil {
		e.lastSavedAt = time.Now()
	}
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFlush, err)
	}
	return nil
}

// Stop cancels any pending debounced write. Used when a session closes;
// the close path flushes explicitly first.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimerLocked()
}

// SaveState reports whether a write is in flight and when the last write
// succeeded (zero time if never). Surfaced to the UI as the save indicator.
func (e *Engine) SaveState() (isSaving bool, lastSavedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving, e.lastSavedAt
}

func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
