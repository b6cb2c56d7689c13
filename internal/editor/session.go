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

// DocumentLoader fetches the persisted document record for session open.
type DocumentLoader interface {
	Load(ctx context.Context, tenantID, docID string) (*workspace.Document, error)
}

// Locker guards the single-editor invariant across processes and tabs.
// Implementations release stale locks via TTL.
type Locker interface {
	Acquire(ctx context.Context, docID, ownerID string) error
	Release(ctx context.Context, docID, ownerID string) error
}

// Session is the editing surface for one open document: the store, its
// autosave engine, the generation runner and the lifecycle controller,
// plus the record metadata needed to gate mutations on status.
type Session struct {
	DocID    string
	TenantID string
	OwnerID  string
	DocType  string

	store      *Store
	engine     *Engine
	runner     *Runner
	controller *Controller

	mu              sync.Mutex
	status          workspace.Status
	lastExportedURL string
}

// Store exposes the underlying document store for read paths (preview).
func (s *Session) Store() *Store { return s.store }

// Status returns the current lifecycle status.
func (s *Session) Status() workspace.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SaveState reports the autosave indicator values.
func (s *Session) SaveState() (bool, time.Time) {
	return s.engine.SaveState()
}

// guardWritable rejects content mutations on sent or archived documents;
// those render exclusively in preview mode until restored or re-edited.
func (s *Session) guardWritable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.ReadOnly() {
		return fmt.Errorf("%w: document is %s", domain.ErrReadOnly, s.status)
	}
	return nil
}

// AddBlock validates status then appends a block to the store.
func (s *Session) AddBlock(block workspace.Block, afterID string) (workspace.Block, error) {
	if err := s.guardWritable(); err != nil {
		return workspace.Block{}, err
	}
	return s.store.AddBlock(block, afterID), nil
}

// UpdateBlock validates status then shallow-merges into the target block.
func (s *Session) UpdateBlock(id string, partial map[string]any) error {
	if err := s.guardWritable(); err != nil {
		return err
	}
	s.store.UpdateBlock(id, partial)
	return nil
}

// RemoveBlock validates status then removes the target block.
func (s *Session) RemoveBlock(id string) error {
	if err := s.guardWritable(); err != nil {
		return err
	}
	s.store.RemoveBlock(id)
	return nil
}

// Generate runs fn with latest-wins semantics and applies the result's
// patches to the store, followed by an immediate flush. The status is
// re-checked after the provider call: a send or archive completing while
// the generation was in flight must not have patches applied over it.
func (s *Session) Generate(ctx context.Context, fn GenerateFunc, logger *slog.Logger) (*workspace.GenerationResult, error) {
	if err := s.guardWritable(); err != nil {
		return nil, err
	}
	result, err := s.runner.Run(ctx, fn)
	if err != nil {
		return nil, err
	}
	if err := s.guardWritable(); err != nil {
		return nil, err
	}
	if err := ApplyGeneration(ctx, result, s.store, s.engine, logger); err != nil {
		return nil, err
	}
	return result, nil
}

// CancelGeneration aborts any in-flight generation for this session.
func (s *Session) CancelGeneration() {
	s.runner.Cancel()
}

// Transition performs a lifecycle action, updating the session's status
// and export URL on success. The controller flushes first; a failed flush
// or export leaves the status untouched and the in-memory content intact.
func (s *Session) Transition(ctx context.Context, action workspace.Action) (workspace.Status, string, error) {
	s.mu.Lock()
	current := s.status
	s.mu.Unlock()

	next, exportURL, err := s.controller.Transition(ctx, s.DocID, current, action)
	if err != nil {
		return current, "", err
	}

	s.mu.Lock()
	s.status = next
	if exportURL != "" {
		s.lastExportedURL = exportURL
	}
	s.mu.Unlock()
	return next, exportURL, nil
}

// Flush forces an immediate persistence write outside of any transition.
func (s *Session) Flush(ctx context.Context) error {
	return s.engine.Flush(ctx)
}

// Manager owns at most one session per document id. Opening a document
// acquires the editor lock, loads and normalizes the stored model, and
// fills the slot; closing flushes, releases the lock and clears it.
type Manager struct {
	loader    DocumentLoader
	persister func(tenantID string) Persister
	statuses  func(tenantID string) StatusPersister
	exporter  func(tenantID string) Exporter
	locker    Locker
	debounce  time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerConfig wires the manager's collaborators. The per-tenant factory
// funcs let persistence carry tenant scoping without the editor packages
// knowing about repositories.
type ManagerConfig struct {
	Loader    DocumentLoader
	Persister func(tenantID string) Persister
	Statuses  func(tenantID string) StatusPersister
	Exporter  func(tenantID string) Exporter
	Locker    Locker
	Debounce  time.Duration
	Logger    *slog.Logger
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		loader:    cfg.Loader,
		persister: cfg.Persister,
		statuses:  cfg.Statuses,
		exporter:  cfg.Exporter,
		locker:    cfg.Locker,
		debounce:  cfg.Debounce,
		logger:    cfg.Logger,
		sessions:  make(map[string]*Session),
	}
}

// Open loads the document into a fresh session. An already-open session
// for the same document is returned as-is when owned by the same owner;
// a different owner is rejected (single editor at a time).
func (m *Manager) Open(ctx context.Context, tenantID, docID, ownerID string) (*Session, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[docID]; ok {
		m.mu.Unlock()
		if existing.OwnerID == ownerID {
			return existing, nil
		}
		return nil, &domain.ForbiddenError{Message: "document is being edited by another user"}
	}
	m.mu.Unlock()

	if m.locker != nil {
		if err := m.locker.Acquire(ctx, docID, ownerID); err != nil {
			return nil, err
		}
	}

	doc, err := m.loader.Load(ctx, tenantID, docID)
	if err != nil {
		if m.locker != nil {
			_ = m.locker.Release(ctx, docID, ownerID)
		}
		return nil, err
	}

	engine := NewEngine(m.persister(tenantID), m.logger, m.debounce)
	store := NewStore(engine)
	session := &Session{
		DocID:      docID,
		TenantID:   tenantID,
		OwnerID:    ownerID,
		DocType:    doc.DocType,
		store:      store,
		engine:     engine,
		runner:     NewRunner(),
		controller: NewController(engine, m.statuses(tenantID), m.exporter(tenantID), m.logger),
		status:     doc.Status,
	}

	// The store is cleared before the loaded content lands so no stale
	// block from a previous document can be observed.
	store.Reset()
	model := doc.Content
	if model == nil {
		model = workspace.NewDocModel()
	}
	store.SetDocument(docID, model)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[docID]; ok {
		// Lost the race to another open; keep the winner.
		if m.locker != nil {
			_ = m.locker.Release(ctx, docID, ownerID)
		}
		return nil, &domain.ForbiddenError{Message: "document is being edited by another user"}
	}
	m.sessions[docID] = session
	return session, nil
}

// Get returns the open session for docID.
func (m *Manager) Get(docID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[docID]
	if !ok {
		return nil, fmt.Errorf("no open editor session for document %s: %w", docID, domain.ErrNotFound)
	}
	return session, nil
}

// Close flushes the session, stops its autosave engine, releases the
// editor lock and evicts the slot. The flush error is returned after
// cleanup so unsaved content is reported but the slot never leaks.
func (m *Manager) Close(ctx context.Context, docID string) error {
	m.mu.Lock()
	session, ok := m.sessions[docID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("no open editor session for document %s: %w", docID, domain.ErrNotFound)
	}
	delete(m.sessions, docID)
	m.mu.Unlock()

	session.CancelGeneration()
	flushErr := session.engine.Flush(ctx)
	session.engine.Stop()
	session.store.Reset()

	if m.locker != nil {
		if err := m.locker.Release(ctx, docID, session.OwnerID); err != nil && m.logger != nil {
			m.logger.Warn("failed to release editor lock", "document_id", docID, "error", err)
		}
	}
	return flushErr
}
