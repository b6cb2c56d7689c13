// Package editor owns the in-memory editing pipeline for one open document:
// the authoritative document store, the debounced autosave engine, patch
// application for AI-driven mutations, and the status lifecycle controller.
package editor

import (
	"sync"

	"github.com/google/uuid"

	"draftly/internal/domain/models/workspace"
)

// Observer receives store change notifications. DocumentLoaded fires when a
// whole model is (re)loaded into the store; ModelChanged fires on every
// mutation, including the load itself. The autosave engine consumes the
// first ModelChanged after a load as a no-op so a load is never persisted
// as if it were an edit.
type Observer interface {
	DocumentLoaded(docID string)
	ModelChanged(docID string, model *workspace.DocModel)
}

// Store is the single authoritative in-memory copy of the document model
// for the document currently open. It is an arena-style slot: explicitly
// cleared and refilled on document switch, never diffed. All operations are
// synchronous and have no network side effects; persistence belongs to the
// autosave engine observing changes.
//
// The store is single-writer by contract; the mutex makes concurrent access
// from HTTP handlers safe.
type Store struct {
	mu       sync.Mutex
	docID    string
	model    *workspace.DocModel
	removed  map[string]struct{}
	observer Observer
}

// NewStore creates an empty store. The observer may be nil (tests).
func NewStore(observer Observer) *Store {
	return &Store{
		model:    workspace.NewDocModel(),
		removed:  make(map[string]struct{}),
		observer: observer,
	}
}

// SetDocument replaces the whole model, used on initial load or when
// navigating to a different document. It marks the change as a load so the
// autosave engine suppresses it.
func (s *Store) SetDocument(docID string, model *workspace.DocModel) {
	s.mu.Lock()
	if model == nil {
		model = workspace.NewDocModel()
	}
	model.Normalize()
	s.docID = docID
	s.model = model
	s.removed = make(map[string]struct{})
	snapshot := s.model.Clone()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.DocumentLoaded(docID)
		s.observer.ModelChanged(docID, snapshot)
	}
}

// Reset clears the store to an empty model. Used when switching documents
// so no stale block can flash before the new document's data arrives.
func (s *Store) Reset() {
	s.SetDocument("", workspace.NewDocModel())
}

// DocID returns the id of the currently loaded document.
func (s *Store) DocID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// Snapshot returns a structurally independent copy of the current model.
func (s *Store) Snapshot() *workspace.DocModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Clone()
}

// AddBlock appends a block. afterID is a positional hint that is accepted
// but not honored: blocks are always appended in this design. Callers
// passing afterID expecting insertion-at-position will observe append-only
// behavior (known limitation, kept deliberately).
//
// A block without an id gets a fresh one. So does a block whose id collides
// with a live block or echoes a removed one: ids are unique for the
// lifetime of the document and never reused after removal.
func (s *Store) AddBlock(block workspace.Block, afterID string) workspace.Block {
	_ = afterID

	s.mu.Lock()
	_, reused := s.removed[block.ID]
	if block.ID == "" || reused || s.model.BlockByID(block.ID) >= 0 {
		block.ID = uuid.NewString()
	}
	s.model.Blocks = append(s.model.Blocks, block.Clone())
	s.notifyLocked()
	return block
}

// UpdateBlock shallow-merges partial into the block with the matching id.
// A missing id is a no-op, not an error.
func (s *Store) UpdateBlock(id string, partial map[string]any) bool {
	s.mu.Lock()
	i := s.model.BlockByID(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.model.Blocks[i].Merge(partial)
	s.notifyLocked()
	return true
}

// RemoveBlock removes the block with the matching id; no-op if absent.
// The removed id is never reused.
func (s *Store) RemoveBlock(id string) bool {
	s.mu.Lock()
	i := s.model.BlockByID(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.model.Blocks = append(s.model.Blocks[:i], s.model.Blocks[i+1:]...)
	s.removed[id] = struct{}{}
	s.notifyLocked()
	return true
}

// AddLineItem appends an item to the line_items block with the matching id.
// No-op when the block is absent or not a line_items block.
func (s *Store) AddLineItem(blockID string, item map[string]any) bool {
	s.mu.Lock()
	i := s.model.BlockByID(blockID)
	if i < 0 || s.model.Blocks[i].Type != workspace.BlockTypeLineItems {
		s.mu.Unlock()
		return false
	}
	block := &s.model.Blocks[i]
	items, _ := block.Fields["items"].([]any)
	if block.Fields == nil {
		block.Fields = make(map[string]any)
	}
	block.Fields["items"] = append(items, item)
	s.notifyLocked()
	return true
}

// MergeVariables merges values into the document-level variables mapping.
func (s *Store) MergeVariables(values map[string]any) {
	if len(values) == 0 {
		return
	}
	s.mu.Lock()
	for k, v := range values {
		s.model.Variables[k] = v
	}
	s.notifyLocked()
}

// AddSource appends a retrieval citation to the model's provenance list.
func (s *Store) AddSource(src workspace.DocSource) {
	s.mu.Lock()
	s.model.Sources = append(s.model.Sources, src)
	s.notifyLocked()
}

// notifyLocked snapshots the model, releases the lock and notifies the
// observer. Must be called with s.mu held; returns with it released.
func (s *Store) notifyLocked() {
	docID := s.docID
	snapshot := s.model.Clone()
	s.mu.Unlock()
	if s.observer != nil {
		s.observer.ModelChanged(docID, snapshot)
	}
}
