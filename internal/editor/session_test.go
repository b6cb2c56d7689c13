package editor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
)

type fakeLoader struct {
	docs map[string]*workspace.Document
}

func (l *fakeLoader) Load(_ context.Context, tenantID, docID string) (*workspace.Document, error) {
	doc, ok := l.docs[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

type fakeLocker struct {
	mu     sync.Mutex
	holder map[string]string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{holder: make(map[string]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, docID, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held, ok := l.holder[docID]; ok && held != ownerID {
		return &domain.ForbiddenError{Message: "document is being edited by another user"}
	}
	l.holder[docID] = ownerID
	return nil
}

func (l *fakeLocker) Release(_ context.Context, docID, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder[docID] == ownerID {
		delete(l.holder, docID)
	}
	return nil
}

func testManager(t *testing.T, p *fakePersister, locker Locker) *Manager {
	t.Helper()
	doc := &workspace.Document{
		ID:       "doc-1",
		TenantID: "t1",
		Title:    "Devis site vitrine",
		DocType:  "devis",
		Status:   workspace.StatusDraft,
		Content: &workspace.DocModel{
			Blocks: []workspace.Block{{ID: "b1", Type: workspace.BlockTypeRichText}},
		},
	}
	return NewManager(ManagerConfig{
		Loader:    &fakeLoader{docs: map[string]*workspace.Document{"doc-1": doc}},
		Persister: func(string) Persister { return p },
		Statuses:  func(string) StatusPersister { return &fakeStatusPersister{} },
		Exporter:  func(string) Exporter { return &fakeExporter{url: "https://exports.example/doc-1.pdf"} },
		Locker:    locker,
		Debounce:  testDebounce,
	})
}

func TestManagerOpenLoadsDocument(t *testing.T) {
	p := newFakePersister()
	m := testManager(t, p, nil)

	s, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if s.DocType != "devis" {
		t.Errorf("DocType = %q", s.DocType)
	}
	if s.Status() != workspace.StatusDraft {
		t.Errorf("status = %q", s.Status())
	}
	model := s.Store().Snapshot()
	if len(model.Blocks) != 1 || model.Blocks[0].ID != "b1" {
		t.Errorf("loaded blocks = %+v", model.Blocks)
	}
	if p.callCount() != 0 {
		t.Errorf("open persisted %d times, want the load suppressed", p.callCount())
	}
}

func TestManagerOpenMissingDocument(t *testing.T) {
	m := testManager(t, newFakePersister(), nil)

	_, err := m.Open(context.Background(), "t1", "ghost", "alice")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v", err)
	}
}

func TestManagerSingleEditor(t *testing.T) {
	m := testManager(t, newFakePersister(), newFakeLocker())

	first, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	// Same owner re-opening gets the same session back.
	again, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Error("re-open by the owner returned a different session")
	}

	// A different owner is rejected.
	_, err = m.Open(context.Background(), "t1", "doc-1", "bob")
	var ferr *domain.ForbiddenError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v, want forbidden", err)
	}
}

func TestManagerCloseReleasesLock(t *testing.T) {
	locker := newFakeLocker()
	m := testManager(t, newFakePersister(), locker)

	if _, err := m.Open(context.Background(), "t1", "doc-1", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(context.Background(), "doc-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Get("doc-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after close = %v, want not found", err)
	}

	// The lock is free again for someone else.
	if _, err := m.Open(context.Background(), "t1", "doc-1", "bob"); err != nil {
		t.Errorf("open after close: %v", err)
	}
}

func TestManagerCloseFlushes(t *testing.T) {
	p := newFakePersister()
	m := testManager(t, p, nil)

	s, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddBlock(workspace.Block{ID: "b2", Type: workspace.BlockTypeRichText}, ""); err != nil {
		t.Fatal(err)
	}

	if err := m.Close(context.Background(), "doc-1"); err != nil {
		t.Fatal(err)
	}
	if p.callCount() != 1 {
		t.Errorf("persist calls = %d, want the pending edit flushed on close", p.callCount())
	}
	call := p.lastCall()
	if len(call.model.Blocks) != 2 {
		t.Errorf("flushed model blocks = %+v", call.model.Blocks)
	}
}

func TestManagerCloseUnknownDocument(t *testing.T) {
	m := testManager(t, newFakePersister(), nil)
	if err := m.Close(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v", err)
	}
}

func TestSessionReadOnlyGuards(t *testing.T) {
	m := testManager(t, newFakePersister(), nil)
	s, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	// draft -> validated -> sent
	if _, _, err := s.Transition(context.Background(), workspace.ActionValidate); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Transition(context.Background(), workspace.ActionSend); err != nil {
		t.Fatal(err)
	}

	if _, err := s.AddBlock(workspace.Block{Type: workspace.BlockTypeRichText}, ""); !errors.Is(err, domain.ErrReadOnly) {
		t.Errorf("AddBlock on sent document = %v, want read-only", err)
	}
	if err := s.UpdateBlock("b1", map[string]any{"label": "x"}); !errors.Is(err, domain.ErrReadOnly) {
		t.Errorf("UpdateBlock on sent document = %v, want read-only", err)
	}
	if err := s.RemoveBlock("b1"); !errors.Is(err, domain.ErrReadOnly) {
		t.Errorf("RemoveBlock on sent document = %v, want read-only", err)
	}
	if _, err := s.Generate(context.Background(), func(context.Context) (*workspace.GenerationResult, error) {
		return &workspace.GenerationResult{}, nil
	}, nil); !errors.Is(err, domain.ErrReadOnly) {
		t.Errorf("Generate on sent document = %v, want read-only", err)
	}
}

func TestSessionTransitionUpdatesStatus(t *testing.T) {
	m := testManager(t, newFakePersister(), nil)
	s, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	next, url, err := s.Transition(context.Background(), workspace.ActionValidate)
	if err != nil {
		t.Fatal(err)
	}
	if next != workspace.StatusValidated || s.Status() != workspace.StatusValidated {
		t.Errorf("status = %q / %q", next, s.Status())
	}
	if url != "" {
		t.Errorf("url = %q", url)
	}

	next, url, err = s.Transition(context.Background(), workspace.ActionSend)
	if err != nil {
		t.Fatal(err)
	}
	if next != workspace.StatusSent {
		t.Errorf("status = %q", next)
	}
	if url == "" {
		t.Error("send did not surface the export URL")
	}
}

func TestSessionGenerateApplies(t *testing.T) {
	m := testManager(t, newFakePersister(), nil)
	s, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Generate(context.Background(), func(context.Context) (*workspace.GenerationResult, error) {
		return &workspace.GenerationResult{
			Message: "Bloc ajouté.",
			Patches: []workspace.Patch{
				{Op: workspace.PatchOpAddBlock, Value: map[string]any{"id": "gen-1", "type": "rich_text"}},
			},
		}, nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Message != "Bloc ajouté." {
		t.Errorf("result = %+v", result)
	}

	model := s.Store().Snapshot()
	if model.BlockByID("gen-1") < 0 {
		t.Errorf("generated block missing: %+v", model.Blocks)
	}
}

func TestSessionGenerateRejectedAfterMidFlightSend(t *testing.T) {
	m := testManager(t, newFakePersister(), nil)
	s, err := m.Open(context.Background(), "t1", "doc-1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	// The document is sent while the provider call is in flight; the
	// result's patches must not land on the now read-only document.
	_, err = s.Generate(context.Background(), func(ctx context.Context) (*workspace.GenerationResult, error) {
		if _, _, err := s.Transition(ctx, workspace.ActionValidate); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if _, _, err := s.Transition(ctx, workspace.ActionSend); err != nil {
			t.Fatalf("send: %v", err)
		}
		return &workspace.GenerationResult{
			Message: "Bloc ajouté.",
			Patches: []workspace.Patch{
				{Op: workspace.PatchOpAddBlock, Value: map[string]any{"id": "late-1", "type": "rich_text"}},
			},
		}, nil
	}, nil)
	if !errors.Is(err, domain.ErrReadOnly) {
		t.Fatalf("error = %v, want ErrReadOnly", err)
	}

	model := s.Store().Snapshot()
	if model.BlockByID("late-1") >= 0 {
		t.Error("patches applied to a sent document")
	}
}
