package editor

import (
	"context"
	"errors"
	"testing"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
)

// manualFlusher records flush calls and can fail.
type manualFlusher struct {
	calls int
	err   error
}

func (f *manualFlusher) Flush(context.Context) error {
	f.calls++
	return f.err
}

func loadedStore(blocks ...workspace.Block) *Store {
	s := NewStore(nil)
	m := workspace.NewDocModel()
	m.Blocks = append(m.Blocks, blocks...)
	s.SetDocument("doc-1", m)
	return s
}

func TestApplyPatchesAddBlock(t *testing.T) {
	s := loadedStore()
	f := &manualFlusher{}

	err := ApplyPatches(context.Background(), []workspace.Patch{
		{Op: workspace.PatchOpAddBlock, Value: map[string]any{
			"id": "b1", "type": "rich_text", "content": map[string]any{"type": "doc"},
		}},
	}, s, f, nil)
	if err != nil {
		t.Fatal(err)
	}

	m := s.Snapshot()
	if len(m.Blocks) != 1 || m.Blocks[0].ID != "b1" || m.Blocks[0].Type != "rich_text" {
		t.Errorf("blocks = %+v", m.Blocks)
	}
	if f.calls != 1 {
		t.Errorf("flush calls = %d, want 1 after the batch", f.calls)
	}
}

func TestApplyPatchesOrderAndTargets(t *testing.T) {
	s := loadedStore(
		workspace.Block{ID: "intro", Type: workspace.BlockTypeRichText, Label: "Intro"},
		workspace.Block{ID: "items", Type: workspace.BlockTypeLineItems, Fields: map[string]any{"items": []any{}}},
	)
	f := &manualFlusher{}

	err := ApplyPatches(context.Background(), []workspace.Patch{
		{Op: workspace.PatchOpReplaceBlock, BlockID: "intro", Value: map[string]any{"label": "first"}},
		{Op: workspace.PatchOpReplaceBlock, BlockID: "intro", Value: map[string]any{"label": "second"}},
		{Op: workspace.PatchOpAddLineItem, BlockID: "items", Value: map[string]any{"description": "conseil"}},
		{Op: workspace.PatchOpUpdateVariables, Value: map[string]any{"client": "Acme"}},
	}, s, f, nil)
	if err != nil {
		t.Fatal(err)
	}

	m := s.Snapshot()
	if m.Blocks[0].Label != "second" {
		t.Errorf("label = %q, want the later patch to win by order", m.Blocks[0].Label)
	}
	items, _ := m.Blocks[1].Fields["items"].([]any)
	if len(items) != 1 {
		t.Errorf("items = %v", items)
	}
	if m.Variables["client"] != "Acme" {
		t.Errorf("variables = %v", m.Variables)
	}
	if f.calls != 1 {
		t.Errorf("flush calls = %d, want exactly 1 after all patches", f.calls)
	}
}

func TestApplyPatchesSkipsBadTargets(t *testing.T) {
	s := loadedStore(workspace.Block{ID: "intro", Type: workspace.BlockTypeRichText})
	f := &manualFlusher{}

	err := ApplyPatches(context.Background(), []workspace.Patch{
		{Op: workspace.PatchOpReplaceBlock, BlockID: "ghost", Value: map[string]any{"label": "x"}},
		{Op: workspace.PatchOpReplaceBlock, Value: map[string]any{"label": "no target"}},
		{Op: "unknown_op", Value: map[string]any{}},
		{Op: workspace.PatchOpReplaceBlock, BlockID: "intro", Value: map[string]any{"label": "landed"}},
	}, s, f, nil)
	if err != nil {
		t.Fatal(err)
	}

	m := s.Snapshot()
	if len(m.Blocks) != 1 {
		t.Fatalf("blocks = %+v, want skipped patches to add nothing", m.Blocks)
	}
	if m.Blocks[0].Label != "landed" {
		t.Errorf("label = %q, want the valid patch applied despite earlier skips", m.Blocks[0].Label)
	}
}

func TestApplyPatchesAddSource(t *testing.T) {
	s := loadedStore()
	f := &manualFlusher{}

	err := ApplyPatches(context.Background(), []workspace.Patch{
		{Op: workspace.PatchOpAddSource, Value: map[string]any{
			"chunk_id":          "c1",
			"document_filename": "cgv.pdf",
			"page_number":       float64(3),
			"score":             0.92,
		}},
	}, s, f, nil)
	if err != nil {
		t.Fatal(err)
	}

	m := s.Snapshot()
	if len(m.Sources) != 1 {
		t.Fatalf("sources = %+v", m.Sources)
	}
	src := m.Sources[0]
	if src.DocumentFilename != "cgv.pdf" || src.PageNumber == nil || *src.PageNumber != 3 {
		t.Errorf("source = %+v", src)
	}
}

func TestApplyPatchesFlushFailure(t *testing.T) {
	s := loadedStore()
	f := &manualFlusher{err: errors.New("db down")}

	err := ApplyPatches(context.Background(), []workspace.Patch{
		{Op: workspace.PatchOpAddBlock, Value: map[string]any{"id": "b1", "type": "rich_text"}},
	}, s, f, nil)
	if err == nil {
		t.Fatal("expected the flush error to propagate")
	}
	// Patches still landed in memory; only persistence failed.
	if m := s.Snapshot(); len(m.Blocks) != 1 {
		t.Errorf("blocks = %+v", m.Blocks)
	}
}

func TestApplyGenerationRejectsPatchless(t *testing.T) {
	s := loadedStore()
	f := &manualFlusher{}

	tests := []struct {
		name    string
		message string
	}{
		{"failed generation", "Erreur lors de la génération."},
		{"empty result", "Aucune modification."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyGeneration(context.Background(),
				&workspace.GenerationResult{Message: tt.message}, s, f, nil)
			if !errors.Is(err, domain.ErrGeneration) {
				t.Fatalf("error = %v, want domain.ErrGeneration", err)
			}
		})
	}

	if f.calls != 0 {
		t.Errorf("flush calls = %d, want store untouched", f.calls)
	}
	if m := s.Snapshot(); len(m.Blocks) != 0 {
		t.Errorf("blocks = %+v, want untouched", m.Blocks)
	}
}

func TestApplyGenerationApplies(t *testing.T) {
	s := loadedStore()
	f := &manualFlusher{}

	err := ApplyGeneration(context.Background(), &workspace.GenerationResult{
		Message: "Bloc ajouté.",
		Patches: []workspace.Patch{
			{Op: workspace.PatchOpAddBlock, Value: map[string]any{"id": "b1", "type": "rich_text"}},
		},
	}, s, f, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m := s.Snapshot(); len(m.Blocks) != 1 {
		t.Errorf("blocks = %+v", m.Blocks)
	}
}
