package editor

import (
	"testing"

	"draftly/internal/domain/models/workspace"
)

// recordingObserver captures store notifications in order.
type recordingObserver struct {
	loaded  []string
	changed []string
	models  []*workspace.DocModel
}

func (o *recordingObserver) DocumentLoaded(docID string) {
	o.loaded = append(o.loaded, docID)
}

func (o *recordingObserver) ModelChanged(docID string, model *workspace.DocModel) {
	o.changed = append(o.changed, docID)
	o.models = append(o.models, model)
}

func TestSetDocumentNotifies(t *testing.T) {
	obs := &recordingObserver{}
	s := NewStore(obs)

	s.SetDocument("doc-1", workspace.NewDocModel())

	if len(obs.loaded) != 1 || obs.loaded[0] != "doc-1" {
		t.Errorf("loaded = %v, want one load for doc-1", obs.loaded)
	}
	if len(obs.changed) != 1 || obs.changed[0] != "doc-1" {
		t.Errorf("changed = %v, want one change for doc-1", obs.changed)
	}
	if s.DocID() != "doc-1" {
		t.Errorf("DocID = %q", s.DocID())
	}
}

func TestSetDocumentNilModel(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", nil)

	m := s.Snapshot()
	if m == nil || m.Blocks == nil {
		t.Fatal("nil model should load as an empty normalized model")
	}
}

func TestAddBlockAppends(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())

	first := s.AddBlock(workspace.Block{ID: "a", Type: workspace.BlockTypeRichText}, "")
	second := s.AddBlock(workspace.Block{ID: "b", Type: workspace.BlockTypeRichText}, "")
	// afterID is a positional hint only; the block still goes to the end.
	third := s.AddBlock(workspace.Block{ID: "c", Type: workspace.BlockTypeRichText}, first.ID)

	m := s.Snapshot()
	got := []string{m.Blocks[0].ID, m.Blocks[1].ID, m.Blocks[2].ID}
	want := []string{first.ID, second.ID, third.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block order = %v, want %v", got, want)
		}
	}
}

func TestAddBlockAssignsIDs(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())

	noID := s.AddBlock(workspace.Block{Type: workspace.BlockTypeRichText}, "")
	if noID.ID == "" {
		t.Error("block without id did not get one")
	}

	s.AddBlock(workspace.Block{ID: "dup", Type: workspace.BlockTypeRichText}, "")
	collided := s.AddBlock(workspace.Block{ID: "dup", Type: workspace.BlockTypeRichText}, "")
	if collided.ID == "dup" || collided.ID == "" {
		t.Errorf("colliding id kept as %q, want a fresh one", collided.ID)
	}

	m := s.Snapshot()
	seen := map[string]bool{}
	for _, b := range m.Blocks {
		if seen[b.ID] {
			t.Fatalf("duplicate block id %q in store", b.ID)
		}
		seen[b.ID] = true
	}
}

func TestAddBlockNeverReusesRemovedIDs(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())

	s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText}, "")
	if !s.RemoveBlock("b1") {
		t.Fatal("remove returned false")
	}

	revived := s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText}, "")
	if revived.ID == "b1" {
		t.Error("removed id was reused")
	}
	if revived.ID == "" {
		t.Error("block did not get a fresh id")
	}

	// A document reload starts a new id lifetime.
	s.SetDocument("doc-1", workspace.NewDocModel())
	reloaded := s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText}, "")
	if reloaded.ID != "b1" {
		t.Errorf("id after reload = %q, want %q", reloaded.ID, "b1")
	}
}

func TestUpdateBlock(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())
	s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText, Label: "Intro"}, "")

	if !s.UpdateBlock("b1", map[string]any{"label": "Introduction"}) {
		t.Fatal("update of existing block returned false")
	}
	if s.UpdateBlock("missing", map[string]any{"label": "x"}) {
		t.Error("update of missing block returned true, want silent no-op")
	}

	m := s.Snapshot()
	if m.Blocks[0].Label != "Introduction" {
		t.Errorf("label = %q", m.Blocks[0].Label)
	}
}

func TestRemoveBlock(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())
	s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText}, "")
	s.AddBlock(workspace.Block{ID: "b2", Type: workspace.BlockTypeRichText}, "")

	if !s.RemoveBlock("b1") {
		t.Fatal("remove of existing block returned false")
	}
	if s.RemoveBlock("b1") {
		t.Error("second remove returned true, want no-op")
	}

	m := s.Snapshot()
	if len(m.Blocks) != 1 || m.Blocks[0].ID != "b2" {
		t.Errorf("remaining blocks = %+v", m.Blocks)
	}
}

func TestAddLineItem(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())
	s.AddBlock(workspace.Block{
		ID:     "items",
		Type:   workspace.BlockTypeLineItems,
		Fields: map[string]any{"items": []any{}},
	}, "")
	s.AddBlock(workspace.Block{ID: "text", Type: workspace.BlockTypeRichText}, "")

	if !s.AddLineItem("items", map[string]any{"description": "conseil"}) {
		t.Fatal("add to line_items block returned false")
	}
	if s.AddLineItem("text", map[string]any{"description": "x"}) {
		t.Error("add to a non line_items block returned true")
	}
	if s.AddLineItem("missing", map[string]any{"description": "x"}) {
		t.Error("add to a missing block returned true")
	}

	m := s.Snapshot()
	items, _ := m.Blocks[0].Fields["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
}

func TestMergeVariables(t *testing.T) {
	obs := &recordingObserver{}
	s := NewStore(obs)
	s.SetDocument("doc-1", workspace.NewDocModel())
	before := len(obs.changed)

	s.MergeVariables(nil)
	if len(obs.changed) != before {
		t.Error("empty merge should not notify")
	}

	s.MergeVariables(map[string]any{"client": "Acme"})
	s.MergeVariables(map[string]any{"client": "Globex", "projet": "Site"})

	m := s.Snapshot()
	if m.Variables["client"] != "Globex" || m.Variables["projet"] != "Site" {
		t.Errorf("variables = %v", m.Variables)
	}
}

func TestSnapshotIndependence(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())
	s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText, Label: "Intro"}, "")

	snap := s.Snapshot()
	snap.Blocks[0].Label = "mutated"
	snap.Variables["x"] = 1

	m := s.Snapshot()
	if m.Blocks[0].Label != "Intro" {
		t.Error("snapshot mutation leaked into store")
	}
	if _, ok := m.Variables["x"]; ok {
		t.Error("snapshot variable mutation leaked into store")
	}
}

func TestResetClears(t *testing.T) {
	s := NewStore(nil)
	s.SetDocument("doc-1", workspace.NewDocModel())
	s.AddBlock(workspace.Block{ID: "b1", Type: workspace.BlockTypeRichText}, "")

	s.Reset()

	if s.DocID() != "" {
		t.Errorf("DocID after reset = %q", s.DocID())
	}
	if m := s.Snapshot(); len(m.Blocks) != 0 {
		t.Errorf("blocks after reset = %+v", m.Blocks)
	}
}
