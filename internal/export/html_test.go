package export

import (
	"strings"
	"testing"

	"draftly/internal/domain/models/workspace"
	"draftly/internal/render"
)

func testModel() *workspace.DocModel {
	m := workspace.NewDocModel()
	m.Meta.Client = "Acme SARL"
	m.Meta.Reference = "DEV-2026-042"
	m.Blocks = []workspace.Block{
		{
			ID:    "intro",
			Type:  workspace.BlockTypeRichText,
			Label: "Introduction",
			Fields: map[string]any{
				"content": map[string]any{
					"type": "doc",
					"content": []any{
						map[string]any{"type": "paragraph", "content": []any{
							map[string]any{"type": "text", "text": "Proposition commerciale."},
						}},
					},
				},
			},
		},
		{
			ID:   "items",
			Type: workspace.BlockTypeLineItems,
			Fields: map[string]any{
				"currency": "EUR",
				"items": []any{
					map[string]any{"id": "i1", "description": "conseil", "quantity": 1, "unit_price": 200, "total": 200},
				},
			},
		},
	}
	page := 4
	m.Sources = []workspace.DocSource{
		{DocumentFilename: "cgv.pdf", PageNumber: &page},
		{DocumentFilename: "catalogue.pdf"},
	}
	return m
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("Devis site vitrine", testModel(), render.New())
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Devis site vitrine",
		"Acme SARL",
		"DEV-2026-042",
		"Proposition commerciale.",
		"200.00 EUR",
		"cgv.pdf p.4",
		"catalogue.pdf",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if !strings.Contains(out, `lang="fr"`) {
		t.Error("page missing the document language")
	}
}

func TestRenderHTMLLabelRenderedOnce(t *testing.T) {
	out, err := RenderHTML("Devis", testModel(), render.New())
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "Introduction"); got != 1 {
		t.Errorf("label rendered %d times, want 1", got)
	}
	// The heading comes from the block renderer, not the page layout.
	if !strings.Contains(out, `<h3 class="block-label">Introduction</h3>`) {
		t.Error("label heading missing from the page")
	}
}

func TestRenderHTMLInvalidBlockPlaceholder(t *testing.T) {
	m := workspace.NewDocModel()
	m.Blocks = []workspace.Block{
		{ID: "bad", Type: "not_a_real_type"},
		{
			ID:   "ok",
			Type: workspace.BlockTypeSignature,
			Fields: map[string]any{
				"parties": []any{map[string]any{"name": "Acme", "role": "Client"}},
			},
		},
	}

	out, err := RenderHTML("Devis", m, render.New())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "block-error") {
		t.Error("invalid block did not render an inline placeholder")
	}
	if !strings.Contains(out, "not_a_real_type") {
		t.Error("placeholder does not name the offending type")
	}
	// The bad block does not take the rest of the document down.
	if !strings.Contains(out, "Acme") {
		t.Error("valid block after the bad one is missing")
	}
}

func TestRenderHTMLSkipsExcludedBlocks(t *testing.T) {
	m := workspace.NewDocModel()
	m.Blocks = []workspace.Block{
		{ID: "files", Type: workspace.BlockTypeAttachments,
			Fields: map[string]any{"files": []any{"annexe.pdf"}}},
		{ID: "empty", Type: workspace.BlockTypeRichText, Fields: map[string]any{}},
	}

	out, err := RenderHTML("Devis", m, render.New())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "annexe.pdf") {
		t.Error("attachments leaked into the export")
	}
	if strings.Contains(out, "block-error") {
		t.Error("excluded blocks must not render as errors")
	}
}

func TestRenderHTMLEmptyModel(t *testing.T) {
	out, err := RenderHTML("Sans titre", workspace.NewDocModel(), render.New())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Sans titre") {
		t.Error("page missing the title")
	}
	if strings.Contains(out, "doc-sources") {
		t.Error("sources footer rendered without sources")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Devis site vitrine", "devis-site-vitrine"},
		{"Contrat   de prestation", "contrat-de-prestation"},
		{"Facture #42 (mars)", "facture-42-mars"},
		{"déjà_vu", "dj-vu"},
		{"---", ""},
		{strings.Repeat("a", 100), strings.Repeat("a", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := slugify(tt.in); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unreserved passthrough", "abc-XYZ_0.9~", "abc-XYZ_0.9~"},
		{"space", "a b", "a%20b"},
		{"html characters", "<p>", "%3Cp%3E"},
		{"multibyte", "é", "%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentEncodeForDataURL(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
