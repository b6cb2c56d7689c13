package render

import (
	"strings"
	"testing"
)

func text(s string, marks ...map[string]any) map[string]any {
	node := map[string]any{"type": "text", "text": s}
	if len(marks) > 0 {
		list := make([]any, len(marks))
		for i, m := range marks {
			list[i] = m
		}
		node["marks"] = list
	}
	return node
}

func TestRichTextToHTML(t *testing.T) {
	tests := []struct {
		name string
		tree map[string]any
		want []string
	}{
		{
			name: "paragraph with bold",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{"type": "paragraph", "content": []any{
						text("montant "),
						text("ferme", map[string]any{"type": "bold"}),
					}},
				},
			},
			want: []string{"<p>montant <strong>ferme</strong></p>"},
		},
		{
			name: "heading level from attrs",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{
						"type":    "heading",
						"attrs":   map[string]any{"level": float64(2)},
						"content": []any{text("Conditions")},
					},
				},
			},
			want: []string{"<h2>Conditions</h2>"},
		},
		{
			name: "heading with out-of-range level falls back to h1",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{
						"type":    "heading",
						"attrs":   map[string]any{"level": float64(9)},
						"content": []any{text("Annexe")},
					},
				},
			},
			want: []string{"<h1>Annexe</h1>"},
		},
		{
			name: "bullet list",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{"type": "bulletList", "content": []any{
						map[string]any{"type": "listItem", "content": []any{
							map[string]any{"type": "paragraph", "content": []any{text("premier")}},
						}},
					}},
				},
			},
			want: []string{"<ul>", "<li>", "premier", "</ul>"},
		},
		{
			name: "link mark",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{"type": "paragraph", "content": []any{
						text("site", map[string]any{
							"type":  "link",
							"attrs": map[string]any{"href": "https://example.fr"},
						}),
					}},
				},
			},
			want: []string{`<a href="https://example.fr">site</a>`},
		},
		{
			name: "unknown node degrades to children",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{"type": "customWidget", "content": []any{
						map[string]any{"type": "paragraph", "content": []any{text("conservé")}},
					}},
				},
			},
			want: []string{"<p>conservé</p>"},
		},
		{
			name: "text is escaped",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{"type": "paragraph", "content": []any{text("a < b & c")}},
				},
			},
			want: []string{"a &lt; b &amp; c"},
		},
		{
			name: "hard break and rule",
			tree: map[string]any{
				"type": "doc",
				"content": []any{
					map[string]any{"type": "paragraph", "content": []any{
						text("ligne"), map[string]any{"type": "hardBreak"}, text("suite"),
					}},
					map[string]any{"type": "horizontalRule"},
				},
			},
			want: []string{"ligne<br>suite", "<hr>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := richTextToHTML(tt.tree)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output %q missing %q", got, want)
				}
			}
		})
	}
}

func TestRichTextToHTMLNil(t *testing.T) {
	if got := richTextToHTML(nil); got != "" {
		t.Errorf("nil tree rendered %q, want empty", got)
	}
}

func TestIsEmptyRichText(t *testing.T) {
	tests := []struct {
		name string
		tree map[string]any
		want bool
	}{
		{"nil tree", nil, true},
		{"empty object", map[string]any{}, true},
		{
			"doc with only whitespace text",
			map[string]any{"type": "doc", "content": []any{
				map[string]any{"type": "paragraph", "content": []any{text("   ")}},
			}},
			true,
		},
		{
			"doc with empty paragraph",
			map[string]any{"type": "doc", "content": []any{
				map[string]any{"type": "paragraph"},
			}},
			true,
		},
		{
			"doc with real text",
			map[string]any{"type": "doc", "content": []any{
				map[string]any{"type": "paragraph", "content": []any{text("bonjour")}},
			}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmptyRichText(tt.tree); got != tt.want {
				t.Errorf("isEmptyRichText = %v, want %v", got, tt.want)
			}
		})
	}
}
