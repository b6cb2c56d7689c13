// Package export turns a document model into a print-ready PDF artifact.
package export

import (
	"fmt"
	"html/template"
	"strings"

	"draftly/internal/domain/models/workspace"
	"draftly/internal/render"
)

// documentTemplate is the print layout: title, metadata header, block
// content, sources footer. Styles target A4 print output.
var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, 'Times New Roman', serif; color: #1e293b; font-size: 11pt; line-height: 1.5; margin: 0; }
  h1.doc-title { font-size: 20pt; margin: 0 0 4pt; }
  .doc-meta { color: #64748b; font-size: 9pt; margin-bottom: 16pt; border-bottom: 1px solid #e2e8f0; padding-bottom: 8pt; }
  .doc-meta span + span::before { content: " · "; }
  .block { margin-bottom: 12pt; }
  .block-label { font-size: 9pt; text-transform: uppercase; letter-spacing: 0.05em; color: #64748b; margin-bottom: 2pt; }
  table.line-items { width: 100%; border-collapse: collapse; font-size: 10pt; }
  table.line-items th, table.line-items td { border: 1px solid #cbd5e1; padding: 4pt 6pt; text-align: left; }
  table.line-items th { background: #f1f5f9; }
  .block-error { border: 1px solid #dc2626; background: #fef2f2; padding: 6pt; font-size: 9pt; }
  .block-error-raw { white-space: pre-wrap; color: #64748b; }
  .signature-parties { display: flex; gap: 24pt; }
  .signature-line { border-bottom: 1px solid #1e293b; height: 32pt; margin-top: 24pt; }
  .doc-sources { margin-top: 24pt; border-top: 1px solid #e2e8f0; padding-top: 8pt; font-size: 8pt; color: #94a3b8; }
</style>
</head>
<body>
<h1 class="doc-title">{{.Title}}</h1>
{{if .MetaLine}}<div class="doc-meta">{{range .MetaLine}}<span>{{.}}</span>{{end}}</div>{{end}}
{{range .Blocks}}<div class="block">{{.HTML}}</div>
{{end}}{{if .Sources}}<div class="doc-sources">Sources : {{range $i, $s := .Sources}}{{if $i}}, {{end}}{{$s}}{{end}}</div>{{end}}
</body>
</html>`))

type documentPage struct {
	Title    string
	MetaLine []string
	Blocks   []renderedBlock
	Sources  []string
}

type renderedBlock struct {
	HTML template.HTML
}

// RenderHTML renders the model to a standalone HTML page in preview mode.
// Invalid blocks render as inline error placeholders so the artifact shows
// what needs fixing instead of silently losing content.
func RenderHTML(title string, model *workspace.DocModel, renderer *render.Renderer) (string, error) {
	page := documentPage{Title: title}

	meta := model.Meta
	for _, v := range []string{meta.Client, meta.Project, meta.Reference, meta.Date, meta.Author} {
		if v != "" {
			page.MetaLine = append(page.MetaLine, v)
		}
	}

	for _, block := range model.Blocks {
		out := renderer.Render(block, render.ModePreview)
		if out.Skipped {
			continue
		}
		// Block labels come from the renderer; the page must not
		// repeat them.
		var rb renderedBlock
		if out.Err != nil {
			rb.HTML = template.HTML(out.Err.ErrorHTML())
		} else {
			// Renderer output is sanitized upstream.
			rb.HTML = template.HTML(out.HTML)
		}
		page.Blocks = append(page.Blocks, rb)
	}

	for _, src := range model.Sources {
		label := src.DocumentFilename
		if src.PageNumber != nil {
			label = fmt.Sprintf("%s p.%d", label, *src.PageNumber)
		}
		page.Sources = append(page.Sources, label)
	}

	var sb strings.Builder
	if err := documentTemplate.Execute(&sb, page); err != nil {
		return "", fmt.Errorf("render document template: %w", err)
	}
	return sb.String(), nil
}
