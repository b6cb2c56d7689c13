package render

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"draftly/internal/schema"
)

// renderRichText renders rich_text, clause and terms blocks. In preview
// mode an empty tree renders nothing (skipped) to avoid empty visual
// sections; in edit mode the empty container stays so the editor widget
// has a mount point.
func (r *Renderer) renderRichText(payload map[string]any, mode Mode) (string, bool) {
	content, _ := payload["content"].(map[string]any)
	if mode == ModePreview && isEmptyRichText(content) {
		return "", true
	}

	var b strings.Builder
	blockType, _ := payload["type"].(string)
	fmt.Fprintf(&b, "<section class=\"block block-%s\">\n", html.EscapeString(blockType))
	writeLabel(&b, payload)
	b.WriteString(r.policy.Sanitize(richTextToHTML(content)))
	b.WriteString("</section>\n")
	return b.String(), false
}

// renderLineItems renders the items table. The grand total row is always
// recomputed as the sum of per-item totals; a stored aggregate is never
// trusted.
func (r *Renderer) renderLineItems(payload map[string]any) string {
	columns, _ := payload["columns"].([]any)
	items, _ := payload["items"].([]any)
	currency, _ := payload["currency"].(string)

	var b strings.Builder
	b.WriteString("<section class=\"block block-line-items\">\n")
	writeLabel(&b, payload)
	b.WriteString("<table class=\"line-items\">\n<thead><tr>")
	for _, col := range columns {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(schema.CoerceString(col)))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")

	grandTotal := 0.0
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		grandTotal += schema.CoerceNumber(item["total"])
		b.WriteString("<tr>")
		for _, col := range columns {
			key := schema.CoerceString(col)
			b.WriteString("<td>")
			switch key {
			case "quantity", "unit_price", "tax_rate", "total":
				b.WriteString(schema.FormatAmount(schema.CoerceNumber(item[key])))
			default:
				b.WriteString(html.EscapeString(schema.CoerceString(item[key])))
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}

	colspan := len(columns) - 1
	if colspan < 1 {
		colspan = 1
	}
	fmt.Fprintf(&b,
		"<tr class=\"grand-total\"><td colspan=\"%d\">Total</td><td>%s %s</td></tr>\n",
		colspan, schema.FormatAmount(grandTotal), html.EscapeString(currency))
	b.WriteString("</tbody>\n</table>\n</section>\n")
	return b.String()
}

// renderSignature renders one column per party with a blank signing line
// and the optional date text.
func (r *Renderer) renderSignature(payload map[string]any) string {
	parties, _ := payload["parties"].([]any)

	var b strings.Builder
	b.WriteString("<section class=\"block block-signature\">\n")
	writeLabel(&b, payload)
	b.WriteString("<div class=\"signature-parties\">\n")
	for _, raw := range parties {
		party, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		b.WriteString("<div class=\"signature-party\">\n")
		fmt.Fprintf(&b, "<p class=\"party-name\">%s</p>\n",
			html.EscapeString(schema.CoerceString(party["name"])))
		if role := schema.CoerceString(party["role"]); role != "" {
			fmt.Fprintf(&b, "<p class=\"party-role\">%s</p>\n", html.EscapeString(role))
		}
		b.WriteString("<div class=\"signature-line\"></div>\n")
		if date := schema.CoerceString(party["date"]); date != "" {
			fmt.Fprintf(&b, "<p class=\"party-date\">%s</p>\n", html.EscapeString(date))
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n</section>\n")
	return b.String()
}

// renderVariables renders the block-local variable overrides as a
// definition list.
func (r *Renderer) renderVariables(payload map[string]any) string {
	variables, _ := payload["variables"].(map[string]any)

	var b strings.Builder
	b.WriteString("<section class=\"block block-variables\">\n")
	writeLabel(&b, payload)
	b.WriteString("<dl class=\"variables\">\n")
	for _, name := range sortedKeys(variables) {
		fmt.Fprintf(&b, "<dt>%s</dt><dd>%s</dd>\n",
			html.EscapeString(name),
			html.EscapeString(schema.CoerceString(variables[name])))
	}
	b.WriteString("</dl>\n</section>\n")
	return b.String()
}

// renderAttachments renders the attachment list for the editable surface
// only; preview mode excludes the block upstream.
func (r *Renderer) renderAttachments(payload map[string]any) string {
	files, _ := payload["files"].([]any)

	var b strings.Builder
	b.WriteString("<section class=\"block block-attachments\">\n")
	writeLabel(&b, payload)
	b.WriteString("<ul class=\"attachments\">\n")
	for _, raw := range files {
		name := ""
		switch f := raw.(type) {
		case map[string]any:
			name = schema.CoerceString(f["filename"])
			if name == "" {
				name = schema.CoerceString(f["name"])
			}
		default:
			name = schema.CoerceString(raw)
		}
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(name))
	}
	b.WriteString("</ul>\n</section>\n")
	return b.String()
}

func writeLabel(b *strings.Builder, payload map[string]any) {
	if label, _ := payload["label"].(string); label != "" {
		fmt.Fprintf(b, "<h3 class=\"block-label\">%s</h3>\n", html.EscapeString(label))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic output keeps previews and exports stable.
	sort.Strings(keys)
	return keys
}
