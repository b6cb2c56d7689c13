package render

import (
	"fmt"
	"html"
	"strings"
)

// richTextToHTML converts a serialized rich-text tree (ProseMirror/Tiptap
// JSON, camelCase node names) to HTML. The tree is opaque to the rest of
// the pipeline beyond this conversion; unknown node types degrade to their
// children instead of failing.
func richTextToHTML(root map[string]any) string {
	if root == nil {
		return ""
	}
	return renderNode(root)
}

func renderNode(node map[string]any) string {
	nodeType, _ := node["type"].(string)
	if nodeType == "" {
		return ""
	}

	switch nodeType {
	case "doc":
		return renderChildren(node["content"])
	case "paragraph":
		return fmt.Sprintf("<p>%s</p>\n", renderChildren(node["content"]))
	case "heading":
		level := 1
		if attrs, ok := node["attrs"].(map[string]any); ok {
			if lvl, ok := attrs["level"].(float64); ok && lvl >= 1 && lvl <= 6 {
				level = int(lvl)
			}
		}
		return fmt.Sprintf("<h%d>%s</h%d>\n", level, renderChildren(node["content"]), level)
	case "bulletList":
		return fmt.Sprintf("<ul>\n%s</ul>\n", renderChildren(node["content"]))
	case "orderedList":
		return fmt.Sprintf("<ol>\n%s</ol>\n", renderChildren(node["content"]))
	case "listItem":
		return fmt.Sprintf("<li>%s</li>\n", renderChildren(node["content"]))
	case "blockquote":
		return fmt.Sprintf("<blockquote>\n%s</blockquote>\n", renderChildren(node["content"]))
	case "codeBlock":
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", renderChildren(node["content"]))
	case "text":
		text, _ := node["text"].(string)
		marks, _ := node["marks"].([]any)
		return renderTextWithMarks(text, marks)
	case "hardBreak":
		return "<br>"
	case "horizontalRule":
		return "<hr>\n"
	case "table":
		return fmt.Sprintf("<table>\n%s</table>\n", renderChildren(node["content"]))
	case "tableRow":
		return fmt.Sprintf("<tr>\n%s</tr>\n", renderChildren(node["content"]))
	case "tableHeader":
		return fmt.Sprintf("<th>%s</th>\n", renderChildren(node["content"]))
	case "tableCell":
		return fmt.Sprintf("<td>%s</td>\n", renderChildren(node["content"]))
	default:
		// Unknown node: render children so no text is silently lost.
		return renderChildren(node["content"])
	}
}

func renderChildren(content any) string {
	items, ok := content.([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, item := range items {
		if node, ok := item.(map[string]any); ok {
			b.WriteString(renderNode(node))
		}
	}
	return b.String()
}

func renderTextWithMarks(text string, marks []any) string {
	if text == "" {
		return ""
	}
	out := html.EscapeString(text)
	for _, raw := range marks {
		mark, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		markType, _ := mark["type"].(string)
		switch markType {
		case "bold":
			out = "<strong>" + out + "</strong>"
		case "italic":
			out = "<em>" + out + "</em>"
		case "underline":
			out = "<u>" + out + "</u>"
		case "strike":
			out = "<s>" + out + "</s>"
		case "code":
			out = "<code>" + out + "</code>"
		case "link":
			href := "#"
			if attrs, ok := mark["attrs"].(map[string]any); ok {
				if h, ok := attrs["href"].(string); ok && h != "" {
					href = h
				}
			}
			out = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), out)
		}
	}
	return out
}

// isEmptyRichText reports whether a rich-text tree carries no renderable
// text. Preview mode skips such blocks entirely to avoid empty sections.
func isEmptyRichText(root map[string]any) bool {
	if len(root) == 0 {
		return true
	}
	return !hasText(root)
}

func hasText(node map[string]any) bool {
	if text, ok := node["text"].(string); ok && strings.TrimSpace(text) != "" {
		return true
	}
	content, ok := node["content"].([]any)
	if !ok {
		return false
	}
	for _, item := range content {
		if child, ok := item.(map[string]any); ok && hasText(child) {
			return true
		}
	}
	return false
}
