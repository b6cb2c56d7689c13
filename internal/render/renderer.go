// Package render maps a block's declared type to a rendering strategy,
// validating before rendering and degrading gracefully on mismatch. It is
// pure with respect to the document store: rendering never mutates state.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"

	"draftly/internal/domain/models/workspace"
	"draftly/internal/schema"
)

// Mode selects the rendering surface.
type Mode int

const (
	// ModeEdit renders blocks for the editable surface.
	ModeEdit Mode = iota
	// ModePreview renders blocks for the read-only preview surface.
	// Attachments are excluded by policy and empty rich text renders
	// nothing.
	ModePreview
)

// ErrorView is the uniform inline error surface for blocks that cannot be
// rendered. Raw carries the pretty-printed payload so problems can be
// diagnosed without developer tools; the view is visible, never a silent
// drop.
type ErrorView struct {
	Message string `json:"message"`
	Raw     string `json:"raw"`
}

// Output is the result of rendering one block. Exactly one of HTML / Err is
// meaningful; a block excluded by preview policy yields both empty, with
// Skipped set.
type Output struct {
	BlockID string     `json:"block_id"`
	Type    string     `json:"type"`
	HTML    string     `json:"html,omitempty"`
	Skipped bool       `json:"skipped,omitempty"`
	Err     *ErrorView `json:"error,omitempty"`
}

// Renderer dispatches blocks to type-specific renderers. Rich-text output
// passes through an HTML sanitizer since trees originate from an external
// generation service.
type Renderer struct {
	policy *bluemonday.Policy
}

// New creates a renderer with a UGC sanitation policy.
func New() *Renderer {
	return &Renderer{policy: bluemonday.UGCPolicy()}
}

// Render renders a single block for the given mode. It never panics and
// never drops a block silently:
//   - unknown type        -> error view naming the offending type
//   - failed validation   -> error view with the joined field errors
//   - valid               -> type-specific renderer
func (r *Renderer) Render(block workspace.Block, mode Mode) Output {
	out := Output{BlockID: block.ID, Type: block.Type}

	normalized, fieldErrs, err := schema.ValidateBlock(block)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownType) {
			out.Err = &ErrorView{
				Message: fmt.Sprintf("unknown block type %q", block.Type),
				Raw:     prettyPayload(block),
			}
			return out
		}
		out.Err = &ErrorView{Message: err.Error(), Raw: prettyPayload(block)}
		return out
	}
	if len(fieldErrs) > 0 {
		out.Err = &ErrorView{
			Message: schema.JoinFieldErrors(fieldErrs),
			Raw:     prettyPayload(block),
		}
		return out
	}

	switch block.Type {
	case workspace.BlockTypeRichText, workspace.BlockTypeClause, workspace.BlockTypeTerms:
		out.HTML, out.Skipped = r.renderRichText(normalized, mode)
	case workspace.BlockTypeLineItems:
		out.HTML = r.renderLineItems(normalized)
	case workspace.BlockTypeSignature:
		out.HTML = r.renderSignature(normalized)
	case workspace.BlockTypeVariables:
		out.HTML = r.renderVariables(normalized)
	case workspace.BlockTypeAttachments:
		if mode == ModePreview {
			// Policy exclusion, not an error.
			out.Skipped = true
		} else {
			out.HTML = r.renderAttachments(normalized)
		}
	}
	return out
}

// RenderError produces the error view used for action-level failures that
// have block context (e.g. a patch that produced an unrenderable block).
func RenderError(message string, payload any) *ErrorView {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", payload))
	}
	return &ErrorView{Message: message, Raw: string(raw)}
}

// ErrorHTML renders an error view as an inline placeholder block.
func (v *ErrorView) ErrorHTML() string {
	return fmt.Sprintf(
		"<div class=\"block-error\"><p class=\"block-error-message\">%s</p><pre class=\"block-error-raw\">%s</pre></div>\n",
		html.EscapeString(v.Message), html.EscapeString(v.Raw))
}

func prettyPayload(block workspace.Block) string {
	raw, err := json.MarshalIndent(block.Raw(), "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", block.Raw())
	}
	return string(raw)
}
