package workspace

import (
	"encoding/json"
)

// Block type constants - the closed set of content block shapes
const (
	BlockTypeRichText    = "rich_text"
	BlockTypeLineItems   = "line_items"
	BlockTypeClause      = "clause"
	BlockTypeTerms       = "terms"
	BlockTypeSignature   = "signature"
	BlockTypeAttachments = "attachments"
	BlockTypeVariables   = "variables"
)

// KnownBlockTypes lists every block type the schema registry can validate,
// in canonical order.
var KnownBlockTypes = []string{
	BlockTypeRichText,
	BlockTypeLineItems,
	BlockTypeClause,
	BlockTypeTerms,
	BlockTypeSignature,
	BlockTypeAttachments,
	BlockTypeVariables,
}

// IsKnownBlockType reports whether t is a member of the closed block type set.
func IsKnownBlockType(t string) bool {
	switch t {
	case BlockTypeRichText, BlockTypeLineItems, BlockTypeClause,
		BlockTypeTerms, BlockTypeSignature, BlockTypeAttachments,
		BlockTypeVariables:
		return true
	}
	return false
}

// Block is one typed content unit within a document. The common fields
// (id, type, label) are lifted out of the JSON object; everything else is
// the type-specific payload and is kept as-is, since payloads originate
// from an external generation service and are only trusted after passing
// the schema registry.
//
// On the wire a block is a flat object:
//
//	{"type": "rich_text", "id": "b1", "label": "Intro", "content": {...}}
type Block struct {
	ID     string
	Type   string
	Label  string
	Fields map[string]any
}

// MarshalJSON flattens the block back into a single JSON object.
func (b Block) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Fields)+3)
	for k, v := range b.Fields {
		m[k] = v
	}
	m["id"] = b.ID
	m["type"] = b.Type
	if b.Label != "" {
		m["label"] = b.Label
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flat object into common fields and payload.
func (b *Block) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = BlockFromRaw(m)
	return nil
}

// BlockFromRaw builds a Block from a decoded JSON object. Non-string id,
// type or label values are treated as absent rather than rejected; the
// schema registry reports them as field errors.
func BlockFromRaw(raw map[string]any) Block {
	b := Block{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "id":
			if s, ok := v.(string); ok {
				b.ID = s
				continue
			}
		case "type":
			if s, ok := v.(string); ok {
				b.Type = s
				continue
			}
		case "label":
			if s, ok := v.(string); ok {
				b.Label = s
				continue
			}
		}
		b.Fields[k] = v
	}
	return b
}

// Raw returns the flat map form of the block, as the schema registry and
// renderer consume it. The payload fields are shallow-copied so callers can
// annotate the map without mutating the block.
func (b Block) Raw() map[string]any {
	m := make(map[string]any, len(b.Fields)+3)
	for k, v := range b.Fields {
		m[k] = v
	}
	m["id"] = b.ID
	m["type"] = b.Type
	if b.Label != "" {
		m["label"] = b.Label
	}
	return m
}

// Merge shallow-merges a partial raw payload into the block. Common fields
// are updated when present as strings; all other keys overwrite the payload
// key-by-key. The block id is deliberately never cleared: a patch without an
// id keeps the target's identity (ids are stable for the document lifetime).
func (b *Block) Merge(partial map[string]any) {
	for k, v := range partial {
		switch k {
		case "id":
			if s, ok := v.(string); ok && s != "" {
				b.ID = s
			}
		case "type":
			if s, ok := v.(string); ok && s != "" {
				b.Type = s
			}
		case "label":
			if s, ok := v.(string); ok {
				b.Label = s
			}
		default:
			if b.Fields == nil {
				b.Fields = make(map[string]any)
			}
			b.Fields[k] = v
		}
	}
}

// Clone returns a copy of the block with its own payload map. Nested values
// are shared; mutation paths replace values rather than edit them in place.
func (b Block) Clone() Block {
	c := b
	c.Fields = make(map[string]any, len(b.Fields))
	for k, v := range b.Fields {
		c.Fields[k] = v
	}
	return c
}
