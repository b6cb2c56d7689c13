package workspace

// CurrentModelVersion is the schema version written for new documents.
const CurrentModelVersion = 1

// DocMeta holds document metadata: a few well-known fields plus free-form
// tags and a custom extension bag.
type DocMeta struct {
	Author    string         `json:"author,omitempty"`
	Client    string         `json:"client,omitempty"`
	Project   string         `json:"project,omitempty"`
	Reference string         `json:"reference,omitempty"`
	Date      string         `json:"date,omitempty"`
	Tags      []string       `json:"tags"`
	Custom    map[string]any `json:"custom"`
}

// DocSource is a retrieval citation attached when the document was generated
// from retrieved context. Provenance only - the editing pipeline never
// mutates these.
type DocSource struct {
	ChunkID          string  `json:"chunk_id"`
	DocumentID       string  `json:"document_id"`
	DocumentFilename string  `json:"document_filename"`
	PageNumber       *int    `json:"page_number,omitempty"`
	Excerpt          string  `json:"excerpt"`
	Score            float64 `json:"score"`
}

// DocModel is the complete versioned content of one document. It is the
// exact shape persisted as the document's content_json column, and the
// contract consumed by previews and PDF export.
type DocModel struct {
	Version   int            `json:"version"`
	Meta      DocMeta        `json:"meta"`
	Blocks    []Block        `json:"blocks"`
	Variables map[string]any `json:"variables"`
	Sources   []DocSource    `json:"sources"`
}

// NewDocModel returns an empty model with every collection initialized.
func NewDocModel() *DocModel {
	m := &DocModel{}
	m.Normalize()
	return m
}

// Normalize fills every missing top-level field with its default so that a
// partial or legacy-shaped stored document becomes a complete model:
// version 1, non-nil blocks/tags/custom/variables/sources. Idempotent -
// normalizing an already-normalized model changes nothing.
func (m *DocModel) Normalize() {
	if m.Version <= 0 {
		m.Version = CurrentModelVersion
	}
	if m.Blocks == nil {
		m.Blocks = []Block{}
	}
	if m.Meta.Tags == nil {
		m.Meta.Tags = []string{}
	}
	if m.Meta.Custom == nil {
		m.Meta.Custom = map[string]any{}
	}
	if m.Variables == nil {
		m.Variables = map[string]any{}
	}
	if m.Sources == nil {
		m.Sources = []DocSource{}
	}
}

// BlockByID returns the index of the block with the given id, or -1.
func (m *DocModel) BlockByID(id string) int {
	for i := range m.Blocks {
		if m.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a structurally independent copy of the model. Blocks and
// top-level collections get fresh backing storage; deeply nested payload
// values are shared (mutations replace, never edit in place).
func (m *DocModel) Clone() *DocModel {
	c := &DocModel{
		Version:   m.Version,
		Meta:      m.Meta,
		Blocks:    make([]Block, len(m.Blocks)),
		Variables: make(map[string]any, len(m.Variables)),
		Sources:   make([]DocSource, len(m.Sources)),
	}
	c.Meta.Tags = append([]string{}, m.Meta.Tags...)
	c.Meta.Custom = make(map[string]any, len(m.Meta.Custom))
	for k, v := range m.Meta.Custom {
		c.Meta.Custom[k] = v
	}
	for i := range m.Blocks {
		c.Blocks[i] = m.Blocks[i].Clone()
	}
	for k, v := range m.Variables {
		c.Variables[k] = v
	}
	copy(c.Sources, m.Sources)
	c.Normalize()
	return c
}
