package workspace

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"draftly/internal/domain/models/workspace"
)

// TemplateSet maps doc types to the blocks a fresh document starts with.
type TemplateSet struct {
	templates map[string][]map[string]any
}

type templateFile struct {
	DocTypes map[string]struct {
		Blocks []map[string]any `yaml:"blocks"`
	} `yaml:"doc_types"`
}

// LoadTemplates reads doc-type template definitions from a YAML file.
// A missing path yields an empty set; new documents then start blank.
func LoadTemplates(path string) (*TemplateSet, error) {
	set := &TemplateSet{templates: map[string][]map[string]any{}}
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for docType, def := range file.DocTypes {
		set.templates[docType] = def.Blocks
	}
	return set, nil
}

// BlocksFor returns fresh blocks for the doc type, each with a new id so
// two documents never share block identities. Unknown doc types get none.
func (s *TemplateSet) BlocksFor(docType string) []workspace.Block {
	defs := s.templates[docType]
	blocks := make([]workspace.Block, 0, len(defs))
	for _, def := range defs {
		raw := map[string]any{}
		for k, v := range def {
			raw[k] = v
		}
		raw["id"] = uuid.New().String()
		blocks = append(blocks, workspace.BlockFromRaw(raw))
	}
	return blocks
}
