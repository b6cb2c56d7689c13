package workspace

import (
	"strings"
)

// Patch op constants. The structural ops (add_block, replace_block) are the
// core protocol; the remaining ops are convenience mutations the generation
// service may emit for targeted actions.
const (
	PatchOpAddBlock        = "add_block"
	PatchOpReplaceBlock    = "replace_block"
	PatchOpAddLineItem     = "add_line_item"
	PatchOpUpdateVariables = "update_variables"
	PatchOpAddSource       = "add_source"
)

// Patch is one structural mutation instruction produced by the generation
// service. BlockID targets an existing block for replace_block and
// add_line_item; it is ignored for add_block. Value is a full or partial
// block payload (or, for the convenience ops, the item / variable map /
// source to merge in).
type Patch struct {
	Op      string         `json:"op"`
	BlockID string         `json:"block_id,omitempty"`
	Value   map[string]any `json:"value"`
}

// GenerationResult is the generation service's response: a human-readable
// message plus a list of patches to apply in order. Sources carry the
// retrieval citations behind the generated content.
type GenerationResult struct {
	Patches []Patch     `json:"patches"`
	Sources []DocSource `json:"sources"`
	Message string      `json:"message"`
}

// errorIndicators are substrings that mark a generation message as a
// reported failure. The upstream service writes French user-facing
// messages, so both languages are checked.
var errorIndicators = []string{"erreur", "error", "échec", "failed"}

// Failed reports whether a patchless result should be treated as a failed
// generation (message carries an error indicator) rather than an empty one.
func (r *GenerationResult) Failed() bool {
	if len(r.Patches) > 0 {
		return false
	}
	msg := strings.ToLower(r.Message)
	for _, ind := range errorIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}
