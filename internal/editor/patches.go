package editor

import (
	"context"
	"fmt"
	"log/slog"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
	"draftly/internal/schema"
)

// Flusher is the immediate write path into persistence, satisfied by the
// autosave engine.
type Flusher interface {
	Flush(ctx context.Context) error
}

// ApplyPatches applies a generation service's proposed mutations to the
// store as one logical unit, then force-persists immediately rather than
// waiting for the debounce - the editor may be navigated away from right
// after generation completes.
//
// Patches are applied in array order. A replace_block whose target id does
// not exist (or whose block_id is empty) is skipped silently; the apply
// loop never aborts on a single bad patch. After the loop the flush reads
// the store's current state, strictly after every patch from this
// operation has landed.
func ApplyPatches(ctx context.Context, patches []workspace.Patch, store *Store, flusher Flusher, logger *slog.Logger) error {
	for _, p := range patches {
		switch p.Op {
		case workspace.PatchOpAddBlock:
			block := workspace.BlockFromRaw(p.Value)
			store.AddBlock(block, "")

		case workspace.PatchOpReplaceBlock:
			if p.BlockID == "" {
				continue
			}
			store.UpdateBlock(p.BlockID, p.Value)

		case workspace.PatchOpAddLineItem:
			if p.BlockID == "" {
				continue
			}
			store.AddLineItem(p.BlockID, p.Value)

		case workspace.PatchOpUpdateVariables:
			store.MergeVariables(p.Value)

		case workspace.PatchOpAddSource:
			store.AddSource(sourceFromRaw(p.Value))

		default:
			if logger != nil {
				logger.Warn("skipping patch with unknown op", "op", p.Op)
			}
		}
	}

	if err := flusher.Flush(ctx); err != nil {
		return err
	}
	return nil
}

// ApplyGeneration validates a generation result and applies its patches.
// A patchless result is never applied: when the message carries an error
// indicator it is a failed generation, otherwise there was nothing to
// apply - both are surfaced to the user and leave the store untouched.
func ApplyGeneration(ctx context.Context, result *workspace.GenerationResult, store *Store, flusher Flusher, logger *slog.Logger) error {
	if len(result.Patches) == 0 {
		if result.Failed() {
			return fmt.Errorf("%w: %s", domain.ErrGeneration, result.Message)
		}
		return fmt.Errorf("%w: la génération n'a produit aucune modification", domain.ErrGeneration)
	}
	return ApplyPatches(ctx, result.Patches, store, flusher, logger)
}

func sourceFromRaw(raw map[string]any) workspace.DocSource {
	src := workspace.DocSource{
		ChunkID:          schema.CoerceString(raw["chunk_id"]),
		DocumentID:       schema.CoerceString(raw["document_id"]),
		DocumentFilename: schema.CoerceString(raw["document_filename"]),
		Excerpt:          schema.CoerceString(raw["excerpt"]),
		Score:            schema.CoerceNumber(raw["score"]),
	}
	if _, ok := raw["page_number"]; ok {
		page := int(schema.CoerceNumber(raw["page_number"]))
		src.PageNumber = &page
	}
	return src
}
