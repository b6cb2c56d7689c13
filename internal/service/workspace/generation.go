package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"draftly/internal/domain"
	"draftly/internal/domain/models/workspace"
	wssvc "draftly/internal/domain/services/workspace"
)

const (
	generateMaxTokens = 8192
	defaultMaxTokens  = 4096

	// The model sometimes returns invalid JSON; one retry covers most
	// transient formatting failures.
	maxParseAttempts = 2
)

// generationService implements the GenerationService interface over a
// provider registry. All prompts request strict JSON output in the
// {patches, message} contract shape.
type generationService struct {
	registry *ProviderRegistry
	model    string
	logger   *slog.Logger
}

// NewGenerationService creates the generation service. model selects the
// provider through the registry by prefix.
func NewGenerationService(registry *ProviderRegistry, model string, logger *slog.Logger) wssvc.GenerationService {
	return &generationService{registry: registry, model: model, logger: logger}
}

func (s *generationService) Generate(ctx context.Context, req *wssvc.GenerateRequest) (*workspace.GenerationResult, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, fmt.Errorf("%w: instruction is required", domain.ErrValidation)
	}

	docType := req.DocType
	if docType == "" {
		docType = workspace.DefaultDocType
	}

	system := fmt.Sprintf(`Tu es un assistant spécialisé dans la rédaction de documents professionnels.
Tu dois générer le contenu d'un document de type %q.

INSTRUCTIONS :
- Génère le contenu sous forme de blocs JSON compatibles avec le format DocModel.
- Chaque bloc a un "type" parmi : rich_text, line_items, clause, terms, signature.
- Pour les blocs rich_text/clause/terms, le "content" est du JSON ProseMirror (Tiptap).
  IMPORTANT : utilise les noms de nœuds Tiptap en camelCase : "bulletList", "orderedList", "listItem", "codeBlock", "hardBreak", "horizontalRule" (PAS "bullet_list", "list_item", etc.).
- Pour les blocs line_items, fournis des "items" structurés.
- Réponds UNIQUEMENT avec un JSON valide, sans texte autour.

FORMAT DE RÉPONSE (JSON) :
{
  "patches": [
    {"op": "add_block", "value": {"type": "rich_text", "id": "<uuid>", "label": "Introduction", "content": {"type": "doc", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "..."}]}]}}}
  ],
  "message": "Document généré avec succès."
}

%s`, docType, collectionContext(req.CollectionIDs))

	return s.run(ctx, system, req.Instruction, generateMaxTokens,
		workspace.PatchOpAddBlock, "Document généré.",
		"Erreur lors de la génération : le modèle n'a pas renvoyé un JSON valide.")
}

// collectionContext builds the grounding section of the generate prompt.
// Retrieval runs provider-side; the prompt names the collections to draw
// from and asks for cited sources.
func collectionContext(ids []string) string {
	if len(ids) == 0 {
		return "Aucun contexte documentaire disponible."
	}
	return fmt.Sprintf(`CONTEXTE :
- Appuie-toi sur les collections de référence suivantes : %s.
- Cite tes sources quand tu utilises le contexte, via le champ "sources" de la réponse ({"document_filename": "...", "page_number": ...}).`,
		strings.Join(ids, ", "))
}

func (s *generationService) RewriteBlock(ctx context.Context, req *wssvc.RewriteBlockRequest) (*workspace.GenerationResult, error) {
	if req.Model == nil {
		return nil, fmt.Errorf("%w: document model is required", domain.ErrValidation)
	}
	idx := req.Model.BlockByID(req.BlockID)
	if idx < 0 {
		return &workspace.GenerationResult{
			Message: fmt.Sprintf("Bloc %s introuvable.", req.BlockID),
		}, nil
	}

	blockJSON, err := json.Marshal(req.Model.Blocks[idx])
	if err != nil {
		return nil, fmt.Errorf("encode block: %w", err)
	}

	system := fmt.Sprintf(`Tu es un assistant spécialisé dans la rédaction de documents professionnels.
Tu dois réécrire un bloc de document selon les instructions de l'utilisateur.

BLOC ACTUEL :
%s

INSTRUCTIONS :
- Réécris le contenu du bloc selon l'instruction de l'utilisateur.
- Conserve le même type de bloc et le même id.
- Pour rich_text/clause/terms, le "content" est du JSON ProseMirror (Tiptap).
  IMPORTANT : utilise les noms de nœuds Tiptap en camelCase : "bulletList", "orderedList", "listItem", "codeBlock", "hardBreak", "horizontalRule" (PAS "bullet_list", "list_item", etc.).
- Réponds UNIQUEMENT avec un JSON valide.

FORMAT DE RÉPONSE (JSON) :
{
  "patches": [
    {"op": "replace_block", "block_id": %q, "value": {"...": "bloc réécrit"}}
  ],
  "message": "Bloc réécrit."
}`, blockJSON, req.BlockID)

	instruction := req.Instruction
	if instruction == "" {
		instruction = "Réécris ce bloc en améliorant la clarté et le style."
	}

	return s.run(ctx, system, instruction, defaultMaxTokens,
		workspace.PatchOpReplaceBlock, "Bloc réécrit.",
		"Erreur lors de la réécriture : le modèle n'a pas renvoyé un JSON valide.")
}

func (s *generationService) CheckDocument(ctx context.Context, req *wssvc.CheckDocumentRequest) (*workspace.GenerationResult, error) {
	if req.Model == nil {
		return nil, fmt.Errorf("%w: document model is required", domain.ErrValidation)
	}
	docJSON, err := json.MarshalIndent(req.Model, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	system := fmt.Sprintf(`Tu es un assistant expert en vérification de documents professionnels.

DOCUMENT À VÉRIFIER :
%s

INSTRUCTION :
Vérifie la cohérence générale, les doublons, les sections manquantes, et la qualité rédactionnelle.

Réponds avec un résumé clair des problèmes trouvés, suggestions d'amélioration, et un JSON de patches si des corrections sont nécessaires.

FORMAT DE RÉPONSE (JSON) :
{
  "patches": [],
  "message": "Résumé des vérifications effectuées..."
}`, docJSON)

	return s.run(ctx, system, "Effectue la vérification.", defaultMaxTokens,
		workspace.PatchOpReplaceBlock, "Vérification terminée.",
		"Erreur lors de la vérification : le modèle n'a pas renvoyé un JSON valide.")
}

func (s *generationService) AddLineItems(ctx context.Context, req *wssvc.AddLineItemsRequest) (*workspace.GenerationResult, error) {
	if req.Model == nil {
		return nil, fmt.Errorf("%w: document model is required", domain.ErrValidation)
	}
	idx := req.Model.BlockByID(req.BlockID)
	if idx < 0 || req.Model.Blocks[idx].Type != workspace.BlockTypeLineItems {
		return &workspace.GenerationResult{
			Message: fmt.Sprintf("Bloc line_items %s introuvable.", req.BlockID),
		}, nil
	}

	items := req.Model.Blocks[idx].Fields["items"]
	if items == nil {
		items = []any{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	system := fmt.Sprintf(`Tu es un assistant spécialisé dans la création de lignes de devis/facture.

LIGNES EXISTANTES :
%s

INSTRUCTIONS :
- Crée une nouvelle ligne d'après la description de l'utilisateur.
- Réponds UNIQUEMENT avec un JSON valide.

FORMAT DE RÉPONSE (JSON) :
{
  "patches": [
    {"op": "add_line_item", "block_id": %q, "value": {
      "id": "<uuid>",
      "description": "...",
      "quantity": 1,
      "unit": "unité",
      "unit_price": 0,
      "tax_rate": 20,
      "total": 0
    }}
  ],
  "message": "Ligne ajoutée."
}`, itemsJSON, req.BlockID)

	return s.run(ctx, system, req.Description, defaultMaxTokens,
		workspace.PatchOpAddLineItem, "Ligne ajoutée.",
		"Erreur lors de l'ajout de ligne : le modèle n'a pas renvoyé un JSON valide.")
}

// run executes the completion with parse retries and returns the parsed
// result. Parse failure after all attempts yields an error-message result
// with no patches rather than a hard error, matching the contract that a
// generation never leaves the document half-mutated.
func (s *generationService) run(ctx context.Context, system, prompt string, maxTokens int, defaultOp, defaultMessage, failureMessage string) (*workspace.GenerationResult, error) {
	provider, err := s.registry.ForModel(s.model)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		raw, err := provider.Complete(ctx, &CompletionRequest{
			Model:     s.model,
			System:    system,
			Prompt:    prompt,
			MaxTokens: maxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
		}

		result, err := parseGenerationResult(raw, defaultOp, defaultMessage)
		if err != nil {
			lastErr = err
			s.logger.Warn("generation response parse failed",
				"attempt", attempt, "max_attempts", maxParseAttempts,
				"error", err, "raw_prefix", truncate(raw, 300))
			continue
		}
		if len(result.Patches) == 0 {
			s.logger.Warn("generation returned valid JSON but no patches")
		}
		return result, nil
	}

	s.logger.Error("all generation parse attempts failed", "error", lastErr)
	return &workspace.GenerationResult{Message: failureMessage}, nil
}

// parseGenerationResult extracts {patches, sources, message} from a raw
// model response.
func parseGenerationResult(raw, defaultOp, defaultMessage string) (*workspace.GenerationResult, error) {
	text, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	result := &workspace.GenerationResult{Message: defaultMessage}
	if msg := gjson.Get(text, "message"); msg.Exists() {
		result.Message = msg.String()
	}

	for _, p := range gjson.Get(text, "patches").Array() {
		patch := workspace.Patch{
			Op:      defaultOp,
			BlockID: p.Get("block_id").String(),
		}
		if op := p.Get("op"); op.Exists() {
			patch.Op = op.String()
		}
		if value, ok := p.Get("value").Value().(map[string]any); ok {
			patch.Value = value
		} else {
			patch.Value = map[string]any{}
		}
		result.Patches = append(result.Patches, patch)
	}

	if sources := gjson.Get(text, "sources"); sources.Exists() {
		if err := json.Unmarshal([]byte(sources.Raw), &result.Sources); err != nil {
			// Citations are provenance only; a malformed list is dropped.
			result.Sources = nil
		}
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
