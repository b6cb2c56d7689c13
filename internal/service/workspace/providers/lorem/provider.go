package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	"github.com/google/uuid"

	wssvc "draftly/internal/service/workspace"
)

// Provider is a mock generation provider that answers every prompt with a
// lorem ipsum rich text patch. Used for development and tests without real
// API keys.
type Provider struct {
	generator *loremgen.Lorem
	delay     time.Duration
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
		delay:     200 * time.Millisecond,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Complete returns a JSON response in the generation contract shape: a
// message plus one add_block patch carrying a lorem ipsum paragraph.
func (p *Provider) Complete(ctx context.Context, req *wssvc.CompletionRequest) (string, error) {
	if !p.SupportsModel(req.Model) {
		return "", fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	// Simulate a short provider round trip.
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	paragraph := p.generator.Paragraph(2, 4)
	response := map[string]any{
		"message": "Contenu généré.",
		"patches": []map[string]any{
			{
				"op": "add_block",
				"value": map[string]any{
					"id":   uuid.New().String(),
					"type": "rich_text",
					"content": map[string]any{
						"type": "doc",
						"content": []map[string]any{
							{
								"type": "paragraph",
								"content": []map[string]any{
									{"type": "text", "text": paragraph},
								},
							},
						},
					},
				},
			},
		},
		"sources": []any{},
	}

	data, err := json.Marshal(response)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
