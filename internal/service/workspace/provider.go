package workspace

import (
	"context"
	"fmt"
	"strings"
)

// CompletionRequest is one prompt sent to an LLM provider. The service
// always requests strict JSON output; the response text is parsed by
// parseGenerationResult.
type CompletionRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Provider is a text-completion backend for the generation service.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// SupportsModel reports whether this provider serves the model.
	SupportsModel(model string) bool

	// Complete runs one completion and returns the raw response text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// ProviderRegistry routes models to providers by prefix.
type ProviderRegistry struct {
	providers []Provider
}

// NewProviderRegistry creates a registry over the given providers.
func NewProviderRegistry(providers ...Provider) *ProviderRegistry {
	return &ProviderRegistry{providers: providers}
}

// Register adds a provider to the registry.
func (r *ProviderRegistry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// ForModel returns the provider that supports the model.
func (r *ProviderRegistry) ForModel(model string) (Provider, error) {
	for _, p := range r.providers {
		if p.SupportsModel(model) {
			return p, nil
		}
	}
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return nil, fmt.Errorf("no provider supports model %q (registered: %s)", model, strings.Join(names, ", "))
}
