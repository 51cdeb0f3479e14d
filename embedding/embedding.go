package embedding

import (
	"context"
	"fmt"

	"github.com/companionkit/knowrouter/common/httpx"
	"github.com/companionkit/knowrouter/config"
)

// Provider turns text into a dense vector for semantic recall.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// New builds a provider from configuration. All outbound calls go
// through the shared httpx client.
func New(cfg config.EmbeddingConfig, hc *httpx.Client) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAIProvider(cfg, hc), nil
	default:
		return nil, fmt.Errorf("embedding: unsupported provider %q", cfg.Provider)
	}
}
