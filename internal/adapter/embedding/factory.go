package embedding

import (
	"fmt"

	"musicrec/config"
	"musicrec/internal/port"
)

// New builds the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := Options{
		Timeout:         cfg.Timeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}

	switch cfg.Provider {
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL, opts), nil
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "compatible":
		e, err := NewCompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "hash", "mock":
		return NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
