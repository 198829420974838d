package embedding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/embedding/gemini"
	"github.com/spigell/careermatch/internal/embedding/local"
	"github.com/spigell/careermatch/internal/embedding/openai"
	"github.com/spigell/careermatch/internal/logger"
)

const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider   string
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
	Cache      bool
}

// New builds the configured provider wrapped with instrumentation and, optionally, an in-memory cache.
func New(ctx context.Context, cfg Config, log *zap.Logger) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderLocal
	}

	var (
		inner Embedder
		model string
	)

	switch provider {
	case ProviderLocal:
		e := local.New(cfg.Dimensions)
		inner, model = e, fmt.Sprintf("hashing-%d", e.Dimensions())
	case ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("openai embedding provider requires an api key")
		}
		e := openai.NewEmbedder(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		inner, model = e, e.Model()
	case ProviderGemini:
		e, err := gemini.NewEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		inner, model = e, e.Model()
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	embLogger := logger.WithProvider(log, provider, model)
	var e Embedder = NewInstrumented(inner, provider, model, embLogger)
	if cfg.Cache {
		e = NewCached(e)
	}

	embLogger.Debug("embedding provider ready", zap.Bool("cache", cfg.Cache))

	return e, nil
}
