package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/ai"
	"github.com/spigell/careermatch/internal/ai/gemini"
	"github.com/spigell/careermatch/internal/ai/openai"
	"github.com/spigell/careermatch/internal/clustering"
	"github.com/spigell/careermatch/internal/embedding"
	"github.com/spigell/careermatch/internal/filtering"
	"github.com/spigell/careermatch/internal/jsearch"
	"github.com/spigell/careermatch/internal/logger"
	"github.com/spigell/careermatch/internal/matching"
	"github.com/spigell/careermatch/internal/metrics"
	"github.com/spigell/careermatch/internal/pipeline"
	"github.com/spigell/careermatch/internal/posting"
	"github.com/spigell/careermatch/internal/secrets"
	"github.com/spigell/careermatch/internal/skills"
)

// bootstrap builds the logger and reads the config shared by every command.
func bootstrap() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	metrics.Register()

	return logger, config
}

// flushMetrics writes the metrics textfile when one is configured.
func flushMetrics(logger *zap.Logger, config *Config) {
	if config.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
		logger.Warn("writing metrics", zap.Error(err))
		return
	}
	logger.Debug("metrics written", zap.String("filename", config.MetricsFile))
}

func loadVocabulary(config SkillsConfig) (skills.Vocabulary, skills.MatchMode, error) {
	mode, err := skills.ParseMatchMode(config.Match)
	if err != nil {
		return nil, "", err
	}

	vocab := skills.DefaultVocabulary()
	if len(config.Vocabulary) > 0 {
		vocab = skills.Merge(config.Vocabulary)
	}

	if config.VocabularyFile != "" {
		extra, err := skills.LoadVocabularyFile(config.VocabularyFile)
		if err != nil {
			return nil, "", err
		}
		vocab = skills.Merge(vocab, extra)
	}

	return vocab, mode, nil
}

// newOrchestrator wires every pipeline collaborator from the config.
// The posting source is optional so offline commands work without a search key.
func newOrchestrator(ctx context.Context, config *Config, logger *zap.Logger, needFetcher bool) (*pipeline.Orchestrator, error) {
	vocab, mode, err := loadVocabulary(config.Skills)
	if err != nil {
		return nil, fmt.Errorf("loading skills vocabulary: %w", err)
	}

	orch := &pipeline.Orchestrator{
		Scorer:     matching.NewScorer(config.Matching.TopNGap, mode, logger),
		Vocabulary: vocab,
		Mode:       mode,
		Filters: []filtering.Filter{
			filtering.NewExcludedCompanies(config.Search.ExcludeCompanies),
			filtering.NewExcludeFile(config.Search.ExcludeFile),
		},
		Timeouts: pipeline.Timeouts{
			Fetch:    config.Timeouts.Fetch,
			Embed:    config.Timeouts.Embed,
			Generate: config.Timeouts.Generate,
		},
		Logger: logger,
	}

	if needFetcher {
		client, err := newSearchClient(config.Search, logger)
		if err != nil {
			return nil, err
		}
		orch.Fetcher = client
	}

	embedder, err := newEmbedder(ctx, config.Embedding, logger)
	if err != nil {
		logger.Warn("clustering is unavailable", zap.Error(err))
	} else {
		orch.Clusterer = clustering.NewEngine(embedder, clustering.KMeans{
			Seed:          config.Clustering.Seed,
			Restarts:      config.Clustering.Restarts,
			MaxIterations: config.Clustering.MaxIterations,
		}, logger)
	}

	return orch, nil
}

func newSearchClient(config SearchConfig, logger *zap.Logger) (*jsearch.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "jsearch api key",
		File:  config.APIKeyFile,
		Value: config.APIKey,
		Env:   "JSEARCH_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set search.api-key-file or JSEARCH_API_KEY)", err)
	}

	client := jsearch.New(logger, apiKey, jsearch.Options{
		MaxQueries: config.MaxQueries,
		Pages:      config.Pages,
		Delay:      config.Delay,
		Seed:       config.Seed,
	})
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	return client, nil
}

func newEmbedder(ctx context.Context, config EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	var apiKey string
	if provider == embedding.ProviderOpenAI || provider == embedding.ProviderGemini {
		key, err := secrets.Load(secrets.Source{
			Name:  provider + " embedding api key",
			File:  config.APIKeyFile,
			Value: config.APIKey,
			Env:   strings.ToUpper(provider) + "_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	return embedding.New(ctx, embedding.Config{
		Provider:   provider,
		Model:      config.Model,
		Dimensions: config.Dimensions,
		BaseURL:    config.BaseURL,
		APIKey:     apiKey,
		Cache:      config.Cache,
	}, logger)
}

// newAssistant builds the provider chain. Providers without credentials are skipped
// with a warning; nil is returned when none are usable.
func newAssistant(ctx context.Context, config AssistantConfig, log *zap.Logger) ai.Responder {
	var providers []ai.Named

	for _, name := range config.Providers {
		name = strings.ToLower(strings.TrimSpace(name))

		responder, err := newProvider(ctx, name, config, log)
		if err != nil {
			log.Warn("skipping assistant provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		providers = append(providers, ai.Named{Name: name, Responder: responder})
	}

	if len(providers) == 0 {
		return nil
	}

	return &ai.Fallback{Providers: providers, Logger: log}
}

func newProvider(ctx context.Context, name string, config AssistantConfig, log *zap.Logger) (ai.Responder, error) {
	switch name {
	case "openai":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			File:  config.OpenAI.APIKeyFile,
			Value: config.OpenAI.APIKey,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		return openai.NewResponder(openai.Config{
			APIKey:      apiKey,
			BaseURL:     config.OpenAI.BaseURL,
			Model:       config.OpenAI.Model,
			MaxTokens:   config.OpenAI.MaxTokens,
			Temperature: config.OpenAI.Temperature,
		}, log)
	case "gemini":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  config.Gemini.APIKeyFile,
			Value: config.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}

		genLogger := log.With(zap.Int("ai_retry_attempts", config.Gemini.MaxRetries))
		return gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, config.Gemini.MaxRetries, genLogger)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
}

// loadResume reads the resume at path into a fresh session.
func loadResume(ctx context.Context, orch *pipeline.Orchestrator, path string, logger *zap.Logger) *pipeline.Session {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}

	session := pipeline.NewSession()
	if err := orch.LoadResume(ctx, session, path, data); err != nil {
		logger.Fatal("loading resume", zap.Error(err), zap.String("filename", path))
	}

	return session
}

// readPostingsFile loads an exported array of raw posting records.
func readPostingsFile(path string) (posting.Postings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return posting.Postings{}, err
	}

	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return posting.Postings{}, fmt.Errorf("parsing postings file %q: %w", path, err)
	}

	return posting.NormalizeAll(raws)
}
