package embedding

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/metrics"
)

// ErrDimensionMismatch is returned when a provider yields vectors of different lengths within one batch.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder turns text into a fixed-length vector. Identical input must yield identical output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedAll embeds texts in order and checks that all vectors share one dimension.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed [%d]: %w", i, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("embed [%d]: empty vector", i)
		}
		if i > 0 && len(vec) != len(vectors[0]) {
			return nil, fmt.Errorf("embed [%d]: got %d, want %d: %w", i, len(vec), len(vectors[0]), ErrDimensionMismatch)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// CachedEmbedder keeps embeddings in process memory, keyed by a hash of the text.
type CachedEmbedder struct {
	inner Embedder

	mu    sync.RWMutex
	cache map[[sha256.Size]byte][]float64
}

// NewCached wraps inner with an in-memory cache.
func NewCached(inner Embedder) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: make(map[[sha256.Size]byte][]float64)}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := sha256.Sum256([]byte(text))

	c.mu.RLock()
	vec, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return append([]float64(nil), vec...), nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = append([]float64(nil), vec...)
	c.mu.Unlock()

	return vec, nil
}

// Len returns the number of cached entries.
func (c *CachedEmbedder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// InstrumentedEmbedder records request metrics and logs failures.
type InstrumentedEmbedder struct {
	inner    Embedder
	provider string
	model    string
	logger   *zap.Logger
}

func NewInstrumented(inner Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, provider: provider, model: model, logger: logger}
}

func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()
	vec, err := e.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		e.logger.Warn("embedding request failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())

	e.logger.Debug("embedding request completed",
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(vec)),
	)

	return vec, nil
}
