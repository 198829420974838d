// Package clustering groups ranked postings by the semantic content of their descriptions.
package clustering

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/embedding"
	"github.com/spigell/careermatch/internal/posting"
)

// ErrNoContent is returned when every posting has an empty description.
var ErrNoContent = errors.New("no content to cluster: every posting description is empty")

type Outcome int

const (
	Clustered Outcome = iota
	// Skipped means there were fewer postings than requested clusters.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Clustered:
		return "clustered"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Point is one plottable posting.
type Point struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Cluster int     `json:"cluster"`
	Title   string  `json:"title"`
	Company string  `json:"company"`
}

// Result holds the clustering output. Ranked is always the input as given;
// Postings and Points are set only when Outcome is Clustered.
type Result struct {
	Ranked   []posting.Ranked
	Postings []posting.Clustered
	Points   []Point
	Outcome  Outcome
}

// Engine embeds descriptions, partitions them with k-means and projects them to 2D.
// It keeps no state between calls.
type Engine struct {
	Embedder embedding.Embedder
	KMeans   KMeans
	Logger   *zap.Logger
}

func NewEngine(e embedding.Embedder, km KMeans, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Embedder: e, KMeans: km, Logger: logger}
}

// Cluster assigns each posting one of k cluster ids.
// Fewer postings than k (including none) is not an error: the input comes back unchanged with Outcome Skipped.
func (e *Engine) Cluster(ctx context.Context, ranked []posting.Ranked, k int) (Result, error) {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if k <= 0 {
		return Result{}, fmt.Errorf("cluster count must be positive, got %d", k)
	}

	if len(ranked) == 0 || len(ranked) < k {
		log.Info("clustering skipped",
			zap.Int("posting_count", len(ranked)),
			zap.Int("k", k),
		)
		return Result{Ranked: ranked, Outcome: Skipped}, nil
	}

	texts := make([]string, len(ranked))
	hasContent := false
	for i, item := range ranked {
		texts[i] = item.Description
		if strings.TrimSpace(item.Description) != "" {
			hasContent = true
		}
	}
	if !hasContent {
		return Result{}, ErrNoContent
	}

	vectors, err := embedding.EmbedAll(ctx, e.Embedder, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embed descriptions: %w", err)
	}

	km := e.KMeans
	km.K = k
	fit, err := km.Fit(vectors)
	if err != nil {
		return Result{}, fmt.Errorf("partition embeddings: %w", err)
	}

	coords := Project2D(vectors)

	result := Result{
		Ranked:   ranked,
		Postings: make([]posting.Clustered, len(ranked)),
		Points:   make([]Point, len(ranked)),
		Outcome:  Clustered,
	}
	for i, item := range ranked {
		result.Postings[i] = posting.Clustered{
			Ranked:  item,
			Cluster: fit.Labels[i],
			X:       coords[i][0],
			Y:       coords[i][1],
		}
		result.Points[i] = Point{
			X:       coords[i][0],
			Y:       coords[i][1],
			Cluster: fit.Labels[i],
			Title:   item.Title,
			Company: item.Company,
		}
	}

	log.Info("clustering finished",
		zap.Int("posting_count", len(ranked)),
		zap.Int("k", k),
		zap.Float64("inertia", fit.Inertia),
	)

	return result, nil
}

// Groups splits clustered postings by cluster id, in id order, preserving input order within a group.
func Groups(clustered []posting.Clustered) [][]posting.Clustered {
	maxID := -1
	for _, item := range clustered {
		maxID = max(maxID, item.Cluster)
	}

	groups := make([][]posting.Clustered, maxID+1)
	for _, item := range clustered {
		groups[item.Cluster] = append(groups[item.Cluster], item)
	}
	return groups
}
