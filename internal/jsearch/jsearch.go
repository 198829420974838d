// Package jsearch fetches job postings from the JSearch API on RapidAPI.
package jsearch

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/careermatch/internal/metrics"
	"github.com/spigell/careermatch/internal/posting"
)

const (
	apiURL    = "https://jsearch.p.rapidapi.com"
	apiHost   = "jsearch.p.rapidapi.com"
	userAgent = "spigell/careermatch"

	DefaultMaxQueries = 5
	DefaultPages      = 2
	DefaultDelay      = 500 * time.Millisecond
)

// ErrAllRequestsFailed is returned when not a single search request succeeded.
var ErrAllRequestsFailed = errors.New("all search requests failed")

type Options struct {
	MaxQueries int
	Pages      int
	// Delay is the minimum interval between requests. Zero disables rate limiting.
	Delay time.Duration
	// Seed shuffles the query list before sampling. Zero keeps the first MaxQueries queries.
	Seed uint64
}

type Client struct {
	apiKey     string
	logger     *zap.Logger
	limiter    *rate.Limiter
	opts       Options
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	APIHost    string
}

func New(logger *zap.Logger, apiKey string, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = DefaultMaxQueries
	}
	if opts.Pages <= 0 {
		opts.Pages = DefaultPages
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Client{
		apiKey:  apiKey,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: userAgent,
		APIURL:    apiURL,
		APIHost:   apiHost,
	}
}

// Queries pairs consecutive skills into search queries and samples at most max of them.
func Queries(skills []string, max int, seed uint64) []string {
	var queries []string
	for i := 0; i < len(skills); i += 2 {
		end := min(i+2, len(skills))
		queries = append(queries, strings.Join(skills[i:end], " "))
	}

	if seed != 0 {
		rng := rand.New(rand.NewPCG(seed, seed))
		rng.Shuffle(len(queries), func(i, j int) {
			queries[i], queries[j] = queries[j], queries[i]
		})
	}

	if max > 0 && len(queries) > max {
		queries = queries[:max]
	}
	return queries
}

// FetchPostings searches every sampled query over the configured pages.
// A failing page is logged and skipped; an error is returned only when every request failed.
func (c *Client) FetchPostings(ctx context.Context, skills []string) (posting.Postings, error) {
	result := posting.Postings{}
	if len(skills) == 0 {
		c.logger.Warn("no skills provided for search")
		return result, nil
	}

	queries := Queries(skills, c.opts.MaxQueries, c.opts.Seed)
	c.logger.Info("searching postings", zap.Strings("queries", queries), zap.Int("pages", c.opts.Pages))

	var (
		requests, failures int
		lastErr            error
	)

	for _, q := range queries {
		for page := 1; page <= c.opts.Pages; page++ {
			if err := c.limiter.Wait(ctx); err != nil {
				return result, err
			}

			requests++
			raws, err := c.search(ctx, q, page)
			if err != nil {
				failures++
				lastErr = err
				metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
				c.logger.Warn("search request failed",
					zap.String("query", q),
					zap.Int("page", page),
					zap.Error(err),
				)
				continue
			}
			metrics.SearchRequestsTotal.WithLabelValues("success").Inc()

			if len(raws) == 0 {
				c.logger.Debug("no postings on page", zap.String("query", q), zap.Int("page", page))
				continue
			}

			for i, raw := range raws {
				p, err := posting.Normalize(raw)
				if err != nil {
					c.logger.Warn("skip malformed posting", zap.String("query", q), zap.Int("index", i), zap.Error(err))
					continue
				}
				p.SearchTerm = q
				result.Items = append(result.Items, p)
			}
		}
	}

	if requests > 0 && failures == requests {
		return posting.Postings{}, errors.Join(ErrAllRequestsFailed, lastErr)
	}

	dropped := result.DedupByLink()
	metrics.PostingsFetchedTotal.Add(float64(result.Len()))

	c.logger.Info("search finished",
		zap.Int("posting_count", result.Len()),
		zap.Int("duplicates_dropped", dropped),
		zap.Int("failed_requests", failures),
	)

	return result, nil
}
