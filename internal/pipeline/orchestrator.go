// Package pipeline sequences resume loading, posting search, ranking and clustering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/ai"
	"github.com/spigell/careermatch/internal/clustering"
	"github.com/spigell/careermatch/internal/document"
	"github.com/spigell/careermatch/internal/filtering"
	"github.com/spigell/careermatch/internal/logger"
	"github.com/spigell/careermatch/internal/matching"
	"github.com/spigell/careermatch/internal/metrics"
	"github.com/spigell/careermatch/internal/posting"
	"github.com/spigell/careermatch/internal/skills"
)

// ContextPostings is how many top postings are handed to the assistant as context.
const ContextPostings = 5

// Extractor turns an uploaded file into text.
type Extractor func(name string, data []byte) (string, error)

// Fetcher searches postings for a list of skills.
type Fetcher interface {
	FetchPostings(ctx context.Context, skills []string) (posting.Postings, error)
}

// Clusterer groups ranked postings into k clusters.
type Clusterer interface {
	Cluster(ctx context.Context, ranked []posting.Ranked, k int) (clustering.Result, error)
}

// Timeouts bound each collaborator call. Zero means no timeout.
type Timeouts struct {
	Fetch    time.Duration
	Embed    time.Duration
	Generate time.Duration
}

// Orchestrator threads values between the pipeline stages. It holds configuration
// only; all per-resume state lives in the Session passed to each call.
type Orchestrator struct {
	Extract    Extractor
	Fetcher    Fetcher
	Filters    []filtering.Filter
	Scorer     *matching.Scorer
	Clusterer  Clusterer
	Vocabulary skills.Vocabulary
	Mode       skills.MatchMode
	Timeouts   Timeouts
	Logger     *zap.Logger
}

func (o *Orchestrator) sessionLogger(s *Session) *zap.Logger {
	if s == nil {
		return logger.WithFields(o.Logger)
	}
	return logger.WithSession(o.Logger, s.ID)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// LoadResume extracts text from the uploaded file, detects skills and resets the session.
// On failure the session is left untouched.
func (o *Orchestrator) LoadResume(_ context.Context, s *Session, name string, data []byte) error {
	extract := o.Extract
	if extract == nil {
		extract = document.ExtractText
	}

	text, err := extract(name, data)
	if err != nil {
		return &CollaboratorError{Kind: KindExtract, Err: err}
	}

	o.SetResumeText(s, name, text)
	return nil
}

// SetResumeText replaces the session with a resume given as plain text.
func (o *Orchestrator) SetResumeText(s *Session, name, text string) {
	id := s.ID
	*s = Session{
		ID:         id,
		ResumeName: name,
		ResumeText: text,
		Skills:     skills.Extract(text, o.Vocabulary, o.Mode),
		LoadedAt:   time.Now(),
	}

	o.sessionLogger(s).Info("resume loaded",
		zap.String("name", name),
		zap.Int("text_length", len(text)),
		zap.Strings("skills", s.Skills.Sorted()),
	)
}

// SkillList returns the session skills in vocabulary order.
func (o *Orchestrator) SkillList(s *Session) []string {
	out := make([]string, 0, s.Skills.Len())
	for _, term := range o.Vocabulary {
		if s.Skills.Has(term) {
			out = append(out, term)
		}
	}
	return out
}

// Search fetches postings for the resume skills, applies the filters and ranks the rest.
// A fetch failure or timeout leaves the previous ranking in place.
func (o *Orchestrator) Search(ctx context.Context, s *Session) (matching.Result, error) {
	if !s.HasResume() {
		return matching.Result{}, ErrNoResume
	}
	if o.Fetcher == nil {
		return matching.Result{}, &CollaboratorError{Kind: KindFetch, Err: errors.New("no posting source configured")}
	}

	fetchCtx, cancel := withTimeout(ctx, o.Timeouts.Fetch)
	defer cancel()

	found, err := o.Fetcher.FetchPostings(fetchCtx, o.SkillList(s))
	if err != nil {
		return matching.Result{}, &CollaboratorError{Kind: KindFetch, Err: err}
	}

	return o.RankPostings(ctx, s, found)
}

// RankPostings filters and ranks an already fetched collection, replacing the
// session ranking and dropping any previous clustering.
func (o *Orchestrator) RankPostings(ctx context.Context, s *Session, found posting.Postings) (matching.Result, error) {
	if !s.HasResume() {
		return matching.Result{}, ErrNoResume
	}
	log := o.sessionLogger(s)

	filtered, err := filtering.Run(ctx, log, o.Filters, &found)
	if err != nil {
		return matching.Result{}, fmt.Errorf("filtering postings: %w", err)
	}

	scorer := o.Scorer
	if scorer == nil {
		scorer = matching.NewScorer(0, o.Mode, log)
	}

	result := scorer.Rank(s.ResumeText, filtered.Items, o.Vocabulary)
	metrics.RankingsTotal.WithLabelValues(result.Outcome.String()).Inc()

	s.Postings = *filtered
	s.Ranking = &result
	s.Clustering = nil

	log.Info("postings ranked",
		zap.Int("posting_count", len(result.Postings)),
		zap.Stringer("outcome", result.Outcome),
		zap.Strings("skill_gap", result.Gap),
	)

	return result, nil
}

// Cluster groups the current ranking into k clusters. Embedding failures and
// timeouts are collaborator errors; the session then keeps its unclustered ranking.
func (o *Orchestrator) Cluster(ctx context.Context, s *Session, k int) (clustering.Result, error) {
	if s == nil || s.Ranking == nil {
		return clustering.Result{}, ErrNoRanking
	}
	if k <= 0 {
		return clustering.Result{}, fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if o.Clusterer == nil {
		return clustering.Result{}, &CollaboratorError{Kind: KindEmbed, Err: errors.New("no embedding provider configured")}
	}
	log := o.sessionLogger(s)

	embedCtx, cancel := withTimeout(ctx, o.Timeouts.Embed)
	defer cancel()

	result, err := o.Clusterer.Cluster(embedCtx, s.Ranking.Postings, k)
	switch {
	case errors.Is(err, clustering.ErrNoContent):
		metrics.ClusteringsTotal.WithLabelValues("no_content").Inc()
		return clustering.Result{}, err
	case err != nil:
		metrics.ClusteringsTotal.WithLabelValues("error").Inc()
		log.Warn("clustering failed, keeping ranked postings", zap.Error(err))
		return clustering.Result{}, &CollaboratorError{Kind: KindEmbed, Err: err}
	}

	metrics.ClusteringsTotal.WithLabelValues(result.Outcome.String()).Inc()
	if result.Outcome == clustering.Clustered {
		s.Clustering = &result
	} else {
		s.Clustering = nil
	}

	return result, nil
}

// Ask answers a career question with the resume and top matches as context.
func (o *Orchestrator) Ask(ctx context.Context, s *Session, responder ai.Responder, question string) (string, error) {
	if !s.HasResume() {
		return "", ErrNoResume
	}
	if responder == nil {
		return "", &CollaboratorError{Kind: KindGenerate, Err: errors.New("no assistant configured")}
	}

	genCtx, cancel := withTimeout(ctx, o.Timeouts.Generate)
	defer cancel()

	answer, err := responder.Respond(genCtx, question, ai.FormatContext(s.ResumeText, s.Top(ContextPostings)))
	if err != nil {
		return "", &CollaboratorError{Kind: KindGenerate, Err: err}
	}
	return answer, nil
}
