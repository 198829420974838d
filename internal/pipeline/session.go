package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/spigell/careermatch/internal/clustering"
	"github.com/spigell/careermatch/internal/matching"
	"github.com/spigell/careermatch/internal/posting"
	"github.com/spigell/careermatch/internal/skills"
)

// Session holds everything derived from one uploaded resume. It is passed by
// pointer into each orchestrator call and replaced wholesale by LoadResume.
type Session struct {
	ID         string
	ResumeName string
	ResumeText string
	Skills     skills.Set
	LoadedAt   time.Time

	// Postings is the filtered search result that Ranking was computed from.
	Postings posting.Postings
	// Ranking is nil until a search or ranking call succeeded.
	Ranking *matching.Result
	// Clustering is nil until a cluster call succeeded for the current Ranking.
	Clustering *clustering.Result
}

func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

func (s *Session) HasResume() bool {
	return s != nil && !s.LoadedAt.IsZero()
}

// Top returns at most n ranked postings, best first.
func (s *Session) Top(n int) []posting.Ranked {
	if s == nil || s.Ranking == nil {
		return nil
	}
	return s.Ranking.Postings[:min(n, len(s.Ranking.Postings))]
}
