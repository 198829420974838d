package matching

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/posting"
	"github.com/spigell/careermatch/internal/skills"
)

const defaultTopN = 5

// Outcome tells how a ranking call ended.
type Outcome int

const (
	// Ranked means every posting carries a score and the slice is sorted.
	Ranked Outcome = iota
	// NoPostings means there was nothing to rank.
	NoPostings
	// DegenerateVocabulary means TF-IDF had no terms to work with; postings are returned unscored in input order.
	DegenerateVocabulary
)

func (o Outcome) String() string {
	switch o {
	case Ranked:
		return "ranked"
	case NoPostings:
		return "no_postings"
	case DegenerateVocabulary:
		return "degenerate_vocabulary"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the output of Rank.
type Result struct {
	Postings []posting.Ranked
	// Gap lists vocabulary skills seen in the top postings but not in the resume, in vocabulary order.
	Gap     []string
	Outcome Outcome
}

// Scorer ranks postings against a resume with TF-IDF cosine similarity.
type Scorer struct {
	// TopN is how many top postings feed the skill gap analysis. Zero means 5.
	TopN   int
	Mode   skills.MatchMode
	Logger *zap.Logger
}

func NewScorer(topN int, mode skills.MatchMode, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{TopN: topN, Mode: mode, Logger: logger}
}

// Rank scores every posting against resume, sorts by score descending (stable on
// input order) and derives the skill gap from the top postings.
func (s *Scorer) Rank(resume string, postings []posting.Posting, vocab skills.Vocabulary) Result {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(postings) == 0 {
		logger.Debug("nothing to rank")
		return Result{Postings: []posting.Ranked{}, Gap: []string{}, Outcome: NoPostings}
	}

	ranked := make([]posting.Ranked, len(postings))
	docs := make([]string, 0, len(postings)+1)
	docs = append(docs, resume)
	for i, p := range postings {
		p.Description = describe(p)
		ranked[i] = posting.Ranked{Posting: p}
		docs = append(docs, p.Description)
	}

	var vectorizer Vectorizer
	vectors, err := vectorizer.FitTransform(docs)
	if err != nil {
		// FitTransform only fails on an empty vocabulary.
		logger.Warn("ranking skipped",
			zap.String("reason", err.Error()),
			zap.Int("posting_count", len(postings)),
		)
		return Result{Postings: ranked, Gap: []string{}, Outcome: DegenerateVocabulary}
	}

	for i := range ranked {
		ranked[i].Score = Cosine(vectors[0], vectors[i+1])
		ranked[i].Scored = true
	}

	slices.SortStableFunc(ranked, func(a, b posting.Ranked) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	gap := s.gap(resume, ranked, vocab)

	logger.Debug("ranked postings",
		zap.Int("posting_count", len(ranked)),
		zap.Int("vocabulary_terms", len(vectorizer.Terms)),
		zap.Float64("top_match_score", ranked[0].Score),
		zap.Strings("skill_gap", gap),
	)

	return Result{Postings: ranked, Gap: gap, Outcome: Ranked}
}

func (s *Scorer) gap(resume string, ranked []posting.Ranked, vocab skills.Vocabulary) []string {
	topN := s.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}

	descriptions := make([]string, 0, topN)
	for _, r := range ranked[:topN] {
		descriptions = append(descriptions, r.Description)
	}
	top := strings.ToLower(strings.Join(descriptions, " "))
	if s.Mode == skills.Word {
		top = skills.Normalize(top)
	}

	normalizedResume := skills.Normalize(resume)
	missing := []string{}
	for _, skill := range vocab {
		// The resume side always uses substring matching: a skill that appears
		// anywhere in the resume is never reported as missing.
		if skills.Contains(normalizedResume, skill, skills.Substring) {
			continue
		}
		if s.Mode == skills.Word {
			if skills.Contains(top, skill, skills.Word) {
				missing = append(missing, skill)
			}
			continue
		}
		if term := strings.ToLower(skill); term != "" && strings.Contains(top, term) {
			missing = append(missing, skill)
		}
	}

	return missing
}

// describe fills in a missing description with "{title} at {company}".
// A posting with neither gets an empty description and still takes part in scoring.
func describe(p posting.Posting) string {
	if strings.TrimSpace(p.Description) != "" {
		return p.Description
	}
	if p.Title == "" && p.Company == "" {
		return ""
	}
	return fmt.Sprintf("%s at %s", p.Title, p.Company)
}
