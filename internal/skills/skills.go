package skills

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// MatchMode controls how a vocabulary term is located inside normalized text.
type MatchMode string

const (
	// Substring reports a term when it occurs anywhere in the text, so "java" is found in "javascript".
	Substring MatchMode = "substring"
	// Word reports a term only when it is bounded by spaces or the ends of the text.
	Word MatchMode = "word"
)

// ParseMatchMode maps a config value onto a MatchMode. Empty means Substring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Substring:
		return Substring, nil
	case Word:
		return Word, nil
	default:
		return "", fmt.Errorf("unknown skill match mode %q", s)
	}
}

// Vocabulary is the ordered list of recognized skill identifiers.
type Vocabulary []string

var defaultVocabulary = Vocabulary{
	"java", "python", "sql", "aws", "azure", "html", "css", "javascript", "react", "nodejs",
	"tensorflow", "keras", "pandas", "numpy", "scikit-learn", "git", "docker", "kubernetes",
	"flask", "django", "spark", "hadoop", "nlp", "c++", "c#", "xgboost", "airflow", "jira",
	"postman", "ci/cd", "unit testing", "linux",
}

// DefaultVocabulary returns a copy of the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	return slices.Clone(defaultVocabulary)
}

// Merge concatenates vocabularies, dropping blanks and case-insensitive duplicates.
// The first spelling of a term wins.
func Merge(vocabs ...Vocabulary) Vocabulary {
	seen := make(map[string]struct{})
	var merged Vocabulary
	for _, vocab := range vocabs {
		for _, term := range vocab {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			key := strings.ToLower(term)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, term)
		}
	}
	return merged
}

// LoadVocabularyFile reads a yaml list of skills.
func LoadVocabularyFile(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary file %q: %w", path, err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("parsing vocabulary file %q: %w", path, err)
	}

	return Merge(vocab), nil
}

// Set is a deduplicated collection of skills.
type Set map[string]struct{}

func (s Set) Has(skill string) bool {
	_, ok := s[skill]
	return ok
}

func (s Set) Len() int { return len(s) }

// Sorted returns the skills in lexical order, handy for stable output.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for skill := range s {
		out = append(out, skill)
	}
	slices.Sort(out)
	return out
}

// Normalize lowercases text, strips punctuation and symbols and collapses whitespace runs.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Contains reports whether term occurs in already normalized text.
// The term is only lowercased, so terms carrying punctuation never match.
func Contains(normalized, term string, mode MatchMode) bool {
	term = strings.ToLower(term)
	if term == "" {
		return false
	}

	if mode != Word {
		return strings.Contains(normalized, term)
	}

	for rest, offset := normalized, 0; ; {
		idx := strings.Index(rest, term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(term)
		if (start == 0 || normalized[start-1] == ' ') && (end == len(normalized) || normalized[end] == ' ') {
			return true
		}
		offset = start + 1
		rest = normalized[offset:]
	}
}

// Extract returns the vocabulary terms present in text.
func Extract(text string, vocab Vocabulary, mode MatchMode) Set {
	found := make(Set)
	normalized := Normalize(text)
	if normalized == "" {
		return found
	}

	for _, term := range vocab {
		if Contains(normalized, term, mode) {
			found[term] = struct{}{}
		}
	}

	return found
}
