package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spigell/careermatch/internal/posting"
)

// ExcludedPostings is the on-disk list of postings the user has already handled.
type ExcludedPostings struct {
	Items []*ExcludedPosting
}

type ExcludedPosting struct {
	ApplyLink  string
	Title      string
	Company    string
	ExcludedAt time.Time
}

// ToExcluded converts postings with an apply link into exclude entries stamped with now.
func ToExcluded(items []posting.Posting, now time.Time) *ExcludedPostings {
	excluded := &ExcludedPostings{}
	for _, item := range items {
		if strings.TrimSpace(item.ApplyLink) == "" {
			continue
		}
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ApplyLink:  item.ApplyLink,
			Title:      item.Title,
			Company:    item.Company,
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}

// LoadExcludedFile reads an exclude file. A missing or empty file yields an empty list.
func LoadExcludedFile(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedPostings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose apply link is not listed yet and returns how many were added.
func (e *ExcludedPostings) Append(s *ExcludedPostings) int {
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ApplyLink] = struct{}{}
	}

	added := 0
	for _, item := range s.Items {
		if _, ok := seen[item.ApplyLink]; ok {
			continue
		}
		seen[item.ApplyLink] = struct{}{}
		e.Items = append(e.Items, item)
		added++
	}
	return added
}

func (e *ExcludedPostings) Links() []string {
	links := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		links = append(links, item.ApplyLink)
	}
	return links
}

func (e *ExcludedPostings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// AppendToFile merges items into the exclude file at path and returns how many were added.
func AppendToFile(path string, items []posting.Posting, now time.Time) (int, error) {
	current, err := LoadExcludedFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading exclude file: %w", err)
	}

	added := current.Append(ToExcluded(items, now))
	if err := current.ToFile(path); err != nil {
		return 0, fmt.Errorf("writing exclude file: %w", err)
	}
	return added, nil
}

type excludeFileFilter struct {
	path     string
	disabled bool
	reason   string
}

// NewExcludeFile creates a filter that removes postings whose apply link is listed in the exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := LoadExcludedFile(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	removed := p.Exclude(posting.FieldApplyLink, excluded.Links())

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
