package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Posting is a single job posting in canonical shape.
type Posting struct {
	Title       string `json:"title,omitempty" mapstructure:"title"`
	Company     string `json:"company,omitempty" mapstructure:"company"`
	Location    string `json:"location,omitempty" mapstructure:"location"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	ApplyLink   string `json:"apply_link,omitempty" mapstructure:"apply_link"`
	SearchTerm  string `json:"search_term,omitempty" mapstructure:"search_term"`
}

// Ranked is a posting with its relevance score against a resume.
// Scored is false when ranking degenerated and Score carries no meaning.
type Ranked struct {
	Posting
	Score  float64 `json:"match_score"`
	Scored bool    `json:"scored"`
}

// Clustered is a ranked posting with its cluster and a 2D point for plotting.
type Clustered struct {
	Ranked
	Cluster int     `json:"cluster"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Postings is an ordered collection of postings as returned by a search.
type Postings struct {
	Items []Posting
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// DedupByLink drops postings whose apply link was already seen and returns how many were dropped.
// Postings without a link are kept.
func (p *Postings) DedupByLink() int {
	seen := make(map[string]struct{}, len(p.Items))
	kept := p.Items[:0]
	dropped := 0
	for _, item := range p.Items {
		link := strings.TrimSpace(item.ApplyLink)
		if link != "" {
			if _, ok := seen[link]; ok {
				dropped++
				continue
			}
			seen[link] = struct{}{}
		}
		kept = append(kept, item)
	}
	p.Items = kept
	return dropped
}

// Exclude removes postings whose field value is listed in targets, preserving order.
// Comparison is case-insensitive. It returns the titles of removed postings.
func (p *Postings) Exclude(field Field, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	var excluded []string
	kept := p.Items[:0]
	for _, item := range p.Items {
		if _, ok := set[strings.ToLower(strings.TrimSpace(item.Field(field)))]; ok {
			excluded = append(excluded, item.Title)
			continue
		}
		kept = append(kept, item)
	}
	p.Items = kept
	return excluded
}

// Field names a string field of a posting.
type Field string

const (
	FieldCompany   Field = "company"
	FieldApplyLink Field = "apply_link"
)

func (p Posting) Field(name Field) string {
	switch name {
	case FieldCompany:
		return p.Company
	case FieldApplyLink:
		return p.ApplyLink
	default:
		return ""
	}
}

// DumpToTmpFile writes v as indented JSON into a new temp file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCompany groups ranked postings by company for a quick overview.
func ReportByCompany(ranked []Ranked) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range ranked {
		key := item.Company
		if key == "" {
			key = "unknown"
		}
		entry := map[string]string{
			"title":    item.Title,
			"location": item.Location,
			"link":     item.ApplyLink,
		}
		if item.Scored {
			entry["match_score"] = fmt.Sprintf("%.4f", item.Score)
		}
		report[key] = append(report[key], entry)
	}
	return report
}
