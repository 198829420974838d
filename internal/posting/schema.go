package posting

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// aliases maps canonical fields onto the header spellings seen across search
// providers and exported spreadsheets. Keys are compared after lowercasing and
// replacing spaces and dashes with underscores.
var aliases = map[string][]string{
	"title":       {"title", "job_title", "position", "role"},
	"company":     {"company", "employer_name", "company_name", "employer"},
	"location":    {"location", "job_city", "job_location", "city"},
	"description": {"description", "job_description", "jobdescription"},
	"apply_link":  {"apply_link", "job_apply_link", "url", "link", "job_url"},
	"search_term": {"search_term", "skill", "query"},
}

func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Normalize maps a raw record onto the canonical Posting shape. The first alias
// with a non-empty value wins. Non-string scalars are converted to strings.
func Normalize(raw map[string]any) (Posting, error) {
	byKey := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		byKey[headerKey(k)] = v
	}

	canonical := make(map[string]any, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			v, ok := byKey[name]
			if !ok {
				continue
			}
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			canonical[field] = v
			break
		}
	}

	var p Posting
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Posting{}, err
	}

	if err := decoder.Decode(canonical); err != nil {
		return Posting{}, fmt.Errorf("decode posting: %w", err)
	}

	p.Title = strings.TrimSpace(p.Title)
	p.Company = strings.TrimSpace(p.Company)
	p.Location = strings.TrimSpace(p.Location)
	p.ApplyLink = strings.TrimSpace(p.ApplyLink)
	p.SearchTerm = strings.TrimSpace(p.SearchTerm)

	return p, nil
}

// NormalizeAll normalizes raw records in order, stopping at the first malformed one.
func NormalizeAll(raws []map[string]any) (Postings, error) {
	out := Postings{Items: make([]Posting, 0, len(raws))}
	for i, raw := range raws {
		p, err := Normalize(raw)
		if err != nil {
			return Postings{}, fmt.Errorf("record %d: %w", i, err)
		}
		out.Items = append(out.Items, p)
	}
	return out, nil
}
