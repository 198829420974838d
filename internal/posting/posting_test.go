package posting

import (
	"encoding/json"
	"os"
	"testing"
)

func TestNormalizeMapsHeaderSpellings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    map[string]any
		expect Posting
	}{
		{
			name: "jsearch fields",
			raw: map[string]any{
				"job_title":       "Data Engineer",
				"employer_name":   "Acme",
				"job_city":        "Berlin",
				"job_description": "Spark and SQL",
				"job_apply_link":  " https://acme.example/apply ",
			},
			expect: Posting{
				Title: "Data Engineer", Company: "Acme", Location: "Berlin",
				Description: "Spark and SQL", ApplyLink: "https://acme.example/apply",
			},
		},
		{
			name: "spreadsheet headers",
			raw: map[string]any{
				"Job Title":   "Analyst",
				"Company":     "Globex",
				"Apply Link":  "https://globex.example",
				"Skill":       "python sql",
				"Description": nil,
			},
			expect: Posting{
				Title: "Analyst", Company: "Globex", ApplyLink: "https://globex.example", SearchTerm: "python sql",
			},
		},
		{
			name: "empty alias falls through to the next one",
			raw: map[string]any{
				"title":     "",
				"job_title": "Backend Developer",
				"city":      42,
			},
			expect: Posting{Title: "Backend Developer", Location: "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}

func TestNormalizeAllRejectsMalformedRecord(t *testing.T) {
	_, err := NormalizeAll([]map[string]any{
		{"title": "ok"},
		{"title": map[string]any{"nested": true}},
	})
	if err == nil {
		t.Fatalf("expected error for nested title")
	}
}

func TestDedupByLink(t *testing.T) {
	p := &Postings{Items: []Posting{
		{Title: "a", ApplyLink: "l1"},
		{Title: "b"},
		{Title: "c", ApplyLink: "l1"},
		{Title: "d"},
		{Title: "e", ApplyLink: "l2"},
	}}

	if dropped := p.DedupByLink(); dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}

	var titles string
	for _, item := range p.Items {
		titles += item.Title
	}
	if titles != "abde" {
		t.Fatalf("unexpected order after dedup: %s", titles)
	}
}

func TestExcludeByCompany(t *testing.T) {
	p := &Postings{Items: []Posting{
		{Title: "a", Company: "Acme"},
		{Title: "b", Company: "Globex"},
		{Title: "c", Company: "acme "},
	}}

	excluded := p.Exclude(FieldCompany, []string{"ACME"})
	if len(excluded) != 2 || p.Len() != 1 || p.Items[0].Title != "b" {
		t.Fatalf("unexpected exclusion result: excluded=%v left=%+v", excluded, p.Items)
	}
}

func TestReportByCompany(t *testing.T) {
	report := ReportByCompany([]Ranked{
		{Posting: Posting{Title: "Go Developer", Company: "Acme"}, Score: 0.5, Scored: true},
		{Posting: Posting{Title: "Gardener"}},
	})

	if report["Acme"][0]["match_score"] != "0.5000" {
		t.Fatalf("unexpected score entry: %+v", report["Acme"])
	}
	if _, ok := report["unknown"][0]["match_score"]; ok {
		t.Fatalf("did not expect score for unscored posting")
	}
}

func TestDumpToTmpFile(t *testing.T) {
	name, err := DumpToTmpFile("postings_*.json", Postings{Items: []Posting{{Title: "x"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(name)

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var decoded Postings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if decoded.Len() != 1 || decoded.Items[0].Title != "x" {
		t.Fatalf("unexpected dump content: %s", data)
	}
}
