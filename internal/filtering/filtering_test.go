package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/careermatch/internal/posting"
)

func samplePostings() *posting.Postings {
	return &posting.Postings{Items: []posting.Posting{
		{Title: "Go Developer", Company: "Acme", ApplyLink: "https://acme/1"},
		{Title: "Data Engineer", Company: "Globex", ApplyLink: "https://globex/2"},
		{Title: "Analyst", Company: "acme ", ApplyLink: ""},
		{Title: "SRE", Company: "Initech", ApplyLink: "https://initech/3"},
	}}
}

func TestRunAppliesEnabledSteps(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	companies := NewExcludedCompanies([]string{"ACME"})
	skipped := NewExcludedCompanies([]string{"Globex"})
	DisableByName([]Filter{skipped}, "excluded_companies", "testing")

	result, err := Run(context.Background(), zap.New(core), []Filter{companies, skipped}, samplePostings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 2 {
		t.Fatalf("expected 2 postings left, got %d", result.Len())
	}
	if result.Items[0].Company != "Globex" || result.Items[1].Company != "Initech" {
		t.Fatalf("unexpected postings left: %+v", result.Items)
	}

	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 1 {
		t.Fatalf("expected one logged step, got %d", len(steps))
	}
	if steps[0].ContextMap()["dropped"] != int64(2) {
		t.Fatalf("unexpected dropped count: %v", steps[0].ContextMap()["dropped"])
	}
	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled filter to be logged")
	}
}

type failingFilter struct{}

func (failingFilter) Name() string    { return "failing" }
func (failingFilter) Disable(string)  {}
func (failingFilter) IsEnabled() bool { return true }
func (failingFilter) Apply(context.Context, *posting.Postings) (*posting.Postings, Step, error) {
	return nil, Step{}, errors.New("boom")
}

func TestRunStopsOnError(t *testing.T) {
	if _, err := Run(context.Background(), nil, []Filter{failingFilter{}}, samplePostings()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExcludeFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.json")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	added, err := AppendToFile(path, samplePostings().Items[:2], now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 entries added, got %d", added)
	}

	// Re-adding known links and a posting without a link changes nothing.
	added, err = AppendToFile(path, samplePostings().Items[:3], now)
	if err != nil || added != 0 {
		t.Fatalf("expected no new entries, got %d %v", added, err)
	}

	result, err := Run(context.Background(), nil, []Filter{NewExcludeFile(path)}, samplePostings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 2 || result.Items[0].Title != "Analyst" || result.Items[1].Title != "SRE" {
		t.Fatalf("unexpected postings left: %+v", result.Items)
	}
}

func TestLoadExcludedFileMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	excluded, err := LoadExcludedFile(filepath.Join(dir, "missing.json"))
	if err != nil || len(excluded.Items) != 0 {
		t.Fatalf("expected empty list for missing file, got %v %v", excluded, err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	excluded, err = LoadExcludedFile(empty)
	if err != nil || len(excluded.Items) != 0 {
		t.Fatalf("expected empty list for empty file, got %v %v", excluded, err)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadExcludedFile(broken); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}

func TestDescribe(t *testing.T) {
	f := NewExcludeFile("/tmp/x.json")
	f.Disable("no file")

	statuses := Describe([]Filter{f, NewExcludedCompanies(nil)})
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Enabled || statuses[0].Reason != "no file" || statuses[0].Details["path"] != "/tmp/x.json" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
	if !statuses[1].Enabled {
		t.Fatalf("expected companies filter to be enabled")
	}
}
