package clustering

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/spigell/careermatch/internal/embedding/local"
	"github.com/spigell/careermatch/internal/posting"
)

func ranked(descriptions ...string) []posting.Ranked {
	out := make([]posting.Ranked, len(descriptions))
	for i, d := range descriptions {
		out[i] = posting.Ranked{
			Posting: posting.Posting{Title: "job", Company: "acme", Description: d},
			Score:   float64(len(descriptions)-i) / 10,
			Scored:  true,
		}
	}
	return out
}

func sample() []posting.Ranked {
	return ranked(
		"python data engineer building spark pipelines",
		"data engineer with python spark and airflow",
		"spark python etl data pipelines",
		"frontend developer react typescript css",
		"react typescript frontend engineer",
		"css html react frontend work",
	)
}

func TestClusterSkipsWhenFewerPostingsThanK(t *testing.T) {
	engine := NewEngine(local.New(32), KMeans{}, nil)
	input := ranked("a b", "c d", "e f")

	res, err := engine.Cluster(context.Background(), input, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Skipped {
		t.Fatalf("expected skipped, got %s", res.Outcome)
	}
	if !reflect.DeepEqual(res.Ranked, input) {
		t.Fatalf("expected input unchanged")
	}
	if res.Postings != nil || res.Points != nil {
		t.Fatalf("expected no cluster data when skipped")
	}

	res, err = engine.Cluster(context.Background(), nil, 3)
	if err != nil || res.Outcome != Skipped {
		t.Fatalf("expected empty input to be skipped, got %v %v", res.Outcome, err)
	}
}

func TestClusterNoContent(t *testing.T) {
	engine := NewEngine(local.New(32), KMeans{}, nil)

	_, err := engine.Cluster(context.Background(), ranked("", "  ", ""), 2)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestClusterAssignsEveryPosting(t *testing.T) {
	engine := NewEngine(local.New(128), KMeans{}, nil)
	input := sample()

	res, err := engine.Cluster(context.Background(), input, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Clustered {
		t.Fatalf("expected clustered, got %s", res.Outcome)
	}
	if len(res.Postings) != len(input) || len(res.Points) != len(input) {
		t.Fatalf("expected one assignment per posting")
	}
	for i, item := range res.Postings {
		if item.Cluster < 0 || item.Cluster >= 2 {
			t.Fatalf("cluster id out of range: %d", item.Cluster)
		}
		if item.Posting != input[i].Posting || item.Score != input[i].Score {
			t.Fatalf("posting %d changed during clustering", i)
		}
		if res.Points[i].Cluster != item.Cluster {
			t.Fatalf("point %d cluster mismatch", i)
		}
	}
	if res.Postings[0].Cluster != 0 {
		t.Fatalf("expected first posting to open cluster 0")
	}
}

func TestClusterDeterministic(t *testing.T) {
	engine := NewEngine(local.New(64), KMeans{Seed: 42}, nil)

	first, err := engine.Cluster(context.Background(), sample(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Cluster(context.Background(), sample(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Postings, second.Postings) {
		t.Fatalf("expected identical assignments for identical input")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("model unavailable")
}

func TestClusterPropagatesEmbeddingFailure(t *testing.T) {
	engine := NewEngine(failingEmbedder{}, KMeans{}, nil)

	if _, err := engine.Cluster(context.Background(), sample(), 2); err == nil {
		t.Fatalf("expected embedding failure to be returned")
	}
}

func TestKMeansSeparatesObviousGroups(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}

	fit, err := KMeans{K: 2}.Fit(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{0, 0, 0, 1, 1, 1}
	if !reflect.DeepEqual(fit.Labels, want) {
		t.Fatalf("unexpected labels: %v", fit.Labels)
	}
	if fit.Inertia > 0.1 {
		t.Fatalf("unexpected inertia: %v", fit.Inertia)
	}
}

func TestKMeansIdenticalPoints(t *testing.T) {
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}}

	fit, err := KMeans{K: 3}.Fit(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, l := range fit.Labels {
		if l < 0 || l >= 3 {
			t.Fatalf("label out of range: %d", l)
		}
	}
}

func TestKMeansRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		k      int
		points [][]float64
	}{
		{name: "no points", k: 1},
		{name: "k too large", k: 3, points: [][]float64{{1}, {2}}},
		{name: "ragged", k: 1, points: [][]float64{{1, 2}, {3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (KMeans{K: tt.k}).Fit(tt.points); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestProject2D(t *testing.T) {
	same := Project2D([][]float64{{1, 2, 3}, {1, 2, 3}})
	for _, p := range same {
		if p != [2]float64{} {
			t.Fatalf("expected zero coordinates for identical vectors, got %v", p)
		}
	}

	line := Project2D([][]float64{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}})
	if !(line[0][0] < line[1][0] && line[1][0] < line[2][0]) {
		t.Fatalf("expected points ordered along the first component, got %v", line)
	}
	if line[1][0] > 1e-9 || line[1][0] < -1e-9 {
		t.Fatalf("expected middle point at the origin, got %v", line[1])
	}
}

func TestGroups(t *testing.T) {
	items := []posting.Clustered{
		{Ranked: posting.Ranked{Posting: posting.Posting{Title: "a"}}, Cluster: 1},
		{Ranked: posting.Ranked{Posting: posting.Posting{Title: "b"}}, Cluster: 0},
		{Ranked: posting.Ranked{Posting: posting.Posting{Title: "c"}}, Cluster: 1},
	}

	groups := Groups(items)
	if len(groups) != 2 || len(groups[0]) != 1 || len(groups[1]) != 2 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if groups[1][0].Title != "a" || groups[1][1].Title != "c" {
		t.Fatalf("expected input order within a group")
	}
}
