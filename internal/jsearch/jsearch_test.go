package jsearch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestQueries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		skills []string
		max    int
		seed   uint64
		expect []string
	}{
		{name: "empty", skills: nil, max: 5, expect: nil},
		{name: "odd count keeps last single", skills: []string{"python", "sql", "aws"}, max: 5, expect: []string{"python sql", "aws"}},
		{name: "capped without seed keeps order", skills: []string{"a", "b", "c", "d", "e", "f"}, max: 2, expect: []string{"a b", "c d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Queries(tt.skills, tt.max, tt.seed); !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestQueriesSeededIsStable(t *testing.T) {
	skills := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	first := Queries(skills, 3, 7)
	second := Queries(skills, 3, 7)
	if !reflect.DeepEqual(first, second) || len(first) != 3 {
		t.Fatalf("expected stable sample of 3, got %v and %v", first, second)
	}
}

func newTestClient(url string, pages int) *Client {
	c := New(zap.NewNop(), "test-key", Options{MaxQueries: 5, Pages: pages})
	c.APIURL = url
	return c
}

func TestFetchPostings(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("num_pages") != "1" {
			t.Errorf("unexpected num_pages: %s", r.URL.Query().Get("num_pages"))
		}

		data := []map[string]any{
			{"job_title": "Data Engineer", "employer_name": "Acme", "job_city": "Berlin", "job_apply_link": "https://acme/1", "job_description": "python sql"},
			{"job_title": "No Link", "employer_name": "Beta", "job_description": "spark"},
		}
		if r.URL.Query().Get("page") == "2" {
			data = data[:1]
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		json.NewEncoder(gz).Encode(map[string]any{"status": "OK", "data": data})
	}))
	defer server.Close()

	postings, err := newTestClient(server.URL, 2).FetchPostings(context.Background(), []string{"python", "sql"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}

	// The duplicate link from page 2 is dropped, the record without a link is kept.
	if postings.Len() != 2 {
		t.Fatalf("expected 2 postings, got %d: %+v", postings.Len(), postings.Items)
	}
	first := postings.Items[0]
	if first.Title != "Data Engineer" || first.Company != "Acme" || first.Location != "Berlin" || first.SearchTerm != "python sql" {
		t.Fatalf("unexpected posting: %+v", first)
	}
}

func TestFetchPostingsPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"job_title": "Ok"}}})
	}))
	defer server.Close()

	postings, err := newTestClient(server.URL, 2).FetchPostings(context.Background(), []string{"go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if postings.Len() != 1 {
		t.Fatalf("expected 1 posting, got %d", postings.Len())
	}
}

func TestFetchPostingsAllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 1).FetchPostings(context.Background(), []string{"go", "sql"})
	if !errors.Is(err, ErrAllRequestsFailed) {
		t.Fatalf("expected ErrAllRequestsFailed, got %v", err)
	}
}

func TestFetchPostingsNoSkills(t *testing.T) {
	postings, err := newTestClient("http://127.0.0.1:0", 1).FetchPostings(context.Background(), nil)
	if err != nil || postings.Len() != 0 {
		t.Fatalf("expected empty result without error, got %d %v", postings.Len(), err)
	}
}
