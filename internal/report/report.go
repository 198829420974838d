// Package report turns a session's ranking and clustering into a shareable HTML report.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spigell/careermatch/internal/clustering"
	"github.com/spigell/careermatch/internal/pipeline"
	"github.com/spigell/careermatch/internal/posting"
)

const (
	TopRows     = 10
	ClusterRows = 5
)

//go:embed report.html
var reportTemplate string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(reportTemplate))

// Row is one posting line in a report table.
type Row struct {
	Title    string
	Company  string
	Location string
	Link     string
	// Score is formatted to four decimals, or "n/a" when ranking degenerated.
	Score string
}

type ClusterSection struct {
	Label string
	Rows  []Row
}

type Report struct {
	ResumeName  string
	GeneratedAt time.Time
	Skills      []string
	Gap         []string
	Top         []Row
	Clusters    []ClusterSection
}

// Build collects the report data from s. It only reads the session.
func Build(s *pipeline.Session, skills []string, now time.Time) Report {
	r := Report{
		ResumeName:  s.ResumeName,
		GeneratedAt: now,
		Skills:      skills,
	}

	if s.Ranking != nil {
		r.Gap = s.Ranking.Gap
		for _, item := range s.Top(TopRows) {
			r.Top = append(r.Top, row(item))
		}
	}

	if s.Clustering != nil {
		for id, group := range clustering.Groups(s.Clustering.Postings) {
			if len(group) == 0 {
				continue
			}
			section := ClusterSection{Label: fmt.Sprintf("Cluster %d", id+1)}
			for _, item := range group[:min(ClusterRows, len(group))] {
				section.Rows = append(section.Rows, row(item.Ranked))
			}
			r.Clusters = append(r.Clusters, section)
		}
	}

	return r
}

func row(item posting.Ranked) Row {
	score := "n/a"
	if item.Scored {
		score = fmt.Sprintf("%.4f", item.Score)
	}
	return Row{
		Title:    item.Title,
		Company:  item.Company,
		Location: item.Location,
		Link:     item.ApplyLink,
		Score:    score,
	}
}

func WriteHTML(w io.Writer, r Report) error {
	return tmpl.Execute(w, r)
}

// WriteTmpHTML renders r into a new temp file and returns its name.
func WriteTmpHTML(r Report) (string, error) {
	file, err := os.CreateTemp("", "career_report_*.html")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteHTML(file, r); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return file.Name(), nil
}
