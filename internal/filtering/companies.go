package filtering

import (
	"context"
	"strings"

	"github.com/spigell/careermatch/internal/posting"
)

type companiesFilter struct {
	companies []string
	disabled  bool
	reason    string
}

// NewExcludedCompanies creates a filter that removes postings by company name, case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{companies: companies}
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return !f.disabled }

func (f *companiesFilter) Apply(_ context.Context, p *posting.Postings) (*posting.Postings, Step, error) {
	initial := p.Len()
	if len(f.companies) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded := p.Exclude(posting.FieldCompany, f.companies)

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
