package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/metrics"
	"github.com/spigell/careermatch/internal/posting"
)

// Responder answers a free-form question given background context.
type Responder interface {
	Respond(ctx context.Context, query, background string) (string, error)
}

// Named labels a responder for logs and metrics.
type Named struct {
	Name string
	Responder
}

// ErrNoProviders is returned by a Fallback without providers.
var ErrNoProviders = errors.New("no assistant providers configured")

// Fallback asks providers in order and returns the first successful answer.
type Fallback struct {
	Providers []Named
	Logger    *zap.Logger
}

func (f *Fallback) Respond(ctx context.Context, query, background string) (string, error) {
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if len(f.Providers) == 0 {
		return "", ErrNoProviders
	}

	var errs []error
	for _, p := range f.Providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		answer, err := p.Respond(ctx, query, background)
		if err == nil {
			metrics.AssistantRequestsTotal.WithLabelValues(p.Name, "success").Inc()
			log.Debug("assistant answered",
				zap.String("provider", p.Name),
				zap.Int("response_length", utf8.RuneCountInString(answer)),
			)
			return answer, nil
		}

		metrics.AssistantRequestsTotal.WithLabelValues(p.Name, "error").Inc()
		log.Warn("assistant provider failed, trying next", zap.String("provider", p.Name), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}

	return "", errors.Join(errs...)
}

// FormatContext renders the resume and the top matches as assistant context.
func FormatContext(resume string, top []posting.Ranked) string {
	var b strings.Builder
	b.WriteString("Resume:\n")
	b.WriteString(resume)
	b.WriteString("\n\nTop Matching Jobs:\n")
	for i, item := range top {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(describe(item.Posting))
	}
	return b.String()
}

func describe(p posting.Posting) string {
	var parts []string
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.Company != "" {
		parts = append(parts, "at "+p.Company)
	}
	if p.Location != "" {
		parts = append(parts, "("+p.Location+")")
	}
	if len(parts) == 0 {
		return "untitled posting"
	}
	return strings.Join(parts, " ")
}
