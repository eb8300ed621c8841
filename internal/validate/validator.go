// Package validate checks a claimed sequence of page titles hop by hop against
// live link data.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spachava753/wikibench/internal/metrics"
	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

// DefaultSampleSize is how many available links a failed hop reports.
const DefaultSampleSize = 10

// LinkSource is what the validator needs from the link source.
type LinkSource interface {
	PageLinks(ctx context.Context, pageURL string) ([]models.Page, error)
	URLForTitle(title string) string
}

// Validator walks a path and produces a Verdict. It holds no per-call state.
type Validator struct {
	source     LinkSource
	sampleSize int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithSampleSize bounds the available-links sample on failed hops.
func WithSampleSize(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.sampleSize = n
		}
	}
}

// WithMetrics counts hops by status.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator reading links from source.
func New(source LinkSource, opts ...Option) *Validator {
	v := &Validator{
		source:     source,
		sampleSize: DefaultSampleSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every hop of start -> path[0] -> ... -> path[n-1]. All hops
// are evaluated even after one fails, so the Verdict always has len(path) hops.
// Hops are fetched strictly in order: a valid hop hands the matched link's URL
// to the next hop, otherwise the next URL is derived from its title.
//
// An empty path is a walk of zero hops and is valid.
func (v *Validator) Validate(ctx context.Context, start models.Page, path []string) models.Verdict {
	verdict := models.Verdict{
		Valid: true,
		Hops:  make([]models.Hop, 0, len(path)),
	}

	from := start.Title
	fromURL := start.URL
	for i, to := range path {
		if fromURL == "" {
			fromURL = v.source.URLForTitle(from)
		}

		hop, next := v.checkHop(ctx, i, from, fromURL, to)
		v.metrics.ObserveHop(string(hop.Status))
		v.logger.Debug("hop checked", "step", i+1, "from", from, "to", to, "status", hop.Status)

		verdict.Hops = append(verdict.Hops, hop)
		verdict.Valid = verdict.Valid && hop.Valid

		from = to
		fromURL = next
	}

	return verdict
}

// checkHop validates one hop and returns the URL to use for the next page, or
// "" when it must be derived from the title.
func (v *Validator) checkHop(ctx context.Context, i int, from, fromURL, to string) (models.Hop, string) {
	hop := models.Hop{
		Index:   i,
		From:    from,
		To:      to,
		FromURL: fromURL,
	}

	links, err := v.source.PageLinks(ctx, fromURL)
	if err != nil {
		hop.Status = models.HopFetchFailed
		var pe *wiki.ParseError
		if errors.As(err, &pe) {
			hop.Status = models.HopParseFailed
		}
		hop.Error = err.Error()
		hop.Message = fmt.Sprintf("Step %d: Error accessing page '%s': %v", i+1, from, err)
		return hop, ""
	}

	for _, l := range links {
		if wiki.SameTitle(l.Title, to) {
			hop.Valid = true
			hop.Status = models.HopValid
			return hop, l.URL
		}
	}

	hop.Status = models.HopLinkMissing
	hop.AvailableLinks = sample(links, v.sampleSize)
	hop.Message = fmt.Sprintf("Step %d: Cannot navigate from '%s' to '%s': no link to '%s' on '%s'", i+1, from, to, to, from)
	return hop, ""
}

func sample(links []models.Page, n int) []string {
	n = min(n, len(links))
	titles := make([]string, 0, n)
	for _, l := range links[:n] {
		titles = append(titles, l.Title)
	}
	return titles
}
