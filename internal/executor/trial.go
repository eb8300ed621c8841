package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spachava753/wikibench/internal/agents"
	"github.com/spachava753/wikibench/internal/metrics"
	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/scoring"
	"github.com/spachava753/wikibench/internal/validate"
	"github.com/spachava753/wikibench/internal/wiki"
)

// LinkSource is everything a trial needs from the wiki.
type LinkSource interface {
	agents.Linker
	RandomPage(ctx context.Context) (models.Page, error)
	IsValidPath(ctx context.Context, titles []string) bool
}

// TrialExecutor runs one trial from start page to scored result.
type TrialExecutor struct {
	source    LinkSource
	validator *validate.Validator
	scorer    scoring.Scorer
	target    models.Page
	strict    bool
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// TrialOption configures a TrialExecutor.
type TrialOption func(*TrialExecutor)

// WithScorer replaces the default scorer.
func WithScorer(s scoring.Scorer) TrialOption {
	return func(e *TrialExecutor) { e.scorer = s }
}

// WithStrictPaths marks tool-use paths invalid using the case-sensitive bulk
// check instead of the hop validator's verdict. The verdict is still recorded.
func WithStrictPaths(strict bool) TrialOption {
	return func(e *TrialExecutor) { e.strict = strict }
}

// WithTrialMetrics records trial outcomes.
func WithTrialMetrics(m *metrics.Metrics) TrialOption {
	return func(e *TrialExecutor) { e.metrics = m }
}

// WithTrialLogger sets the logger.
func WithTrialLogger(l *slog.Logger) TrialOption {
	return func(e *TrialExecutor) { e.logger = l }
}

// NewTrialExecutor creates a new trial executor.
func NewTrialExecutor(source LinkSource, validator *validate.Validator, target models.Page, opts ...TrialOption) *TrialExecutor {
	e := &TrialExecutor{
		source:    source,
		validator: validator,
		scorer:    scoring.NewScorer(),
		target:    target,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the trial and returns the result. Failures are recorded on the
// result; the error is only non-nil when ctx was cancelled.
func (e *TrialExecutor) Execute(ctx context.Context, trial models.Trial, agent agents.Agent) (*models.TrialResult, error) {
	result := &models.TrialResult{
		Path:      []string{},
		StartedAt: time.Now(),
	}
	defer func() {
		result.EndedAt = time.Now()
	}()

	// Phase 1: start page
	start, err := e.startPage(ctx, trial)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.fail(result, trial, errorType(err, models.ErrFetchFailed), fmt.Sprintf("getting start page: %s", err))
		return result, nil
	}
	result.StartPage = start.Title
	result.StartURL = start.URL

	// Phase 2: agent
	solveStart := time.Now()
	sol, err := agent.Solve(ctx, start, trial.Mode)
	result.TimeTaken = time.Since(solveStart).Seconds()
	result.RawResponse = sol.RawResponse
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.fail(result, trial, errorType(err, models.ErrAgentFailed), err.Error())
		return result, nil
	}
	if sol.Path != nil {
		result.Path = sol.Path
	}

	// Phase 3: verification
	var verdict *models.Verdict
	if trial.Mode == models.ModeToolUse && len(result.Path) > 0 {
		v := e.validator.Validate(ctx, start, result.Path)
		result.Verdict = &v
		verdict = &v
		if e.strict {
			fast := v
			fast.Valid = e.source.IsValidPath(ctx, append([]string{start.Title}, result.Path...))
			verdict = &fast
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	// Phase 4: scoring
	outcome := scoring.Classify(result.Path, e.target.Title, trial.Mode, verdict)
	result.GaveUp = outcome.GaveUp
	result.Cheated = outcome.Cheated
	result.InvalidPath = outcome.InvalidPath
	result.Success = outcome.Success
	result.Score, result.CreativeConnections = e.scorer.Score(result.Path, outcome)

	e.logger.Info("trial finished",
		"trial", trial.ID,
		"start", start.Title,
		"hops", len(result.Path),
		"outcome", outcome.Label(),
		"score", result.Score,
	)
	e.metrics.ObserveTrial(trial.Agent, string(trial.Mode), outcome.Label(), result.Score)
	return result, nil
}

func (e *TrialExecutor) startPage(ctx context.Context, trial models.Trial) (models.Page, error) {
	if trial.Start == nil {
		return e.source.RandomPage(ctx)
	}
	start := *trial.Start
	if start.URL == "" {
		start.URL = e.source.URLForTitle(start.Title)
	}
	return start, nil
}

// fail records an aborted trial. With no usable path it is scored like a
// give-up while its flags stay false.
func (e *TrialExecutor) fail(result *models.TrialResult, trial models.Trial, typ models.ErrorType, msg string) {
	result.Path = []string{}
	result.SetError(typ, msg)
	result.Score = scoring.Score(0, true, false, false)

	e.logger.Warn("trial failed", "trial", trial.ID, "error_type", typ, "error", msg)
	e.metrics.ObserveTrial(trial.Agent, string(trial.Mode), "error", result.Score)
}

func errorType(err error, fallback models.ErrorType) models.ErrorType {
	var parseErr *wiki.ParseError
	if errors.As(err, &parseErr) {
		return models.ErrParseFailed
	}
	var fetchErr *wiki.FetchError
	if errors.As(err, &fetchErr) {
		return models.ErrFetchFailed
	}
	return fallback
}
