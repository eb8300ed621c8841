package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spachava753/wikibench/internal/agents"
	"github.com/spachava753/wikibench/internal/config"
	"github.com/spachava753/wikibench/internal/dataset"
	"github.com/spachava753/wikibench/internal/metrics"
	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/validate"
)

// NewAgentFunc builds the agent for one pairing.
type NewAgentFunc func(cfg models.AgentConfig, target models.Page) (agents.Agent, error)

// Orchestrator runs every (agent, mode) pairing of a run and writes one
// report per pairing.
type Orchestrator struct {
	cfg       models.RunConfig
	source    LinkSource
	newAgent  NewAgentFunc
	trialOpts []TrialOption
	metrics   *metrics.Metrics
	logger    *slog.Logger
	onReport  func(*models.Report, string)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAgentFactory replaces the default agent constructor.
func WithAgentFactory(fn NewAgentFunc) Option {
	return func(o *Orchestrator) { o.newAgent = fn }
}

// WithTrialOptions passes options to every pairing's TrialExecutor.
func WithTrialOptions(opts ...TrialOption) Option {
	return func(o *Orchestrator) { o.trialOpts = append(o.trialOpts, opts...) }
}

// WithMetrics records fetch, hop and trial metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithReportHook is called after each pairing's report is written.
// Calls may come from several goroutines at once when pairings run concurrently.
func WithReportHook(fn func(r *models.Report, path string)) Option {
	return func(o *Orchestrator) { o.onReport = fn }
}

// NewOrchestrator creates an orchestrator for cfg. Defaults should already be
// applied to cfg.
func NewOrchestrator(cfg models.RunConfig, source LinkSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		source: source,
		logger: slog.Default(),
	}
	o.newAgent = func(ac models.AgentConfig, target models.Page) (agents.Agent, error) {
		return agents.New(ac, target, source, agents.WithLogger(o.logger))
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type pairing struct {
	agent models.AgentConfig
	mode  models.Mode
	impl  agents.Agent
}

// Run executes all pairings. Configuration problems are returned before any
// trial starts. A cancelled context stops the run early; finished trials are
// still reported and the result is marked cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunResult, error) {
	startTime := time.Now()

	if err := config.Validate(o.cfg); err != nil {
		return nil, err
	}
	modes, err := models.ParseModes(o.cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	starts, err := o.starts(ctx)
	if err != nil {
		return nil, err
	}

	target := o.cfg.Target()
	var pairings []pairing
	for _, ac := range o.cfg.Agents {
		for _, mode := range modes {
			impl, err := o.newAgent(ac, target)
			if err != nil {
				return nil, fmt.Errorf("%w: agent %s: %v", config.ErrInvalidConfig, ac.DisplayName(), err)
			}
			pairings = append(pairings, pairing{agent: ac, mode: mode, impl: impl})
		}
	}

	if err := os.MkdirAll(o.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	runID := uuid.NewString()
	name := startTime.Format("2006-01-02__15-04-05")
	if o.cfg.Name != nil {
		name = *o.cfg.Name
	}
	o.logger.Info("run starting", "run_id", runID, "name", name, "pairings", len(pairings), "trials_per_pairing", len(starts))

	validator := validate.New(o.source,
		validate.WithSampleSize(o.cfg.Fetch.SampleSize),
		validate.WithMetrics(o.metrics),
		validate.WithLogger(o.logger),
	)

	reports := make([]*models.Report, len(pairings))
	paths := make([]string, len(pairings))
	cancelled := make([]bool, len(pairings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.cfg.NConcurrentPairings, 1))
	for i, p := range pairings {
		g.Go(func() error {
			opts := append([]TrialOption{
				WithStrictPaths(o.cfg.StrictPaths),
				WithTrialMetrics(o.metrics),
				WithTrialLogger(o.logger.With("agent", p.impl.Name(), "mode", p.mode)),
			}, o.trialOpts...)
			exec := NewTrialExecutor(o.source, validator, target, opts...)

			report, done := o.runPairing(gctx, runID, p, exec, starts)
			cancelled[i] = !done
			if report == nil {
				return nil
			}
			path, err := WriteReport(o.cfg.OutputDir, report)
			if err != nil {
				return fmt.Errorf("pairing %s/%s: %w", report.AgentName, p.mode, err)
			}
			reports[i], paths[i] = report, path
			if o.onReport != nil {
				o.onReport(report, path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.RunResult{
		RunID:     runID,
		Name:      name,
		StartedAt: startTime,
		EndedAt:   time.Now(),
	}
	result.TotalDurationSec = result.EndedAt.Sub(result.StartedAt).Seconds()
	for i := range pairings {
		if cancelled[i] {
			result.Cancelled = true
		}
		if reports[i] != nil {
			result.Reports = append(result.Reports, reports[i])
			result.ReportPaths = append(result.ReportPaths, paths[i])
		}
	}

	summary, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(o.cfg.OutputDir, "run_"+runID+".json"), summary, 0644); err != nil {
		return result, fmt.Errorf("writing run summary: %w", err)
	}
	return result, nil
}

// runPairing runs the pairing's trials one after another, pausing between
// trials. It reports false when ctx ended the pairing early.
func (o *Orchestrator) runPairing(ctx context.Context, runID string, p pairing, exec *TrialExecutor, starts []*models.Page) (*models.Report, bool) {
	startTime := time.Now()
	name := p.impl.Name()
	delay := time.Duration(o.cfg.TrialDelaySec * float64(time.Second))

	o.logger.Info("pairing starting", "agent", name, "mode", p.mode, "trials", len(starts))

	results := make([]models.TrialResult, 0, len(starts))
	done := true
	for i, start := range starts {
		if i > 0 && !sleep(ctx, delay) {
			done = false
			break
		}

		trial := models.Trial{
			ID:    fmt.Sprintf("%s__%s__%d", name, p.mode, i+1),
			Agent: name,
			Mode:  p.mode,
			Index: i + 1,
			Start: start,
		}
		res, err := exec.Execute(ctx, trial, p.impl)
		if err != nil {
			done = false
			break
		}
		results = append(results, *res)
	}

	if len(results) == 0 {
		return nil, done
	}
	return Aggregate(runID, name, p.mode, o.cfg.Target(), results, startTime, time.Now()), done
}

// starts lists the start page of every trial in a pairing. A nil entry means
// a random page. A fixed start page runs once; datasets run each challenge once.
func (o *Orchestrator) starts(ctx context.Context) ([]*models.Page, error) {
	if s := o.cfg.Start; s != nil && s.Page != "" {
		return []*models.Page{{Title: s.Page, URL: s.URL}}, nil
	}

	if len(o.cfg.Datasets) > 0 {
		loader := dataset.NewLoader()
		var starts []*models.Page
		for _, ref := range o.cfg.Datasets {
			set, err := loader.LoadFromPath(ctx, ref.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: loading dataset %s: %v", config.ErrInvalidConfig, ref.Path, err)
			}
			for _, c := range set.Challenges {
				page := c.Start()
				starts = append(starts, &page)
			}
		}
		return starts, nil
	}

	return make([]*models.Page, o.cfg.Trials), nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
