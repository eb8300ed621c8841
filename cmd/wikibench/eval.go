package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spachava753/wikibench/internal/agents"
	"github.com/spachava753/wikibench/internal/config"
	"github.com/spachava753/wikibench/internal/executor"
	"github.com/spachava753/wikibench/internal/metrics"
	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

type evalOptions struct {
	configPath  string
	agent       string
	allAgents   bool
	llm         string
	mode        string
	trials      int
	outputDir   string
	startPage   string
	startURL    string
	targetPage  string
	targetURL   string
	datasets    []string
	concurrency int
	delaySec    float64
	strictPaths bool
	rps         float64
	timeoutSec  float64
	metricsFile string
	envFile     string
}

func newEvalCmd() *cobra.Command {
	var o evalOptions
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run agents against random or fixed start pages and write reports",
		Example: `  wikibench eval --agent random --mode tool_use --trials 5
  wikibench eval --agent heuristic --mode both --trials 10
  wikibench eval --all-agents --mode tool_use --trials 3
  wikibench eval --llm openai:gpt-4o-mini --mode no_tool_use
  wikibench eval --agent greedy --start-page Bradawl --start-url https://en.wikipedia.org/wiki/Bradawl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildRunConfig(o, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
				if err := setupLogging(cfg.LogLevel); err != nil {
					return err
				}
			}
			if err := loadDotenv(o.envFile); err != nil {
				return err
			}
			return runEval(cmd, cfg, o.metricsFile)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "run config file (YAML); flags override its values")
	f.StringVar(&o.agent, "agent", "", "built-in agent to evaluate ("+strings.Join(builtinNames(), ", ")+")")
	f.BoolVar(&o.allAgents, "all-agents", false, "evaluate every built-in agent")
	f.StringVar(&o.llm, "llm", "", "LLM agent as provider:model, e.g. openai:gpt-4o-mini")
	f.StringVar(&o.mode, "mode", config.DefaultMode, "evaluation mode (no_tool_use, tool_use, both)")
	f.IntVar(&o.trials, "trials", config.DefaultTrials, "trials per agent and mode")
	f.StringVar(&o.outputDir, "output-dir", config.DefaultOutputDir, "directory for result files")
	f.StringVar(&o.startPage, "start-page", "", "fixed start page title (requires --start-url)")
	f.StringVar(&o.startURL, "start-url", "", "fixed start page URL (requires --start-page)")
	f.StringVar(&o.targetPage, "target-page", config.DefaultTargetPage, "target page title")
	f.StringVar(&o.targetURL, "target-url", "", "target page URL (derived from the title if empty)")
	f.StringArrayVar(&o.datasets, "dataset", nil, "challenge file or directory of .toml challenge files (repeatable)")
	f.IntVar(&o.concurrency, "concurrency", 1, "agent/mode pairings to run at once")
	f.Float64Var(&o.delaySec, "delay", config.DefaultTrialDelaySec, "seconds to wait between trials of a pairing")
	f.BoolVar(&o.strictPaths, "strict-paths", false, "judge tool_use paths with the exact-title bulk check")
	f.Float64Var(&o.rps, "requests-per-second", config.DefaultRequestsPerSecond, "global Wikipedia request rate (0 disables the limiter)")
	f.Float64Var(&o.timeoutSec, "timeout", config.DefaultFetchTimeoutSec, "per-request timeout in seconds")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write prometheus metrics to this file when the run ends")
	f.StringVar(&o.envFile, "env-file", ".env", "dotenv file with provider API keys")
	return cmd
}

func builtinNames() []string {
	var names []string
	for _, a := range agents.Builtins() {
		names = append(names, a.Type)
	}
	return names
}

// buildRunConfig merges the config file, if any, with the flags that were set.
func buildRunConfig(o evalOptions, changed func(string) bool) (models.RunConfig, error) {
	cfg := config.DefaultRunConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadRunConfig(o.configPath); err != nil {
			return cfg, err
		}
	}

	selected := 0
	for _, set := range []bool{o.agent != "", o.allAgents, o.llm != ""} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		return cfg, fmt.Errorf("%w: use only one of --agent, --all-agents or --llm", config.ErrInvalidConfig)
	}
	switch {
	case o.allAgents:
		cfg.Agents = agents.Builtins()
	case o.agent != "":
		idx := slices.IndexFunc(agents.Builtins(), func(a models.AgentConfig) bool { return a.Type == o.agent })
		if idx < 0 {
			return cfg, fmt.Errorf("%w: unknown agent %q (want one of %s)", config.ErrInvalidConfig, o.agent, strings.Join(builtinNames(), ", "))
		}
		cfg.Agents = []models.AgentConfig{agents.Builtins()[idx]}
	case o.llm != "":
		ac, err := agents.ParseLLM(o.llm)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		cfg.Agents = []models.AgentConfig{ac}
	case len(cfg.Agents) == 0:
		return cfg, fmt.Errorf("%w: must specify one of --agent, --all-agents or --llm", config.ErrInvalidConfig)
	}

	if changed("mode") {
		cfg.Mode = o.mode
	}
	if changed("trials") {
		cfg.Trials = o.trials
	}
	if changed("output-dir") {
		cfg.OutputDir = o.outputDir
	}
	if changed("target-page") {
		cfg.TargetPage = o.targetPage
		if !changed("target-url") {
			cfg.TargetURL = ""
		}
	}
	if changed("target-url") {
		cfg.TargetURL = o.targetURL
	}
	if changed("start-page") || changed("start-url") {
		cfg.Start = &models.StartConfig{Page: o.startPage, URL: o.startURL}
	}
	if changed("dataset") {
		cfg.Datasets = nil
		for _, p := range o.datasets {
			cfg.Datasets = append(cfg.Datasets, models.DatasetRef{Path: p})
		}
	}
	if changed("concurrency") {
		cfg.NConcurrentPairings = o.concurrency
	}
	if changed("delay") {
		cfg.TrialDelaySec = o.delaySec
	}
	if changed("strict-paths") {
		cfg.StrictPaths = o.strictPaths
	}
	if changed("requests-per-second") {
		cfg.Fetch.RequestsPerSecond = o.rps
	}
	if changed("timeout") {
		cfg.Fetch.TimeoutSec = o.timeoutSec
	}

	config.ApplyDefaults(&cfg)
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotenv loads provider keys from path without overriding the environment.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

func newWikiClient(fetch models.FetchConfig, m *metrics.Metrics) (*wiki.Client, error) {
	return wiki.NewClient(fetch.BaseURL,
		wiki.WithUserAgent(fetch.UserAgent),
		wiki.WithTimeout(time.Duration(fetch.TimeoutSec*float64(time.Second))),
		wiki.WithLimiter(wiki.NewLimiter(fetch.RequestsPerSecond)),
		wiki.WithMetrics(m),
		wiki.WithLogger(slog.Default()),
	)
}

func runEval(cmd *cobra.Command, cfg models.RunConfig, metricsFile string) error {
	m := metrics.New()
	client, err := newWikiClient(cfg.Fetch, m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	orch := executor.NewOrchestrator(cfg, client,
		executor.WithMetrics(m),
		executor.WithLogger(slog.Default()),
		executor.WithReportHook(func(r *models.Report, path string) {
			mu.Lock()
			defer mu.Unlock()
			printReport(out, r, path)
		}),
	)

	result, err := orch.Run(cmd.Context())
	if metricsFile != "" {
		if werr := m.WriteTextfile(metricsFile); werr != nil {
			slog.Warn("writing metrics failed", "path", metricsFile, "error", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nAll evaluations completed in %.1fs. Results saved in %s/\n", result.TotalDurationSec, cfg.OutputDir)
	if result.Cancelled {
		return errors.New("run cancelled before all trials finished")
	}
	return nil
}
