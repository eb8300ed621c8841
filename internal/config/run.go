package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

// ErrInvalidConfig is wrapped by every configuration error. A run with an
// invalid configuration never starts.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultTargetPage = "Kevin Bacon"
	DefaultOutputDir  = "results"
	DefaultTrials     = 5
	DefaultMode       = string(models.ModeToolUse)

	// DefaultTrialDelaySec is the pause between consecutive trials of a pairing.
	// It keeps the request rate toward Wikipedia polite and must not be dropped.
	DefaultTrialDelaySec = 1.0

	DefaultFetchTimeoutSec   = 30.0
	DefaultRequestsPerSecond = 5.0
)

// DefaultRunConfig returns a RunConfig with default values.
func DefaultRunConfig() models.RunConfig {
	return models.RunConfig{
		OutputDir:           DefaultOutputDir,
		TargetPage:          DefaultTargetPage,
		Trials:              DefaultTrials,
		Mode:                DefaultMode,
		NConcurrentPairings: 1,
		TrialDelaySec:       DefaultTrialDelaySec,
		LogLevel:            "info",
		Fetch: models.FetchConfig{
			BaseURL:           wiki.DefaultBaseURL,
			TimeoutSec:        DefaultFetchTimeoutSec,
			RequestsPerSecond: DefaultRequestsPerSecond,
			UserAgent:         wiki.DefaultUserAgent,
			SampleSize:        10,
		},
	}
}

// LoadRunConfig loads and parses a run.yaml file. Zero values fall back to defaults.
func LoadRunConfig(path string) (models.RunConfig, error) {
	cfg := DefaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing run config: %w", err)
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields with defaults.
func ApplyDefaults(cfg *models.RunConfig) {
	def := DefaultRunConfig()
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}
	if cfg.TargetPage == "" {
		cfg.TargetPage = def.TargetPage
	}
	if cfg.Trials == 0 {
		cfg.Trials = def.Trials
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.NConcurrentPairings == 0 {
		cfg.NConcurrentPairings = def.NConcurrentPairings
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = def.Fetch.BaseURL
	}
	if cfg.Fetch.TimeoutSec == 0 {
		cfg.Fetch.TimeoutSec = def.Fetch.TimeoutSec
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = def.Fetch.UserAgent
	}
	if cfg.Fetch.SampleSize == 0 {
		cfg.Fetch.SampleSize = def.Fetch.SampleSize
	}
	if cfg.TargetURL == "" {
		cfg.TargetURL = wiki.ArticleURL(cfg.Fetch.BaseURL, cfg.TargetPage)
	}
	for i := range cfg.Agents {
		if cfg.Agents[i].Name == "" {
			cfg.Agents[i].Name = cfg.Agents[i].DisplayName()
		}
	}
}

var agentTypes = map[string]bool{
	models.AgentRandom:    true,
	models.AgentGreedy:    true,
	models.AgentHeuristic: true,
	models.AgentCheat:     true,
	models.AgentGiveUp:    true,
	models.AgentLLM:       true,
}

// Validate reports the first problem that must stop the run before any trial starts.
func Validate(cfg models.RunConfig) error {
	if _, err := models.ParseModes(cfg.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Trials < 1 {
		return fmt.Errorf("%w: trials must be >= 1, got %d", ErrInvalidConfig, cfg.Trials)
	}
	if cfg.NConcurrentPairings < 1 {
		return fmt.Errorf("%w: n_concurrent_pairings must be >= 1, got %d", ErrInvalidConfig, cfg.NConcurrentPairings)
	}
	if cfg.TrialDelaySec < 0 {
		return fmt.Errorf("%w: trial_delay_sec must not be negative", ErrInvalidConfig)
	}
	if cfg.Fetch.TimeoutSec < 0 {
		return fmt.Errorf("%w: fetch.timeout_sec must not be negative", ErrInvalidConfig)
	}
	if cfg.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: fetch.requests_per_second must not be negative", ErrInvalidConfig)
	}
	// Requests to the wiki must be paced by one of the two.
	if cfg.TrialDelaySec == 0 && cfg.Fetch.RequestsPerSecond == 0 {
		return fmt.Errorf("%w: trial_delay_sec and fetch.requests_per_second cannot both be 0", ErrInvalidConfig)
	}
	if cfg.Start != nil {
		if cfg.Start.Page != "" && cfg.Start.URL == "" {
			return fmt.Errorf("%w: start page %q given without a start url", ErrInvalidConfig, cfg.Start.Page)
		}
		if cfg.Start.URL != "" && cfg.Start.Page == "" {
			return fmt.Errorf("%w: start url %q given without a start page", ErrInvalidConfig, cfg.Start.URL)
		}
		if cfg.Start.Page != "" && len(cfg.Datasets) > 0 {
			return fmt.Errorf("%w: a start page cannot be combined with datasets", ErrInvalidConfig)
		}
	}
	for i, ref := range cfg.Datasets {
		if ref.Path == "" {
			return fmt.Errorf("%w: datasets[%d]: path is required", ErrInvalidConfig, i)
		}
	}

	if len(cfg.Agents) == 0 {
		return fmt.Errorf("%w: no agents selected", ErrInvalidConfig)
	}
	seen := make(map[string]bool)
	for i, a := range cfg.Agents {
		if !agentTypes[a.Type] {
			return fmt.Errorf("%w: agents[%d]: unknown agent type %q", ErrInvalidConfig, i, a.Type)
		}
		if a.Type == models.AgentLLM && (a.Provider == "" || a.Model == "") {
			return fmt.Errorf("%w: agents[%d]: llm agents need provider and model", ErrInvalidConfig, i)
		}
		name := a.DisplayName()
		if seen[name] {
			return fmt.Errorf("%w: agents[%d]: duplicate agent name %q", ErrInvalidConfig, i, name)
		}
		seen[name] = true
	}
	return nil
}
