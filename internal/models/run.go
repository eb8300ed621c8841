package models

import "time"

// RunConfig represents the parsed run.yaml configuration.
type RunConfig struct {
	Name                *string       `yaml:"name,omitempty" json:"name,omitempty"`
	OutputDir           string        `yaml:"output_dir" json:"output_dir"`
	TargetPage          string        `yaml:"target_page" json:"target_page"`
	TargetURL           string        `yaml:"target_url,omitempty" json:"target_url,omitempty"`
	Trials              int           `yaml:"trials" json:"trials"`
	Mode                string        `yaml:"mode" json:"mode"`
	NConcurrentPairings int           `yaml:"n_concurrent_pairings" json:"n_concurrent_pairings"`
	TrialDelaySec       float64       `yaml:"trial_delay_sec" json:"trial_delay_sec"`
	StrictPaths         bool          `yaml:"strict_paths,omitempty" json:"strict_paths,omitempty"`
	LogLevel            string        `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	Start               *StartConfig  `yaml:"start,omitempty" json:"start,omitempty"`
	Fetch               FetchConfig   `yaml:"fetch" json:"fetch"`
	Agents              []AgentConfig `yaml:"agents" json:"agents"`
	Datasets            []DatasetRef  `yaml:"datasets,omitempty" json:"datasets,omitempty"`
}

// StartConfig pins every trial to one starting page.
type StartConfig struct {
	Page string `yaml:"page" json:"page"`
	URL  string `yaml:"url" json:"url"`
}

// FetchConfig controls the link source.
type FetchConfig struct {
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	TimeoutSec        float64 `yaml:"timeout_sec" json:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" json:"user_agent"`
	SampleSize        int     `yaml:"sample_size" json:"sample_size"`
}

// DatasetRef points at a challenge file or a directory of challenge files.
type DatasetRef struct {
	Path string `yaml:"path" json:"path"`
}

// Target returns the configured target page.
func (c RunConfig) Target() Page {
	return Page{Title: c.TargetPage, URL: c.TargetURL}
}

// Report aggregates the trial results of one (agent, mode) pairing.
type Report struct {
	RunID             string        `json:"run_id"`
	AgentName         string        `json:"agent_name"`
	Mode              Mode          `json:"mode"`
	TargetPage        string        `json:"target_page"`
	TargetURL         string        `json:"target_url"`
	TotalTrials       int           `json:"total_trials"`
	SuccessfulTrials  int           `json:"successful_trials"`
	SuccessRate       float64       `json:"success_rate"`
	GaveUpCount       int           `json:"gave_up_count"`
	CheatedCount      int           `json:"cheated_count"`
	InvalidPathCount  int           `json:"invalid_path_count"`
	ErrorCount        int           `json:"error_count"`
	AverageScore      float64       `json:"average_score"`
	BestScore         int           `json:"best_score"`
	WorstScore        int           `json:"worst_score"`
	AveragePathLength float64       `json:"average_path_length"`
	StartedAt         time.Time     `json:"started_at"`
	EndedAt           time.Time     `json:"ended_at"`
	Results           []TrialResult `json:"results"`
}

// RunResult collects every report produced by one run.
type RunResult struct {
	RunID            string    `json:"run_id"`
	Name             string    `json:"name"`
	Cancelled        bool      `json:"cancelled"`
	TotalDurationSec float64   `json:"total_duration_sec"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	Reports          []*Report `json:"reports"`
	ReportPaths      []string  `json:"report_paths"`
}
