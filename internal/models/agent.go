package models

// Agent types understood by the agent factory.
const (
	AgentRandom    = "random"
	AgentGreedy    = "greedy"
	AgentHeuristic = "heuristic"
	AgentCheat     = "cheat"
	AgentGiveUp    = "giveup"
	AgentLLM       = "llm"
)

// AgentConfig represents an agent definition from the run config.
type AgentConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type" json:"type"`
	MaxSteps    int      `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
	Seed        *uint64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	Provider    string   `yaml:"provider,omitempty" json:"provider,omitempty"`
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Temperature *float32 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// DisplayName returns the name used in reports and file names.
func (a AgentConfig) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Type == AgentLLM {
		return "LLM-" + a.Provider + ":" + a.Model
	}
	return a.Type
}
