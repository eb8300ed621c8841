package agents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spachava753/wikibench/internal/models"
)

const (
	defaultLLMTemperature = float32(0.1)
	defaultLLMMaxTokens   = 800
)

// provider describes an OpenAI-compatible chat endpoint.
type provider struct {
	baseURL    string
	baseURLEnv string
	keyEnvs    []string
}

var providers = map[string]provider{
	"openai": {
		baseURL:    "https://api.openai.com/v1",
		baseURLEnv: "OPENAI_BASE_URL",
		keyEnvs:    []string{"OPENAI_API_KEY"},
	},
	"openrouter": {
		baseURL:    "https://openrouter.ai/api/v1",
		baseURLEnv: "OPENROUTER_BASE_URL",
		keyEnvs:    []string{"OPENROUTER_API_KEY"},
	},
	"kimi": {
		baseURL:    "https://api.moonshot.cn/v1",
		baseURLEnv: "KIMI_BASE_URL",
		keyEnvs:    []string{"KIMI_API_KEY", "MOONSHOT_API_KEY"},
	},
	"anthropic": {
		baseURL:    "https://api.anthropic.com/v1",
		baseURLEnv: "ANTHROPIC_BASE_URL",
		keyEnvs:    []string{"ANTHROPIC_API_KEY"},
	},
}

var anthropicAliases = map[string]string{
	"claude-3-5-sonnet": "claude-3-5-sonnet-20240620",
	"claude-3-opus":     "claude-3-opus-20240229",
	"claude-3-sonnet":   "claude-3-sonnet-20240229",
	"claude-3-haiku":    "claude-3-haiku-20240307",
}

// ParseLLM splits a "provider:model" flag value into an agent config.
func ParseLLM(value string) (models.AgentConfig, error) {
	prov, model, ok := strings.Cut(value, ":")
	prov = strings.ToLower(strings.TrimSpace(prov))
	model = strings.TrimSpace(model)
	if !ok || prov == "" || model == "" {
		return models.AgentConfig{}, fmt.Errorf("llm agent %q: want provider:model", value)
	}
	return models.AgentConfig{Type: models.AgentLLM, Provider: prov, Model: model}, nil
}

// llmAgent asks a chat model for a path. Without tools it parses a single
// answer; in tool_use mode it browses through function calls.
type llmAgent struct {
	name           string
	target         models.Page
	source         Linker
	client         *openai.Client
	model          string
	temperature    float32
	maxTokens      int
	toolIterations int
	o              options
}

func newLLM(name string, cfg models.AgentConfig, target models.Page, source Linker, o options) (*llmAgent, error) {
	prov, ok := providers[strings.ToLower(cfg.Provider)]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	getenv := o.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	var key string
	for _, env := range prov.keyEnvs {
		if key = getenv(env); key != "" {
			break
		}
	}

	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = prov.baseURL
	if v := getenv(prov.baseURLEnv); v != "" {
		clientCfg.BaseURL = v
	}
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if o.httpClient != nil {
		clientCfg.HTTPClient = o.httpClient
	}

	model := cfg.Model
	if strings.EqualFold(cfg.Provider, "anthropic") {
		m := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(model, "/", ":"), "3.5", "3-5"))
		if full, ok := anthropicAliases[m]; ok {
			model = full
		}
	}

	a := &llmAgent{
		name:           name,
		target:         target,
		source:         source,
		client:         openai.NewClientWithConfig(clientCfg),
		model:          model,
		temperature:    defaultLLMTemperature,
		maxTokens:      defaultLLMMaxTokens,
		toolIterations: steps(cfg.MaxSteps, DefaultToolIterations),
		o:              o,
	}
	if cfg.Temperature != nil {
		a.temperature = *cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		a.maxTokens = cfg.MaxTokens
	}
	return a, nil
}

func (a *llmAgent) Name() string { return a.name }

func (a *llmAgent) Solve(ctx context.Context, start models.Page, mode models.Mode) (Solution, error) {
	if mode == models.ModeToolUse {
		return a.solveWithTools(ctx, start)
	}
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: a.prompt(start.Title)},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return Solution{}, fmt.Errorf("chat completion (%s): %w", a.name, err)
	}
	if len(resp.Choices) == 0 {
		return Solution{}, errors.New("chat completion returned no choices")
	}

	text := resp.Choices[0].Message.Content
	path := ExtractPath(text, start.Title, a.target.Title)
	a.o.log().Debug("llm answered", "agent", a.name, "start", start.Title, "hops", len(path))
	return Solution{Path: path, RawResponse: text}, nil
}

func (a *llmAgent) prompt(start string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find a path from the Wikipedia page %q to %q by following only on-wiki links.\n\n", start, a.target.Title)
	fmt.Fprintf(&b, "Starting page: %s\nTarget page: %s\n\n", start, a.target.Title)
	b.WriteString("Output format (strict):\n")
	b.WriteString("- Only the list of Wikipedia page titles, one per line\n")
	b.WriteString("- Do NOT include the starting page in your list\n")
	b.WriteString("- The last line MUST be the target page\n")
	b.WriteString("- No bullets, numbers, dashes, or commentary\n")
	return b.String()
}
