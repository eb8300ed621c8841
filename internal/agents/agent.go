// Package agents contains the path-finding agents evaluated by a run.
package agents

import (
	"context"
	"fmt"

	"github.com/spachava753/wikibench/internal/models"
)

// Solution is the answer an agent gives for one trial.
type Solution struct {
	// Path lists the page titles after the start page, in order. An empty
	// path means the agent gave up.
	Path []string
	// RawResponse holds the unparsed model output for LLM agents.
	RawResponse string
}

// Agent finds a path from a start page to the target it was built with.
// Agents are not safe for concurrent use; build one per pairing.
type Agent interface {
	Name() string
	Solve(ctx context.Context, start models.Page, mode models.Mode) (Solution, error)
}

// Linker is the read side of the link source that browsing agents need.
type Linker interface {
	PageLinks(ctx context.Context, pageURL string) ([]models.Page, error)
	URLForTitle(title string) string
}

// Builtins returns configs for every agent that needs no external service.
func Builtins() []models.AgentConfig {
	return []models.AgentConfig{
		{Type: models.AgentRandom},
		{Type: models.AgentGreedy},
		{Type: models.AgentHeuristic},
		{Type: models.AgentCheat},
		{Type: models.AgentGiveUp},
	}
}

// New builds an agent from its config. The target is passed in explicitly so
// agents never read it from the environment.
func New(cfg models.AgentConfig, target models.Page, source Linker, opts ...Option) (Agent, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	name := cfg.DisplayName()
	switch cfg.Type {
	case models.AgentRandom:
		return newRandom(name, cfg, target, source, o), nil
	case models.AgentGreedy:
		return newGreedy(name, cfg, target, source, o), nil
	case models.AgentHeuristic:
		return newHeuristic(name, cfg, target, source, o), nil
	case models.AgentCheat:
		return &cheatAgent{name: name, target: target}, nil
	case models.AgentGiveUp:
		return &giveUpAgent{name: name}, nil
	case models.AgentLLM:
		a, err := newLLM(name, cfg, target, source, o)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown agent type %q", cfg.Type)
	}
}

// cheatAgent always claims the target is one hop away.
type cheatAgent struct {
	name   string
	target models.Page
}

func (a *cheatAgent) Name() string { return a.name }

func (a *cheatAgent) Solve(_ context.Context, _ models.Page, _ models.Mode) (Solution, error) {
	return Solution{Path: []string{a.target.Title}}, nil
}

// giveUpAgent never answers.
type giveUpAgent struct {
	name string
}

func (a *giveUpAgent) Name() string { return a.name }

func (a *giveUpAgent) Solve(_ context.Context, _ models.Page, _ models.Mode) (Solution, error) {
	return Solution{Path: []string{}}, nil
}
