package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

const (
	DefaultRandomSteps    = 10
	DefaultGreedySteps    = 15
	DefaultHeuristicSteps = 20
)

// chooser picks the next link to follow. ok=false stops the walk.
type chooser func(step int, links []models.Page) (next models.Page, ok bool)

// walker follows live links from the start page until the target shows up,
// the chooser stops, or maxSteps hops have been taken. A failed fetch aborts
// the walk and is returned with the partial path.
type walker struct {
	source   Linker
	target   models.Page
	maxSteps int
	logger   *slog.Logger
}

func (w walker) walk(ctx context.Context, start models.Page, choose chooser) ([]string, error) {
	current := start.URL
	if current == "" {
		current = w.source.URLForTitle(start.Title)
	}

	path := []string{}
	for step := range w.maxSteps {
		links, err := w.source.PageLinks(ctx, current)
		if err != nil {
			w.logger.Debug("walk aborted", "url", current, "step", step, "error", err)
			return path, fmt.Errorf("following links at step %d: %w", step, err)
		}
		if len(links) == 0 {
			break
		}

		if slices.ContainsFunc(links, func(l models.Page) bool { return wiki.SameTitle(l.Title, w.target.Title) }) {
			return append(path, w.target.Title), nil
		}

		next, ok := choose(step, links)
		if !ok {
			break
		}
		path = append(path, next.Title)
		current = next.URL
	}
	return path, nil
}

func newRand(seed *uint64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, *seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func steps(configured, def int) int {
	if configured > 0 {
		return configured
	}
	return def
}

// randomAgent follows uniformly random links. Without tools it strings
// together entertainment-flavored guesses.
type randomAgent struct {
	name   string
	target models.Page
	rng    *rand.Rand
	walker walker
}

func newRandom(name string, cfg models.AgentConfig, target models.Page, source Linker, o options) *randomAgent {
	return &randomAgent{
		name:   name,
		target: target,
		rng:    newRand(cfg.Seed),
		walker: walker{source: source, target: target, maxSteps: steps(cfg.MaxSteps, DefaultRandomSteps), logger: o.log()},
	}
}

func (a *randomAgent) Name() string { return a.name }

func (a *randomAgent) Solve(ctx context.Context, start models.Page, mode models.Mode) (Solution, error) {
	if mode == models.ModeNoToolUse {
		pool := []string{"Actor", "Film", "Hollywood", a.target.Title, "Celebrity", "Movie", "Entertainment", a.target.Title}
		n := 2 + a.rng.IntN(5)
		path := make([]string, n)
		for i := range path {
			path[i] = pool[a.rng.IntN(len(pool))]
		}
		return Solution{Path: path}, nil
	}

	path, err := a.walker.walk(ctx, start, func(_ int, links []models.Page) (models.Page, bool) {
		return links[a.rng.IntN(len(links))], true
	})
	return Solution{Path: path}, err
}

var (
	actorKeywords = []string{
		"actor", "actress", "film", "movie", "cinema", "hollywood",
		"director", "producer", "celebrity", "star", "entertainment",
		"television", "tv", "show", "series", "drama", "comedy",
	}
	anglophoneKeywords = []string{"american", "english", "british", "united states"}
)

// greedyAgent takes the link whose title mentions the most acting and film
// keywords, falling back to a random early link.
type greedyAgent struct {
	name   string
	target models.Page
	rng    *rand.Rand
	walker walker
}

func newGreedy(name string, cfg models.AgentConfig, target models.Page, source Linker, o options) *greedyAgent {
	return &greedyAgent{
		name:   name,
		target: target,
		rng:    newRand(cfg.Seed),
		walker: walker{source: source, target: target, maxSteps: steps(cfg.MaxSteps, DefaultGreedySteps), logger: o.log()},
	}
}

func (a *greedyAgent) Name() string { return a.name }

func (a *greedyAgent) Solve(ctx context.Context, start models.Page, mode models.Mode) (Solution, error) {
	if mode == models.ModeNoToolUse {
		return Solution{Path: []string{"Entertainment industry", "American actor", "Hollywood", a.target.Title}}, nil
	}

	path, err := a.walker.walk(ctx, start, func(_ int, links []models.Page) (models.Page, bool) {
		best, bestScore := models.Page{}, 0
		for _, l := range links {
			if s := greedyScore(l.Title); s > bestScore {
				best, bestScore = l, s
			}
		}
		if bestScore > 0 {
			return best, true
		}
		top := links[:min(10, len(links))]
		return top[a.rng.IntN(len(top))], true
	})
	return Solution{Path: path}, err
}

func greedyScore(title string) int {
	lower := strings.ToLower(title)
	score := 0
	for _, kw := range actorKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	if containsAny(lower, anglophoneKeywords) {
		score += 2
	}
	return score
}

// heuristicAgent scores links against weighted term groups, never revisits a
// page, and shifts from broad to target-specific terms as the walk goes on.
type heuristicAgent struct {
	name    string
	target  models.Page
	rng     *rand.Rand
	walker  walker
	groups  [][]string
	late    []string
	visited map[string]bool
}

func newHeuristic(name string, cfg models.AgentConfig, target models.Page, source Linker, o options) *heuristicAgent {
	lower := strings.ToLower(target.Title)
	fields := strings.Fields(lower)
	tail := lower
	if len(fields) > 0 {
		tail = fields[len(fields)-1]
	}
	return &heuristicAgent{
		name:   name,
		target: target,
		rng:    newRand(cfg.Seed),
		walker: walker{source: source, target: target, maxSteps: steps(cfg.MaxSteps, DefaultHeuristicSteps), logger: o.log()},
		groups: [][]string{
			{lower, tail},
			{"actor", "actress", "performer"},
			{"film", "movie", "cinema"},
			{"american", "united states", "usa"},
			{"hollywood", "entertainment"},
			{"television", "tv", "show"},
			{"celebrity", "star", "famous"},
		},
		late: append(fields, "actor", "film"),
	}
}

func (a *heuristicAgent) Name() string { return a.name }

func (a *heuristicAgent) Solve(ctx context.Context, start models.Page, mode models.Mode) (Solution, error) {
	a.visited = map[string]bool{start.Title: true}

	if mode == models.ModeNoToolUse {
		return Solution{Path: []string{"United States", "American cinema", "Hollywood", "American actor", a.target.Title}}, nil
	}

	path, err := a.walker.walk(ctx, start, func(step int, links []models.Page) (models.Page, bool) {
		next := a.best(step, links)
		if a.visited[next.Title] {
			var unvisited []models.Page
			for _, l := range links {
				if !a.visited[l.Title] {
					unvisited = append(unvisited, l)
				}
			}
			if len(unvisited) == 0 {
				return models.Page{}, false
			}
			next = unvisited[a.rng.IntN(len(unvisited))]
		}
		a.visited[next.Title] = true
		return next, true
	})
	return Solution{Path: path}, err
}

// best returns the highest scoring link, the first one on ties.
func (a *heuristicAgent) best(step int, links []models.Page) models.Page {
	best, bestScore := links[0], a.score(step, links[0].Title)
	for _, l := range links[1:] {
		if s := a.score(step, l.Title); s > bestScore {
			best, bestScore = l, s
		}
	}
	return best
}

func (a *heuristicAgent) score(step int, title string) int {
	lower := strings.ToLower(title)
	score := 0
	for i, group := range a.groups {
		if containsAny(lower, group) {
			score += (len(a.groups) - i) * 10
		}
	}
	// birth years usually mean a biography
	if strings.Contains(lower, "born") && (strings.Contains(title, "19") || strings.Contains(title, "20")) {
		score += 5
	}
	if containsAny(lower, []string{"list of", "category:", "disambiguation"}) {
		score -= 5
	}
	if step < 5 {
		if containsAny(lower, []string{"united states", "american", "film", "actor"}) {
			score += 3
		}
	} else if containsAny(lower, a.late) {
		score += 5
	}
	return score
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
