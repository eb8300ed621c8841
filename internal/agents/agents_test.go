package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/wikibench/internal/models"
)

var bacon = models.Page{Title: "Kevin Bacon", URL: "wiki://Kevin Bacon"}

// graph is an in-memory link source keyed by title.
type graph map[string][]string

func (g graph) URLForTitle(title string) string { return "wiki://" + title }

func (g graph) PageLinks(_ context.Context, pageURL string) ([]models.Page, error) {
	title := pageURL[len("wiki://"):]
	titles, ok := g[title]
	if !ok {
		return nil, errors.New("no such page")
	}
	links := make([]models.Page, 0, len(titles))
	for _, t := range titles {
		links = append(links, models.Page{Title: t, URL: g.URLForTitle(t)})
	}
	return links, nil
}

func seed(v uint64) *uint64 { return &v }

func start(title string) models.Page { return models.Page{Title: title} }

func TestNew(t *testing.T) {
	for _, cfg := range Builtins() {
		a, err := New(cfg, bacon, graph{})
		require.NoError(t, err, cfg.Type)
		assert.Equal(t, cfg.Type, a.Name())
	}

	_, err := New(models.AgentConfig{Type: "oracle"}, bacon, graph{})
	assert.Error(t, err)

	_, err = New(models.AgentConfig{Type: models.AgentLLM, Provider: "acme", Model: "m"}, bacon, graph{})
	assert.Error(t, err)

	a, err := New(models.AgentConfig{Type: models.AgentLLM, Provider: "openai", Model: "gpt-4o"}, bacon, graph{})
	require.NoError(t, err)
	assert.Equal(t, "LLM-openai:gpt-4o", a.Name())
}

func TestCheatAndGiveUp(t *testing.T) {
	ctx := context.Background()

	cheat, _ := New(models.AgentConfig{Type: models.AgentCheat}, bacon, graph{})
	sol, err := cheat.Solve(ctx, start("Bradawl"), models.ModeToolUse)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kevin Bacon"}, sol.Path)

	giveUp, _ := New(models.AgentConfig{Type: models.AgentGiveUp}, bacon, graph{})
	sol, err = giveUp.Solve(ctx, start("Bradawl"), models.ModeNoToolUse)
	require.NoError(t, err)
	assert.Empty(t, sol.Path)
}

func TestRandomAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("conceptual path is seeded", func(t *testing.T) {
		cfg := models.AgentConfig{Type: models.AgentRandom, Seed: seed(7)}
		a1, _ := New(cfg, bacon, graph{})
		a2, _ := New(cfg, bacon, graph{})
		s1, err := a1.Solve(ctx, start("Bradawl"), models.ModeNoToolUse)
		require.NoError(t, err)
		s2, _ := a2.Solve(ctx, start("Bradawl"), models.ModeNoToolUse)
		assert.Equal(t, s1.Path, s2.Path)
		assert.GreaterOrEqual(t, len(s1.Path), 2)
		assert.LessOrEqual(t, len(s1.Path), 6)
	})

	t.Run("stops when target is linked", func(t *testing.T) {
		g := graph{"Bradawl": {"Tool", "Kevin Bacon"}}
		a, _ := New(models.AgentConfig{Type: models.AgentRandom, Seed: seed(1)}, bacon, g)
		sol, err := a.Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Kevin Bacon"}, sol.Path)
	})

	t.Run("target match ignores case", func(t *testing.T) {
		g := graph{"Bradawl": {"kevin bacon"}}
		a, _ := New(models.AgentConfig{Type: models.AgentRandom}, bacon, g)
		sol, err := a.Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Kevin Bacon"}, sol.Path)
	})

	t.Run("respects max steps", func(t *testing.T) {
		g := graph{"A": {"B"}, "B": {"A"}}
		a, _ := New(models.AgentConfig{Type: models.AgentRandom, MaxSteps: 3}, bacon, g)
		sol, err := a.Solve(ctx, start("A"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A", "B"}, sol.Path)
	})

	t.Run("fetch error aborts the walk", func(t *testing.T) {
		g := graph{"A": {"Missing"}}
		a, _ := New(models.AgentConfig{Type: models.AgentRandom}, bacon, g)
		sol, err := a.Solve(ctx, start("A"), models.ModeToolUse)
		assert.ErrorContains(t, err, "no such page")
		assert.Equal(t, []string{"Missing"}, sol.Path)
	})

	t.Run("cancelled context is returned", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		a, _ := New(models.AgentConfig{Type: models.AgentRandom}, bacon, cancelled{})
		_, err := a.Solve(cctx, start("A"), models.ModeToolUse)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type cancelled struct{ graph }

func (cancelled) PageLinks(ctx context.Context, _ string) ([]models.Page, error) {
	return nil, ctx.Err()
}

func TestGreedyAgent(t *testing.T) {
	g := graph{
		"Bradawl":        {"Bread", "American actor", "Zebra"},
		"American actor": {"Kevin Bacon"},
	}
	a, _ := New(models.AgentConfig{Type: models.AgentGreedy}, bacon, g)
	sol, err := a.Solve(context.Background(), start("Bradawl"), models.ModeToolUse)
	require.NoError(t, err)
	assert.Equal(t, []string{"American actor", "Kevin Bacon"}, sol.Path)

	sol, err = a.Solve(context.Background(), start("Bradawl"), models.ModeNoToolUse)
	require.NoError(t, err)
	assert.Equal(t, "Kevin Bacon", sol.Path[len(sol.Path)-1])
}

func TestGreedyScore(t *testing.T) {
	assert.Equal(t, 0, greedyScore("Zebra"))
	assert.Equal(t, 1, greedyScore("Film"))
	assert.Equal(t, 3, greedyScore("American actor"))
}

func TestHeuristicAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers weighted terms", func(t *testing.T) {
		g := graph{
			"Bradawl":    {"List of films", "Film actor", "Zoo"},
			"Film actor": {"Kevin Bacon"},
		}
		a, _ := New(models.AgentConfig{Type: models.AgentHeuristic}, bacon, g)
		sol, err := a.Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Film actor", "Kevin Bacon"}, sol.Path)
	})

	t.Run("never revisits", func(t *testing.T) {
		g := graph{
			"Start": {"Actor"},
			"Actor": {"Start", "Zoo"},
			"Zoo":   {},
		}
		a, _ := New(models.AgentConfig{Type: models.AgentHeuristic}, bacon, g)
		sol, err := a.Solve(ctx, start("Start"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Actor", "Zoo"}, sol.Path)
	})

	t.Run("stops when everything is visited", func(t *testing.T) {
		g := graph{"Start": {"Actor"}, "Actor": {"Start"}}
		a, _ := New(models.AgentConfig{Type: models.AgentHeuristic}, bacon, g)
		sol, err := a.Solve(ctx, start("Start"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Actor"}, sol.Path)
	})

	t.Run("scores target tokens", func(t *testing.T) {
		a := newHeuristic("h", models.AgentConfig{}, bacon, graph{}, options{})
		assert.Greater(t, a.score(0, "Bacon (food)"), a.score(0, "Actor"))
		assert.Less(t, a.score(0, "List of zoos"), a.score(0, "Zoo"))
		assert.Greater(t, a.score(6, "Kevin"), a.score(0, "Kevin"))
	})
}

func TestParseLLM(t *testing.T) {
	cfg, err := ParseLLM("OpenAI:gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, models.AgentLLM, cfg.Type)

	for _, bad := range []string{"openai", ":gpt", "openai:", ""} {
		_, err := ParseLLM(bad)
		assert.Error(t, err, bad)
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, `"Bradawl"`)
		assert.Contains(t, req.Messages[0].Content, "Target page: Kevin Bacon")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLLMAgent(t *testing.T) {
	env := func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "sk-test"
		}
		return ""
	}

	t.Run("parses answer", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, "Here is the path:\n1. Tool\n2. Kevin Bacon\n")
		cfg := models.AgentConfig{Type: models.AgentLLM, Provider: "openai", Model: "gpt-4o", BaseURL: srv.URL}
		a, err := New(cfg, bacon, nil, WithGetenv(env))
		require.NoError(t, err)

		sol, err := a.Solve(context.Background(), start("Bradawl"), models.ModeNoToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tool", "Kevin Bacon"}, sol.Path)
		assert.Contains(t, sol.RawResponse, "1. Tool")
	})

	t.Run("api error", func(t *testing.T) {
		srv := chatServer(t, http.StatusInternalServerError, "")
		cfg := models.AgentConfig{Type: models.AgentLLM, Provider: "openai", Model: "gpt-4o", BaseURL: srv.URL}
		a, err := New(cfg, bacon, nil, WithGetenv(env))
		require.NoError(t, err)

		_, err = a.Solve(context.Background(), start("Bradawl"), models.ModeNoToolUse)
		assert.Error(t, err)
	})
}

type chatRequest struct {
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	} `json:"messages"`
	Tools []struct {
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func toolCall(id, name, title string) map[string]any {
	return map[string]any{
		"id":       id,
		"type":     "function",
		"function": map[string]any{"name": name, "arguments": `{"page_title":"` + title + `"}`},
	}
}

// scriptedChat answers each chat request with the next message in replies
// and records the requests it saw.
func scriptedChat(t *testing.T, replies ...map[string]any) (*httptest.Server, func() []chatRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []chatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		n := len(seen)
		mu.Unlock()
		require.LessOrEqual(t, n, len(replies), "unexpected extra chat round")

		msg := map[string]any{"role": "assistant", "content": ""}
		for k, v := range replies[n-1] {
			msg[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o",
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": msg}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, func() []chatRequest {
		mu.Lock()
		defer mu.Unlock()
		return slices.Clone(seen)
	}
}

func TestLLMAgentToolUse(t *testing.T) {
	env := func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "sk-test"
		}
		return ""
	}
	g := graph{
		"Bradawl": {"Tool", "Hammer"},
		"Tool":    {"Kevin Bacon"},
	}
	newAgent := func(t *testing.T, url string, maxSteps int) Agent {
		t.Helper()
		cfg := models.AgentConfig{Type: models.AgentLLM, Provider: "openai", Model: "gpt-4o", BaseURL: url, MaxSteps: maxSteps}
		a, err := New(cfg, bacon, g, WithGetenv(env))
		require.NoError(t, err)
		return a
	}
	ctx := context.Background()

	t.Run("path comes from navigate calls", func(t *testing.T) {
		srv, seen := scriptedChat(t,
			map[string]any{"tool_calls": []any{
				toolCall("call-1", toolGetPage, "Bradawl"),
				toolCall("call-2", toolNavigate, "Tool"),
			}},
			map[string]any{"tool_calls": []any{toolCall("call-3", toolNavigate, "Kevin Bacon")}},
		)
		sol, err := newAgent(t, srv.URL, 0).Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tool", "Kevin Bacon"}, sol.Path)

		reqs := seen()
		require.Len(t, reqs, 2)
		first := reqs[0]
		require.Len(t, first.Tools, 2)
		assert.Equal(t, toolGetPage, first.Tools[0].Function.Name)
		assert.Equal(t, toolNavigate, first.Tools[1].Function.Name)

		second := reqs[1].Messages
		require.Len(t, second, 5)
		assert.Equal(t, "tool", second[3].Role)
		assert.Equal(t, "call-1", second[3].ToolCallID)
		assert.JSONEq(t, `{"page_title":"Bradawl","available_links":["Tool","Hammer"],"total_links":2}`, second[3].Content)
		assert.Equal(t, "call-2", second[4].ToolCallID)
		assert.Contains(t, second[4].Content, `"navigated_to":"Tool"`)
	})

	t.Run("final answer without navigating", func(t *testing.T) {
		srv, _ := scriptedChat(t,
			map[string]any{"content": "PATH COMPLETE: Tool, Kevin Bacon"},
		)
		sol, err := newAgent(t, srv.URL, 0).Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tool", "Kevin Bacon"}, sol.Path)
		assert.Contains(t, sol.RawResponse, "PATH COMPLETE")
	})

	t.Run("malformed call is reported to the model", func(t *testing.T) {
		srv, seen := scriptedChat(t,
			map[string]any{"tool_calls": []any{map[string]any{
				"id": "call-1", "type": "function",
				"function": map[string]any{"name": toolGetPage, "arguments": "{"},
			}}},
			map[string]any{"content": "I give up"},
		)
		sol, err := newAgent(t, srv.URL, 0).Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Empty(t, sol.Path)
		reqs := seen()
		require.Len(t, reqs, 2)
		assert.Contains(t, reqs[1].Messages[3].Content, "page_title is required")
	})

	t.Run("fetch error aborts the solve", func(t *testing.T) {
		srv, _ := scriptedChat(t,
			map[string]any{"tool_calls": []any{toolCall("call-1", toolNavigate, "Tool")}},
			map[string]any{"tool_calls": []any{toolCall("call-2", toolGetPage, "Nowhere")}},
		)
		sol, err := newAgent(t, srv.URL, 0).Solve(ctx, start("Bradawl"), models.ModeToolUse)
		assert.ErrorContains(t, err, "no such page")
		assert.Equal(t, []string{"Tool"}, sol.Path)
	})

	t.Run("rounds are bounded", func(t *testing.T) {
		srv, seen := scriptedChat(t,
			map[string]any{"tool_calls": []any{toolCall("call-1", toolGetPage, "Bradawl")}},
			map[string]any{"tool_calls": []any{toolCall("call-2", toolGetPage, "Tool")}},
		)
		sol, err := newAgent(t, srv.URL, 2).Solve(ctx, start("Bradawl"), models.ModeToolUse)
		require.NoError(t, err)
		assert.Empty(t, sol.Path)
		assert.Len(t, seen(), 2)
	})
}

func TestAnthropicAlias(t *testing.T) {
	a, err := newLLM("x", models.AgentConfig{Provider: "anthropic", Model: "claude-3.5-sonnet"}, bacon, nil, options{getenv: func(string) string { return "" }})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-20240620", a.model)
}

func TestExtractPath(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain lines", "Tool\nFootloose\nKevin Bacon", []string{"Tool", "Footloose", "Kevin Bacon"}},
		{"bullets and numbers", "- Tool\n* Footloose\n3. Kevin Bacon", []string{"Tool", "Footloose", "Kevin Bacon"}},
		{"titles starting with digits", "1984 (novel)\n2001: A Space Odyssey (film)\nKevin Bacon", []string{"1984 (novel)", "2001: A Space Odyssey (film)", "Kevin Bacon"}},
		{"numbered titles starting with digits", "1. 1984 (novel)\n2) 2001: A Space Odyssey (film)\n3. Kevin Bacon", []string{"1984 (novel)", "2001: A Space Odyssey (film)", "Kevin Bacon"}},
		{"quotes", "\"Tool\"\n'Kevin Bacon'", []string{"Tool", "Kevin Bacon"}},
		{"commentary skipped", "Here is a path\nThe path is:\nTool\nKevin Bacon", []string{"Tool", "Kevin Bacon"}},
		{"start page skipped", "bradawl\nTool\nKevin Bacon", []string{"Tool", "Kevin Bacon"}},
		{"target appended", "Tool\nFootloose", []string{"Tool", "Footloose", "Kevin Bacon"}},
		{"truncated after target", "Tool\nkevin bacon\nFootloose", []string{"Tool", "kevin bacon"}},
		{"arrow line", "Bradawl -> Tool → Kevin Bacon", []string{"Tool", "Kevin Bacon"}},
		{"arrow without target", "Tool -> Footloose", []string{"Tool", "Footloose", "Kevin Bacon"}},
		{"empty", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPath(tt.text, "Bradawl", "Kevin Bacon"))
		})
	}
}
