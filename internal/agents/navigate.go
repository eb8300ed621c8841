package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

const (
	toolGetPage  = "get_wikipedia_page"
	toolNavigate = "navigate_to_page"

	// DefaultToolIterations bounds the chat rounds of a tool-use solve.
	DefaultToolIterations = 20
	toolLinkLimit         = 50

	pathCompleteMarker = "PATH COMPLETE:"
)

var navigatorTools = func() []openai.Tool {
	titleParam := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"page_title": {Type: jsonschema.String, Description: "The title of the Wikipedia page"},
		},
		Required: []string{"page_title"},
	}
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolGetPage,
				Description: "Get the links available on a Wikipedia page",
				Parameters:  titleParam,
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolNavigate,
				Description: "Move to a Wikipedia page by following a link on the current page",
				Parameters:  titleParam,
			},
		},
	}
}()

type pageArgs struct {
	PageTitle string `json:"page_title"`
}

type pageLinksResult struct {
	PageTitle      string   `json:"page_title"`
	AvailableLinks []string `json:"available_links"`
	TotalLinks     int      `json:"total_links"`
}

type navigateResult struct {
	NavigatedTo string `json:"navigated_to"`
	Status      string `json:"status"`
}

type toolError struct {
	Error string `json:"error"`
}

// navigation tracks one tool-use solve. Navigate calls build the path; page
// lookups go through the live link source.
type navigation struct {
	source Linker
	target models.Page
	path   []string
}

// solveWithTools lets the model browse through function calls until it
// answers in text, reaches the target, or runs out of rounds. A failed page
// fetch aborts the solve and is returned with the partial path.
func (a *llmAgent) solveWithTools(ctx context.Context, start models.Page) (Solution, error) {
	if a.source == nil {
		return Solution{}, errors.New("tool use needs a link source")
	}
	nav := &navigation{source: a.source, target: a.target, path: []string{}}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.navigatorInstructions()},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(
			"Navigate from the Wikipedia page %q to %q. Start by getting the links on the starting page.",
			start.Title, a.target.Title)},
	}

	var raw strings.Builder
	for round := range a.toolIterations {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.model,
			Messages:    messages,
			Tools:       navigatorTools,
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
		})
		if err != nil {
			return Solution{Path: nav.path, RawResponse: raw.String()}, fmt.Errorf("chat completion (%s) round %d: %w", a.name, round, err)
		}
		if len(resp.Choices) == 0 {
			return Solution{Path: nav.path, RawResponse: raw.String()}, errors.New("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		if msg.Content != "" {
			raw.WriteString(msg.Content)
			raw.WriteString("\n")
		}
		if len(msg.ToolCalls) == 0 {
			if len(nav.path) == 0 {
				nav.path = parseCompletedPath(msg.Content, start.Title, a.target.Title)
			}
			break
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			out, err := nav.handle(ctx, call)
			if err != nil {
				return Solution{Path: nav.path, RawResponse: raw.String()}, fmt.Errorf("tool %s at round %d: %w", call.Function.Name, round, err)
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: call.ID,
			})
		}
		if nav.reached() {
			break
		}
	}

	a.o.log().Debug("llm navigation finished", "agent", a.name, "start", start.Title, "hops", len(nav.path))
	return Solution{Path: nav.path, RawResponse: strings.TrimSpace(raw.String())}, nil
}

// handle runs one tool call and returns its JSON output. Malformed calls are
// reported back to the model; only fetch failures are returned as errors.
func (n *navigation) handle(ctx context.Context, call openai.ToolCall) (string, error) {
	var args pageArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || strings.TrimSpace(args.PageTitle) == "" {
		return encodeTool(toolError{Error: "page_title is required"}), nil
	}
	title := strings.TrimSpace(args.PageTitle)

	switch call.Function.Name {
	case toolGetPage:
		links, err := n.source.PageLinks(ctx, n.source.URLForTitle(title))
		if err != nil {
			return "", err
		}
		res := pageLinksResult{PageTitle: title, AvailableLinks: []string{}, TotalLinks: len(links)}
		for _, l := range links[:min(len(links), toolLinkLimit)] {
			res.AvailableLinks = append(res.AvailableLinks, l.Title)
		}
		return encodeTool(res), nil
	case toolNavigate:
		if len(n.path) == 0 || n.path[len(n.path)-1] != title {
			n.path = append(n.path, title)
		}
		return encodeTool(navigateResult{NavigatedTo: title, Status: "success"}), nil
	default:
		return encodeTool(toolError{Error: "unknown function: " + call.Function.Name}), nil
	}
}

func (n *navigation) reached() bool {
	return len(n.path) > 0 && wiki.SameTitle(n.path[len(n.path)-1], n.target.Title)
}

func encodeTool(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"encoding tool output"}`
	}
	return string(b)
}

// parseCompletedPath reads the "PATH COMPLETE: a, b, c" answer a model gives
// when it answers without navigating.
func parseCompletedPath(text, start, target string) []string {
	_, after, ok := strings.Cut(text, pathCompleteMarker)
	if !ok {
		return []string{}
	}
	after = strings.Trim(strings.TrimSpace(after), "[]")
	if !hasArrow(after) && strings.Contains(after, ",") {
		after = strings.ReplaceAll(after, ",", "\n")
	}
	return ExtractPath(after, start, target)
}

func (a *llmAgent) navigatorInstructions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You navigate Wikipedia from a starting page to %q in as few steps as possible.\n\n", a.target.Title)
	b.WriteString("Rules:\n")
	b.WriteString("1. Move between pages only by following links that exist on the current page\n")
	fmt.Fprintf(&b, "2. Use %s to see the links on a page and %s to follow one\n", toolGetPage, toolNavigate)
	fmt.Fprintf(&b, "3. Stop when you navigate to %q\n\n", a.target.Title)
	fmt.Fprintf(&b, "When you are done, reply with %q followed by the titles you visited, comma separated.\n", pathCompleteMarker+" ")
	return b.String()
}
