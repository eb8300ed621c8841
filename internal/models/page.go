package models

import "fmt"

// Page identifies a Wikipedia article. URL may be empty when only the title is known.
type Page struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Mode selects how an agent's path is judged.
type Mode string

const (
	// ModeNoToolUse accepts the agent's conceptual path at face value.
	ModeNoToolUse Mode = "no_tool_use"
	// ModeToolUse checks every hop against live link data.
	ModeToolUse Mode = "tool_use"
)

// ParseModes expands a mode flag value. "both" yields no_tool_use then tool_use.
func ParseModes(s string) ([]Mode, error) {
	switch s {
	case "both":
		return []Mode{ModeNoToolUse, ModeToolUse}, nil
	case string(ModeNoToolUse):
		return []Mode{ModeNoToolUse}, nil
	case string(ModeToolUse):
		return []Mode{ModeToolUse}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want no_tool_use, tool_use or both)", s)
	}
}
