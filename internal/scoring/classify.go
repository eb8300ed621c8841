// Package scoring classifies trial outcomes and turns them into scores.
package scoring

import (
	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/wiki"
)

// Outcome holds the classification flags for one trial. Cheated and Success
// can both be set: a real one-hop link to the target is a cheat that succeeded.
type Outcome struct {
	GaveUp      bool
	Cheated     bool
	InvalidPath bool
	Success     bool
}

// Classify decides the outcome of a path claimed from start toward target.
// verdict is only consulted in tool-use mode; a nil verdict there counts as valid.
func Classify(path []string, target string, mode models.Mode, verdict *models.Verdict) Outcome {
	if len(path) == 0 {
		return Outcome{GaveUp: true}
	}

	var o Outcome
	o.Cheated = len(path) == 1 && path[0] == target
	if mode == models.ModeToolUse && verdict != nil {
		o.InvalidPath = !verdict.Valid
	}
	o.Success = wiki.SameTitle(path[len(path)-1], target) && !o.InvalidPath
	return o
}

// Label names the dominant outcome, for logs and metrics.
func (o Outcome) Label() string {
	switch {
	case o.GaveUp:
		return "gave_up"
	case o.InvalidPath:
		return "invalid_path"
	case o.Cheated:
		return "cheated"
	case o.Success:
		return "success"
	default:
		return "missed"
	}
}
