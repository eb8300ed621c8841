package agents

import (
	"regexp"
	"strings"
)

var (
	listPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)
	arrowSplit = regexp.MustCompile(`\s*(?:->|→)\s*`)
)

// maxArrowWords drops arrow-separated chunks that read like commentary.
const maxArrowWords = 7

// ExtractPath parses a model answer into page titles. It expects one title per
// line and tolerates bullets, numbering, quotes, lead-in commentary and a
// repeated start page. The path always ends at the target when any title was
// found: later lines are cut off after the target, or the target is appended.
// Answers written on one line as "A -> B -> C" are handled as a fallback.
func ExtractPath(text, start, target string) []string {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "\n") && hasArrow(trimmed) {
		return arrowPath(trimmed, start, target)
	}

	path := []string{}
	for _, line := range strings.Split(trimmed, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		s = listPrefix.ReplaceAllString(s, "")
		s = strings.Trim(strings.Trim(s, `"`), "'")
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "here") || strings.HasPrefix(lower, "path") || strings.HasPrefix(lower, "the path") {
			continue
		}
		if s == "" || strings.EqualFold(s, start) {
			continue
		}
		path = append(path, s)
	}
	path = endAtTarget(path, target)

	if len(path) == 0 && hasArrow(text) {
		return arrowPath(text, start, target)
	}
	return path
}

func hasArrow(s string) bool {
	return strings.Contains(s, "->") || strings.Contains(s, "→")
}

func arrowPath(text, start, target string) []string {
	path := []string{}
	for _, piece := range arrowSplit.Split(text, -1) {
		p := strings.Trim(strings.Trim(strings.TrimSpace(piece), `"`), "'")
		if p == "" || strings.EqualFold(p, start) {
			continue
		}
		if len(strings.Fields(p)) > maxArrowWords {
			continue
		}
		path = append(path, p)
	}
	if len(path) > 0 && !strings.EqualFold(path[len(path)-1], target) {
		path = append(path, target)
	}
	return path
}

func endAtTarget(path []string, target string) []string {
	if len(path) == 0 || strings.EqualFold(path[len(path)-1], target) {
		return path
	}
	for i, p := range path {
		if strings.EqualFold(p, target) {
			return path[:i+1]
		}
	}
	return append(path, target)
}
