package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spachava753/wikibench/internal/models"
)

const (
	exampleTrials   = 3
	responsePreview = 800
	suggestions     = 5
	rule            = "============================================================"
)

// preview cuts s to at most n bytes without splitting a rune.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "... [truncated]"
}

// printReport writes the summary block for one pairing.
func printReport(w io.Writer, r *models.Report, path string) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "Results Summary for %s (%s):\n", r.AgentName, r.Mode)
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Success Rate: %.1f%%\n", r.SuccessRate)
	fmt.Fprintf(w, "Average Score: %.1f\n", r.AverageScore)
	fmt.Fprintf(w, "Best Score: %d\n", r.BestScore)
	fmt.Fprintf(w, "Worst Score: %d\n", r.WorstScore)
	fmt.Fprintf(w, "Average Path Length: %.1f\n", r.AveragePathLength)
	fmt.Fprintf(w, "Gave Up: %d/%d\n", r.GaveUpCount, r.TotalTrials)
	fmt.Fprintf(w, "Cheated: %d/%d\n", r.CheatedCount, r.TotalTrials)
	fmt.Fprintf(w, "Invalid Paths: %d/%d\n", r.InvalidPathCount, r.TotalTrials)
	if r.ErrorCount > 0 {
		fmt.Fprintf(w, "Errors: %d/%d\n", r.ErrorCount, r.TotalTrials)
	}

	fmt.Fprintln(w, "\nExample Results:")
	for i, res := range r.Results[:min(exampleTrials, len(r.Results))] {
		route := "GAVE UP"
		if len(res.Path) > 0 {
			route = strings.Join(res.Path, " -> ")
		}
		fmt.Fprintf(w, "  Trial %d: %s -> %s\n", i+1, res.StartPage, route)
		fmt.Fprintf(w, "    Score: %d, Success: %t\n", res.Score, res.Success)
		if res.Failed() {
			fmt.Fprintf(w, "    Error (%s): %s\n", res.ErrorType, *res.ErrorMessage)
		}
		if raw := strings.TrimSpace(res.RawResponse); raw != "" {
			raw = preview(raw, responsePreview)
			fmt.Fprintln(w, "    LLM Response:")
			for _, line := range strings.Split(raw, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}

	if path != "" {
		fmt.Fprintf(w, "\nDetailed results saved to: %s\n", path)
	}
}

// printVerdict narrates each hop and prints the summary for a validated path.
func printVerdict(w io.Writer, start models.Page, path []string, v models.Verdict, score int) {
	fmt.Fprintf(w, "Validating path: %s\n", strings.Join(append([]string{start.Title}, path...), " → "))
	fmt.Fprintln(w, rule)

	for _, hop := range v.Hops {
		fmt.Fprintf(w, "\nStep %d: %s → %s\n", hop.Index+1, hop.From, hop.To)
		fmt.Fprintf(w, "  Checking links on: %s\n", hop.FromURL)
		switch hop.Status {
		case models.HopValid:
			fmt.Fprintf(w, "  ✓ Found '%s' in links\n", hop.To)
		case models.HopLinkMissing:
			fmt.Fprintf(w, "  ✗ '%s' NOT found in links\n", hop.To)
			fmt.Fprintf(w, "    Available links (first %d): %s\n", len(hop.AvailableLinks), strings.Join(hop.AvailableLinks, ", "))
		default:
			fmt.Fprintf(w, "  ✗ Error checking page: %s\n", hop.Error)
		}
	}

	fmt.Fprintf(w, "\n%s\nVALIDATION SUMMARY\n%s\n", rule, rule)
	if v.Valid {
		fmt.Fprintln(w, "Path is VALID!")
		fmt.Fprintf(w, "Successfully validated all %d steps\n", len(v.Hops))
	} else {
		errs := v.Errors()
		fmt.Fprintln(w, "Path is INVALID!")
		fmt.Fprintf(w, "Found %d error(s):\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	fmt.Fprintf(w, "WikiBench score: %d (lower is better)\n", score)

	var missing []models.Hop
	for _, hop := range v.Hops {
		if hop.Status == models.HopLinkMissing && len(hop.AvailableLinks) > 0 {
			missing = append(missing, hop)
		}
	}
	if len(missing) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSuggestions for fixing invalid steps:")
	for _, hop := range missing {
		fmt.Fprintf(w, "\nStep %d (%s → %s):\n", hop.Index+1, hop.From, hop.To)
		fmt.Fprintln(w, "  Consider these available alternatives:")
		for _, l := range hop.AvailableLinks[:min(suggestions, len(hop.AvailableLinks))] {
			fmt.Fprintf(w, "    - %s\n", l)
		}
	}
}

func validLabel(ok bool) string {
	if ok {
		return "VALID"
	}
	return "INVALID"
}
