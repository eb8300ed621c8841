package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spachava753/wikibench/internal/models"
)

// Aggregate builds the report for one (agent, mode) pairing.
func Aggregate(runID, agentName string, mode models.Mode, target models.Page, results []models.TrialResult, startedAt, endedAt time.Time) *models.Report {
	r := &models.Report{
		RunID:       runID,
		AgentName:   agentName,
		Mode:        mode,
		TargetPage:  target.Title,
		TargetURL:   target.URL,
		TotalTrials: len(results),
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		Results:     results,
	}
	if r.Results == nil {
		r.Results = []models.TrialResult{}
	}
	if len(results) == 0 {
		return r
	}

	var scoreSum, pathSum, pathCount int
	r.BestScore = results[0].Score
	r.WorstScore = results[0].Score
	for _, res := range results {
		if res.Success {
			r.SuccessfulTrials++
		}
		if res.GaveUp {
			r.GaveUpCount++
		}
		if res.Cheated {
			r.CheatedCount++
		}
		if res.InvalidPath {
			r.InvalidPathCount++
		}
		if res.Failed() {
			r.ErrorCount++
		}

		scoreSum += res.Score
		r.BestScore = min(r.BestScore, res.Score)
		r.WorstScore = max(r.WorstScore, res.Score)

		if len(res.Path) > 0 {
			pathSum += len(res.Path)
			pathCount++
		}
	}

	r.SuccessRate = float64(r.SuccessfulTrials) / float64(len(results)) * 100
	r.AverageScore = float64(scoreSum) / float64(len(results))
	if pathCount > 0 {
		r.AveragePathLength = float64(pathSum) / float64(pathCount)
	}
	return r
}

// ReportFilename returns the file name a pairing's report is written to.
func ReportFilename(agentName string, mode models.Mode) string {
	safe := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(agentName)
	return fmt.Sprintf("%s_%s_results.json", safe, mode)
}

// WriteReport writes the report as indented JSON into dir and returns its path.
func WriteReport(dir string, r *models.Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	path := filepath.Join(dir, ReportFilename(r.AgentName, r.Mode))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
