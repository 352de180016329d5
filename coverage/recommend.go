package coverage

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/thematic/core"
)

// maxRecommendations bounds the report; the most severe findings come
// first, so the cap drops the least important ones.
const maxRecommendations = 7

// scoreImbalanceThreshold is the standard deviation of per-question scores
// above which coverage counts as imbalanced.
const scoreImbalanceThreshold = 0.3

// recommendations derives follow-up actions from the per-question coverage,
// ordered by severity: critical gaps, imbalance, weak confidence, missing
// actionable findings, then question-specific follow-ups.
func recommendations(questions []core.QuestionCoverage, themes []*core.Theme) []string {
	var recs []string

	var poor []core.QuestionCoverage
	for _, qc := range questions {
		if qc.CoverageScore < partiallyAddressedThreshold {
			poor = append(poor, qc)
		}
	}
	if len(poor) > 0 {
		priority := make([]string, 0, 2)
		for _, qc := range poor {
			priority = append(priority, qc.QuestionText)
			if len(priority) == 2 {
				break
			}
		}
		recs = append(recs, fmt.Sprintf(
			"Critical gap: %d research question(s) have poor coverage. Priority: %s",
			len(poor), strings.Join(priority, "; ")))
		recs = append(recs,
			"Consider additional data collection focused on under-addressed questions, "+
				"or refine interview guides to better target these areas.")
	}

	if scoreStdDev(questions) > scoreImbalanceThreshold {
		recs = append(recs,
			"Coverage is imbalanced across research questions. Some questions receive "+
				"much more attention than others. Consider rebalancing the analysis.")
	}

	highConfidence := 0
	for _, qc := range questions {
		highConfidence += qc.Confidence.High
	}
	if highConfidence < len(questions) {
		recs = append(recs,
			"Many questions lack high-confidence themes. Consider gathering more "+
				"evidence or conducting follow-up interviews to strengthen findings.")
	}

	actionable := 0
	for _, theme := range themes {
		if len(theme.ActionableFindings) > 0 {
			actionable++
		}
	}
	if float64(actionable) < float64(len(themes))/3 {
		recs = append(recs,
			"Few themes provide actionable findings. Consider asking participants "+
				"for specific suggestions or solutions in future research.")
	}

	for _, qc := range questions {
		if len(qc.Gaps) > 0 && qc.CoverageScore < 0.5 {
			recs = append(recs, fmt.Sprintf(
				"Follow-up needed for '%s': %s", truncate(qc.QuestionText, 50), qc.Gaps[0]))
		}
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// scoreStdDev computes the population standard deviation of coverage scores.
func scoreStdDev(questions []core.QuestionCoverage) float64 {
	if len(questions) == 0 {
		return 0
	}
	var sum float64
	for _, qc := range questions {
		sum += qc.CoverageScore
	}
	mean := sum / float64(len(questions))

	var variance float64
	for _, qc := range questions {
		d := qc.CoverageScore - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(questions)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
