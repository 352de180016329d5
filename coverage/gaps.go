package coverage

import (
	"strings"

	"github.com/poiesic/thematic/core"
)

// Gap strings reported per question.
const (
	gapNoThemes      = "No themes directly address this research question"
	gapLowConfidence = "All related themes have low confidence - need stronger evidence"
	gapNoActionable  = "No actionable findings or recommendations provided"
	gapNoCauses      = "Question asks 'why' but themes don't explain root causes"
	gapNoProcess     = "Question asks 'how' but themes don't describe processes or methods"
	gapNoObstacles   = "Question asks about barriers but themes don't identify specific obstacles"
)

var (
	causalWords   = []string{"reason", "because", "due to", "cause"}
	processWords  = []string{"process", "method", "approach", "way", "step"}
	obstacleWords = []string{"barrier", "challenge", "difficult", "prevent", "obstacle"}
)

// questionGaps inspects the themes addressing a question for missing
// evidence. A "why" question expects causal language somewhere in its
// themes, a "how" question expects process language, and a "what ...
// barrier" question expects obstacle language.
func questionGaps(question string, addressing []int, themes []*core.Theme) []string {
	if len(addressing) == 0 {
		return []string{gapNoThemes}
	}

	var gaps []string

	// A missing confidence counts as low here: absence of a stated
	// confidence is itself weak evidence.
	allLow := true
	for _, tIdx := range addressing {
		c := themes[tIdx].Confidence
		if c != core.ConfidenceLow && c != "" {
			allLow = false
			break
		}
	}
	if allLow {
		gaps = append(gaps, gapLowConfidence)
	}

	hasActionable := false
	for _, tIdx := range addressing {
		if len(themes[tIdx].ActionableFindings) > 0 {
			hasActionable = true
			break
		}
	}
	if !hasActionable {
		gaps = append(gaps, gapNoActionable)
	}

	lower := strings.ToLower(question)
	switch {
	case strings.Contains(lower, "why"):
		if !themesContainAny(addressing, themes, causalWords) {
			gaps = append(gaps, gapNoCauses)
		}
	case strings.Contains(lower, "how"):
		if !themesContainAny(addressing, themes, processWords) {
			gaps = append(gaps, gapNoProcess)
		}
	case strings.Contains(lower, "what") && strings.Contains(lower, "barrier"):
		if !themesContainAny(addressing, themes, obstacleWords) {
			gaps = append(gaps, gapNoObstacles)
		}
	}

	return gaps
}

// themesContainAny reports whether any addressing theme's full text contains
// one of the given words.
func themesContainAny(addressing []int, themes []*core.Theme, words []string) bool {
	for _, tIdx := range addressing {
		blob := themeBlob(themes[tIdx])
		for _, word := range words {
			if strings.Contains(blob, word) {
				return true
			}
		}
	}
	return false
}

// themeBlob lowercases everything gap detection can search: the theme's
// searchable text plus its actionable findings and supporting quotes.
func themeBlob(theme *core.Theme) string {
	parts := []string{theme.SearchText()}
	parts = append(parts, theme.ActionableFindings...)
	parts = append(parts, theme.SupportingQuotes...)
	return strings.ToLower(strings.Join(parts, " "))
}
