// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package coverage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/research"
)

// Category thresholds for per-question coverage scores.
const (
	wellAddressedThreshold      = 0.7
	partiallyAddressedThreshold = 0.3

	// fallbackRelevanceThreshold is the minimum relevance for a theme to
	// count as addressing a question it does not explicitly list.
	fallbackRelevanceThreshold = 0.5

	maxKeyInsights = 5
)

// Validator checks how well synthesized themes answer the research
// questions and reports gaps.
type Validator struct {
	scorer *research.Scorer
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// NewValidator creates a coverage validator backed by the given relevance
// scorer.
func NewValidator(scorer *research.Scorer, opts ...Option) (*Validator, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	v := &Validator{
		scorer: scorer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// AnalyzeCoverage scores every research question against the themes.
// A theme addresses a question either explicitly, by listing the question's
// index, or through a relevance fallback on its searchable text; fallback
// matches always count as low confidence. An empty question set is fatal.
func (v *Validator) AnalyzeCoverage(ctx context.Context, themes []*core.Theme) (*core.CoverageReport, error) {
	questions := v.scorer.Questions()
	if questions.Len() == 0 {
		return nil, fmt.Errorf("%w: coverage analysis needs at least one research question", core.ErrNoQuestions)
	}

	report := &core.CoverageReport{
		Matrix: make(map[int][]int, questions.Len()),
	}

	var total float64
	for qIdx := 0; qIdx < questions.Len(); qIdx++ {
		qc := v.analyzeQuestion(ctx, qIdx, questions.Question(qIdx), themes)
		report.Questions = append(report.Questions, qc)
		report.Matrix[qIdx] = qc.AddressingThemes
		total += qc.CoverageScore

		switch {
		case qc.CoverageScore >= wellAddressedThreshold:
			report.WellAddressed = append(report.WellAddressed, qc.QuestionText)
		case qc.CoverageScore >= partiallyAddressedThreshold:
			report.PartiallyAddressed = append(report.PartiallyAddressed, qc.QuestionText)
		default:
			report.NotAddressed = append(report.NotAddressed, qc.QuestionText)
		}
	}

	report.OverallCoverage = total / float64(questions.Len())
	report.Recommendations = recommendations(report.Questions, themes)

	v.logger.Info("coverage analysis complete",
		"questions", questions.Len(),
		"themes", len(themes),
		"overall", report.OverallCoverage)

	return report, nil
}

// analyzeQuestion determines which themes address one question and scores
// the coverage.
func (v *Validator) analyzeQuestion(ctx context.Context, qIdx int, question string, themes []*core.Theme) core.QuestionCoverage {
	qc := core.QuestionCoverage{
		QuestionIndex: qIdx,
		QuestionText:  question,
	}

	for tIdx, theme := range themes {
		if containsInt(theme.AddressedQuestions, qIdx) {
			qc.AddressingThemes = append(qc.AddressingThemes, tIdx)
			if theme.ResearchImplications != "" && len(qc.KeyInsights) < maxKeyInsights {
				qc.KeyInsights = append(qc.KeyInsights, theme.ResearchImplications)
			}
			tally(&qc.Confidence, core.NormalizeConfidence(string(theme.Confidence)))
			continue
		}

		// Semantic fallback: the theme may still speak to the question even
		// when the synthesis stage never linked them.
		relevance, err := v.scorer.Score(ctx, theme.SearchText())
		if err != nil {
			v.logger.Warn("fallback relevance scoring failed",
				"question", qIdx, "theme", theme.Name, "error", err)
			continue
		}
		if relevance > fallbackRelevanceThreshold {
			qc.AddressingThemes = append(qc.AddressingThemes, tIdx)
			tally(&qc.Confidence, core.ConfidenceLow)
		}
	}

	qc.CoverageScore = coverageScore(qc.AddressingThemes, themes, qc.Confidence)
	qc.Gaps = questionGaps(question, qc.AddressingThemes, themes)
	return qc
}

// coverageScore combines addressing-theme count, confidence distribution
// and insight quality into a [0,1] score. Zero addressing themes score
// exactly 0.
func coverageScore(addressing []int, themes []*core.Theme, conf core.ConfidenceTally) float64 {
	if len(addressing) == 0 {
		return 0.0
	}

	countScore := float64(len(addressing)) / 3
	if countScore > 1 {
		countScore = 1
	}
	countScore *= 0.4

	var confScore float64
	if total := conf.Total(); total > 0 {
		confScore = (float64(conf.High)*1.0 + float64(conf.Medium)*0.5 + float64(conf.Low)*0.2) /
			float64(total) * 0.3
	}

	var quality float64
	for _, tIdx := range addressing {
		theme := themes[tIdx]
		if len(theme.ActionableFindings) > 0 {
			quality += 0.1
		}
		if len(theme.ResearchImplications) > 20 {
			quality += 0.1
		}
		if len(theme.SupportingQuotes) >= 3 {
			quality += 0.1
		}
	}
	if quality > 0.3 {
		quality = 0.3
	}

	return countScore + confScore + quality
}

func tally(ct *core.ConfidenceTally, c core.Confidence) {
	switch c {
	case core.ConfidenceHigh:
		ct.High++
	case core.ConfidenceMedium:
		ct.Medium++
	case core.ConfidenceLow:
		ct.Low++
	}
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
