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


package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/core"
)

const (
	// maxQuotesPerTheme caps quote evidence per theme after merging results
	// from every source document.
	maxQuotesPerTheme = 4

	// defaultWorkers bounds concurrent oracle calls.
	defaultWorkers = 4
)

// Validator grounds synthesized themes in verbatim quotes extracted from the
// original documents via the LLM oracle.
type Validator struct {
	oracle ai.Oracle
	pool   *ants.Pool
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

// WithWorkers sets the number of concurrent oracle calls.
// Default is 4.
func WithWorkers(n int) Option {
	return func(v *Validator) error {
		if n < 1 {
			return fmt.Errorf("%w: worker count must be at least 1, got %d", core.ErrConfiguration, n)
		}
		v.pool.Release()
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		v.pool = pool
		return nil
	}
}

// NewValidator creates a quote validator backed by the given oracle.
func NewValidator(oracle ai.Oracle, opts ...Option) (*Validator, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}

	pool, err := ants.NewPool(defaultWorkers)
	if err != nil {
		return nil, err
	}

	v := &Validator{
		oracle: oracle,
		pool:   pool,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			v.Release()
			return nil, err
		}
	}

	return v, nil
}

// Release frees the worker pool. The validator is unusable afterwards.
func (v *Validator) Release() {
	if v.pool != nil {
		v.pool.Release()
	}
}

// ValidateThemes extracts grounding quotes for every theme from the original
// documents and scores how well the evidence is distributed across speakers
// and files. An oracle failure for one theme/document pair yields zero
// quotes for that pair and a warning; sibling work is never aborted.
// Returned warnings describe every degraded pair.
func (v *Validator) ValidateThemes(ctx context.Context, themes []*core.Theme, documents map[string]string) (*core.ValidationResult, []string, error) {
	if len(themes) == 0 {
		return &core.ValidationResult{
			OverallQuality: core.QualityNeedsImprovement,
			Summary:        "No themes to validate",
		}, nil, nil
	}

	filenames := make([]string, 0, len(documents))
	for name := range documents {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	var warnings []string
	coverages := make([]core.ThemeCoverage, len(themes))
	for i, theme := range themes {
		coverage, themeWarnings := v.validateTheme(ctx, theme, filenames, documents)
		coverages[i] = coverage
		warnings = append(warnings, themeWarnings...)
	}

	result := aggregate(coverages)
	v.logger.Info("quote validation complete",
		"themes", len(themes),
		"total_quotes", result.TotalQuotes,
		"overall_quality", result.OverallQuality)

	return result, warnings, nil
}

// validateTheme extracts quotes for one theme from every document in
// parallel, merges the results in filename order, and scores the coverage.
func (v *Validator) validateTheme(ctx context.Context, theme *core.Theme, filenames []string, documents map[string]string) (core.ThemeCoverage, []string) {
	perFile := make([][]core.QuoteEvidence, len(filenames))
	fileWarnings := make([][]string, len(filenames))

	var wg sync.WaitGroup
	for i, filename := range filenames {
		i, filename := i, filename
		wg.Add(1)
		task := func() {
			defer wg.Done()
			quotes, warns := v.extractFromDocument(ctx, theme, documents[filename], filename)
			perFile[i] = quotes
			fileWarnings[i] = warns
		}
		if err := v.pool.Submit(task); err != nil {
			// Pool exhausted or released; fall back to running inline.
			task()
		}
	}
	wg.Wait()

	var all []core.QuoteEvidence
	var warnings []string
	for i := range filenames {
		all = append(all, perFile[i]...)
		warnings = append(warnings, fileWarnings[i]...)
	}
	if len(all) > maxQuotesPerTheme {
		all = all[:maxQuotesPerTheme]
	}

	speakers := distinctSpeakers(all)
	files := distinctFiles(all)
	score := coverageScore(all, speakers, files, len(documents))

	return core.ThemeCoverage{
		ThemeName:           theme.Name,
		Quotes:              all,
		SpeakersCovered:     speakers,
		FilesCovered:        files,
		CoverageScore:       score,
		DistributionQuality: distributionQuality(score, len(speakers), len(files)),
	}, warnings
}

// coverageScore combines quote count, mean confidence, speaker diversity and
// file diversity into a [0,1] score.
func coverageScore(quotes []core.QuoteEvidence, speakers, files []string, totalFiles int) float64 {
	if len(quotes) == 0 {
		return 0.0
	}

	quoteScore := float64(len(quotes)) / 5
	if quoteScore > 1 {
		quoteScore = 1
	}

	var confSum float64
	for _, q := range quotes {
		confSum += q.Confidence
	}
	confScore := confSum / float64(len(quotes))

	var speakerBonus float64
	if len(speakers) > 0 {
		speakerBonus = float64(len(speakers)) / 3
		if speakerBonus > 1 {
			speakerBonus = 1
		}
	}

	var fileBonus float64
	if totalFiles > 0 {
		fileBonus = float64(len(files)) / float64(totalFiles)
		if fileBonus > 1 {
			fileBonus = 1
		}
	}

	score := quoteScore*0.4 + confScore*0.3 + speakerBonus*0.2 + fileBonus*0.1
	if score > 1 {
		score = 1
	}
	return score
}

// distributionQuality labels how well the evidence spreads across speakers
// and source files.
func distributionQuality(score float64, speakers, files int) core.DistributionQuality {
	switch {
	case score >= 0.8 && speakers >= 2 && files >= 2:
		return core.DistributionExcellent
	case score >= 0.6 && speakers >= 1 && files >= 2:
		return core.DistributionGood
	case score >= 0.4 && files >= 1:
		return core.DistributionLimited
	default:
		return core.DistributionPoor
	}
}

// aggregate rolls per-theme coverages up into the run-level result.
func aggregate(coverages []core.ThemeCoverage) *core.ValidationResult {
	result := &core.ValidationResult{ThemeCoverages: coverages}

	var scoreSum float64
	excellent, goodOrBetter := 0, 0
	for _, tc := range coverages {
		result.TotalQuotes += len(tc.Quotes)
		scoreSum += tc.CoverageScore
		switch tc.DistributionQuality {
		case core.DistributionExcellent:
			excellent++
			goodOrBetter++
		case core.DistributionGood:
			goodOrBetter++
		}
	}
	result.AvgCoverageScore = scoreSum / float64(len(coverages))

	n := float64(len(coverages))
	switch {
	case float64(excellent) >= n*0.7:
		result.OverallQuality = core.QualityExcellent
	case float64(goodOrBetter) >= n*0.6:
		result.OverallQuality = core.QualityGood
	case result.AvgCoverageScore >= 0.5:
		result.OverallQuality = core.QualityAdequate
	default:
		result.OverallQuality = core.QualityNeedsImprovement
	}

	result.Summary = summarize(coverages, result.AvgCoverageScore, result.OverallQuality)
	return result
}

// summarize writes the human-readable validation summary.
func summarize(coverages []core.ThemeCoverage, avg float64, quality core.OverallQuality) string {
	wellSupported := 0
	for _, tc := range coverages {
		if tc.CoverageScore >= 0.7 {
			wellSupported++
		}
	}

	summary := fmt.Sprintf("Validation Results: %d/%d themes are well-supported (avg coverage: %.1f%%). ",
		wellSupported, len(coverages), avg*100)

	switch quality {
	case core.QualityExcellent:
		summary += "Themes show excellent distribution across multiple speakers and sources."
	case core.QualityGood:
		summary += "Themes have good coverage with adequate source diversity."
	case core.QualityAdequate:
		summary += "Themes have reasonable support but could benefit from broader coverage."
	default:
		summary += "Several themes need stronger evidence or broader source coverage."
	}
	return summary
}

// distinctSpeakers returns the sorted set of non-empty quote speakers.
func distinctSpeakers(quotes []core.QuoteEvidence) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range quotes {
		if q.Speaker != "" && !seen[q.Speaker] {
			seen[q.Speaker] = true
			out = append(out, q.Speaker)
		}
	}
	sort.Strings(out)
	return out
}

// distinctFiles returns the sorted set of source files the quotes touch.
func distinctFiles(quotes []core.QuoteEvidence) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range quotes {
		if q.SourceFile != "" && !seen[q.SourceFile] {
			seen[q.SourceFile] = true
			out = append(out, q.SourceFile)
		}
	}
	sort.Strings(out)
	return out
}
