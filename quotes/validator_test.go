package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/ai/mock"
	"github.com/poiesic/thematic/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteJSON(quotes ...map[string]any) json.RawMessage {
	doc := map[string]any{"quotes": quotes}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}

// promptOracle routes responses by a marker substring of the document
// content embedded in the prompt, so parallel extraction stays
// deterministic.
func promptOracle(byMarker map[string]json.RawMessage) *mock.Oracle {
	m := mock.NewOracle()
	m.GenerateStructuredFunc = func(_ context.Context, req ai.StructuredRequest) (json.RawMessage, error) {
		for marker, response := range byMarker {
			if strings.Contains(req.Prompt, marker) {
				return response, nil
			}
		}
		return json.RawMessage(`{"quotes": []}`), nil
	}
	return m
}

func TestNewValidator(t *testing.T) {
	t.Run("nil oracle", func(t *testing.T) {
		_, err := NewValidator(nil)
		assert.Equal(t, ErrOracleRequired, err)
	})

	t.Run("invalid workers", func(t *testing.T) {
		_, err := NewValidator(mock.NewOracle(), WithWorkers(0))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestValidateThemes(t *testing.T) {
	ctx := context.Background()

	theme := &core.Theme{Name: "pricing pressure", Summary: "Cost concerns dominate"}
	documents := map[string]string{
		"alice.txt": "ALICE-DOC pricing discussion",
		"bob.txt":   "BOB-DOC pricing discussion",
	}

	oracle := promptOracle(map[string]json.RawMessage{
		"ALICE-DOC": quoteJSON(
			map[string]any{"text": "it costs too much", "speaker": "Alice", "confidence": 0.9},
			map[string]any{"text": "we cut the plan", "speaker": "Alice", "confidence": 0.8},
		),
		"BOB-DOC": quoteJSON(
			map[string]any{"text": "pricing was the blocker", "speaker": "Bob", "confidence": 0.7},
		),
	})

	v, err := NewValidator(oracle)
	require.NoError(t, err)
	defer v.Release()

	result, warnings, err := v.ValidateThemes(ctx, []*core.Theme{theme}, documents)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, result.ThemeCoverages, 1)
	tc := result.ThemeCoverages[0]

	assert.Equal(t, "pricing pressure", tc.ThemeName)
	assert.Len(t, tc.Quotes, 3)
	assert.Equal(t, 3, result.TotalQuotes)
	assert.Equal(t, []string{"Alice", "Bob"}, tc.SpeakersCovered)
	assert.Equal(t, []string{"alice.txt", "bob.txt"}, tc.FilesCovered)

	// Merge order follows sorted filenames
	assert.Equal(t, "alice.txt", tc.Quotes[0].SourceFile)
	assert.Equal(t, "bob.txt", tc.Quotes[2].SourceFile)
}

func TestValidateThemesOracleFailure(t *testing.T) {
	ctx := context.Background()

	theme := &core.Theme{Name: "onboarding friction"}
	documents := map[string]string{
		"good.txt": "GOOD-DOC onboarding",
		"bad.txt":  "BAD-DOC onboarding",
	}

	oracle := mock.NewOracle()
	oracle.GenerateStructuredFunc = func(_ context.Context, req ai.StructuredRequest) (json.RawMessage, error) {
		if strings.Contains(req.Prompt, "BAD-DOC") {
			return nil, errors.New("oracle timeout")
		}
		return quoteJSON(map[string]any{"text": "setup was confusing", "speaker": "Cara", "confidence": 0.8}), nil
	}

	v, err := NewValidator(oracle)
	require.NoError(t, err)
	defer v.Release()

	result, warnings, err := v.ValidateThemes(ctx, []*core.Theme{theme}, documents)
	require.NoError(t, err, "one failing pair must not abort validation")

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "bad.txt")

	tc := result.ThemeCoverages[0]
	assert.Len(t, tc.Quotes, 1)
	assert.Equal(t, []string{"good.txt"}, tc.FilesCovered)
}

func TestValidateThemesQuoteCap(t *testing.T) {
	ctx := context.Background()

	theme := &core.Theme{Name: "heavy theme"}
	documents := map[string]string{
		"a.txt": "MARK-A text",
		"b.txt": "MARK-B text",
	}

	three := func(speaker string) json.RawMessage {
		return quoteJSON(
			map[string]any{"text": "q1", "speaker": speaker, "confidence": 0.9},
			map[string]any{"text": "q2", "speaker": speaker, "confidence": 0.9},
			map[string]any{"text": "q3", "speaker": speaker, "confidence": 0.9},
		)
	}
	oracle := promptOracle(map[string]json.RawMessage{
		"MARK-A": three("A"),
		"MARK-B": three("B"),
	})

	v, err := NewValidator(oracle)
	require.NoError(t, err)
	defer v.Release()

	result, _, err := v.ValidateThemes(ctx, []*core.Theme{theme}, documents)
	require.NoError(t, err)

	// Cap enforced after merging parallel per-file results
	assert.Len(t, result.ThemeCoverages[0].Quotes, 4)
	assert.Equal(t, 4, result.TotalQuotes)
}

func TestValidateThemesEmpty(t *testing.T) {
	v, err := NewValidator(mock.NewOracle())
	require.NoError(t, err)
	defer v.Release()

	result, warnings, err := v.ValidateThemes(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, core.QualityNeedsImprovement, result.OverallQuality)
	assert.Equal(t, "No themes to validate", result.Summary)
}

func TestExtractWindowing(t *testing.T) {
	ctx := context.Background()
	theme := &core.Theme{Name: "long doc theme"}

	t.Run("long document walks overlapping windows", func(t *testing.T) {
		oracle := mock.NewOracle()
		oracle.GenerateStructuredFunc = func(context.Context, ai.StructuredRequest) (json.RawMessage, error) {
			return json.RawMessage(`{"quotes": []}`), nil
		}
		v, err := NewValidator(oracle)
		require.NoError(t, err)
		defer v.Release()

		// 12000 chars: windows start at 0, 5000, 10000
		content := strings.Repeat("x", 12000)
		quotes, warnings := v.extractFromDocument(ctx, theme, content, "long.txt")

		assert.Empty(t, quotes)
		assert.Empty(t, warnings)
		assert.Equal(t, 3, oracle.CallCount())
	})

	t.Run("early stop once enough quotes found", func(t *testing.T) {
		oracle := mock.NewOracle()
		oracle.GenerateStructuredFunc = func(context.Context, ai.StructuredRequest) (json.RawMessage, error) {
			return quoteJSON(
				map[string]any{"text": "a", "confidence": 0.9},
				map[string]any{"text": "b", "confidence": 0.9},
			), nil
		}
		v, err := NewValidator(oracle)
		require.NoError(t, err)
		defer v.Release()

		content := strings.Repeat("x", 30000)
		quotes, _ := v.extractFromDocument(ctx, theme, content, "long.txt")

		assert.Len(t, quotes, 4)
		assert.Equal(t, 2, oracle.CallCount(), "should stop after reaching four quotes")
	})

	t.Run("short document is a single call", func(t *testing.T) {
		oracle := mock.NewOracle()
		v, err := NewValidator(oracle)
		require.NoError(t, err)
		defer v.Release()

		v.extractFromDocument(ctx, theme, "short content", "short.txt")
		assert.Equal(t, 1, oracle.CallCount())
	})
}

func TestExtractDefaults(t *testing.T) {
	ctx := context.Background()
	theme := &core.Theme{Name: "defaults"}

	oracle := mock.NewOracle()
	oracle.Responses = []json.RawMessage{
		quoteJSON(
			map[string]any{"text": "no confidence given"},
			map[string]any{"text": ""}, // blank text is dropped
		),
	}

	v, err := NewValidator(oracle)
	require.NoError(t, err)
	defer v.Release()

	quotes, warnings := v.extractFromDocument(ctx, theme, "short", "f.txt")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, quotes, 1)
	assert.Equal(t, defaultQuoteConfidence, quotes[0].Confidence)
	assert.Equal(t, "f.txt", quotes[0].SourceFile)
	assert.Empty(t, quotes[0].Speaker)
}

func TestCoverageScore(t *testing.T) {
	t.Run("strong evidence scores excellent", func(t *testing.T) {
		quotes := make([]core.QuoteEvidence, 5)
		for i := range quotes {
			quotes[i] = core.QuoteEvidence{
				Text:       "quote",
				SourceFile: []string{"a.txt", "b.txt", "c.txt"}[i%3],
				Speaker:    []string{"A", "B", "C"}[i%3],
				Confidence: 0.9,
			}
		}
		speakers := []string{"A", "B", "C"}
		files := []string{"a.txt", "b.txt", "c.txt"}

		score := coverageScore(quotes, speakers, files, 3)
		assert.GreaterOrEqual(t, score, 0.8)
		assert.Equal(t, core.DistributionExcellent, distributionQuality(score, 3, 3))
	})

	t.Run("no quotes", func(t *testing.T) {
		assert.Equal(t, 0.0, coverageScore(nil, nil, nil, 3))
	})

	t.Run("single file limited", func(t *testing.T) {
		quotes := []core.QuoteEvidence{
			{Text: "q", SourceFile: "a.txt", Speaker: "A", Confidence: 0.6},
			{Text: "q", SourceFile: "a.txt", Speaker: "A", Confidence: 0.6},
		}
		score := coverageScore(quotes, []string{"A"}, []string{"a.txt"}, 3)
		assert.Equal(t, core.DistributionLimited, distributionQuality(score, 1, 1))
	})
}

func TestAggregate(t *testing.T) {
	themeCov := func(quality core.DistributionQuality, score float64) core.ThemeCoverage {
		return core.ThemeCoverage{DistributionQuality: quality, CoverageScore: score}
	}

	t.Run("mostly excellent", func(t *testing.T) {
		var coverages []core.ThemeCoverage
		for i := 0; i < 7; i++ {
			coverages = append(coverages, themeCov(core.DistributionExcellent, 0.9))
		}
		for i := 0; i < 3; i++ {
			coverages = append(coverages, themeCov(core.DistributionPoor, 0.2))
		}
		result := aggregate(coverages)
		assert.Equal(t, core.QualityExcellent, result.OverallQuality)
	})

	t.Run("mostly good", func(t *testing.T) {
		coverages := []core.ThemeCoverage{
			themeCov(core.DistributionExcellent, 0.9),
			themeCov(core.DistributionGood, 0.7),
			themeCov(core.DistributionGood, 0.7),
			themeCov(core.DistributionPoor, 0.1),
			themeCov(core.DistributionPoor, 0.1),
		}
		result := aggregate(coverages)
		assert.Equal(t, core.QualityGood, result.OverallQuality)
	})

	t.Run("adequate by average", func(t *testing.T) {
		coverages := []core.ThemeCoverage{
			themeCov(core.DistributionLimited, 0.55),
			themeCov(core.DistributionLimited, 0.55),
		}
		result := aggregate(coverages)
		assert.Equal(t, core.QualityAdequate, result.OverallQuality)
	})

	t.Run("needs improvement", func(t *testing.T) {
		coverages := []core.ThemeCoverage{
			themeCov(core.DistributionPoor, 0.1),
			themeCov(core.DistributionPoor, 0.2),
		}
		result := aggregate(coverages)
		assert.Equal(t, core.QualityNeedsImprovement, result.OverallQuality)
		assert.Contains(t, result.Summary, "stronger evidence")
	})

	t.Run("summary counts well-supported themes", func(t *testing.T) {
		coverages := []core.ThemeCoverage{
			themeCov(core.DistributionExcellent, 0.9),
			themeCov(core.DistributionPoor, 0.1),
		}
		result := aggregate(coverages)
		assert.Contains(t, result.Summary, "1/2 themes are well-supported")
	})
}
