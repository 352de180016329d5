package research

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/poiesic/thematic/ai/mock"
	"github.com/poiesic/thematic/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitVec builds a 2-d unit vector whose cosine similarity against [1,0]
// is exactly sim.
func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

// mappedEmbedder returns a mock embedder that looks texts up in the given
// table, so tests control similarities exactly.
func mappedEmbedder(vectors map[string][]float32) *mock.Embedder {
	m := mock.NewEmbedder()
	m.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		vec, ok := vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		return vec, nil
	}
	m.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			vec, ok := vectors[text]
			if !ok {
				return nil, fmt.Errorf("no vector for %q", text)
			}
			out[i] = vec
		}
		return out, nil
	}
	return m
}

func TestNewScorer(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds questions and hypotheses once", func(t *testing.T) {
		questions, err := NewQuestionSet(
			[]string{"Why do users churn?", "What barriers block adoption?"},
			[]string{"Pricing drives churn"},
		)
		require.NoError(t, err)

		embedder := mock.NewEmbedder()
		scorer, err := NewScorer(ctx, questions, embedder)
		require.NoError(t, err)

		assert.Len(t, scorer.EmbeddingTable(), 3)
		assert.Equal(t, 1, embedder.CallCount())
	})

	t.Run("nil question set", func(t *testing.T) {
		_, err := NewScorer(ctx, nil, mock.NewEmbedder())
		assert.Equal(t, ErrQuestionSetRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		questions, err := NewQuestionSet([]string{"Why?"}, nil)
		require.NoError(t, err)
		_, err = NewScorer(ctx, questions, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("embedding failure propagates", func(t *testing.T) {
		questions, err := NewQuestionSet([]string{"Why?"}, nil)
		require.NoError(t, err)

		embedder := mock.NewEmbedder()
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("service down")
		}

		_, err = NewScorer(ctx, questions, embedder)
		assert.Error(t, err)
	})

	t.Run("invalid cache size", func(t *testing.T) {
		questions, err := NewQuestionSet([]string{"Why?"}, nil)
		require.NoError(t, err)
		_, err = NewScorer(ctx, questions, mock.NewEmbedder(), WithCacheSize(1))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestScore(t *testing.T) {
	ctx := context.Background()

	t.Run("weighted max and mean", func(t *testing.T) {
		vectors := map[string][]float32{
			"q1":    {1, 0},
			"q2":    {0, 1},
			"chunk": unitVec(0.9), // cos 0.9 to q1, cos sqrt(1-0.81) to q2
		}
		questions, err := NewQuestionSet([]string{"q1", "q2"}, nil)
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mappedEmbedder(vectors))
		require.NoError(t, err)

		score, err := scorer.Score(ctx, "chunk")
		require.NoError(t, err)

		simQ2 := math.Sqrt(1 - 0.81)
		want := 0.7*0.9 + 0.3*(0.9+simQ2)/2
		assert.InDelta(t, want, score, 1e-6)
	})

	t.Run("zero questions neutral", func(t *testing.T) {
		questions, err := NewQuestionSet(nil, nil)
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mock.NewEmbedder())
		require.NoError(t, err)

		score, err := scorer.Score(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, 0.5, score)
	})

	t.Run("hypotheses included", func(t *testing.T) {
		vectors := map[string][]float32{
			"q1":    {1, 0},
			"h1":    {0, 1},
			"chunk": {0, 1}, // perfect match for the hypothesis only
		}
		questions, err := NewQuestionSet([]string{"q1"}, []string{"h1"})
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mappedEmbedder(vectors))
		require.NoError(t, err)

		score, err := scorer.Score(ctx, "chunk")
		require.NoError(t, err)

		// max = 1.0 (hypothesis), mean = (0+1)/2
		assert.InDelta(t, 0.7*1.0+0.3*0.5, score, 1e-6)
	})

	t.Run("deterministic and cached", func(t *testing.T) {
		vectors := map[string][]float32{
			"q1":    {1, 0},
			"chunk": unitVec(0.8),
		}
		embedder := mappedEmbedder(vectors)
		questions, err := NewQuestionSet([]string{"q1"}, nil)
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, embedder)
		require.NoError(t, err)

		first, err := scorer.Score(ctx, "chunk")
		require.NoError(t, err)
		callsAfterFirst := embedder.CallCount()

		second, err := scorer.Score(ctx, "chunk")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, callsAfterFirst, embedder.CallCount(), "second call should hit the cache")
		assert.Equal(t, 1, scorer.CacheSize())
	})

	t.Run("embedding failure is a scoring error", func(t *testing.T) {
		questions, err := NewQuestionSet([]string{"q1"}, nil)
		require.NoError(t, err)

		embedder := mock.NewEmbedder()
		scorer, err := NewScorer(ctx, questions, embedder)
		require.NoError(t, err)

		embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}

		_, err = scorer.Score(ctx, "chunk")
		assert.ErrorIs(t, err, core.ErrScoring)
	})
}

func TestTopQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("threshold filtering", func(t *testing.T) {
		vectors := map[string][]float32{
			"q1":     {1, 0},
			"chunkA": unitVec(0.9),
			"chunkB": unitVec(0.2),
			"chunkC": unitVec(0.2),
		}
		questions, err := NewQuestionSet([]string{"q1"}, nil)
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mappedEmbedder(vectors))
		require.NoError(t, err)

		matches, err := scorer.TopQuestions(ctx, "chunkA", 0.5)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 0, matches[0].Index)
		assert.InDelta(t, 0.9, matches[0].Similarity, 1e-6)

		for _, chunk := range []string{"chunkB", "chunkC"} {
			matches, err := scorer.TopQuestions(ctx, chunk, 0.5)
			require.NoError(t, err)
			assert.Empty(t, matches)
		}
	})

	t.Run("sorted descending with index tiebreak", func(t *testing.T) {
		// q2 and q3 tie exactly; q1 scores lower but above threshold
		vectors := map[string][]float32{
			"q1":    unitVec(0.6),
			"q2":    {1, 0},
			"q3":    {1, 0},
			"chunk": {1, 0},
		}
		questions, err := NewQuestionSet([]string{"q1", "q2", "q3"}, nil)
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mappedEmbedder(vectors))
		require.NoError(t, err)

		matches, err := scorer.TopQuestions(ctx, "chunk", 0.5)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, 1, matches[0].Index)
		assert.Equal(t, 2, matches[1].Index)
		assert.Equal(t, 0, matches[2].Index)
	})

	t.Run("hypotheses excluded", func(t *testing.T) {
		vectors := map[string][]float32{
			"q1":    {0, 1},
			"h1":    {1, 0},
			"chunk": {1, 0},
		}
		questions, err := NewQuestionSet([]string{"q1"}, []string{"h1"})
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mappedEmbedder(vectors))
		require.NoError(t, err)

		matches, err := scorer.TopQuestions(ctx, "chunk", 0.5)
		require.NoError(t, err)
		assert.Empty(t, matches, "hypothesis match must not appear")
	})

	t.Run("no questions", func(t *testing.T) {
		questions, err := NewQuestionSet(nil, nil)
		require.NoError(t, err)
		scorer, err := NewScorer(ctx, questions, mock.NewEmbedder())
		require.NoError(t, err)

		matches, err := scorer.TopQuestions(ctx, "chunk", 0.5)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
		{"unnormalized", []float32{2, 0}, []float32{5, 0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
