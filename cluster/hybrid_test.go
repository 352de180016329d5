package cluster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/thematic/ai/mock"
	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vocabEmbedder embeds single words from a fixed vocabulary and averages
// word vectors for multi-word text, so cluster-level lookups on combined
// member text stay well-defined.
func vocabEmbedder(vocab map[string][]float32) *mock.Embedder {
	embed := func(text string) []float32 {
		words := strings.Fields(text)
		out := make([]float32, 2)
		found := 0
		for _, w := range words {
			if vec, ok := vocab[w]; ok {
				out[0] += vec[0]
				out[1] += vec[1]
				found++
			}
		}
		if found > 0 {
			out[0] /= float32(found)
			out[1] /= float32(found)
		}
		return out
	}

	m := mock.NewEmbedder()
	m.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return embed(text), nil
	}
	m.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = embed(text)
		}
		return out, nil
	}
	return m
}

func testScorer(t *testing.T, vocab map[string][]float32, questions []string) *research.Scorer {
	t.Helper()
	qs, err := research.NewQuestionSet(questions, nil)
	require.NoError(t, err)
	scorer, err := research.NewScorer(context.Background(), qs, vocabEmbedder(vocab))
	require.NoError(t, err)
	return scorer
}

func pricingVocab() map[string][]float32 {
	vocab := map[string][]float32{
		"pricing": {1, 0},
	}
	// Words close to the question and words orthogonal to it
	for _, w := range []string{"cost", "expensive", "budget", "price"} {
		vocab[w] = []float32{0.98, 0.19}
	}
	for _, w := range []string{"onboarding", "tutorial", "signup", "welcome"} {
		vocab[w] = []float32{0.05, 0.99}
	}
	return vocab
}

func pricingChunks() []*core.TextChunk {
	words := []string{
		"cost", "expensive", "budget", "price",
		"onboarding", "tutorial", "signup", "welcome",
	}
	chunks := make([]*core.TextChunk, len(words))
	for i, w := range words {
		chunks[i] = core.NewTextChunk(w, "interview.txt")
		chunks[i].Embedding = pricingVocab()[w]
	}
	return chunks
}

func TestNewClusterer(t *testing.T) {
	scorer := testScorer(t, pricingVocab(), []string{"pricing"})

	t.Run("nil scorer", func(t *testing.T) {
		_, err := NewClusterer(nil)
		assert.Equal(t, ErrScorerRequired, err)
	})

	t.Run("negative weight", func(t *testing.T) {
		_, err := NewClusterer(scorer, WithWeights(-0.5, 1.5))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("zero weights", func(t *testing.T) {
		_, err := NewClusterer(scorer, WithWeights(0, 0))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := NewClusterer(scorer)
		require.NoError(t, err)
		assert.Equal(t, DefaultSemanticWeight, c.semanticWeight)
		assert.Equal(t, DefaultResearchWeight, c.researchWeight)
	})
}

func TestWeightRenormalization(t *testing.T) {
	scorer := testScorer(t, pricingVocab(), []string{"pricing"})

	// 1:3 does not sum to 1.0; the ratio must be preserved, not reset
	c, err := NewClusterer(scorer, WithWeights(1, 3))
	require.NoError(t, err)

	assert.InDelta(t, 0.25, c.semanticWeight, 1e-9)
	assert.InDelta(t, 0.75, c.researchWeight, 1e-9)
	assert.InDelta(t, 1.0, c.semanticWeight+c.researchWeight, 1e-9)

	result, err := c.Cluster(context.Background(), pricingChunks(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "renormalized")
}

func TestClusterStructure(t *testing.T) {
	ctx := context.Background()
	scorer := testScorer(t, pricingVocab(), []string{"pricing"})
	c, err := NewClusterer(scorer)
	require.NoError(t, err)

	chunks := pricingChunks()
	result, err := c.Cluster(ctx, chunks, &Params{MinClusterSize: 3})
	require.NoError(t, err)

	t.Run("label completeness", func(t *testing.T) {
		require.Len(t, result.Labels, len(chunks))
		ids := map[int]bool{}
		for _, cl := range result.Clusters {
			ids[cl.ID] = true
		}
		for i, label := range result.Labels {
			if label != core.NoiseLabel {
				assert.True(t, ids[label], "label %d of chunk %d references no cluster", label, i)
			}
			assert.Equal(t, label, chunks[i].ClusterID)
		}
	})

	t.Run("relevance populated", func(t *testing.T) {
		// pricing-flavored chunks score near 1, the rest near 0
		assert.Greater(t, chunks[0].Relevance, 0.8)
		assert.Less(t, chunks[4].Relevance, 0.3)
	})

	t.Run("clusters sorted by relevance", func(t *testing.T) {
		for i := 1; i < len(result.Clusters); i++ {
			assert.GreaterOrEqual(t, result.Clusters[i-1].Relevance, result.Clusters[i].Relevance)
		}
	})

	t.Run("cluster relevance is member mean", func(t *testing.T) {
		for _, cl := range result.Clusters {
			var sum float64
			for _, chunk := range cl.Chunks {
				sum += chunk.Relevance
			}
			assert.InDelta(t, sum/float64(cl.Size()), cl.Relevance, 1e-9)
		}
	})

	t.Run("info matches labels", func(t *testing.T) {
		assert.Equal(t, len(result.Clusters), result.Info.TotalClusters)
		noise := 0
		for _, label := range result.Labels {
			if label == core.NoiseLabel {
				noise++
			}
		}
		assert.Equal(t, noise, result.Info.NoisePoints)
		assert.Len(t, result.Info.MeanRelevanceByCluster, result.Info.TotalClusters)
	})
}

func TestClusterEmptyInput(t *testing.T) {
	scorer := testScorer(t, pricingVocab(), []string{"pricing"})
	c, err := NewClusterer(scorer)
	require.NoError(t, err)

	t.Run("no chunks", func(t *testing.T) {
		_, err := c.Cluster(context.Background(), nil, nil)
		assert.ErrorIs(t, err, core.ErrEmptyInput)
	})

	t.Run("chunks without embeddings", func(t *testing.T) {
		chunks := []*core.TextChunk{
			core.NewTextChunk("cost", "a.txt"),
			core.NewTextChunk("budget", "a.txt"),
		}
		_, err := c.Cluster(context.Background(), chunks, nil)
		assert.ErrorIs(t, err, core.ErrEmptyInput)
	})
}

func TestClusterSkipsFailingChunks(t *testing.T) {
	ctx := context.Background()
	vocab := pricingVocab()

	embedder := vocabEmbedder(vocab)
	inner := embedder.EmbedTextFunc
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "poison" {
			return nil, errors.New("embedding service down")
		}
		return inner(ctx, text)
	}

	qs, err := research.NewQuestionSet([]string{"pricing"}, nil)
	require.NoError(t, err)
	scorer, err := research.NewScorer(ctx, qs, embedder)
	require.NoError(t, err)
	c, err := NewClusterer(scorer)
	require.NoError(t, err)

	chunks := pricingChunks()
	bad := core.NewTextChunk("poison", "b.txt")
	bad.Embedding = []float32{0.5, 0.5}
	chunks = append(chunks, bad)

	result, err := c.Cluster(ctx, chunks, &Params{MinClusterSize: 3})
	require.NoError(t, err)

	// The failing chunk is excluded, not fatal
	assert.Len(t, result.Labels, len(chunks)-1)
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "relevance scoring failed") {
			found = true
		}
	}
	assert.True(t, found, "expected a warning about the excluded chunk")
}
