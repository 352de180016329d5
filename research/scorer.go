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


package research

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/core"
)

// DefaultTopQuestionThreshold is the minimum similarity for a question to
// count as relevant in TopQuestions.
const DefaultTopQuestionThreshold = 0.5

// neutralScore is returned when there are no questions to score against.
const neutralScore = 0.5

// QuestionMatch pairs a primary question index with its similarity to some
// text, as returned by TopQuestions.
type QuestionMatch struct {
	Index      int
	Similarity float64
}

// Scorer computes how relevant text is to a research question set using
// embedding similarity. Question (and hypothesis) embeddings are computed
// once at construction; per-text scores are memoized in a bounded cache
// owned by this instance. Safe for concurrent use.
type Scorer struct {
	questions *QuestionSet
	embedder  ai.Embedder
	table     [][]float32 // question embeddings, then hypothesis embeddings
	cache     *relevanceCache
	logger    *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCacheSize sets the relevance cache bound.
// Default is DefaultCacheSize.
func WithCacheSize(max int) Option {
	return func(s *Scorer) error {
		if max < 2 {
			return fmt.Errorf("%w: cache size must be at least 2, got %d", core.ErrConfiguration, max)
		}
		s.cache = newRelevanceCache(max)
		return nil
	}
}

// NewScorer creates a scorer for the given question set, embedding every
// question and hypothesis up front.
func NewScorer(ctx context.Context, questions *QuestionSet, embedder ai.Embedder, opts ...Option) (*Scorer, error) {
	if questions == nil {
		return nil, ErrQuestionSetRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Scorer{
		questions: questions,
		embedder:  embedder,
		cache:     newRelevanceCache(DefaultCacheSize),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	texts := questions.allTexts()
	if len(texts) > 0 {
		table, err := embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed research questions: %w", err)
		}
		if len(table) != len(texts) {
			return nil, fmt.Errorf("question embedding mismatch: expected %d, received %d", len(texts), len(table))
		}
		s.table = table
	}

	s.logger.Debug("relevance scorer initialized",
		"questions", questions.Len(),
		"hypotheses", len(questions.hypotheses))

	return s, nil
}

// Questions returns the scorer's question set.
func (s *Scorer) Questions() *QuestionSet {
	return s.questions
}

// EmbeddingTable returns the question-plus-hypothesis embedding table.
// Indices 0..Questions().Len()-1 are primary questions.
func (s *Scorer) EmbeddingTable() [][]float32 {
	return s.table
}

// CacheSize returns the number of memoized relevance scores.
func (s *Scorer) CacheSize() int {
	return s.cache.size()
}

// Score computes how relevant text is to the research questions, in [0,1].
// The score favors the single best-matching question while keeping signal
// from the rest: 0.7*max(similarities) + 0.3*mean(similarities), over
// questions and hypotheses. With no questions at all the score is a neutral
// 0.5. Results are cached keyed by the exact input text.
func (s *Scorer) Score(ctx context.Context, text string) (float64, error) {
	if len(s.table) == 0 {
		return neutralScore, nil
	}

	if score, ok := s.cache.get(text); ok {
		return score, nil
	}

	vec, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrScoring, err)
	}

	maxSim := math.Inf(-1)
	var sum float64
	for _, qvec := range s.table {
		sim := cosineSimilarity(vec, qvec)
		sum += sim
		if sim > maxSim {
			maxSim = sim
		}
	}
	mean := sum / float64(len(s.table))

	score := clamp01(0.7*maxSim + 0.3*mean)
	s.cache.put(text, score)
	return score, nil
}

// TopQuestions returns the primary questions whose similarity to the text
// meets the threshold, sorted by similarity descending with ties broken by
// question index ascending. Hypotheses are never included. Results are not
// cached since the threshold varies per call.
func (s *Scorer) TopQuestions(ctx context.Context, text string, threshold float64) ([]QuestionMatch, error) {
	if s.questions.Len() == 0 {
		return nil, nil
	}

	vec, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrScoring, err)
	}

	matches := make([]QuestionMatch, 0, s.questions.Len())
	for i := 0; i < s.questions.Len(); i++ {
		sim := cosineSimilarity(vec, s.table[i])
		if sim >= threshold {
			matches = append(matches, QuestionMatch{Index: i, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Similarity != matches[b].Similarity {
			return matches[a].Similarity > matches[b].Similarity
		}
		return matches[a].Index < matches[b].Index
	})

	return matches, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths compare over the shorter prefix; zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
