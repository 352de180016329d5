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


package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/research"
)

const (
	// DefaultSemanticWeight and DefaultResearchWeight bias the hybrid space
	// toward research relevance over raw semantic similarity.
	DefaultSemanticWeight = 0.3
	DefaultResearchWeight = 0.7

	// pseudoQuestionThreshold is the similarity above which a question
	// contributes to a chunk's research pseudo-embedding.
	pseudoQuestionThreshold = 0.3

	// lowRelevanceWeight scales the fallback pseudo-embedding for chunks that
	// match no question.
	lowRelevanceWeight = 0.1

	// adjustmentFactor shrinks the minimum cluster size to compensate for the
	// research weighting pulling related points together.
	adjustmentFactor = 0.8
)

// Result is the outcome of a clustering pass.
type Result struct {
	Clusters []*core.Cluster
	Labels   []int       // final label per clustered chunk, core.NoiseLabel for noise; excluded chunks do not appear
	Reduced  [][]float64 // low-dimensional embeddings the density pass ran on, aligned with Labels
	Info     core.ClusteringInfo
	Warnings []string
}

// Clusterer groups chunks by a weighted blend of semantic similarity and
// research-question relevance.
type Clusterer struct {
	scorer         *research.Scorer
	semanticWeight float64
	researchWeight float64
	logger         *slog.Logger
	weightWarning  string
}

// Option configures a Clusterer.
type Option func(*Clusterer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithWeights sets the semantic/research blend. Weights that do not sum to
// 1.0 are renormalized proportionally and surfaced as a warning on every
// Result rather than silently replaced with the defaults.
func WithWeights(semantic, research float64) Option {
	return func(c *Clusterer) error {
		if semantic < 0 || research < 0 {
			return fmt.Errorf("%w: weights must be non-negative, got %.2f/%.2f",
				core.ErrConfiguration, semantic, research)
		}
		total := semantic + research
		if total == 0 {
			return fmt.Errorf("%w: at least one weight must be positive", core.ErrConfiguration)
		}
		if math.Abs(total-1.0) > 1e-9 {
			semantic /= total
			research /= total
			c.weightWarning = fmt.Sprintf("clustering weights renormalized to %.2f/%.2f", semantic, research)
		}
		c.semanticWeight = semantic
		c.researchWeight = research
		return nil
	}
}

// NewClusterer creates a clusterer backed by the given relevance scorer.
func NewClusterer(scorer *research.Scorer, opts ...Option) (*Clusterer, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	c := &Clusterer{
		scorer:         scorer,
		semanticWeight: DefaultSemanticWeight,
		researchWeight: DefaultResearchWeight,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.weightWarning != "" {
		c.logger.Warn(c.weightWarning)
	}

	return c, nil
}

// Cluster groups the chunks. Chunks without an embedding, and chunks whose
// relevance scoring fails, are excluded with a warning rather than failing
// the run; zero usable chunks is fatal. A nil params selects parameters from
// the dataset size; non-zero fields of a supplied params always win.
//
// Side effects on the input: each usable chunk's Relevance and ClusterID
// fields are populated.
func (c *Clusterer) Cluster(ctx context.Context, chunks []*core.TextChunk, params *Params) (*Result, error) {
	result := &Result{}
	if c.weightWarning != "" {
		result.Warnings = append(result.Warnings, c.weightWarning)
	}

	usable := make([]*core.TextChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if chunk == nil || len(chunk.Embedding) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("chunk %d has no embedding, excluded from clustering", i))
			continue
		}
		usable = append(usable, chunk)
	}

	scored := make([]*core.TextChunk, 0, len(usable))
	relevance := make([]float64, 0, len(usable))
	for _, chunk := range usable {
		score, err := c.scorer.Score(ctx, chunk.Text)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("relevance scoring failed for chunk from %s, excluded: %v", chunk.SourceFile, err))
			c.logger.Warn("chunk excluded from clustering", "source", chunk.SourceFile, "error", err)
			continue
		}
		chunk.Relevance = score
		scored = append(scored, chunk)
		relevance = append(relevance, score)
	}

	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: no chunks with valid embeddings to cluster", core.ErrEmptyInput)
	}

	hybrid, err := c.hybridEmbeddings(ctx, scored, relevance)
	if err != nil {
		return nil, err
	}

	reduced := reduceEmbeddings(hybrid)

	p := Params{}
	if params != nil {
		p = *params
	}
	p = p.withDefaults(len(scored))

	adjusted := int(math.Round(adjustmentFactor * float64(p.MinClusterSize)))
	if adjusted < 2 {
		adjusted = 2
	}
	minSamples := adjusted / 2
	if minSamples < 1 {
		minSamples = 1
	}

	c.logger.Debug("density clustering",
		"chunks", len(scored),
		"min_cluster_size", adjusted,
		"min_samples", minSamples,
		"strategy", p.SelectionStrategy)

	labels := densityCluster(reduced, adjusted, minSamples)
	rescued := rescueNoise(labels, hybrid, relevance)

	for i, chunk := range scored {
		chunk.ClusterID = labels[i]
	}

	clusters, err := c.assembleClusters(ctx, scored, labels)
	if err != nil {
		return nil, err
	}

	result.Clusters = clusters
	result.Labels = labels
	result.Reduced = reduced
	result.Info = clusteringInfo(labels, relevance, rescued)

	c.logger.Info("clustering complete",
		"clusters", result.Info.TotalClusters,
		"noise", result.Info.NoisePoints,
		"rescued", rescued)

	return result, nil
}

// hybridEmbeddings blends each chunk's semantic embedding with a research
// pseudo-embedding built from the question table. Both sides are
// L2-normalized before mixing and the blend is normalized again.
func (c *Clusterer) hybridEmbeddings(ctx context.Context, chunks []*core.TextChunk, relevance []float64) ([][]float64, error) {
	table := c.scorer.EmbeddingTable()

	semantic := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		semantic[i] = toFloat64(chunk.Embedding)
	}

	pseudo := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		vec, err := c.researchEmbedding(ctx, chunk.Text, relevance[i], table)
		if err != nil {
			return nil, err
		}
		pseudo[i] = vec
	}

	normalizeRows(semantic)
	normalizeRows(pseudo)

	hybrid := make([][]float64, len(chunks))
	for i := range chunks {
		if len(pseudo[i]) != 0 && len(pseudo[i]) != len(semantic[i]) {
			return nil, fmt.Errorf("%w: semantic dimension %d does not match question embedding dimension %d",
				core.ErrConfiguration, len(semantic[i]), len(pseudo[i]))
		}
		row := make([]float64, len(semantic[i]))
		for j := range row {
			row[j] = c.semanticWeight * semantic[i][j]
			if j < len(pseudo[i]) {
				row[j] += c.researchWeight * pseudo[i][j]
			}
		}
		normalizeRow(row)
		hybrid[i] = row
	}
	return hybrid, nil
}

// researchEmbedding builds the research-oriented pseudo-embedding for one
// chunk: a similarity-weighted average of the matching question embeddings
// scaled by the chunk's relevance, or the table mean at low weight when
// nothing matches. Returns nil with no error when there are no questions.
func (c *Clusterer) researchEmbedding(ctx context.Context, text string, relevance float64, table [][]float32) ([]float64, error) {
	if len(table) == 0 {
		return nil, nil
	}

	matches, err := c.scorer.TopQuestions(ctx, text, pseudoQuestionThreshold)
	if err != nil {
		return nil, err
	}

	dim := len(table[0])
	out := make([]float64, dim)

	if len(matches) == 0 {
		rows := make([][]float64, len(table))
		for i, row := range table {
			rows[i] = toFloat64(row)
		}
		mean := meanRow(rows)
		for i := range out {
			out[i] = mean[i] * lowRelevanceWeight
		}
		return out, nil
	}

	var totalSim float64
	for _, m := range matches {
		totalSim += m.Similarity
	}
	for _, m := range matches {
		weight := m.Similarity / totalSim
		qvec := table[m.Index]
		for i := 0; i < dim && i < len(qvec); i++ {
			out[i] += weight * float64(qvec[i])
		}
	}
	for i := range out {
		out[i] *= relevance
	}
	return out, nil
}

// assembleClusters builds cluster objects from final labels, attaches mean
// member relevance and addressed questions, and orders the list by relevance
// descending.
func (c *Clusterer) assembleClusters(ctx context.Context, chunks []*core.TextChunk, labels []int) ([]*core.Cluster, error) {
	byLabel := make(map[int][]*core.TextChunk)
	for i, label := range labels {
		if label >= 0 {
			byLabel[label] = append(byLabel[label], chunks[i])
		}
	}

	order := make([]int, 0, len(byLabel))
	for label := range byLabel {
		order = append(order, label)
	}
	sort.Ints(order)

	clusters := make([]*core.Cluster, 0, len(order))
	for _, label := range order {
		members := byLabel[label]

		var sum float64
		for _, chunk := range members {
			sum += chunk.Relevance
		}

		cl := &core.Cluster{
			ID:        label,
			Chunks:    members,
			Relevance: sum / float64(len(members)),
		}

		matches, err := c.scorer.TopQuestions(ctx, cl.CombinedText(), research.DefaultTopQuestionThreshold)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			cl.AddressedQuestions = append(cl.AddressedQuestions, m.Index)
		}

		clusters = append(clusters, cl)
	}

	sort.SliceStable(clusters, func(a, b int) bool {
		if clusters[a].Relevance != clusters[b].Relevance {
			return clusters[a].Relevance > clusters[b].Relevance
		}
		return clusters[a].ID < clusters[b].ID
	})

	return clusters, nil
}

// clusteringInfo summarizes a labeling: cluster and noise counts, mean
// relevance per cluster, and how many clusters are high-relevance (mean
// above 0.5) or research-focused (over 70% of members above 0.4).
func clusteringInfo(labels []int, relevance []float64, rescued int) core.ClusteringInfo {
	info := core.ClusteringInfo{
		RescuedPoints:          rescued,
		MeanRelevanceByCluster: make(map[int]float64),
	}

	byLabel := make(map[int][]float64)
	for i, label := range labels {
		if label == core.NoiseLabel {
			info.NoisePoints++
			continue
		}
		byLabel[label] = append(byLabel[label], relevance[i])
	}

	info.TotalClusters = len(byLabel)
	for label, scores := range byLabel {
		mean := meanFloat(scores)
		info.MeanRelevanceByCluster[label] = mean
		if mean > 0.5 {
			info.HighRelevanceClusters++
		}

		above := 0
		for _, s := range scores {
			if s > 0.4 {
				above++
			}
		}
		if float64(above)/float64(len(scores)) > 0.7 {
			info.ResearchFocusedClusters++
		}
	}

	return info
}
