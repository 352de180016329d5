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


package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NoiseLabel is the cluster assignment for chunks the density pass left
// outside every cluster.
const NoiseLabel = -1

// TextChunk is the atomic unit of analysis: a contiguous span of source text
// produced by an upstream chunking stage. Embedding, ClusterID and Relevance
// are populated by the pipeline; everything else is immutable for the run.
type TextChunk struct {
	Text          string
	SourceFile    string
	Speaker       string // empty when attribution is unknown
	IsInterviewer bool
	Embedding     []float32 // semantic embedding (populated by the pipeline)
	ClusterID     int       // NoiseLabel until clustering assigns one
	Relevance     float64   // research relevance in [0,1] (populated by the pipeline)
}

// NewTextChunk creates a chunk with the noise sentinel as its initial
// cluster assignment.
func NewTextChunk(text, sourceFile string) *TextChunk {
	return &TextChunk{
		Text:       text,
		SourceFile: sourceFile,
		ClusterID:  NoiseLabel,
	}
}

// Cluster is a dense group of semantically and research-wise similar chunks.
// Membership is fixed at creation; Relevance and AddressedQuestions are
// derived once after the final labels are known.
type Cluster struct {
	ID                 int
	Chunks             []*TextChunk
	Relevance          float64 // mean member relevance
	AddressedQuestions []int   // research question indices this cluster speaks to
}

// Size returns the number of member chunks.
func (c *Cluster) Size() int {
	return len(c.Chunks)
}

// CombinedText concatenates all member chunk texts, space separated.
// Used when scoring the cluster as a whole against research questions.
func (c *Cluster) CombinedText() string {
	parts := make([]string, len(c.Chunks))
	for i, chunk := range c.Chunks {
		parts[i] = chunk.Text
	}
	return strings.Join(parts, " ")
}

// Confidence is a theme's stated evidence strength.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Theme is a synthesized finding produced from a cluster by an upstream
// synthesis stage. Fields absent from the synthesis output default to their
// zero values; coverage analysis never reads a missing field.
type Theme struct {
	Name                 string     `json:"name"`
	Summary              string     `json:"summary"`
	KeyInsights          []string   `json:"key_insights,omitempty"`
	ResearchImplications string     `json:"research_implications,omitempty"`
	ActionableFindings   []string   `json:"actionable_findings,omitempty"`
	SupportingQuotes     []string   `json:"supporting_quotes,omitempty"`
	Confidence           Confidence `json:"confidence,omitempty"`
	AddressedQuestions   []int      `json:"addressed_questions,omitempty"`
}

// SearchText returns the theme's searchable text: name, summary, insights
// and implications joined together. Used for relevance fallback matching.
func (t *Theme) SearchText() string {
	parts := make([]string, 0, 3+len(t.KeyInsights))
	if t.Name != "" {
		parts = append(parts, t.Name)
	}
	if t.Summary != "" {
		parts = append(parts, t.Summary)
	}
	parts = append(parts, t.KeyInsights...)
	if t.ResearchImplications != "" {
		parts = append(parts, t.ResearchImplications)
	}
	return strings.Join(parts, " ")
}

// ConfidenceTally counts addressing themes by stated confidence.
type ConfidenceTally struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total returns the number of tallied themes.
func (ct ConfidenceTally) Total() int {
	return ct.High + ct.Medium + ct.Low
}

// QuestionCoverage describes how well a single research question is covered
// by the synthesized themes.
type QuestionCoverage struct {
	QuestionIndex    int             `json:"question_index"`
	QuestionText     string          `json:"question_text"`
	AddressingThemes []int           `json:"addressing_themes,omitempty"`
	CoverageScore    float64         `json:"coverage_score"`
	KeyInsights      []string        `json:"key_insights,omitempty"` // capped at 5
	Gaps             []string        `json:"gaps,omitempty"`
	Confidence       ConfidenceTally `json:"confidence"`
}

// CoverageReport is the complete per-run coverage analysis.
type CoverageReport struct {
	Questions          []QuestionCoverage `json:"questions"`
	OverallCoverage    float64            `json:"overall_coverage"`
	WellAddressed      []string           `json:"well_addressed,omitempty"`
	PartiallyAddressed []string           `json:"partially_addressed,omitempty"`
	NotAddressed       []string           `json:"not_addressed,omitempty"`
	Recommendations    []string           `json:"recommendations,omitempty"` // capped at 7, most severe first
	Matrix             map[int][]int      `json:"matrix,omitempty"`          // question index -> addressing theme indices
}

// QuoteEvidence is a single verbatim quote grounding a theme in a source
// document.
type QuoteEvidence struct {
	Text       string  `json:"text"`
	SourceFile string  `json:"source_file"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
}

// DistributionQuality labels how well a theme's quotes spread across
// speakers and source files.
type DistributionQuality string

const (
	DistributionExcellent DistributionQuality = "excellent"
	DistributionGood      DistributionQuality = "good"
	DistributionLimited   DistributionQuality = "limited"
	DistributionPoor      DistributionQuality = "poor"
)

// ThemeCoverage is the quote-grounding result for a single theme.
type ThemeCoverage struct {
	ThemeName           string              `json:"theme_name"`
	Quotes              []QuoteEvidence     `json:"quotes,omitempty"`
	SpeakersCovered     []string            `json:"speakers_covered,omitempty"`
	FilesCovered        []string            `json:"files_covered,omitempty"`
	CoverageScore       float64             `json:"coverage_score"`
	DistributionQuality DistributionQuality `json:"distribution_quality"`
}

// OverallQuality summarizes quote grounding across all themes.
type OverallQuality string

const (
	QualityExcellent        OverallQuality = "excellent"
	QualityGood             OverallQuality = "good"
	QualityAdequate         OverallQuality = "adequate"
	QualityNeedsImprovement OverallQuality = "needs_improvement"
)

// ValidationResult is the complete quote-grounding result for a run.
type ValidationResult struct {
	ThemeCoverages   []ThemeCoverage `json:"theme_coverages"`
	OverallQuality   OverallQuality  `json:"overall_quality"`
	TotalQuotes      int             `json:"total_quotes"`
	AvgCoverageScore float64         `json:"avg_coverage_score"`
	Summary          string          `json:"summary"`
}

// ClusteringInfo carries statistics about a clustering pass.
type ClusteringInfo struct {
	TotalClusters           int             `json:"total_clusters"`
	NoisePoints             int             `json:"noise_points"`
	RescuedPoints           int             `json:"rescued_points"`
	MeanRelevanceByCluster  map[int]float64 `json:"mean_relevance_by_cluster,omitempty"`
	HighRelevanceClusters   int             `json:"high_relevance_clusters"`   // mean relevance > 0.5
	ResearchFocusedClusters int             `json:"research_focused_clusters"` // >70% of members above 0.4
}

// ClusterSummary is the persisted shape of a cluster: membership is reduced
// to a count since chunks are not stored with the run.
type ClusterSummary struct {
	ID                 int     `json:"id"`
	Size               int     `json:"size"`
	Relevance          float64 `json:"relevance"`
	AddressedQuestions []int   `json:"addressed_questions,omitempty"`
}

// SummarizeCluster converts a cluster to its persisted summary form.
func SummarizeCluster(c *Cluster) ClusterSummary {
	return ClusterSummary{
		ID:                 c.ID,
		Size:               c.Size(),
		Relevance:          c.Relevance,
		AddressedQuestions: c.AddressedQuestions,
	}
}

// AnalysisRun is a completed pipeline run as persisted by the run store.
type AnalysisRun struct {
	ID         ID                `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Questions  []string          `json:"questions"`
	Hypotheses []string          `json:"hypotheses,omitempty"`
	ChunkCount int               `json:"chunk_count"`
	Clusters   []ClusterSummary  `json:"clusters,omitempty"`
	Themes     []*Theme          `json:"themes,omitempty"`
	Info       *ClusteringInfo   `json:"info,omitempty"`
	Coverage   *CoverageReport   `json:"coverage,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}
