package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/cluster"
	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/coverage"
	"github.com/poiesic/thematic/quotes"
	"github.com/poiesic/thematic/research"
	"github.com/poiesic/thematic/storage"
)

// Pipeline orchestrates a complete analysis run over a set of text chunks.
type Pipeline struct {
	provider       ai.Provider
	store          storage.RunRepository // nil disables persistence
	embedPool      *ants.Pool
	semanticWeight float64
	researchWeight float64
	weightsSet     bool
	params         *cluster.Params
	quoteWorkers   int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithStore enables run persistence. A failure to save never fails the
// analysis; it surfaces as a warning on the run.
func WithStore(store storage.RunRepository) Option {
	return func(p *Pipeline) error {
		p.store = store
		return nil
	}
}

// WithWeights sets the semantic/research clustering blend.
// Defaults to the cluster package defaults (0.3/0.7).
func WithWeights(semantic, research float64) Option {
	return func(p *Pipeline) error {
		p.semanticWeight = semantic
		p.researchWeight = research
		p.weightsSet = true
		return nil
	}
}

// WithParams overrides clustering parameters. Zero fields still fall back
// to dataset-size defaults.
func WithParams(params cluster.Params) Option {
	return func(p *Pipeline) error {
		p.params = &params
		return nil
	}
}

// WithPoolSize sets the worker pool size for per-chunk embedding fallback.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.embedPool != nil {
			p.embedPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embedPool = pool
		return nil
	}
}

// WithQuoteWorkers sets the number of concurrent oracle calls during quote
// validation. Default is the quotes package default.
func WithQuoteWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: quote worker count must be at least 1, got %d", core.ErrConfiguration, n)
		}
		p.quoteWorkers = n
		return nil
	}
}

// NewPipeline creates an analysis pipeline backed by the given AI provider.
func NewPipeline(provider ai.Provider, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		provider:  provider,
		embedPool: pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// Release frees the worker pool. The pipeline should not be used afterwards.
func (p *Pipeline) Release() {
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}

// Request is the input to a single analysis run.
type Request struct {
	// Questions is the ordered research question list. Required: coverage
	// analysis needs at least one question.
	Questions []string

	// Hypotheses optionally sharpen relevance scoring. They never count as
	// addressable questions.
	Hypotheses []string

	// Chunks is the text to analyze. Chunks without an embedding are
	// embedded by the pipeline.
	Chunks []*core.TextChunk

	// Documents maps source filename to full document text, used for quote
	// grounding. May be empty; themes then validate with zero quotes.
	Documents map[string]string
}

// Result is the outcome of an analysis run.
type Result struct {
	// Run is the persisted form, including coverage, validation and all
	// accumulated warnings. Its ID is populated only when a store is
	// configured.
	Run *core.AnalysisRun

	// Clusters are the full clusters with member chunks, ordered by
	// relevance descending.
	Clusters []*core.Cluster

	// Themes are the synthesized findings, one per cluster that survived
	// synthesis, in cluster order.
	Themes []*core.Theme
}

// Analyze runs the full pipeline: embed, score, cluster, synthesize themes,
// analyze question coverage, ground themes in quotes, and optionally persist
// the run.
func (p *Pipeline) Analyze(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || len(req.Chunks) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrEmptyInput, ErrNoChunks)
	}
	if err := core.ValidateQuestions(req.Questions); err != nil {
		return nil, err
	}

	questions, err := research.NewQuestionSet(req.Questions, req.Hypotheses)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var warnings []string

	warnings = append(warnings, p.embedChunks(ctx, req.Chunks)...)

	scorer, err := research.NewScorer(ctx, questions, p.provider.Embedder(), research.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}

	clusterOpts := []cluster.Option{cluster.WithLogger(p.logger)}
	if p.weightsSet {
		clusterOpts = append(clusterOpts, cluster.WithWeights(p.semanticWeight, p.researchWeight))
	}
	clusterer, err := cluster.NewClusterer(scorer, clusterOpts...)
	if err != nil {
		return nil, err
	}

	clustered, err := clusterer.Cluster(ctx, req.Chunks, p.params)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, clustered.Warnings...)

	themes, synthWarnings := p.synthesizeThemes(ctx, questions, clustered.Clusters)
	warnings = append(warnings, synthWarnings...)

	coverageValidator, err := coverage.NewValidator(scorer, coverage.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	report, err := coverageValidator.AnalyzeCoverage(ctx, themes)
	if err != nil {
		return nil, err
	}

	quoteOpts := []quotes.Option{quotes.WithLogger(p.logger)}
	if p.quoteWorkers > 0 {
		quoteOpts = append(quoteOpts, quotes.WithWorkers(p.quoteWorkers))
	}
	quoteValidator, err := quotes.NewValidator(p.provider.Oracle(), quoteOpts...)
	if err != nil {
		return nil, err
	}
	defer quoteValidator.Release()

	validation, quoteWarnings, err := quoteValidator.ValidateThemes(ctx, themes, req.Documents)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, quoteWarnings...)

	run := &core.AnalysisRun{
		CreatedAt:  time.Now().UTC(),
		Questions:  questions.Questions(),
		Hypotheses: questions.Hypotheses(),
		ChunkCount: len(req.Chunks),
		Themes:     themes,
		Info:       &clustered.Info,
		Coverage:   report,
		Validation: validation,
		Warnings:   warnings,
	}
	for _, cl := range clustered.Clusters {
		run.Clusters = append(run.Clusters, core.SummarizeCluster(cl))
	}

	if p.store != nil {
		saved, err := p.store.SaveRun(ctx, run)
		if err != nil {
			p.logger.Warn("failed to persist analysis run", "error", err)
			run.Warnings = append(run.Warnings, fmt.Sprintf("run not persisted: %v", err))
		} else {
			run = saved
		}
	}

	p.logger.Info("analysis complete",
		"chunks", len(req.Chunks),
		"clusters", clustered.Info.TotalClusters,
		"themes", len(themes),
		"coverage", report.OverallCoverage,
		"quality", validation.OverallQuality,
		"elapsed", time.Since(started))

	return &Result{
		Run:      run,
		Clusters: clustered.Clusters,
		Themes:   themes,
	}, nil
}

// embedChunks fills in missing chunk embeddings. It tries one batch call
// first; if the batch fails it retries chunk by chunk on the worker pool so
// one bad input cannot sink the rest. Chunks that still fail are left
// without an embedding and reported as warnings; the clusterer excludes
// them later.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.TextChunk) []string {
	var missing []int
	for i, chunk := range chunks {
		if chunk != nil && len(chunk.Embedding) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = chunks[idx].Text
	}

	embedder := p.provider.Embedder()
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) == len(missing) {
		for i, idx := range missing {
			chunks[idx].Embedding = vectors[i]
		}
		return nil
	}

	p.logger.Warn("batch embedding failed, retrying per chunk", "chunks", len(missing), "error", err)

	var (
		mu       sync.Mutex
		warnings []string
		wg       sync.WaitGroup
	)
	for _, idx := range missing {
		idx := idx
		wg.Add(1)
		task := func() {
			defer wg.Done()
			vec, err := embedder.EmbedText(ctx, chunks[idx].Text)
			if err != nil {
				mu.Lock()
				warnings = append(warnings,
					fmt.Sprintf("embedding failed for chunk %d from %s: %v", idx, chunks[idx].SourceFile, err))
				mu.Unlock()
				return
			}
			chunks[idx].Embedding = vec
		}
		if err := p.embedPool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	return warnings
}
