// Package engine owns the live corpus snapshot and is the single entry point
// for reads and writes. Writers are serialised and publish a fresh snapshot
// (documents plus a rebuilt index) before returning; readers load the
// current snapshot once and work on it without locks.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cluster"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/suggest"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/tracing"
)

// Config is the engine's slice of the application configuration.
type Config struct {
	Language         string
	DefaultCategory  string
	MaxTextLength    int
	MaxBulkRows      int
	SuggestThreshold int
	StatsTopTerms    int
	ClusterTimeout   time.Duration
	Cluster          cluster.Options
	Feedback         retrieval.FeedbackOptions
}

// FromConfig maps the application configuration onto Config.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Language:         cfg.TextProc.Language,
		DefaultCategory:  cfg.Corpus.DefaultCategory,
		MaxTextLength:    cfg.Corpus.MaxTextLength,
		MaxBulkRows:      cfg.Corpus.MaxBulkRows,
		SuggestThreshold: cfg.Search.SuggestThreshold,
		StatsTopTerms:    cfg.Search.StatsTopTerms,
		ClusterTimeout:   cfg.Search.ClusterTimeout,
		Cluster: cluster.Options{
			K:             cfg.Cluster.K,
			MaxIterations: cfg.Cluster.MaxIterations,
			Workers:       cfg.Cluster.Workers,
			Seed:          cfg.Cluster.Seed,
		},
		Feedback: retrieval.FeedbackOptions{
			TopK:        cfg.Feedback.TopK,
			ExpandTerms: cfg.Feedback.ExpandTerms,
			Alpha:       cfg.Feedback.Alpha,
			Beta:        cfg.Feedback.Beta,
		},
	}
}

// Deps are the optional collaborators. Zero values disable each one.
type Deps struct {
	Repository corpus.Repository
	Cache      *cache.ResultCache
	Collector  *analytics.Collector
	Metrics    *metrics.Metrics
}

// state is one published snapshot plus data derived from it on demand.
type state struct {
	snap      *retrieval.Snapshot
	once      sync.Once
	suggester *suggest.Suggester
}

func (s *state) suggest() *suggest.Suggester {
	s.once.Do(func() {
		docs := s.snap.Docs.All()
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Text
		}
		s.suggester = suggest.FromTexts(texts)
	})
	return s.suggester
}

type Engine struct {
	writeMu    sync.Mutex
	current    atomic.Pointer[state]
	cfg        Config
	store      *corpus.Store
	normalizer *textproc.Normalizer
	registry   *retrieval.Registry
	analyzer   *analysis.Analyzer
	cache      *cache.ResultCache
	collector  *analytics.Collector
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New builds an engine over an empty corpus. Call Restore and LoadSeed to
// populate it.
func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.Language == "" {
		cfg.Language = textproc.Indonesian
	}
	if cfg.StatsTopTerms <= 0 {
		cfg.StatsTopTerms = 50
	}
	if cfg.SuggestThreshold <= 0 {
		cfg.SuggestThreshold = 1
	}
	if cfg.Cluster.K <= 0 {
		cfg.Cluster.K = 2
	}
	if cfg.Cluster.MaxIterations <= 0 {
		cfg.Cluster.MaxIterations = 100
	}
	n, err := textproc.New(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("creating normalizer: %w", err)
	}
	registry := retrieval.NewRegistry(cfg.Feedback)
	e := &Engine{
		cfg: cfg,
		store: corpus.NewStore(corpus.Options{
			DefaultCategory: cfg.DefaultCategory,
			MaxTextLength:   cfg.MaxTextLength,
			MaxBulkRows:     cfg.MaxBulkRows,
			Repository:      deps.Repository,
		}),
		normalizer: n,
		registry:   registry,
		analyzer:   analysis.New(registry),
		cache:      deps.Cache,
		collector:  deps.Collector,
		metrics:    deps.Metrics,
		logger:     slog.Default().With("component", "engine"),
	}
	e.publish(context.Background(), e.store.Snapshot())
	return e, nil
}

// Snapshot returns the snapshot current at the time of the call.
func (e *Engine) Snapshot() *retrieval.Snapshot {
	return e.current.Load().snap
}

// Methods lists the registered retrieval method names.
func (e *Engine) Methods() []string {
	return e.registry.Names()
}

// publish indexes set and makes it the current snapshot. Callers other than
// New hold writeMu.
func (e *Engine) publish(ctx context.Context, set *corpus.Set) *retrieval.Snapshot {
	_, span := tracing.StartChildSpan(ctx, "index.build")
	start := time.Now()
	idx := index.Build(set.All(), e.normalizer)
	elapsed := time.Since(start)
	span.SetAttr("docs", set.Len())
	span.SetAttr("terms", len(idx.Vocabulary()))
	span.End()

	snap := &retrieval.Snapshot{
		Version:    set.Version,
		Docs:       set,
		Index:      idx,
		Normalizer: e.normalizer,
	}
	e.current.Store(&state{snap: snap})

	if e.metrics != nil {
		e.metrics.IndexRebuildDuration.Observe(elapsed.Seconds())
		e.metrics.CorpusDocuments.Set(float64(set.Len()))
		e.metrics.IndexTerms.Set(float64(len(idx.Vocabulary())))
	}
	e.logger.Debug("snapshot published",
		"version", snap.Version,
		"docs", set.Len(),
		"terms", len(idx.Vocabulary()),
		"index_ms", elapsed.Milliseconds(),
	)
	return snap
}

// Restore loads persisted documents, if a repository is configured, and
// publishes them.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	set, err := e.store.Restore(ctx)
	if err != nil {
		return 0, err
	}
	e.publish(ctx, set)
	return set.Len(), nil
}

// Check is the engine's readiness probe.
func (e *Engine) Check(ctx context.Context) error {
	if e.current.Load() == nil {
		return fmt.Errorf("no snapshot published")
	}
	return ctx.Err()
}

func (e *Engine) requestLogger(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx).With("component", "engine")
}
