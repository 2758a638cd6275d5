package engine

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cluster"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/tracing"
)

// Cluster runs K-Means over the current snapshot. k <= 0 uses the
// configured default. The run is bounded by the configured cluster timeout.
func (e *Engine) Cluster(ctx context.Context, k int) (cluster.Result, error) {
	snap := e.Snapshot()
	opts := e.cfg.Cluster
	if k > 0 {
		opts.K = k
	}

	ctx, span := tracing.StartChildSpan(ctx, "engine.cluster")
	defer span.End()

	var result cluster.Result
	err := resilience.WithTimeout(ctx, e.cfg.ClusterTimeout, "clustering", func(ctx context.Context) error {
		var err error
		result, err = cluster.Run(ctx, snap.Docs.All(), snap.Index, opts)
		return err
	})
	if err != nil {
		e.requestLogger(ctx).Warn("clustering failed", "k", opts.K, "error", err)
		return cluster.Result{}, err
	}
	span.SetAttr("k", result.K)
	span.SetAttr("iterations", result.Iterations)
	if e.metrics != nil {
		e.metrics.ClusterDuration.Observe(result.Duration.Seconds())
		e.metrics.ClusterIterations.Observe(float64(result.Iterations))
	}
	return result, nil
}

// Analyze explains how method treats docID for query on the current
// snapshot.
func (e *Engine) Analyze(ctx context.Context, docID int64, method, query string) (analysis.Trace, error) {
	ctx, span := tracing.StartChildSpan(ctx, "engine.analyze")
	defer span.End()
	span.SetAttr("doc_id", docID)
	return e.analyzer.Analyze(ctx, e.Snapshot(), docID, method, query)
}
