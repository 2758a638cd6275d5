package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
)

// Insert stores one document. The returned document is searchable as soon
// as Insert returns.
func (e *Engine) Insert(ctx context.Context, text, category string) (corpus.Document, error) {
	start := time.Now()
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	doc, set, err := e.store.Add(ctx, corpus.Row{Text: text, Category: category})
	if err != nil {
		e.recordIngest(ctx, 0, 1, start, e.Snapshot().Version)
		return corpus.Document{}, err
	}
	snap := e.publish(ctx, set)
	e.recordIngest(ctx, 1, 0, start, snap.Version)
	e.requestLogger(ctx).Info("document inserted", "doc_id", doc.ID, "category", doc.Category)
	return doc, nil
}

// BulkInsert validates rows independently and publishes every valid row in
// one snapshot. Only a batch-level problem (too many rows, persistence
// failure) is returned as an error.
func (e *Engine) BulkInsert(ctx context.Context, rows []corpus.Row) (corpus.BulkResult, error) {
	start := time.Now()
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	result, set, err := e.store.AddBulk(ctx, rows)
	if err != nil {
		return result, err
	}
	version := set.Version
	if len(result.Inserted) > 0 {
		version = e.publish(ctx, set).Version
	}
	e.recordIngest(ctx, len(result.Inserted), len(result.Failed), start, version)
	e.requestLogger(ctx).Info("bulk insert finished",
		"total", result.Total,
		"inserted", len(result.Inserted),
		"failed", len(result.Failed),
	)
	return result, nil
}

// LoadSeed bulk-inserts a JSON array of {text, category} objects. It does
// nothing when the corpus already holds documents, so restarts over a
// persisted corpus do not duplicate the seed.
func (e *Engine) LoadSeed(ctx context.Context, path string) (int, error) {
	if path == "" || e.Snapshot().Docs.Len() > 0 {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	var rows []corpus.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	inserted := 0
	batch := max(e.cfg.MaxBulkRows, 1)
	for lo := 0; lo < len(rows); lo += batch {
		hi := min(lo+batch, len(rows))
		res, err := e.BulkInsert(ctx, rows[lo:hi])
		if err != nil {
			return inserted, fmt.Errorf("seeding rows %d-%d: %w", lo+1, hi, err)
		}
		for _, f := range res.Failed {
			e.logger.Warn("seed row rejected", "row", lo+f.Row, "error", f.Error)
		}
		inserted += len(res.Inserted)
	}
	e.logger.Info("seed corpus loaded", "file", path, "inserted", inserted, "rows", len(rows))
	return inserted, nil
}

// Documents returns every document in insertion order.
func (e *Engine) Documents() []corpus.Document {
	return e.Snapshot().Docs.All()
}

func (e *Engine) CategoryCounts() map[string]int {
	return e.Snapshot().Docs.CategoryCounts()
}

// TopTerms returns the n most frequent words across the corpus after
// stop-word removal, unstemmed. n <= 0 uses the configured default.
func (e *Engine) TopTerms(n int) []corpus.WordCount {
	if n <= 0 {
		n = e.cfg.StatsTopTerms
	}
	snap := e.Snapshot()
	return snap.Docs.TopWords(n, func(text string) []string {
		return snap.Normalizer.Analyze(text).Filtered
	})
}

func (e *Engine) recordIngest(ctx context.Context, inserted, failed int, start time.Time, version uint64) {
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(inserted))
		e.metrics.DocsRejectedTotal.Add(float64(failed))
	}
	e.collector.TrackIngest(analytics.IngestEvent{
		Inserted:  inserted,
		Failed:    failed,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Version:   version,
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
}
