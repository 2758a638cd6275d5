// Package analytics collects search and ingest events, aggregates them into
// usage statistics and optionally streams them to Kafka and snapshots them
// to PostgreSQL.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/kafka"
)

const latencyWindow = 10000

type AggregatedStats struct {
	TotalSearches      int64            `json:"total_searches"`
	SearchesByMethod   map[string]int64 `json:"searches_by_method"`
	FailedSearches     int64            `json:"failed_searches"`
	ZeroResultCount    int64            `json:"zero_result_count"`
	SuggestionsOffered int64            `json:"suggestions_offered"`
	CacheHits          int64            `json:"cache_hits"`
	CacheMisses        int64            `json:"cache_misses"`
	DocsInserted       int64            `json:"docs_inserted"`
	DocsRejected       int64            `json:"docs_rejected"`
	AvgLatencyMs       float64          `json:"avg_latency_ms"`
	P50LatencyMs       float64          `json:"p50_latency_ms"`
	P95LatencyMs       float64          `json:"p95_latency_ms"`
	P99LatencyMs       float64          `json:"p99_latency_ms"`
	TopQueries         []QueryCount     `json:"top_queries"`
	ZeroResultQueries  []QueryCount     `json:"zero_result_queries"`
	QueriesPerMinute   float64          `json:"queries_per_minute"`
	CapturedAt         time.Time        `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds events into running totals. Latency percentiles cover
// the most recent searches only.
type Aggregator struct {
	mu                sync.Mutex
	totalSearches     int64
	byMethod          map[string]int64
	failed            int64
	zeroResults       int64
	suggestions       int64
	cacheHits         int64
	cacheMisses       int64
	docsInserted      int64
	docsRejected      int64
	latencies         []float64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
	now               func() time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byMethod:          make(map[string]int64),
		latencies:         make([]float64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Record folds one event in. Envelopes of unknown type are ignored.
func (a *Aggregator) Record(env Envelope) {
	switch {
	case env.Type == EventSearch && env.Search != nil:
		a.recordSearch(*env.Search)
	case env.Type == EventIngest && env.Ingest != nil:
		a.recordIngest(*env.Ingest)
	}
}

func (a *Aggregator) recordSearch(e SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	a.byMethod[e.Method]++
	if e.Failed {
		a.failed++
		return
	}
	if e.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if e.Suggested {
		a.suggestions++
	}
	key := e.Method + ": " + e.Query
	a.queryCounts[key]++
	if e.Results == 0 {
		a.zeroResults++
		a.zeroResultQueries[key]++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, e.LatencyMs)
	} else {
		a.latencies[a.next] = e.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
}

func (a *Aggregator) recordIngest(e IngestEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docsInserted += int64(e.Inserted)
	a.docsRejected += int64(e.Failed)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AggregatedStats{
		TotalSearches:      a.totalSearches,
		SearchesByMethod:   make(map[string]int64, len(a.byMethod)),
		FailedSearches:     a.failed,
		ZeroResultCount:    a.zeroResults,
		SuggestionsOffered: a.suggestions,
		CacheHits:          a.cacheHits,
		CacheMisses:        a.cacheMisses,
		DocsInserted:       a.docsInserted,
		DocsRejected:       a.docsRejected,
		CapturedAt:         a.now().UTC(),
	}
	for m, n := range a.byMethod {
		stats.SearchesByMethod[m] = n
	}
	if len(a.latencies) > 0 {
		sorted := append([]float64(nil), a.latencies...)
		sort.Float64s(sorted)
		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(a.totalSearches) / elapsed
	}
	return stats
}

// HandleEvent adapts the aggregator to a Kafka consumer of the analytics
// topic. Undecodable messages are logged and skipped.
func HandleEvent(agg *Aggregator, onEvent func(Envelope)) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		env, err := kafka.DecodeJSON[Envelope](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		if env.Type != EventSearch && env.Type != EventIngest {
			agg.logger.Warn("unknown analytics event type", "type", env.Type)
			return nil
		}
		agg.Record(env)
		if onEvent != nil {
			onEvent(env)
		}
		return nil
	}
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := min((pct*len(sorted))/100, len(sorted)-1)
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func (s AggregatedStats) String() string {
	return fmt.Sprintf("searches=%d zero_results=%d docs_inserted=%d p95_ms=%.2f",
		s.TotalSearches, s.ZeroResultCount, s.DocsInserted, s.P95LatencyMs)
}
