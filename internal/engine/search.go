package engine

import (
	"context"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval/boolquery"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/suggest"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/tracing"
)

// SearchResponse is the answer to one search request. Suggestion is a
// corrected query, offered only when results are scarce.
type SearchResponse struct {
	Method        string              `json:"method"`
	ScoreType     retrieval.ScoreType `json:"score_type"`
	Results       []retrieval.Result  `json:"results"`
	Suggestion    *string             `json:"suggestion"`
	ExpandedQuery []string            `json:"expanded_query,omitempty"`
	Version       uint64              `json:"corpus_version"`
}

// Search runs query through the named method against the current snapshot.
func (e *Engine) Search(ctx context.Context, method, query string) (SearchResponse, error) {
	start := time.Now()
	m, err := e.registry.Lookup(method)
	if err != nil {
		return SearchResponse{}, err
	}
	st := e.current.Load()

	ctx, span := tracing.StartChildSpan(ctx, "engine.search")
	defer span.End()
	span.SetAttr("method", m.Name())

	key := cache.Key{Version: st.snap.Version, Method: m.Name(), Query: query}
	resp, hit, err := cache.Fetch(ctx, e.cache, key, func(ctx context.Context) (SearchResponse, error) {
		return e.search(ctx, st, m, query)
	})
	elapsed := time.Since(start)
	span.SetAttr("cache_hit", hit)
	span.SetAttr("results", len(resp.Results))

	e.recordSearch(ctx, m.Name(), query, resp, hit, err, elapsed)
	if err != nil {
		return SearchResponse{}, err
	}
	e.requestLogger(ctx).Debug("search served",
		"method", m.Name(),
		"results", len(resp.Results),
		"cache_hit", hit,
		"latency_ms", elapsed.Milliseconds(),
	)
	return resp, nil
}

func (e *Engine) search(ctx context.Context, st *state, m retrieval.Method, query string) (SearchResponse, error) {
	outcome, err := m.Search(ctx, st.snap, query)
	if err != nil {
		return SearchResponse{}, err
	}
	results := outcome.Results
	if results == nil {
		results = []retrieval.Result{}
	}
	resp := SearchResponse{
		Method:        m.Name(),
		ScoreType:     outcome.ScoreType,
		Results:       results,
		ExpandedQuery: outcome.ExpandedQuery,
		Version:       st.snap.Version,
	}
	if m.Name() != retrieval.MethodRegex && len(results) < e.cfg.SuggestThreshold {
		_, span := tracing.StartChildSpan(ctx, "engine.suggest")
		resp.Suggestion = suggestion(st.suggest(), m.Name(), query)
		span.End()
	}
	return resp, nil
}

// suggestion corrects the unknown words of query against the corpus
// vocabulary. Boolean queries keep their operators and layout; only operand
// words are replaced.
func suggestion(s *suggest.Suggester, method, query string) *string {
	var (
		fixed string
		ok    bool
	)
	if method == retrieval.MethodBoolean {
		fixed, ok = suggestOperands(s, query)
	} else {
		fixed, ok = s.Suggest(query)
	}
	if !ok || strings.EqualFold(strings.TrimSpace(fixed), strings.TrimSpace(query)) {
		return nil
	}
	return &fixed
}

func suggestOperands(s *suggest.Suggester, query string) (string, bool) {
	tree, err := boolquery.Parse(query)
	if err != nil {
		return "", false
	}
	runes := []rune(query)
	operands := tree.Operands()
	changed := false
	// right to left so earlier positions stay valid
	for i := len(operands) - 1; i >= 0; i-- {
		op := operands[i]
		words := textproc.Words(op.Word)
		if len(words) != 1 {
			continue
		}
		fixed, ok := s.Correct(words[0])
		if !ok {
			continue
		}
		end := op.Pos + len([]rune(op.Word))
		out := make([]rune, 0, len(runes)+len(fixed))
		out = append(out, runes[:op.Pos]...)
		out = append(out, []rune(fixed)...)
		out = append(out, runes[end:]...)
		runes = out
		changed = true
	}
	return string(runes), changed
}

func (e *Engine) recordSearch(ctx context.Context, method, query string, resp SearchResponse, hit bool, err error, elapsed time.Duration) {
	if e.metrics != nil {
		resultType := "ok"
		switch {
		case err != nil:
			resultType = "error"
		case len(resp.Results) == 0:
			resultType = "zero_result"
		}
		cacheStatus := "miss"
		if hit {
			cacheStatus = "hit"
		}
		e.metrics.SearchQueriesTotal.WithLabelValues(method, resultType).Inc()
		e.metrics.SearchLatency.WithLabelValues(method, cacheStatus).Observe(elapsed.Seconds())
		if err == nil {
			e.metrics.SearchResultsCount.WithLabelValues(method).Observe(float64(len(resp.Results)))
			if resp.Suggestion != nil {
				e.metrics.SuggestionsTotal.Inc()
			}
		}
	}
	e.collector.TrackSearch(analytics.SearchEvent{
		Method:    method,
		Query:     query,
		Results:   len(resp.Results),
		Suggested: resp.Suggestion != nil,
		Failed:    err != nil,
		LatencyMs: float64(elapsed.Microseconds()) / 1000,
		CacheHit:  hit,
		Version:   resp.Version,
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
}
