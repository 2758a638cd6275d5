package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/ratelimit"
)

type fixture struct {
	router  http.Handler
	engine  *engine.Engine
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	eng, err := engine.New(engine.Config{MaxBulkRows: 50, ClusterTimeout: 5 * time.Second}, engine.Deps{Metrics: m})
	require.NoError(t, err)

	agg := analytics.NewAggregator()
	router := NewRouter(New(eng, nil, 1<<20), analytics.NewHandler(agg, nil), health.NewChecker(), RouterOptions{
		RequestTimeout: 5 * time.Second,
		Metrics:        m,
		Limiter:        limiter,
	})
	return &fixture{router: router, engine: eng, metrics: m}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/documents/bulk",
		`[{"text":"kucing makan ikan"},{"text":"anjing makan daging","category":"Hewan"}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func resultIDs(t *testing.T, results []map[string]any) []float64 {
	t.Helper()
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r["id"].(float64)
	}
	return out
}

func TestAddDocument(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/documents", `{"text":"burung terbang"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Document added", body["message"])
	doc := body["doc"].(map[string]any)
	assert.Equal(t, float64(1), doc["id"])
	assert.Equal(t, "Umum", doc["category"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodPost, "/documents", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text is required and must not be empty", decode[map[string]string](t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/documents", `{"category":"Hewan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text is required", decode[map[string]string](t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/documents", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/documents", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is required", decode[map[string]string](t, rec)["error"])
}

func TestBulkInsertReportsRowFailures(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/documents/bulk",
		`[{"text":"kucing makan ikan"},{"text":""},{"text":"anjing makan daging"},"oops"]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body bulkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2 documents added, 2 failed", body.Message)
	assert.Equal(t, 4, body.Total)
	require.Len(t, body.Inserted, 2)
	require.Len(t, body.Failed, 2)
	assert.Equal(t, 2, body.Failed[0].Row)
	assert.Equal(t, 4, body.Failed[1].Row)
	assert.Equal(t, "row must be an object with a string text field", body.Failed[1].Error)
	assert.Len(t, f.engine.Documents(), 2)
}

func TestBulkInsertRequiresArray(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/documents/bulk", `{"text":"kucing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/documents/bulk", `null`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "JSON array")
}

func TestSearchMethods(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/search/boolean", `{"query":"kucing AND ikan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Method     string           `json:"method"`
		Results    []map[string]any `json:"results"`
		Suggestion *string          `json:"suggestion"`
	}](t, rec)
	assert.Equal(t, "boolean", body.Method)
	assert.Equal(t, []float64{1}, resultIDs(t, body.Results))
	assert.NotContains(t, body.Results[0], "score")
	assert.Nil(t, body.Suggestion)

	rec = f.do(t, http.MethodPost, "/search/regex", `{"query":"^anjing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{2}, resultIDs(t, decode[struct {
		Results []map[string]any `json:"results"`
	}](t, rec).Results))

	rec = f.do(t, http.MethodPost, "/search/vsm", `{"query":"kucing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[struct {
		Results []map[string]any `json:"results"`
	}](t, rec).Results
	require.NotEmpty(t, results)
	assert.Contains(t, results[0], "score")
}

func TestSearchBareArrayShape(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/search/boolean?shape=array", `{"query":"makan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{1, 2}, resultIDs(t, decode[[]map[string]any](t, rec)))

	req := httptest.NewRequest(http.MethodPost, "/search/boolean", strings.NewReader(`{"query":"daging"}`))
	req.Header.Set(ShapeHeader, "array")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{2}, resultIDs(t, decode[[]map[string]any](t, rec)))

	rec = f.do(t, http.MethodPost, "/search/boolean?shape=array", `{"query":"gajah"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSearchErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/search/bm25", `{"query":"kucing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/search/boolean", `{"query":"kucing AND"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unexpected end of query at position 10", decode[map[string]string](t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/search/regex", `{"query":"("}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/search/vsm", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSearchSuggestion(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/search/vsm", `{"query":"kucinq"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "kucing", body["suggestion"])
	assert.Equal(t, []any{}, body["results"])
}

func TestClustering(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodGet, "/clustering?k=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assignments := decode[[]map[string]any](t, rec)
	require.Len(t, assignments, 2)
	for _, a := range assignments {
		assert.Contains(t, a, "cluster")
		assert.Contains(t, a, "category")
	}

	rec = f.do(t, http.MethodGet, "/clustering?k=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodPost, "/analyze", `{"doc_id":"1","method":"vsm","query":"ikan"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "kucing makan ikan", body["doc_text"])
	assert.Equal(t, map[string]any{"ikan": float64(1)}, body["chart_data"])
	assert.NotEmpty(t, body["steps"])

	rec = f.do(t, http.MethodPost, "/analyze", `{"doc_id":1,"method":"boolean","query":"ikan"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/analyze", `{"doc_id":99,"method":"vsm","query":"ikan"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/analyze", `{"method":"vsm","query":"ikan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "doc_id is required", decode[map[string]string](t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/analyze", `{"doc_id":"satu","method":"vsm"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorpusEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do(t, http.MethodGet, "/corpus/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]float64{"Umum": 1, "Hewan": 1}, decode[map[string]float64](t, rec))

	rec = f.do(t, http.MethodGet, "/corpus/stats?n=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[[]map[string]any](t, rec)
	require.Len(t, top, 1)
	assert.Equal(t, "makan", top[0]["text"])
	assert.Equal(t, float64(2), top[0]["value"])

	rec = f.do(t, http.MethodGet, "/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = f.do(t, http.MethodGet, "/search/methods", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"vsm", "boolean", "regex", "bim", "feedback"}, decode[[]string](t, rec))
}

func TestAnalyticsReflectSearches(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	f.do(t, http.MethodPost, "/search/vsm", `{"query":"kucing"}`)

	rec := f.do(t, http.MethodGet, "/analytics/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/analytics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues("vsm", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.HTTPRequestsTotal.WithLabelValues("POST", "/search/{method}", "200")))
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/cache/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disabled", decode[map[string]string](t, rec)["status"])

	rec = f.do(t, http.MethodPost, "/cache/invalidate", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWritesAreRateLimited(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	t.Cleanup(limiter.Close)
	f := newFixture(t, limiter)

	rec := f.do(t, http.MethodPost, "/documents", `{"text":"kucing"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(t, http.MethodPost, "/documents", `{"text":"ikan"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = f.do(t, http.MethodPost, "/search/vsm", `{"query":"kucing"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSAndHealth(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/search/vsm", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{`7`, 7, true},
		{`"7"`, 7, true},
		{`" 12 "`, 12, true},
		{`"x"`, 0, false},
		{`1.5`, 0, false},
	}
	for _, tc := range tests {
		var id docID
		err := id.UnmarshalJSON([]byte(tc.in))
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, id.value)
		assert.True(t, id.set)
	}
}
