package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/kafka"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	agg.Record(SearchEvent{Method: "vsm", Query: "kucing", Results: 2, LatencyMs: 1}.envelope())
	agg.Record(SearchEvent{Method: "vsm", Query: "kucing", Results: 2, LatencyMs: 3, CacheHit: true}.envelope())
	agg.Record(SearchEvent{Method: "bim", Query: "kucinq", Results: 0, Suggested: true, LatencyMs: 2}.envelope())
	agg.Record(SearchEvent{Method: "boolean", Query: "AND", Failed: true}.envelope())
	agg.Record(IngestEvent{Inserted: 2, Failed: 1}.envelope())
	agg.Record(Envelope{Type: "other"})

	s := agg.Stats()
	assert.Equal(t, int64(4), s.TotalSearches)
	assert.Equal(t, map[string]int64{"vsm": 2, "bim": 1, "boolean": 1}, s.SearchesByMethod)
	assert.Equal(t, int64(1), s.FailedSearches)
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, int64(1), s.SuggestionsOffered)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(2), s.CacheMisses)
	assert.Equal(t, int64(2), s.DocsInserted)
	assert.Equal(t, int64(1), s.DocsRejected)
	assert.InDelta(t, 2.0, s.AvgLatencyMs, 1e-9)
	assert.Equal(t, 2.0, s.P50LatencyMs)
	assert.Equal(t, []QueryCount{{Query: "vsm: kucing", Count: 2}, {Query: "bim: kucinq", Count: 1}}, s.TopQueries)
	assert.Equal(t, []QueryCount{{Query: "bim: kucinq", Count: 1}}, s.ZeroResultQueries)
}

func TestLatencyWindowIsBounded(t *testing.T) {
	agg := NewAggregator()
	for i := range latencyWindow + 10 {
		agg.Record(SearchEvent{Method: "vsm", Query: "q", Results: 1, LatencyMs: float64(i)}.envelope())
	}
	assert.Len(t, agg.latencies, latencyWindow)
	s := agg.Stats()
	assert.Equal(t, 5010.0, s.P50LatencyMs)
	assert.Equal(t, 9910.0, s.P99LatencyMs)
}

func TestCollectorFeedsAggregatorAndPublisher(t *testing.T) {
	agg := NewAggregator()
	pub := &recordingPublisher{}
	c := NewCollector(agg, pub, CollectorOptions{BatchSize: 2, FlushInterval: time.Hour})
	c.Start()

	c.TrackSearch(SearchEvent{Method: "vsm", Query: "a", Results: 1})
	c.TrackSearch(SearchEvent{Method: "vsm", Query: "b", Results: 1})
	c.TrackIngest(IngestEvent{Inserted: 1})
	c.Close()

	assert.Equal(t, int64(2), agg.Stats().TotalSearches)
	assert.Equal(t, int64(1), agg.Stats().DocsInserted)
	require.Len(t, pub.events, 3)
	assert.Equal(t, "search", pub.events[0].Key)
	assert.Equal(t, "ingest", pub.events[2].Key)
}

func TestCollectorWithoutPublisher(t *testing.T) {
	agg := NewAggregator()
	c := NewCollector(agg, nil, CollectorOptions{})
	c.Start()
	c.TrackSearch(SearchEvent{Method: "regex", Query: "^a", Results: 0})
	c.Close()
	assert.Equal(t, int64(1), agg.Stats().ZeroResultCount)

	var nilCollector *Collector
	nilCollector.TrackSearch(SearchEvent{})
}

func TestCollectorDropsEventsAfterClose(t *testing.T) {
	agg := NewAggregator()
	c := NewCollector(agg, nil, CollectorOptions{})
	c.Start()
	c.TrackSearch(SearchEvent{Method: "vsm", Query: "a", Results: 1})
	c.Close()

	assert.NotPanics(t, func() {
		c.TrackSearch(SearchEvent{Method: "vsm", Query: "late", Results: 1})
		c.TrackIngest(IngestEvent{Inserted: 1})
	})
	assert.NotPanics(t, c.Close)
	assert.Equal(t, int64(1), agg.Stats().TotalSearches)
	assert.Equal(t, int64(0), agg.Stats().DocsInserted)
}

func TestCollectorCloseRacesWithTrack(t *testing.T) {
	c := NewCollector(NewAggregator(), nil, CollectorOptions{BufferSize: 16})
	c.Start()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				c.TrackSearch(SearchEvent{Method: "vsm", Query: fmt.Sprintf("q%d-%d", i, j)})
			}
		}()
	}
	c.Close()
	wg.Wait()
}

func TestHandleEventDecodesEnvelope(t *testing.T) {
	agg := NewAggregator()
	var seen []EventType
	handle := HandleEvent(agg, func(env Envelope) { seen = append(seen, env.Type) })

	value, err := json.Marshal(SearchEvent{Method: "bim", Query: "ikan", Results: 3}.envelope())
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), []byte("search"), value))
	require.NoError(t, handle(context.Background(), nil, []byte("not json")))
	require.NoError(t, handle(context.Background(), nil, []byte(`{"type":"mystery"}`)))

	assert.Equal(t, []EventType{EventSearch}, seen)
	assert.Equal(t, int64(1), agg.Stats().TotalSearches)
}

type fakeHistory struct {
	snapshots []AggregatedStats
	err       error
	limit     int
}

func (f *fakeHistory) ListSnapshots(_ context.Context, limit int) ([]AggregatedStats, error) {
	f.limit = limit
	return f.snapshots, f.err
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator()
	agg.Record(SearchEvent{Method: "vsm", Query: "x", Results: 1}.envelope())
	rec := httptest.NewRecorder()
	NewHandler(agg, nil).Stats(rec, httptest.NewRequest(http.MethodGet, "/analytics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var s AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, int64(1), s.TotalSearches)
}

func TestHandlerHistory(t *testing.T) {
	agg := NewAggregator()

	rec := httptest.NewRecorder()
	NewHandler(agg, nil).History(rec, httptest.NewRequest(http.MethodGet, "/analytics/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h := &fakeHistory{snapshots: []AggregatedStats{{TotalSearches: 5}}}
	rec = httptest.NewRecorder()
	NewHandler(agg, h).History(rec, httptest.NewRequest(http.MethodGet, "/analytics/history?limit=9999", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxHistory, h.limit)

	rec = httptest.NewRecorder()
	NewHandler(agg, h).History(rec, httptest.NewRequest(http.MethodGet, "/analytics/history?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.err = errors.New("db down")
	rec = httptest.NewRecorder()
	NewHandler(agg, h).History(rec, httptest.NewRequest(http.MethodGet, "/analytics/history", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
