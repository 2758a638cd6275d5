package analytics

import "time"

type EventType string

const (
	EventSearch EventType = "search"
	EventIngest EventType = "ingest"
)

// Envelope is the wire shape on the analytics topic. Exactly one of Search
// and Ingest is set, matching Type.
type Envelope struct {
	Type   EventType    `json:"type"`
	Search *SearchEvent `json:"search,omitempty"`
	Ingest *IngestEvent `json:"ingest,omitempty"`
}

type SearchEvent struct {
	Method    string    `json:"method"`
	Query     string    `json:"query"`
	Results   int       `json:"results"`
	Suggested bool      `json:"suggested"`
	Failed    bool      `json:"failed"`
	LatencyMs float64   `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Version   uint64    `json:"corpus_version"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type IngestEvent struct {
	Inserted  int       `json:"inserted"`
	Failed    int       `json:"failed"`
	LatencyMs float64   `json:"latency_ms"`
	Version   uint64    `json:"corpus_version"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func (e SearchEvent) envelope() Envelope {
	return Envelope{Type: EventSearch, Search: &e}
}

func (e IngestEvent) envelope() Envelope {
	return Envelope{Type: EventIngest, Ingest: &e}
}
