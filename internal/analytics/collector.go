package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/kafka"
)

// Publisher ships batches of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// CollectorOptions tunes buffering. Zero values take defaults.
type CollectorOptions struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector takes events off the request path. Every event feeds the
// in-process Aggregator; when a Publisher is set they are also batched to
// the analytics topic. Track never blocks: a full buffer drops the event.
type Collector struct {
	aggregator *Aggregator
	publisher  Publisher
	opts       CollectorOptions
	eventCh    chan Envelope
	logger     *slog.Logger
	done       chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewCollector(aggregator *Aggregator, publisher Publisher, opts CollectorOptions) *Collector {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	return &Collector{
		aggregator: aggregator,
		publisher:  publisher,
		opts:       opts,
		eventCh:    make(chan Envelope, opts.BufferSize),
		logger:     slog.Default().With("component", "analytics-collector"),
		done:       make(chan struct{}),
	}
}

// Start launches the consuming goroutine. Close drains and stops it.
func (c *Collector) Start() {
	go c.run()
	c.logger.Info("analytics collector started",
		"buffer_size", c.opts.BufferSize,
		"streaming", c.publisher != nil,
	)
}

func (c *Collector) TrackSearch(e SearchEvent) { c.track(e.envelope()) }

func (c *Collector) TrackIngest(e IngestEvent) { c.track(e.envelope()) }

func (c *Collector) track(env Envelope) {
	if c == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.logger.Debug("analytics event dropped (collector closed)", "type", env.Type)
		return
	}
	select {
	case c.eventCh <- env:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "type", env.Type)
	}
}

// Close stops accepting events, flushes what is buffered and waits for the
// consumer to exit. Events tracked after Close are dropped.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 || c.publisher == nil {
			batch = batch[:0]
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.publisher.PublishBatch(ctx, batch); err != nil {
			c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		}
		batch = make([]kafka.Event, 0, c.opts.BatchSize)
	}

	for {
		select {
		case env, ok := <-c.eventCh:
			if !ok {
				flush()
				return
			}
			c.aggregator.Record(env)
			if c.publisher != nil {
				batch = append(batch, kafka.Event{Key: string(env.Type), Value: env})
				if len(batch) >= c.opts.BatchSize {
					flush()
				}
			}
		case <-ticker.C:
			flush()
		}
	}
}
