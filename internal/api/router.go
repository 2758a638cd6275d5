package api

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/tracing"
)

// RouterOptions tunes the middleware chain. Zero values disable the
// respective layer.
type RouterOptions struct {
	AllowOrigins   []string
	RequestTimeout time.Duration
	Metrics        *metrics.Metrics
	Limiter        *ratelimit.Limiter
}

// NewRouter builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /documents            → add one document
//	POST   /documents/bulk       → add a JSON array of documents
//	GET    /documents            → list documents
//	POST   /search/{method}      → vsm, boolean, regex, bim, feedback
//	GET    /search/methods       → registered method names
//	GET    /clustering           → K-Means assignments (?k=)
//	POST   /analyze              → per-document explanation
//	GET    /corpus/categories    → documents per category
//	GET    /corpus/stats         → most frequent words (?n=)
//	GET    /analytics            → live search analytics
//	GET    /analytics/history    → persisted analytics snapshots (?limit=)
//	GET    /cache/stats          → result cache hit rate
//	POST   /cache/invalidate     → drop cached results
//	GET    /health/live          → liveness
//	GET    /health/ready         → readiness
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Metrics → RateLimit → Timeout → handler
func NewRouter(h *Handler, stats *analytics.Handler, checker *health.Checker, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	// Documents
	mux.HandleFunc("POST /documents", traced("documents.add", h.AddDocument))
	mux.HandleFunc("POST /documents/bulk", traced("documents.bulk", h.AddDocuments))
	mux.HandleFunc("GET /documents", traced("documents.list", h.ListDocuments))

	// Retrieval
	mux.HandleFunc("GET /search/methods", h.Methods)
	mux.HandleFunc("POST /search/{method}", traced("search", h.Search))
	mux.HandleFunc("GET /clustering", traced("clustering", h.Cluster))
	mux.HandleFunc("POST /analyze", traced("analyze", h.Analyze))

	// Corpus
	mux.HandleFunc("GET /corpus/categories", h.Categories)
	mux.HandleFunc("GET /corpus/stats", traced("corpus.stats", h.CorpusStats))

	// Analytics
	if stats != nil {
		mux.HandleFunc("GET /analytics", stats.Stats)
		mux.HandleFunc("GET /analytics/history", stats.History)
	}

	// Cache
	mux.HandleFunc("GET /cache/stats", h.CacheStats)
	mux.HandleFunc("POST /cache/invalidate", h.CacheInvalidate)

	// Middleware chain, applied inside-out:
	// request → RequestID → CORS → Metrics → RateLimit → Timeout → mux
	var chain http.Handler = mux
	if opts.RequestTimeout > 0 {
		chain = middleware.Timeout(opts.RequestTimeout)(chain)
	}
	if opts.Limiter != nil {
		chain = middleware.RateLimit(opts.Limiter, opts.Metrics)(chain)
	}
	if opts.Metrics != nil {
		chain = middleware.Metrics(opts.Metrics)(chain)
	}
	cors := middleware.DefaultCORSConfig()
	if len(opts.AllowOrigins) > 0 {
		cors.AllowOrigins = opts.AllowOrigins
	}
	chain = middleware.CORS(cors)(chain)
	chain = middleware.RequestID(chain)

	return chain
}

// traced opens a root span named after the route and logs the span tree
// once the handler returns.
func traced(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "http."+name, logger.RequestID(r.Context()))
		span.SetAttr("path", r.URL.Path)
		next(w, r.WithContext(ctx))
		span.End()
		span.Log(logger.FromContext(ctx))
	}
}
