// Package api exposes the engine over JSON HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cluster"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
)

// ShapeHeader selects the legacy bare-array search response when set to
// "array". The query parameter shape=array does the same.
const ShapeHeader = "X-Response-Shape"

const shapeArray = "array"

// Engine is the subset of *engine.Engine the handlers call.
type Engine interface {
	Insert(ctx context.Context, text, category string) (corpus.Document, error)
	BulkInsert(ctx context.Context, rows []corpus.Row) (corpus.BulkResult, error)
	Documents() []corpus.Document
	Search(ctx context.Context, method, query string) (engine.SearchResponse, error)
	Cluster(ctx context.Context, k int) (cluster.Result, error)
	Analyze(ctx context.Context, docID int64, method, query string) (analysis.Trace, error)
	CategoryCounts() map[string]int
	TopTerms(n int) []corpus.WordCount
	Methods() []string
}

type Handler struct {
	engine       Engine
	cache        *cache.ResultCache
	maxBodyBytes int64
	logger       *slog.Logger
}

// New builds the handler set. resultCache may be nil when caching is off.
func New(eng Engine, resultCache *cache.ResultCache, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 << 20
	}
	return &Handler{
		engine:       eng,
		cache:        resultCache,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "api-handler"),
	}
}

type addDocumentRequest struct {
	Text     *string `json:"text"`
	Category string  `json:"category"`
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		h.writeError(w, r, apperrors.Validation("text is required"))
		return
	}
	doc, err := h.engine.Insert(r.Context(), *req.Text, req.Category)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Document added",
		"doc":     doc,
	})
}

type bulkResponse struct {
	Message  string            `json:"message"`
	Inserted []corpus.Document `json:"inserted"`
	Failed   []corpus.RowError `json:"failed"`
	Total    int               `json:"total"`
}

// AddDocuments inserts a JSON array of rows. Rows are validated one by one;
// an element that is not a row object fails alone instead of failing the
// batch.
func (h *Handler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var raw []json.RawMessage
	if !h.decode(w, r, &raw) {
		return
	}
	if raw == nil {
		h.writeError(w, r, apperrors.Validation("request body must be a JSON array of {text, category} objects"))
		return
	}

	rows := make([]corpus.Row, len(raw))
	malformed := make(map[int]bool)
	for i, elem := range raw {
		if err := json.Unmarshal(elem, &rows[i]); err != nil || !bytes.HasPrefix(bytes.TrimSpace(elem), []byte("{")) {
			rows[i] = corpus.Row{}
			malformed[i+1] = true
		}
	}

	result, err := h.engine.BulkInsert(r.Context(), rows)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for i := range result.Failed {
		if malformed[result.Failed[i].Row] {
			result.Failed[i].Error = "row must be an object with a string text field"
		}
	}

	h.writeJSON(w, http.StatusOK, bulkResponse{
		Message:  fmt.Sprintf("%d documents added, %d failed", len(result.Inserted), len(result.Failed)),
		Inserted: result.Inserted,
		Failed:   result.Failed,
		Total:    result.Total,
	})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Documents())
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.engine.Search(r.Context(), r.PathValue("method"), req.Query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if wantsArray(r) {
		h.writeJSON(w, http.StatusOK, resp.Results)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func wantsArray(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("shape"), shapeArray) ||
		strings.EqualFold(r.Header.Get(ShapeHeader), shapeArray)
}

func (h *Handler) Methods(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Methods())
}

func (h *Handler) Cluster(w http.ResponseWriter, r *http.Request) {
	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, r, apperrors.Validation("k must be a positive integer"))
			return
		}
		k = parsed
	}
	result, err := h.engine.Cluster(r.Context(), k)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("clustering completed",
		"k", result.K,
		"iterations", result.Iterations,
		"converged", result.Converged,
		"duration_ms", result.Duration.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result.Assignments)
}

// docID accepts both 3 and "3".
type docID struct {
	value int64
	set   bool
}

func (d *docID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("doc_id must be an integer, got %s", b)
	}
	d.value, d.set = v, true
	return nil
}

type analyzeRequest struct {
	DocID  docID  `json:"doc_id"`
	Method string `json:"method"`
	Query  string `json:"query"`
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !req.DocID.set {
		h.writeError(w, r, apperrors.Validation("doc_id is required"))
		return
	}
	trace, err := h.engine.Analyze(r.Context(), req.DocID.value, req.Method, req.Query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, trace)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.CategoryCounts())
}

func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, r, apperrors.Validation("n must be a positive integer"))
			return
		}
		n = parsed
	}
	h.writeJSON(w, http.StatusOK, h.engine.TopTerms(n))
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"circuit":  h.cache.CircuitState(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, r, fmt.Errorf("invalidating cache: %w", err))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// decode reads a JSON body into v and reports malformed input as a 400.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.writeError(w, r, apperrors.Newf(apperrors.ErrValidation, http.StatusRequestEntityTooLarge,
				"request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			h.writeError(w, r, apperrors.Validation("request body is required"))
		default:
			h.writeError(w, r, apperrors.Validation("invalid JSON body: %v", err))
		}
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err onto its status and public message. Internal errors
// are logged in full and answered generically.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	h.writeJSON(w, status, map[string]string{"error": apperrors.PublicMessage(err)})
}
