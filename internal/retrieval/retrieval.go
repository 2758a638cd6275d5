// Package retrieval implements the interchangeable retrieval methods: vector
// space, Boolean, regex, binary independence and pseudo relevance feedback.
// Every method reads one Snapshot and can explain its own scoring for a
// single document through the same code path it ranks with.
package retrieval

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

// ScoreType labels what a result score means.
type ScoreType string

const (
	ScoreCosine  ScoreType = "cosine_similarity"
	ScoreLogOdds ScoreType = "log_odds"
	ScoreNone    ScoreType = "none"
)

// Snapshot is the immutable corpus state a request runs against.
type Snapshot struct {
	Version    uint64
	Docs       *corpus.Set
	Index      *index.Index
	Normalizer *textproc.Normalizer
}

// Result is one ranked or matched document.
type Result struct {
	ID            int64    `json:"id"`
	Text          string   `json:"text"`
	Category      string   `json:"category"`
	Score         *float64 `json:"score,omitempty"`
	ProcessedText string   `json:"processed_text,omitempty"`
}

// Outcome is what a method returns for one query.
type Outcome struct {
	Results   []Result
	ScoreType ScoreType
	// ExpandedQuery lists the terms feedback added to the query.
	ExpandedQuery []string
}

// Method is a retrieval strategy.
type Method interface {
	Name() string
	ScoreType() ScoreType
	Search(ctx context.Context, snap *Snapshot, query string) (Outcome, error)
	// Explain describes, step by step, how docID is scored for query.
	Explain(ctx context.Context, snap *Snapshot, docID int64, query string) ([]string, error)
}

const (
	MethodVSM      = "vsm"
	MethodBoolean  = "boolean"
	MethodRegex    = "regex"
	MethodBIM      = "bim"
	MethodFeedback = "feedback"
)

// FeedbackOptions tunes pseudo relevance feedback.
type FeedbackOptions struct {
	TopK        int
	ExpandTerms int
	Alpha       float64
	Beta        float64
}

// Registry maps method names to implementations.
type Registry struct {
	methods map[string]Method
}

// NewRegistry returns a registry holding every built-in method.
func NewRegistry(fb FeedbackOptions) *Registry {
	r := &Registry{methods: make(map[string]Method)}
	r.Register(VSM{})
	r.Register(Boolean{})
	r.Register(Regex{})
	r.Register(BIM{})
	r.Register(NewFeedback(fb))
	return r
}

func (r *Registry) Register(m Method) {
	r.methods[m.Name()] = m
}

// Lookup returns the method registered under name.
func (r *Registry) Lookup(name string) (Method, error) {
	m, ok := r.methods[strings.ToLower(name)]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownMethod, http.StatusNotFound, "unknown retrieval method %q", name)
	}
	return m, nil
}

// Names returns the registered method names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupDoc(snap *Snapshot, id int64) (corpus.Document, error) {
	doc, ok := snap.Docs.Get(id)
	if !ok {
		return corpus.Document{}, apperrors.NotFound("document %d not found", id)
	}
	return doc, nil
}

func unscored(doc corpus.Document) Result {
	return Result{ID: doc.ID, Text: doc.Text, Category: doc.Category}
}
