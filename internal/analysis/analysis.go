// Package analysis reconstructs, for one document, how a retrieval method
// arrives at its decision. It reuses each method's own Explain path so the
// trace always agrees with the ranking.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval/boolquery"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

const topTermsWithoutQuery = 10

// Trace is the explainability view of one document.
type Trace struct {
	DocID     int64          `json:"doc_id"`
	DocText   string         `json:"doc_text"`
	Method    string         `json:"method"`
	Query     string         `json:"query"`
	ChartData map[string]int `json:"chart_data"`
	Steps     []string       `json:"steps"`
}

type Analyzer struct {
	registry *retrieval.Registry
}

func New(registry *retrieval.Registry) *Analyzer {
	return &Analyzer{registry: registry}
}

// Analyze builds the trace of docID for method and query. An empty query
// skips scoring and charts the document's most frequent terms.
func (a *Analyzer) Analyze(ctx context.Context, snap *retrieval.Snapshot, docID int64, method, query string) (Trace, error) {
	doc, ok := snap.Docs.Get(docID)
	if !ok {
		return Trace{}, apperrors.NotFound("document %d not found", docID)
	}
	m, err := a.registry.Lookup(method)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownMethod) {
			return Trace{}, apperrors.Validation("unknown method %q, expected one of %s",
				method, strings.Join(a.registry.Names(), ", "))
		}
		return Trace{}, err
	}

	stages := snap.Normalizer.Analyze(doc.Text)
	trace := Trace{
		DocID:   doc.ID,
		DocText: doc.Text,
		Method:  m.Name(),
		Query:   query,
		Steps: []string{
			fmt.Sprintf("Analysis of document %d with method %s", doc.ID, m.Name()),
			fmt.Sprintf("Words: [%s]", strings.Join(stages.Words, " ")),
			fmt.Sprintf("After stop-word removal: [%s]", strings.Join(stages.Filtered, " ")),
			fmt.Sprintf("Stemmed terms: [%s]", strings.Join(stages.Terms, " ")),
		},
	}

	if strings.TrimSpace(query) == "" {
		trace.ChartData = topTerms(snap.Index.DocTerms(doc.ID), topTermsWithoutQuery)
		trace.Steps = append(trace.Steps, "No query given: chart shows the document's most frequent terms")
		return trace, nil
	}

	chart, err := a.chart(snap, m.Name(), doc.ID, doc.Text, query)
	if err != nil {
		return Trace{}, err
	}
	trace.ChartData = chart
	steps, err := m.Explain(ctx, snap, doc.ID, query)
	if err != nil {
		return Trace{}, err
	}
	trace.Steps = append(trace.Steps, steps...)
	return trace, nil
}

// chart maps each query term to its frequency in the document, zero
// included. Regex charts the matched substrings instead.
func (a *Analyzer) chart(snap *retrieval.Snapshot, method string, docID int64, text, query string) (map[string]int, error) {
	if method == retrieval.MethodRegex {
		re, err := retrieval.Compile(query)
		if err != nil {
			return nil, err
		}
		return retrieval.MatchCounts(re, text), nil
	}

	words := []string{query}
	if method == retrieval.MethodBoolean {
		tree, err := boolquery.Parse(query)
		if err != nil {
			return nil, err
		}
		words = tree.Words()
	}
	tf := snap.Index.DocTerms(docID)
	chart := make(map[string]int)
	for _, w := range words {
		for _, term := range snap.Normalizer.Terms(w) {
			chart[term] = tf[term]
		}
	}
	return chart, nil
}

func topTerms(tf map[string]int, n int) map[string]int {
	terms := make([]string, 0, len(tf))
	for t := range tf {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if tf[terms[i]] != tf[terms[j]] {
			return tf[terms[i]] > tf[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	chart := make(map[string]int, len(terms))
	for _, t := range terms {
		chart[t] = tf[t]
	}
	return chart
}
