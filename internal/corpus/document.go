// Package corpus holds the document store: validated, immutable documents
// with sequential ids, published as versioned read-only sets.
package corpus

import (
	"sort"
)

// Document is a stored text with its category. Never mutated once stored.
type Document struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Row is one entry of a single or bulk insert request.
type Row struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// RowError reports why one row of a bulk insert was rejected. Row is 1-based.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkResult summarises a bulk insert.
type BulkResult struct {
	Inserted []Document `json:"inserted"`
	Failed   []RowError `json:"failed"`
	Total    int        `json:"total"`
}

// Set is an immutable view of the corpus at one version.
type Set struct {
	Version uint64
	docs    []Document
	pos     map[int64]int
}

func newSet(version uint64, docs []Document) *Set {
	pos := make(map[int64]int, len(docs))
	for i, d := range docs {
		pos[d.ID] = i
	}
	return &Set{Version: version, docs: docs, pos: pos}
}

// All returns the documents in insertion order. Callers must not modify the
// returned slice.
func (s *Set) All() []Document {
	return s.docs
}

func (s *Set) Len() int {
	return len(s.docs)
}

func (s *Set) Get(id int64) (Document, bool) {
	i, ok := s.pos[id]
	if !ok {
		return Document{}, false
	}
	return s.docs[i], true
}

// CategoryCounts returns the number of documents per category.
func (s *Set) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, d := range s.docs {
		counts[d.Category]++
	}
	return counts
}

// WordCount is one entry of the corpus word statistics.
type WordCount struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// TopWords counts words produced by split (already stop-word filtered by the
// caller) and returns the n most frequent, ties broken alphabetically.
func (s *Set) TopWords(n int, split func(string) []string) []WordCount {
	counts := make(map[string]int)
	for _, d := range s.docs {
		for _, w := range split(d.Text) {
			counts[w]++
		}
	}
	result := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		result = append(result, WordCount{Text: w, Value: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return result[i].Text < result[j].Text
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
