// Package index builds the inverted index and term statistics for one corpus
// snapshot. An Index is read-only once Build returns, so it can be shared by
// any number of concurrent readers without locking.
package index

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
)

type Index struct {
	postings map[string]PostingList
	bitmaps  map[string]*roaring.Bitmap
	forward  map[int64]map[string]int
	terms    map[int64][]string
	lengths  map[int64]int
	all      *roaring.Bitmap
	docIDs   []int64
	vocab    []string
	size     int64
}

// Build normalises every document and returns the finished index.
func Build(docs []corpus.Document, n *textproc.Normalizer) *Index {
	idx := &Index{
		postings: make(map[string]PostingList),
		bitmaps:  make(map[string]*roaring.Bitmap),
		forward:  make(map[int64]map[string]int, len(docs)),
		terms:    make(map[int64][]string, len(docs)),
		lengths:  make(map[int64]int, len(docs)),
		all:      roaring.NewBitmap(),
		docIDs:   make([]int64, 0, len(docs)),
	}

	for _, doc := range docs {
		tokens := n.Tokenize(doc.Text)
		termData := make(map[string]*Posting)
		docTerms := make([]string, 0, len(tokens))
		for _, token := range tokens {
			p, exists := termData[token.Term]
			if !exists {
				p = &Posting{
					DocID:     doc.ID,
					Positions: make([]int, 0, 4),
				}
				termData[token.Term] = p
			}
			p.Frequency++
			p.Positions = append(p.Positions, token.Position)
			docTerms = append(docTerms, token.Term)
		}

		tf := make(map[string]int, len(termData))
		for term, posting := range termData {
			idx.postings[term] = append(idx.postings[term], *posting)
			bm, ok := idx.bitmaps[term]
			if !ok {
				bm = roaring.NewBitmap()
				idx.bitmaps[term] = bm
			}
			bm.Add(uint32(doc.ID))
			tf[term] = posting.Frequency
			idx.size += int64(len(term) + len(posting.Positions)*8 + 64)
		}
		idx.forward[doc.ID] = tf
		idx.terms[doc.ID] = docTerms
		idx.lengths[doc.ID] = len(tokens)
		idx.all.Add(uint32(doc.ID))
		idx.docIDs = append(idx.docIDs, doc.ID)
	}

	idx.vocab = make([]string, 0, len(idx.postings))
	for term, list := range idx.postings {
		sort.Slice(list, func(i, j int) bool {
			return list[i].DocID < list[j].DocID
		})
		idx.vocab = append(idx.vocab, term)
	}
	sort.Strings(idx.vocab)
	sort.Slice(idx.docIDs, func(i, j int) bool { return idx.docIDs[i] < idx.docIDs[j] })
	for _, bm := range idx.bitmaps {
		bm.RunOptimize()
	}
	return idx
}

// Postings returns the posting list for term, sorted by document id. The
// slice is shared; callers must not modify it.
func (x *Index) Postings(term string) PostingList {
	return x.postings[term]
}

func (x *Index) DocFreq(term string) int {
	return len(x.postings[term])
}

func (x *Index) DocCount() int {
	return len(x.docIDs)
}

// IDF returns ln(N/df), or 0 for a term no document contains.
func (x *Index) IDF(term string) float64 {
	df := x.DocFreq(term)
	if df == 0 {
		return 0
	}
	return math.Log(float64(x.DocCount()) / float64(df))
}

// DocTerms returns the term frequencies of one document.
func (x *Index) DocTerms(id int64) map[string]int {
	return x.forward[id]
}

// DocTokens returns the normalised terms of one document in text order.
func (x *Index) DocTokens(id int64) []string {
	return x.terms[id]
}

func (x *Index) DocLength(id int64) int {
	return x.lengths[id]
}

// DocIDs returns every indexed document id in ascending order.
func (x *Index) DocIDs() []int64 {
	return x.docIDs
}

// Vocabulary returns all terms in lexical order.
func (x *Index) Vocabulary() []string {
	return x.vocab
}

// Bitmap returns a copy of the set of documents containing term.
func (x *Index) Bitmap(term string) *roaring.Bitmap {
	bm, ok := x.bitmaps[term]
	if !ok {
		return roaring.NewBitmap()
	}
	return bm.Clone()
}

// All returns a copy of the set of every indexed document.
func (x *Index) All() *roaring.Bitmap {
	return x.all.Clone()
}

// Snapshot lists every term with its postings in lexical order.
func (x *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(x.vocab))
	for _, term := range x.vocab {
		entries = append(entries, TermEntry{Term: term, Postings: x.postings[term]})
	}
	return entries
}

// Size is an estimate of the memory held by postings, in bytes.
func (x *Index) Size() int64 {
	return x.size
}
