package retrieval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"gonum.org/v1/gonum/floats"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/index"
)

// termCounts returns the raw frequency of each term.
func termCounts(terms []string) map[string]int {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

// weigh returns tf·idf for every term; terms the corpus never saw weigh 0.
func weigh(tf map[string]int, idx *index.Index) map[string]float64 {
	w := make(map[string]float64, len(tf))
	for term, f := range tf {
		w[term] = float64(f) * idx.IDF(term)
	}
	return w
}

type cosineParts struct {
	Dot, QueryNorm, DocNorm, Cosine float64
}

// cosine compares two sparse vectors. Dimensions are laid out in lexical
// order so that summation order, and therefore the result, is stable. A zero
// norm on either side gives 0.
func cosine(q, d map[string]float64) cosineParts {
	keys := make([]string, 0, len(q)+len(d))
	for k := range q {
		keys = append(keys, k)
	}
	for k := range d {
		if _, ok := q[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	qv := make([]float64, len(keys))
	dv := make([]float64, len(keys))
	for i, k := range keys {
		qv[i] = q[k]
		dv[i] = d[k]
	}
	parts := cosineParts{
		Dot:       floats.Dot(qv, dv),
		QueryNorm: floats.Norm(qv, 2),
		DocNorm:   floats.Norm(dv, 2),
	}
	if parts.QueryNorm == 0 || parts.DocNorm == 0 {
		return parts
	}
	c := parts.Dot / (parts.QueryNorm * parts.DocNorm)
	if math.IsNaN(c) {
		return parts
	}
	// rounding can push identical vectors just past 1
	parts.Cosine = math.Max(0, math.Min(1, c))
	return parts
}

// candidates returns the ids of documents containing at least one of terms,
// ascending.
func candidates(idx *index.Index, terms []string) []int64 {
	union := roaring.NewBitmap()
	for _, t := range terms {
		union.Or(idx.Bitmap(t))
	}
	return bitmapIDs(union)
}

func bitmapIDs(bm *roaring.Bitmap) []int64 {
	ids := make([]int64, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, int64(it.Next()))
	}
	return ids
}

func distinct(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func formatSet(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
