package retrieval

import (
	"math"
	"sort"
)

// ScoredDoc is an intermediate ranking entry.
type ScoredDoc struct {
	DocID int64
	Score float64
}

// Rank orders docs by descending score with ties broken by lower id, then
// attaches document fields. Scores are rounded to 4 decimal places for
// display only; ordering uses the exact values.
func Rank(snap *Snapshot, scored []ScoredDoc, limit int) []Result {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].DocID < scored[j].DocID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	results := make([]Result, 0, len(scored))
	for _, s := range scored {
		doc, ok := snap.Docs.Get(s.DocID)
		if !ok {
			continue
		}
		score := round4(s.Score)
		r := unscored(doc)
		r.Score = &score
		results = append(results, r)
	}
	return results
}

func round4(v float64) float64 {
	r := math.Round(v*10000) / 10000
	if r == 0 {
		// normalise negative zero
		return 0
	}
	return r
}
