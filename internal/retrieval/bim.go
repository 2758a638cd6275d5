package retrieval

import (
	"context"
	"fmt"
	"math"
)

// BIM is the binary independence model without relevance judgements:
// p(t|R) = 0.5 and u(t) estimated from document frequency with 0.5
// smoothing, so each present term contributes ln((N-df+0.5)/(df+0.5)).
type BIM struct{}

func (BIM) Name() string         { return MethodBIM }
func (BIM) ScoreType() ScoreType { return ScoreLogOdds }

func (b BIM) Search(ctx context.Context, snap *Snapshot, query string) (Outcome, error) {
	terms := distinct(snap.Normalizer.Terms(query))
	ids := candidates(snap.Index, terms)
	scored := make([]ScoredDoc, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		scored = append(scored, ScoredDoc{DocID: id, Score: b.rsv(snap, id, terms)})
	}
	return Outcome{Results: Rank(snap, scored, 0), ScoreType: ScoreLogOdds}, nil
}

// rsv sums the term weights of the distinct query terms present in doc.
func (BIM) rsv(snap *Snapshot, docID int64, terms []string) float64 {
	dtf := snap.Index.DocTerms(docID)
	var sum float64
	for _, t := range terms {
		if dtf[t] > 0 {
			sum += termWeight(snap.Index.DocCount(), snap.Index.DocFreq(t))
		}
	}
	return sum
}

func termWeight(n, df int) float64 {
	return math.Log((float64(n-df) + 0.5) / (float64(df) + 0.5))
}

func (b BIM) Explain(_ context.Context, snap *Snapshot, docID int64, query string) ([]string, error) {
	if _, err := lookupDoc(snap, docID); err != nil {
		return nil, err
	}
	terms := distinct(snap.Normalizer.Terms(query))
	n := snap.Index.DocCount()
	dtf := snap.Index.DocTerms(docID)
	steps := []string{
		fmt.Sprintf("Query %q normalised to distinct terms %v", query, terms),
		fmt.Sprintf("N = %d documents, p(t|R) = 0.5", n),
	}
	for _, t := range terms {
		df := snap.Index.DocFreq(t)
		c := termWeight(n, df)
		present := "absent from document"
		if dtf[t] > 0 {
			present = "present in document"
		}
		steps = append(steps, fmt.Sprintf("Term %q: df=%d, c = ln((%d-%d+0.5)/(%d+0.5)) = %.4f, %s",
			t, df, n, df, df, c, present))
	}
	if !shares(dtf, terms) {
		return append(steps, "Document contains no query term: not a candidate"), nil
	}
	return append(steps, fmt.Sprintf("RSV = %.4f", b.rsv(snap, docID, terms))), nil
}
