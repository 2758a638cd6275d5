package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// VSM ranks by cosine similarity of tf·ln(N/df) vectors.
type VSM struct{}

func (VSM) Name() string         { return MethodVSM }
func (VSM) ScoreType() ScoreType { return ScoreCosine }

func (v VSM) Search(ctx context.Context, snap *Snapshot, query string) (Outcome, error) {
	terms := snap.Normalizer.Terms(query)
	results, err := v.rank(ctx, snap, weigh(termCounts(terms), snap.Index), terms)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Results: results, ScoreType: ScoreCosine}, nil
}

// rank scores every document sharing a term in terms against qvec.
func (VSM) rank(ctx context.Context, snap *Snapshot, qvec map[string]float64, terms []string) ([]Result, error) {
	ids := candidates(snap.Index, terms)
	scored := make([]ScoredDoc, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dvec := weigh(snap.Index.DocTerms(id), snap.Index)
		scored = append(scored, ScoredDoc{DocID: id, Score: cosine(qvec, dvec).Cosine})
	}
	results := Rank(snap, scored, 0)
	for i := range results {
		results[i].ProcessedText = strings.Join(snap.Index.DocTokens(results[i].ID), " ")
	}
	return results, nil
}

func (VSM) Explain(_ context.Context, snap *Snapshot, docID int64, query string) ([]string, error) {
	if _, err := lookupDoc(snap, docID); err != nil {
		return nil, err
	}
	terms := snap.Normalizer.Terms(query)
	qtf := termCounts(terms)
	dtf := snap.Index.DocTerms(docID)
	steps := []string{
		fmt.Sprintf("Query %q normalised to %v", query, terms),
		fmt.Sprintf("Document %d normalised to [%s]", docID, strings.Join(snap.Index.DocTokens(docID), " ")),
		fmt.Sprintf("N = %d documents", snap.Index.DocCount()),
	}
	steps = append(steps, weightSteps(snap, qtf, dtf)...)
	return append(steps, cosineSteps(weigh(qtf, snap.Index), weigh(dtf, snap.Index), shares(dtf, terms))...), nil
}

func weightSteps(snap *Snapshot, qtf, dtf map[string]int) []string {
	qterms := make([]string, 0, len(qtf))
	for t := range qtf {
		qterms = append(qterms, t)
	}
	sort.Strings(qterms)
	n := snap.Index.DocCount()
	steps := make([]string, 0, len(qterms))
	for _, t := range qterms {
		df := snap.Index.DocFreq(t)
		idf := snap.Index.IDF(t)
		if df == 0 {
			steps = append(steps, fmt.Sprintf("Term %q: not in corpus, weight 0", t))
			continue
		}
		steps = append(steps, fmt.Sprintf(
			"Term %q: df=%d, idf=ln(%d/%d)=%.4f, query tf=%d weight=%.4f, document tf=%d weight=%.4f",
			t, df, n, df, idf, qtf[t], float64(qtf[t])*idf, dtf[t], float64(dtf[t])*idf))
	}
	return steps
}

func cosineSteps(qvec, dvec map[string]float64, candidate bool) []string {
	if !candidate {
		return []string{"Document shares no query term: not a candidate, score 0"}
	}
	parts := cosine(qvec, dvec)
	steps := []string{
		fmt.Sprintf("dot(q, d) = %.4f", parts.Dot),
		fmt.Sprintf("|q| = %.4f, |d| = %.4f", parts.QueryNorm, parts.DocNorm),
	}
	if parts.QueryNorm == 0 || parts.DocNorm == 0 {
		return append(steps, "Zero-length vector: cosine = 0")
	}
	return append(steps, fmt.Sprintf("cosine = %.4f / (%.4f × %.4f) = %.4f",
		parts.Dot, parts.QueryNorm, parts.DocNorm, parts.Cosine))
}

func shares(dtf map[string]int, terms []string) bool {
	for _, t := range terms {
		if dtf[t] > 0 {
			return true
		}
	}
	return false
}
