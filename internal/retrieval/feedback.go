package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Feedback is Rocchio pseudo relevance feedback on top of VSM: the best
// initial hits are assumed relevant and the query is moved toward their
// centroid before ranking again.
type Feedback struct {
	opts FeedbackOptions
	vsm  VSM
}

func NewFeedback(opts FeedbackOptions) Feedback {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.ExpandTerms <= 0 {
		opts.ExpandTerms = 5
	}
	if opts.Alpha == 0 && opts.Beta == 0 {
		opts.Alpha, opts.Beta = 1, 0.75
	}
	return Feedback{opts: opts}
}

func (Feedback) Name() string         { return MethodFeedback }
func (Feedback) ScoreType() ScoreType { return ScoreCosine }

type expansion struct {
	terms    []string
	query    map[string]float64
	relevant []int64
	added    []string
	weights  map[string]float64
}

func (f Feedback) expand(ctx context.Context, snap *Snapshot, query string) (expansion, error) {
	terms := snap.Normalizer.Terms(query)
	qvec := weigh(termCounts(terms), snap.Index)
	x := expansion{terms: terms, query: qvec, weights: qvec}

	initial, err := f.vsm.rank(ctx, snap, qvec, terms)
	if err != nil {
		return x, err
	}
	for _, r := range initial {
		if len(x.relevant) == f.opts.TopK {
			break
		}
		if r.Score != nil && *r.Score > 0 {
			x.relevant = append(x.relevant, r.ID)
		}
	}
	if len(x.relevant) == 0 {
		return x, nil
	}

	centroid := make(map[string]float64)
	for _, id := range x.relevant {
		for t, w := range weigh(snap.Index.DocTerms(id), snap.Index) {
			centroid[t] += w / float64(len(x.relevant))
		}
	}
	moved := make(map[string]float64, len(centroid))
	for t, w := range qvec {
		moved[t] = f.opts.Alpha * w
	}
	for t, w := range centroid {
		moved[t] += f.opts.Beta * w
	}

	var fresh []string
	for t, w := range moved {
		if _, inQuery := qvec[t]; !inQuery && w > 0 {
			fresh = append(fresh, t)
		}
	}
	sort.Slice(fresh, func(i, j int) bool {
		if moved[fresh[i]] != moved[fresh[j]] {
			return moved[fresh[i]] > moved[fresh[j]]
		}
		return fresh[i] < fresh[j]
	})
	if len(fresh) > f.opts.ExpandTerms {
		fresh = fresh[:f.opts.ExpandTerms]
	}
	x.added = fresh

	x.weights = make(map[string]float64, len(qvec)+len(fresh))
	for t := range qvec {
		x.weights[t] = moved[t]
	}
	for _, t := range fresh {
		x.weights[t] = moved[t]
	}
	return x, nil
}

func (f Feedback) Search(ctx context.Context, snap *Snapshot, query string) (Outcome, error) {
	x, err := f.expand(ctx, snap, query)
	if err != nil {
		return Outcome{}, err
	}
	results, err := f.vsm.rank(ctx, snap, x.weights, append(append([]string{}, x.terms...), x.added...))
	if err != nil {
		return Outcome{}, err
	}
	added := x.added
	if added == nil {
		added = []string{}
	}
	return Outcome{Results: results, ScoreType: ScoreCosine, ExpandedQuery: added}, nil
}

func (f Feedback) Explain(ctx context.Context, snap *Snapshot, docID int64, query string) ([]string, error) {
	if _, err := lookupDoc(snap, docID); err != nil {
		return nil, err
	}
	x, err := f.expand(ctx, snap, query)
	if err != nil {
		return nil, err
	}
	steps := []string{
		fmt.Sprintf("Query %q normalised to %v", query, x.terms),
		fmt.Sprintf("Initial VSM ranking; top %d documents with score > 0 assumed relevant: %s",
			f.opts.TopK, formatSet(x.relevant)),
	}
	if len(x.relevant) == 0 {
		steps = append(steps, "No relevant documents: query not expanded")
	} else {
		steps = append(steps, fmt.Sprintf("q' = %.2f·q + %.2f·centroid(R)", f.opts.Alpha, f.opts.Beta))
		for _, t := range x.added {
			steps = append(steps, fmt.Sprintf("Added term %q with weight %.4f", t, x.weights[t]))
		}
	}
	all := append(append([]string{}, x.terms...), x.added...)
	dtf := snap.Index.DocTerms(docID)
	steps = append(steps, fmt.Sprintf("Expanded query: [%s]", strings.Join(all, " ")))
	return append(steps, cosineSteps(x.weights, weigh(dtf, snap.Index), shares(dtf, all))...), nil
}
