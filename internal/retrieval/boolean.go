package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval/boolquery"
)

// Boolean evaluates AND/OR/NOT expressions over posting bitmaps. Results are
// unscored and in ascending id order.
type Boolean struct{}

func (Boolean) Name() string         { return MethodBoolean }
func (Boolean) ScoreType() ScoreType { return ScoreNone }

func (b Boolean) Search(ctx context.Context, snap *Snapshot, query string) (Outcome, error) {
	tree, err := boolquery.Parse(query)
	if err != nil {
		return Outcome{}, err
	}
	matched := b.eval(snap, tree, nil)
	results := make([]Result, 0, matched.GetCardinality())
	for _, id := range bitmapIDs(matched) {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if doc, ok := snap.Docs.Get(id); ok {
			results = append(results, unscored(doc))
		}
	}
	return Outcome{Results: results, ScoreType: ScoreNone}, nil
}

// eval computes the document set of node. When trace is non-nil every
// intermediate set is appended to it, innermost first.
func (b Boolean) eval(snap *Snapshot, node *boolquery.Node, trace *[]string) *roaring.Bitmap {
	var result *roaring.Bitmap
	switch node.Kind {
	case boolquery.Term:
		return b.operand(snap, node.Word, trace)
	case boolquery.Not:
		child := b.eval(snap, node.Children[0], trace)
		result = roaring.AndNot(snap.Index.All(), child)
	case boolquery.And:
		result = roaring.And(b.eval(snap, node.Children[0], trace), b.eval(snap, node.Children[1], trace))
	case boolquery.Or:
		result = roaring.Or(b.eval(snap, node.Children[0], trace), b.eval(snap, node.Children[1], trace))
	default:
		result = roaring.NewBitmap()
	}
	if trace != nil {
		*trace = append(*trace, fmt.Sprintf("%s → %s", node, formatSet(bitmapIDs(result))))
	}
	return result
}

// operand resolves a query word. A word that normalises to several terms
// needs all of them; one that normalises to nothing matches nothing.
func (Boolean) operand(snap *Snapshot, word string, trace *[]string) *roaring.Bitmap {
	terms := snap.Normalizer.Terms(word)
	if len(terms) == 0 {
		if trace != nil {
			*trace = append(*trace, fmt.Sprintf("%q is a stop word or too short → {}", word))
		}
		return roaring.NewBitmap()
	}
	result := snap.Index.Bitmap(terms[0])
	for _, t := range terms[1:] {
		result.And(snap.Index.Bitmap(t))
	}
	if trace != nil {
		*trace = append(*trace, fmt.Sprintf("%q → term [%s] → %s",
			word, strings.Join(terms, " "), formatSet(bitmapIDs(result))))
	}
	return result
}

func (b Boolean) Explain(_ context.Context, snap *Snapshot, docID int64, query string) ([]string, error) {
	if _, err := lookupDoc(snap, docID); err != nil {
		return nil, err
	}
	tree, err := boolquery.Parse(query)
	if err != nil {
		return nil, err
	}
	steps := []string{
		fmt.Sprintf("Parsed %q as %s", query, tree),
		fmt.Sprintf("Universe = %s", formatSet(snap.Index.DocIDs())),
	}
	matched := b.eval(snap, tree, &steps)
	verdict := "does not match"
	if matched.Contains(uint32(docID)) {
		verdict = "matches"
	}
	return append(steps, fmt.Sprintf("Document %d %s", docID, verdict)), nil
}
