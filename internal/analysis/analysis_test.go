package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/index"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

func demo(t *testing.T) *retrieval.Snapshot {
	t.Helper()
	store := corpus.NewStore(corpus.Options{})
	_, set, err := store.AddBulk(context.Background(), []corpus.Row{
		{Text: "kucing makan ikan, ikan besar"},
		{Text: "anjing makan daging"},
	})
	require.NoError(t, err)
	n := textproc.MustNew(textproc.Indonesian)
	return &retrieval.Snapshot{Version: set.Version, Docs: set, Index: index.Build(set.All(), n), Normalizer: n}
}

func analyzer() *Analyzer {
	return New(retrieval.NewRegistry(retrieval.FeedbackOptions{}))
}

func TestAnalyzeChartsQueryTerms(t *testing.T) {
	tr, err := analyzer().Analyze(context.Background(), demo(t), 1, "vsm", "ikan anjing")
	require.NoError(t, err)

	assert.Equal(t, "kucing makan ikan, ikan besar", tr.DocText)
	assert.Equal(t, map[string]int{"ikan": 2, "anjing": 0}, tr.ChartData)
	assert.NotEmpty(t, tr.Steps)
}

func TestAnalyzeBooleanChartsOperands(t *testing.T) {
	tr, err := analyzer().Analyze(context.Background(), demo(t), 1, "boolean", "ikan AND NOT anjing")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ikan": 2, "anjing": 0}, tr.ChartData)
	assert.Equal(t, "Document 1 matches", tr.Steps[len(tr.Steps)-1])
}

func TestAnalyzeRegexChartsMatches(t *testing.T) {
	tr, err := analyzer().Analyze(context.Background(), demo(t), 1, "regex", "IKAN")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ikan": 2}, tr.ChartData)
}

func TestAnalyzeWithoutQuery(t *testing.T) {
	tr, err := analyzer().Analyze(context.Background(), demo(t), 1, "bim", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ikan": 2, "kucing": 1, "makan": 1, "besar": 1}, tr.ChartData)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	snap := demo(t)
	a := analyzer()
	first, err := a.Analyze(context.Background(), snap, 2, "feedback", "daging")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), snap, 2, "feedback", "daging")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeErrors(t *testing.T) {
	a := analyzer()
	snap := demo(t)

	_, err := a.Analyze(context.Background(), snap, 42, "vsm", "ikan")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = a.Analyze(context.Background(), snap, 1, "bm25", "ikan")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = a.Analyze(context.Background(), snap, 1, "regex", "(")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPattern))

	_, err = a.Analyze(context.Background(), snap, 1, "boolean", "ikan AND")
	assert.True(t, errors.Is(err, apperrors.ErrQuerySyntax))
}

func TestTopTermsLimit(t *testing.T) {
	tf := map[string]int{"a": 1, "b": 3, "c": 3, "d": 2}
	assert.Equal(t, map[string]int{"b": 3, "c": 3}, topTerms(tf, 2))
}
