package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
)

func demoDocs() []corpus.Document {
	return []corpus.Document{
		{ID: 1, Text: "kucing makan ikan", Category: "Umum"},
		{ID: 2, Text: "anjing makan daging", Category: "Umum"},
	}
}

func TestBuildPostings(t *testing.T) {
	idx := Build(demoDocs(), textproc.MustNew(textproc.Indonesian))

	require.Equal(t, 2, idx.DocCount())
	postings := idx.Postings("makan")
	require.Len(t, postings, 2)
	assert.Equal(t, int64(1), postings[0].DocID)
	assert.Equal(t, int64(2), postings[1].DocID)
	assert.Equal(t, 2, idx.DocFreq("makan"))
	assert.Empty(t, idx.Postings("burung"))
}

func TestIDF(t *testing.T) {
	idx := Build(demoDocs(), textproc.MustNew(textproc.Indonesian))

	assert.Equal(t, 0.0, idx.IDF("makan"))
	assert.InDelta(t, math.Log(2), idx.IDF("kucing"), 1e-12)
	assert.Equal(t, 0.0, idx.IDF("burung"))
}

func TestForwardIndex(t *testing.T) {
	idx := Build([]corpus.Document{
		{ID: 1, Text: "ikan ikan kucing"},
	}, textproc.MustNew(textproc.Indonesian))

	assert.Equal(t, map[string]int{"ikan": 2, "kucing": 1}, idx.DocTerms(1))
	assert.Equal(t, []string{"ikan", "ikan", "kucing"}, idx.DocTokens(1))
	assert.Equal(t, 3, idx.DocLength(1))
	assert.Equal(t, []string{"ikan", "kucing"}, idx.Vocabulary())
}

func TestBitmaps(t *testing.T) {
	idx := Build(demoDocs(), textproc.MustNew(textproc.Indonesian))

	assert.Equal(t, []uint32{1}, idx.Bitmap("kucing").ToArray())
	assert.Equal(t, []uint32{1, 2}, idx.All().ToArray())
	assert.True(t, idx.Bitmap("burung").IsEmpty())

	// callers get copies
	bm := idx.Bitmap("kucing")
	bm.Add(2)
	assert.Equal(t, []uint32{1}, idx.Bitmap("kucing").ToArray())
}

func TestEmptyCorpus(t *testing.T) {
	idx := Build(nil, textproc.MustNew(textproc.Indonesian))
	assert.Equal(t, 0, idx.DocCount())
	assert.Empty(t, idx.Vocabulary())
	assert.True(t, idx.All().IsEmpty())
}

func TestSnapshotOrdered(t *testing.T) {
	idx := Build(demoDocs(), textproc.MustNew(textproc.Indonesian))
	entries := idx.Snapshot()
	require.Len(t, entries, 5)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Term, entries[i].Term)
	}
}
