package index

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
)

func benchDocs(n int) []corpus.Document {
	docs := make([]corpus.Document, n)
	for i := range docs {
		docs[i] = corpus.Document{
			ID:   int64(i + 1),
			Text: "mesin pencari dengan pengindeksan terdistribusi dan pemrosesan kueri",
		}
	}
	return docs
}

// BenchmarkBuild measures a full rebuild over 1 000 documents.
func BenchmarkBuild(b *testing.B) {
	docs := benchDocs(1000)
	n := textproc.MustNew(textproc.Indonesian)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Build(docs, n)
	}
}

// BenchmarkPostingsParallel measures concurrent read throughput.
func BenchmarkPostingsParallel(b *testing.B) {
	idx := Build(benchDocs(10000), textproc.MustNew(textproc.Indonesian))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = idx.Postings("cari")
		}
	})
}
