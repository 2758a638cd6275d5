package textproc

import (
	"fmt"
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "Kucing hitam itu sedang memakan ikan segar di dapur",
	"medium": `Pemerintah daerah mengumumkan pembangunan jalan baru yang menghubungkan
        dua kecamatan. Pembangunan ini diharapkan mempercepat distribusi hasil
        pertanian dan meningkatkan pendapatan masyarakat setempat. Para petani
        menyambut baik rencana tersebut karena selama ini mereka kesulitan
        mengangkut panen ke pasar kota.`,
	"long": strings.Repeat(`Sistem temu kembali informasi menggabungkan tokenisasi,
        penghapusan kata henti, dan stemming untuk menormalkan teks menjadi
        istilah yang dapat dicari. Indeks terbalik memetakan setiap istilah ke
        dokumen yang memuatnya beserta frekuensinya. `, 20),
}

func BenchmarkTerms(b *testing.B) {
	n := MustNew(Indonesian)
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = n.Terms(text)
			}
		})
	}
}

func BenchmarkTermsParallel(b *testing.B) {
	n := MustNew(Indonesian)
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = n.Terms(text)
		}
	})
}

func BenchmarkTermsVaryingSize(b *testing.B) {
	n := MustNew(Indonesian)
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "pembangunan jalan desa meningkatkan pendapatan "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = n.Terms(text)
			}
		})
	}
}
