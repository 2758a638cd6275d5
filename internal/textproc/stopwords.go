package textproc

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var indonesianStopWords = wordSet(
	"ada", "adalah", "agar", "akan", "aku", "anda", "antara", "apa", "atau",
	"bagaimana", "bagi", "bahwa", "belum", "bisa", "dalam", "dan", "dapat",
	"dari", "dengan", "di", "dia", "hanya", "harus", "hingga", "ia", "ini",
	"itu", "jadi", "jika", "juga", "kami", "kamu", "kapan", "karena", "ke",
	"kepada", "ketika", "kita", "lagi", "lebih", "maka", "mana", "masih",
	"mengapa", "mereka", "namun", "nya", "oleh", "pada", "para", "pula",
	"pun", "saat", "sampai", "sangat", "saya", "sebagai", "sebelum",
	"secara", "sedang", "sehingga", "sejak", "seperti", "serta", "setelah",
	"siapa", "sudah", "supaya", "tanpa", "telah", "tentang", "tersebut",
	"tetapi", "tidak", "untuk", "yaitu", "yakni", "yang",
)

var englishStopWords = wordSet(
	"a", "an", "and", "are", "as", "at",
	"be", "by", "for", "from", "has", "he",
	"in", "is", "it", "its", "of", "on",
	"or", "that", "the", "to", "was", "were",
	"will", "with", "this", "but", "they",
	"have", "had", "what", "when", "where",
	"who", "which", "their", "if", "each",
	"do", "not", "no", "so", "can",
)
