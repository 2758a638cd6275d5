package textproc

// indonesianRoots holds common Indonesian root words (kata dasar). The
// stemmer stops at the first affix reading that reaches one of them.
var indonesianRoots = wordSet(
	"acara", "acu", "ada", "adil", "ajar", "akhir", "aktif", "alam", "alat",
	"alir", "aman", "ambil", "anak", "anggar", "anggota", "angkat", "angkut",
	"anjing", "antar", "api", "arah", "arti", "asal", "atas", "atlet", "atur",
	"awal", "ayam", "baca", "badan", "bagi", "bahas", "bahasa", "baik", "bakar",
	"balas", "bandar", "bangun", "bank", "banjir", "bantu", "banyak", "barang",
	"baru", "batas", "bawa", "bayar", "beda", "bekal", "bela", "belakang",
	"beli", "benar", "bentuk", "beras", "berat", "berita", "besar", "biaya",
	"bicara", "bijak", "bina", "bola", "buat", "budaya", "buka", "bukti",
	"buku", "bulan", "bulu", "bunga", "buruh", "burung", "butuh", "cabang",
	"cahaya", "calon", "camat", "capai", "cari", "catat", "cepat", "cerita",
	"cinta", "cipta", "coba", "cuaca", "daftar", "dagang", "daging", "dalam",
	"damai", "dampak", "dapat", "dapur", "darat", "daring", "dasar", "datang",
	"daya", "dekat", "dengar", "depan", "deras", "desa", "dewan", "didik",
	"digital", "diri", "distribusi", "dorong", "dua", "duduk", "dukung",
	"dunia", "ekonomi", "ekspor", "gajah", "gambar", "ganti", "gelar", "gerak",
	"gol", "gonggong", "gula", "guna", "guru", "hadap", "hadir", "hak",
	"halaman", "hancur", "harap", "harga", "hari", "hasil", "hati",
	"hewan", "hidup", "hijau", "hilang", "hitam", "hitung", "hubung", "hujan",
	"hukum", "hutan", "ikan", "ikut", "ilmu", "impor", "indah", "indonesia",
	"industri", "informasi", "ingat", "ingin", "jadi", "jaga", "jalan", "jalur",
	"jamin", "jawa", "jawab", "jelang", "jelas", "jernih", "jual", "juara",
	"kabar", "kaki", "kampus", "kantor", "kata", "kawal", "kebun", "kecil",
	"kejar", "kelas", "keluar", "keluarga", "kembali", "kembang", "kenal",
	"kerja", "keras", "kirim", "kolam", "koleksi", "kopi", "kota", "kuat",
	"kucing", "kumpul", "kurang", "kurikulum", "laku", "lahir", "lain",
	"laksana", "lama", "lambat", "langkah", "lanjut", "lapor", "lari", "latih",
	"laut", "layan", "lebar", "lepas", "lestari", "liar", "libat", "lihat",
	"lindung", "lingkung", "lomba", "luas", "lulus", "mahasiswa", "main",
	"makan", "maju", "malam", "mandiri", "masak", "masuk", "masyarakat",
	"maraton", "mati", "menang", "merpati", "milik", "minat", "minum", "minta",
	"mobil", "modal", "muda", "mudah", "mulai", "murid", "musim", "naik",
	"nama", "nasional", "negara", "nelayan", "nikmat", "nilai", "nyanyi",
	"obat", "olah", "olahraga", "orang", "pagi", "pakai", "paksa", "pandang",
	"panen", "partai", "pasang", "pasar", "pecah", "pegang", "pelihara",
	"penting", "perintah", "perlu", "pesan", "petani", "pikir", "pilih",
	"pimpin", "pindah", "pinjam", "politik", "presiden", "produk", "pukul",
	"pulang", "pulau", "pustaka", "putus", "rakyat", "rampok", "rasa", "rawat",
	"raya", "rekor", "rencana", "renang", "resmi", "rumah", "rusak", "saham",
	"sakit", "salah", "sama", "sampai", "sampah", "sapu", "satu", "sawah",
	"sebar", "sedia", "segar", "sehat", "sekolah", "selamat", "selesai",
	"senang", "senin", "sentral", "sepak", "sering", "siap", "siar", "sidang",
	"sistem", "siswa", "sore", "stadion", "suku", "sumatera", "sungai", "susu",
	"tahan", "tahun", "tajam", "taman", "tambah", "tanam", "tanding", "tangan",
	"tangkap", "tangkis", "tani", "tanya", "tawar", "teknologi", "temu",
	"tempat", "tentu", "terang", "terap", "terbang", "terima", "terus", "tiap",
	"tim", "timbang", "tinggal", "tinggi", "tingkat", "tol", "tonton", "tuju",
	"tulis", "tumbuh", "tunda", "tunjuk", "turnamen", "turun", "tutup", "uang",
	"ubah", "uji", "ukur", "ulang", "umum", "undang", "untung", "urus", "usaha",
	"usul", "wakil", "warga", "waktu", "warna", "wilayah",
)
