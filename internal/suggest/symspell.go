// Package suggest offers "did you mean" corrections for query words using
// the symmetric delete algorithm over the corpus vocabulary.
package suggest

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/textproc"
)

const (
	DefaultMaxDistance   = 2
	DefaultMinSimilarity = 0.6
)

// Suggester is built once per corpus snapshot and is read-only afterwards.
type Suggester struct {
	deletes       map[string]map[string]struct{}
	freq          map[string]int
	maxDistance   int
	minSimilarity float64
}

// New indexes words, counting repeats as corpus frequency.
func New(words []string) *Suggester {
	s := &Suggester{
		deletes:       make(map[string]map[string]struct{}),
		freq:          make(map[string]int),
		maxDistance:   DefaultMaxDistance,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, w := range words {
		s.addWord(w)
	}
	return s
}

// FromTexts builds a Suggester over the raw words of texts.
func FromTexts(texts []string) *Suggester {
	var words []string
	for _, t := range texts {
		words = append(words, textproc.Words(t)...)
	}
	return New(words)
}

func (s *Suggester) addWord(word string) {
	s.freq[word]++
	if s.freq[word] > 1 {
		return
	}
	for del := range deletesOf(word, s.maxDistance) {
		if _, exists := s.deletes[del]; !exists {
			s.deletes[del] = make(map[string]struct{})
		}
		s.deletes[del][word] = struct{}{}
	}
}

// Known reports whether word occurs in the vocabulary.
func (s *Suggester) Known(word string) bool {
	return s.freq[word] > 0
}

// Correct returns the best vocabulary word for an unknown word: lowest edit
// distance, then highest frequency, then lexical order. Candidates must be
// within maxDistance edits and at least minSimilarity similar.
func (s *Suggester) Correct(word string) (string, bool) {
	if word == "" || s.Known(word) {
		return "", false
	}
	best, bestDist, bestFreq := "", s.maxDistance+1, 0
	seen := make(map[string]struct{})
	for del := range deletesOf(word, s.maxDistance) {
		for cand := range s.deletes[del] {
			if _, dup := seen[cand]; dup {
				continue
			}
			seen[cand] = struct{}{}
			d := levenshteinDistance(word, cand)
			if d > s.maxDistance || similarity(word, cand, d) < s.minSimilarity {
				continue
			}
			f := s.freq[cand]
			if d < bestDist ||
				(d == bestDist && f > bestFreq) ||
				(d == bestDist && f == bestFreq && cand < best) {
				best, bestDist, bestFreq = cand, d, f
			}
		}
	}
	return best, best != ""
}

// Suggest rewrites query with every unknown word corrected. It reports false
// when no word could be corrected.
func (s *Suggester) Suggest(query string) (string, bool) {
	words := textproc.Words(query)
	changed := false
	for i, w := range words {
		if fixed, ok := s.Correct(w); ok {
			words[i] = fixed
			changed = true
		}
	}
	if !changed {
		return "", false
	}
	return strings.Join(words, " "), true
}

// deletesOf returns word and every string reachable from it by removing up
// to depth runes.
func deletesOf(word string, depth int) map[string]struct{} {
	out := map[string]struct{}{word: {}}
	frontier := []string{word}
	for d := 0; d < depth; d++ {
		var next []string
		for _, w := range frontier {
			runes := []rune(w)
			if len(runes) <= 1 {
				continue
			}
			for i := range runes {
				del := string(runes[:i]) + string(runes[i+1:])
				if _, ok := out[del]; ok {
					continue
				}
				out[del] = struct{}{}
				next = append(next, del)
			}
		}
		frontier = next
	}
	return out
}

func similarity(a, b string, distance int) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(distance)/float64(longest)
}

func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
