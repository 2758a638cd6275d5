// Package textproc provides the text normalisation pipeline shared by the
// index and every retrieval method. It folds accents, lower-cases input,
// splits on non-alphanumeric boundaries, removes stop-words, and stems each
// remaining word.
package textproc

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	Indonesian = "indonesian"
	English    = "english"

	minTokenLength = 2
)

// Token represents a single normalised term and its position in the
// original word sequence.
type Token struct {
	Term     string
	Position int
}

// Stages records every intermediate result of the pipeline for one text.
// The explainability view prints them.
type Stages struct {
	Words    []string
	Filtered []string
	Terms    []string
}

// Normalizer turns raw text into index terms. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	language  string
	stopWords map[string]struct{}
	stem      func(string) string
}

// New returns a Normalizer for the given language.
func New(language string) (*Normalizer, error) {
	switch language {
	case Indonesian:
		return &Normalizer{language: language, stopWords: indonesianStopWords, stem: stemIndonesian}, nil
	case English:
		return &Normalizer{language: language, stopWords: englishStopWords, stem: stemEnglish}, nil
	default:
		return nil, fmt.Errorf("unsupported language %q", language)
	}
}

// MustNew is New for package-level defaults and tests.
func MustNew(language string) *Normalizer {
	n, err := New(language)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Normalizer) Language() string {
	return n.language
}

// Terms runs the full pipeline and returns the ordered terms, duplicates kept.
func (n *Normalizer) Terms(text string) []string {
	return n.Analyze(text).Terms
}

// Tokenize is Terms with positions attached.
func (n *Normalizer) Tokenize(text string) []Token {
	terms := n.Terms(text)
	tokens := make([]Token, 0, len(terms))
	for pos, term := range terms {
		tokens = append(tokens, Token{Term: term, Position: pos})
	}
	return tokens
}

// Analyze runs the pipeline and keeps each stage.
func (n *Normalizer) Analyze(text string) Stages {
	words := Words(text)
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if n.keep(word) {
			filtered = append(filtered, word)
		}
	}
	terms := make([]string, 0, len(filtered))
	for _, word := range filtered {
		stemmed := n.stemStable(word)
		// a stem that collapses into a stop-word or a fragment is dropped so
		// that running the pipeline over its own output is a no-op.
		if !n.keep(stemmed) {
			continue
		}
		terms = append(terms, stemmed)
	}
	return Stages{Words: words, Filtered: filtered, Terms: terms}
}

// IsStopWord reports whether the lower-cased word is on the stop list.
func (n *Normalizer) IsStopWord(word string) bool {
	_, ok := n.stopWords[word]
	return ok
}

func (n *Normalizer) keep(word string) bool {
	if len([]rune(word)) < minTokenLength {
		return false
	}
	return !n.IsStopWord(word)
}

// stemStable applies the stemmer until it reaches a fixed point. Should the
// stemmer ever cycle, the smallest word of the cycle is returned so that every
// member of the cycle stems to the same term.
func (n *Normalizer) stemStable(word string) string {
	path := []string{word}
	for {
		next := n.stem(word)
		if next == word {
			return word
		}
		if i := slices.Index(path, next); i >= 0 {
			return slices.Min(path[i:])
		}
		path = append(path, next)
		word = next
	}
}

// Words folds accents, lower-cases and splits text on anything that is not a
// letter or digit. No stop-word removal or stemming happens here; the
// spelling suggester and corpus word statistics work on these raw words.
func Words(text string) []string {
	return strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Fold strips combining marks (é → e) and lower-cases text.
func Fold(text string) string {
	// transformers keep state, so each call builds its own chain
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
