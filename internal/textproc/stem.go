package textproc

import (
	"strings"
	"unicode/utf8"

	snowballeng "github.com/kljensen/snowball/english"
)

func stemEnglish(word string) string {
	return snowballeng.Stem(word, true)
}

// Indonesian affix stripping. A word is first looked up against the root
// dictionary, trying every prefix reading up to maxDictPrefixes deep. When no
// reading reaches a known root the rules fall back to conservative stripping:
// a suffix is only removed when at least minSuffixRoot runes remain, a prefix
// when at least minPrefixRoot remain.
const (
	minPrefixRoot   = 3
	minSuffixRoot   = 4
	maxPrefixes     = 2
	maxDictPrefixes = 3
)

var (
	particles   = []string{"lah", "kah", "tah", "pun"}
	possessives = []string{"nya", "ku", "mu"}
	// -kan is tried before -an so that "makanan" loses only "an".
	derivationalSuffixes = []string{"kan", "an", "i"}
)

type prefixRule struct {
	prefix string
	// next restricts the rune following the prefix; nil accepts any.
	next func(r rune) bool
	// recode is prepended to the remainder after stripping.
	recode string
	// strip is how many bytes of the prefix are removed; zero means all.
	strip int
	// dictOnly rules are alternative readings that are only accepted when
	// they lead to a dictionary root.
	dictOnly bool
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isConsonant(r rune) bool {
	return r >= 'a' && r <= 'z' && !isVowel(r)
}

func oneOf(set string) func(rune) bool {
	return func(r rune) bool { return strings.ContainsRune(set, r) }
}

// Longest prefixes first; the first matching rule wins outside the
// dictionary search.
var prefixRules = []prefixRule{
	{prefix: "meng"},
	{prefix: "meny", next: isVowel, recode: "s"},
	{prefix: "men", next: isVowel, recode: "t"},
	{prefix: "men", next: isConsonant},
	{prefix: "mem", next: oneOf("bfpv")},
	{prefix: "mem", next: isVowel, strip: 2},
	{prefix: "me", next: oneOf("lmnrwy")},
	{prefix: "peng"},
	{prefix: "peny", next: isVowel, recode: "s"},
	{prefix: "pen", next: isVowel, recode: "t"},
	{prefix: "pen", next: isConsonant},
	{prefix: "pem", next: oneOf("bfpv")},
	{prefix: "pem", next: isVowel, strip: 2},
	{prefix: "per"},
	{prefix: "pe", next: oneOf("lmnrwy")},
	{prefix: "ber"},
	{prefix: "be", next: oneOf("k")},
	{prefix: "ter"},
	{prefix: "di"},
	{prefix: "ke"},
	{prefix: "se"},

	// mengatakan -> kata, memecahkan -> pecah, menyanyi -> nyanyi
	{prefix: "meng", next: isVowel, recode: "k", dictOnly: true},
	{prefix: "mem", next: isVowel, recode: "p", dictOnly: true},
	{prefix: "meny", next: isVowel, strip: 2, dictOnly: true},
	{prefix: "peng", next: isVowel, recode: "k", dictOnly: true},
	{prefix: "pem", next: isVowel, recode: "p", dictOnly: true},
	// belajar, pelajaran -> ajar
	{prefix: "bel", next: isVowel, dictOnly: true},
	{prefix: "pel", next: isVowel, dictOnly: true},
	// berenang -> renang, terasa -> rasa
	{prefix: "ber", next: isVowel, strip: 2, dictOnly: true},
	{prefix: "per", next: isVowel, strip: 2, dictOnly: true},
	{prefix: "ter", next: isVowel, strip: 2, dictOnly: true},
}

// apply strips the rule's prefix from word. ok is false when the rule does
// not match or would leave fewer than minPrefixRoot runes; matched reports
// whether the prefix and following rune matched at all.
func (rule prefixRule) apply(word string) (root string, ok, matched bool) {
	if !strings.HasPrefix(word, rule.prefix) {
		return "", false, false
	}
	rest := word[len(rule.prefix):]
	next, size := utf8.DecodeRuneInString(rest)
	if size == 0 {
		return "", false, false
	}
	if rule.next != nil && !rule.next(next) {
		return "", false, false
	}
	switch {
	case rule.recode != "":
		root = rule.recode + rest
	case rule.strip > 0:
		root = word[rule.strip:]
	default:
		root = rest
	}
	if utf8.RuneCountInString(root) < minPrefixRoot {
		return "", false, true
	}
	return root, true, true
}

// stemIndonesian returns the dictionary root of word when one is reachable.
// Otherwise it removes, in order, an inflectional particle, a possessive
// pronoun, up to two derivational prefixes and one derivational suffix.
func stemIndonesian(word string) string {
	if root, ok := dictionaryRoot(word); ok {
		return root
	}
	word = trimSuffixes(word, particles, minSuffixRoot)
	word = trimSuffixes(word, possessives, minSuffixRoot)
	for i := 0; i < maxPrefixes; i++ {
		stripped, ok := trimPrefix(word)
		if !ok {
			break
		}
		word = stripped
	}
	return trimSuffixes(word, derivationalSuffixes, minSuffixRoot)
}

// dictionaryRoot searches prefix readings breadth first, so a root reached by
// removing fewer prefixes wins. Inflectional suffixes are removed before the
// search and a derivational suffix is tried at every level.
func dictionaryRoot(word string) (string, bool) {
	if isRoot(word) {
		return word, true
	}
	bases := []string{word}
	if w := trimSuffixes(word, particles, minSuffixRoot); w != word {
		bases = append([]string{w}, bases...)
		word = w
	}
	if w := trimSuffixes(word, possessives, minSuffixRoot); w != word {
		bases = append([]string{w}, bases...)
	}

	for _, base := range bases {
		frontier := []string{base}
		for depth := 0; depth <= maxDictPrefixes && len(frontier) > 0; depth++ {
			var next []string
			for _, form := range frontier {
				if root, ok := rootWithSuffix(form); ok {
					return root, true
				}
				for _, rule := range prefixRules {
					if root, ok, _ := rule.apply(form); ok {
						next = append(next, root)
					}
				}
			}
			frontier = next
		}
	}
	return "", false
}

func rootWithSuffix(form string) (string, bool) {
	if isRoot(form) {
		return form, true
	}
	for _, suffix := range derivationalSuffixes {
		if !strings.HasSuffix(form, suffix) {
			continue
		}
		root := form[:len(form)-len(suffix)]
		if utf8.RuneCountInString(root) >= minPrefixRoot && isRoot(root) {
			return root, true
		}
	}
	return "", false
}

func isRoot(word string) bool {
	_, ok := indonesianRoots[word]
	return ok
}

func trimSuffixes(word string, suffixes []string, minRoot int) string {
	for _, suffix := range suffixes {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		root := word[:len(word)-len(suffix)]
		if utf8.RuneCountInString(root) >= minRoot {
			return root
		}
	}
	return word
}

func trimPrefix(word string) (string, bool) {
	for _, rule := range prefixRules {
		if rule.dictOnly {
			continue
		}
		root, ok, matched := rule.apply(word)
		if !matched {
			continue
		}
		if !ok {
			return word, false
		}
		return root, true
	}
	return word, false
}
