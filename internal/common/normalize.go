package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFolder strips combining marks so "dirección" and "direccion" compare equal.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and removes diacritics for comparison purposes.
// Catalog keywords and user descriptions are both Spanish, so accent
// differences must never affect matching.
func Normalize(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		// Fold failure leaves the original text; lowercasing still applies.
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Tokenize splits text into normalized word tokens, dropping punctuation.
func Tokenize(s string) []string {
	normalized := Normalize(s)
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// WordOverlap returns the fraction of words in phrase that also appear in tokens.
func WordOverlap(tokens []string, phrase []string) float64 {
	if len(phrase) == 0 {
		return 0
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	found := 0
	for _, w := range phrase {
		if _, ok := tokenSet[w]; ok {
			found++
		}
	}

	return float64(found) / float64(len(phrase))
}

// Trigrams returns the set of character 3-grams of a word, padded with '#'
// boundary markers so prefixes and suffixes weigh into similarity.
func Trigrams(word string) map[string]struct{} {
	padded := "#" + word + "#"
	runes := []rune(padded)

	grams := make(map[string]struct{})
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = struct{}{}
	}

	return grams
}

// TrigramSimilarity computes the Jaccard similarity of the trigram sets of two words.
func TrigramSimilarity(a, b string) float64 {
	gramsA := Trigrams(a)
	gramsB := Trigrams(b)
	if len(gramsA) == 0 || len(gramsB) == 0 {
		return 0
	}

	intersection := 0
	for g := range gramsA {
		if _, ok := gramsB[g]; ok {
			intersection++
		}
	}

	union := len(gramsA) + len(gramsB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
