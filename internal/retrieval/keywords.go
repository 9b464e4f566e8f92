package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords holds common English function words and generic question words
// that carry no topical signal. It is never written after init.
var stopWords = newStopWordSet(
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your", "yours",
	"he", "him", "his", "himself", "she", "her", "hers", "herself", "it", "its", "itself",
	"they", "them", "their", "theirs", "themselves", "what", "which", "who", "whom",
	"this", "that", "these", "those", "am", "is", "are", "was", "were", "be", "been",
	"being", "have", "has", "had", "having", "do", "does", "did", "doing", "a", "an",
	"the", "and", "but", "if", "or", "because", "as", "until", "while", "of", "at",
	"by", "for", "with", "about", "against", "between", "into", "through", "during",
	"before", "after", "above", "below", "to", "from", "up", "down", "in", "out", "on",
	"off", "over", "under", "again", "further", "then", "once", "here", "there", "when",
	"where", "why", "how", "all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "no", "nor", "not", "only", "own", "same", "so", "than", "too", "very",
	"s", "t", "can", "will", "just", "don", "should", "now", "tell",
)

func newStopWordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopWord reports whether the lowercase word is ignored as a query term.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// KeywordSet is a deduplicated set of lowercase query terms.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from already-normalized terms. Terms are
// lowercased; empty terms are dropped. Stop words are kept as given.
func NewKeywordSet(terms ...string) KeywordSet {
	ks := make(KeywordSet, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(t); t != "" {
			ks[t] = struct{}{}
		}
	}
	return ks
}

// Contains reports whether term is in the set.
func (ks KeywordSet) Contains(term string) bool {
	_, ok := ks[term]
	return ok
}

// Terms returns the keywords in sorted order.
func (ks KeywordSet) Terms() []string {
	out := make([]string, 0, len(ks))
	for t := range ks {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ExtractKeywords lowercases query, strips every rune that is not a letter,
// digit or whitespace, and returns the remaining non-stop-word tokens.
// The result is empty when the query holds only stop words or punctuation.
func ExtractKeywords(query string) KeywordSet {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(query))

	ks := make(KeywordSet)
	for _, tok := range strings.Fields(cleaned) {
		if IsStopWord(tok) {
			continue
		}
		ks[tok] = struct{}{}
	}
	return ks
}
