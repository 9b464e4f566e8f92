package retrieval

import (
	"math"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Score is the relevance of one chunk against a keyword set.
type Score struct {
	Value         float64 `json:"score"`
	TermFrequency int     `json:"term_frequency"`
	Matched       int     `json:"matched"` // distinct keywords found
}

// matcher counts whole-word occurrences of one keyword. ok is false when the
// keyword cannot be bounded by word runes; such a keyword never matches.
type matcher struct {
	term string
	re   *regexp.Regexp
	ok   bool
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func newMatcher(term string) matcher {
	m := matcher{term: term}
	if term == "" {
		return m
	}
	for _, r := range term {
		if !isWordRune(r) {
			return m
		}
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
	if err != nil {
		return m
	}
	m.re, m.ok = re, true
	return m
}

// count returns the number of occurrences of the term in text that are not
// adjacent to another word rune.
func (m matcher) count(text string) int {
	if !m.ok {
		return 0
	}
	n := 0
	for _, loc := range m.re.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			if r, _ := utf8.DecodeLastRuneInString(text[:loc[0]]); isWordRune(r) {
				continue
			}
		}
		if loc[1] < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[loc[1]:]); isWordRune(r) {
				continue
			}
		}
		n++
	}
	return n
}

func compileMatchers(keywords KeywordSet) []matcher {
	terms := keywords.Terms()
	ms := make([]matcher, len(terms))
	for i, t := range terms {
		ms[i] = newMatcher(t)
	}
	return ms
}

type scorer struct {
	exponent   int
	multiplier float64
}

func (s scorer) score(text string, ms []matcher) Score {
	var sc Score
	for _, m := range ms {
		if tf := m.count(text); tf > 0 {
			sc.TermFrequency += tf
			sc.Matched++
		}
	}
	sc.Value = float64(sc.TermFrequency)
	if sc.Matched > 0 {
		sc.Value += math.Pow(float64(sc.Matched), float64(s.exponent)) * s.multiplier
	}
	return sc
}

// ScoreChunk scores chunk against keywords with the default coverage bonus:
// the sum of whole-word keyword occurrences plus matched² × 10.
func ScoreChunk(chunk string, keywords KeywordSet) Score {
	s := scorer{exponent: DefaultCoverageExponent, multiplier: DefaultCoverageMultiplier}
	return s.score(chunk, compileMatchers(keywords))
}
