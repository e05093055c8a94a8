package keywords

import (
	"math"
	"strings"
)

// tfidfCandidates scores unigrams and bigrams by term-frequency within the
// document times inverse-document-frequency from the reference corpus
// (corpus.go).
func tfidfCandidates(text string, stopWords map[string]bool) map[string]float64 {
	words := tokenizeWords(text)
	if len(words) == 0 {
		return nil
	}

	tf := make(map[string]int)
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		tf[w]++
	}
	for i := 0; i+1 < len(words); i++ {
		if stopWords[words[i]] || stopWords[words[i+1]] {
			continue
		}
		bigram := words[i] + " " + words[i+1]
		tf[bigram]++
	}

	total := float64(len(words))
	scores := make(map[string]float64, len(tf))
	for term, count := range tf {
		termFreq := float64(count) / total
		scores[term] = termFreq * idf(term)
	}
	return scores
}

// idf approximates inverse document frequency from the reference corpus:
// common words score low, rare/absent words score high.
func idf(term string) float64 {
	const corpusDocCount = 1_000_000.0
	var freq float64
	for i, w := range strings.Fields(term) {
		f := corpusFrequency(w)
		if i == 0 || f < freq {
			freq = f // bigram IDF driven by its rarer component word
		}
	}
	return math.Log(1 + corpusDocCount/(freq+1))
}

func tokenizeWords(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range text {
		if isWordRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
