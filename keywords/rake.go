package keywords

import (
	"regexp"
	"strings"
)

// splitPattern breaks text on runs of punctuation, line breaks and tabs, the
// delimiters RAKE treats as phrase boundaries alongside stop words. Spaces
// are not delimiters here; words within a segment are split afterwards.
var splitPattern = regexp.MustCompile(`[,.!?;:()\[\]{}"'\n\r\t]+`)

// rakeCandidatePhrases splits text into candidate keyphrases: maximal runs
// of non-stop-words, bounded by stop words or punctuation.
func rakeCandidatePhrases(text string, stopWords map[string]bool) []string {
	segments := splitPattern.Split(text, -1)
	var phrases []string
	for _, seg := range segments {
		words := strings.Fields(strings.ToLower(seg))
		var current []string
		flush := func() {
			if len(current) > 0 {
				phrases = append(phrases, strings.Join(current, " "))
				current = nil
			}
		}
		for _, w := range words {
			w = strings.Trim(w, "-'")
			if w == "" {
				continue
			}
			if stopWords[w] {
				flush()
				continue
			}
			current = append(current, w)
		}
		flush()
	}
	return phrases
}

// rakeScorePhrases scores each candidate phrase as the sum of its words'
// degree/frequency ratios within the phrase co-occurrence graph.
func rakeScorePhrases(phrases []string) map[string]float64 {
	freq := make(map[string]int)
	degree := make(map[string]int)

	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		wordDegree := len(words) - 1
		for _, w := range words {
			freq[w]++
			degree[w] += wordDegree + 1 // co-occurrence with itself counts once
		}
	}

	wordScore := make(map[string]float64, len(freq))
	for w, f := range freq {
		wordScore[w] = float64(degree[w]) / float64(f)
	}

	phraseScore := make(map[string]float64, len(phrases))
	for _, phrase := range phrases {
		var score float64
		for _, w := range strings.Fields(phrase) {
			score += wordScore[w]
		}
		if existing, ok := phraseScore[phrase]; !ok || score > existing {
			phraseScore[phrase] = score
		}
	}
	return phraseScore
}
