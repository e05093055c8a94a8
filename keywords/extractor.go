// Package keywords produces ranked candidate keyphrases from full input
// text by combining RAKE and TF-IDF scores.
package keywords

import "sort"

const (
	rakeWeight  = 0.6
	tfidfWeight = 0.4
	topN        = 20
)

// Candidate is one ranked keyphrase hint surfaced to the concept extractor.
type Candidate struct {
	Phrase string
	Score  float64 // combined score in [0, 1]
}

// Extractor produces deterministic keyword candidates from text.
type Extractor struct {
	stopWords map[string]bool
}

// New creates an Extractor using the default English stop-word set.
func New() *Extractor {
	return &Extractor{stopWords: defaultStopWords()}
}

// Extract returns the top 20 candidates by combined RAKE/TF-IDF score,
// deterministic for a given input.
func (e *Extractor) Extract(text string) []Candidate {
	phrases := rakeCandidatePhrases(text, e.stopWords)
	rakeScores := rakeScorePhrases(phrases)
	tfidfScores := tfidfCandidates(text, e.stopWords)

	normalizedRake := normalize(rakeScores)
	normalizedTfidf := normalize(tfidfScores)

	combined := make(map[string]float64)
	for term, score := range normalizedRake {
		combined[term] += rakeWeight * score
	}
	for term, score := range normalizedTfidf {
		combined[term] += tfidfWeight * score
	}

	candidates := make([]Candidate, 0, len(combined))
	for term, score := range combined {
		candidates = append(candidates, Candidate{Phrase: term, Score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Phrase < candidates[j].Phrase // deterministic tiebreak
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

func normalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}
	var min, max float64
	first := true
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	out := make(map[string]float64, len(scores))
	spread := max - min
	for term, s := range scores {
		if spread == 0 {
			out[term] = 1
			continue
		}
		out[term] = (s - min) / spread
	}
	return out
}

func defaultStopWords() map[string]bool {
	words := []string{
		"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
		"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
		"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
		"or", "an", "will", "my", "one", "all", "would", "there", "their", "what",
		"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
		"when", "make", "can", "like", "time", "no", "just", "him", "know", "take",
		"people", "into", "year", "your", "good", "some", "could", "them", "see", "other",
		"than", "then", "now", "look", "only", "come", "its", "over", "think", "also",
		"back", "after", "use", "two", "how", "our", "work", "first", "well", "way",
		"even", "new", "want", "because", "any", "these", "give", "day", "most", "us",
		"is", "was", "are", "been", "has", "had", "were", "said", "did", "having",
		"may", "am", "should", "too", "very",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
