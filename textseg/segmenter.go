// Package textseg splits long text into overlapping, naturally-bounded
// chunks for the concept extractor's MapReduce mode: rune-aware scanning
// with the standard library's unicode/strings packages.
package textseg

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in characters (runes).
	DefaultChunkSize = 2000
	// DefaultOverlap is the number of characters shared between adjacent chunks.
	DefaultOverlap = 200
	// boundaryWindowFraction is how much of the end of the window is searched
	// for a natural boundary.
	boundaryWindowFraction = 0.3
)

var sentenceTerminator = regexp.MustCompile(`[.!?]\s`)

// abbreviations that must not be treated as sentence-ending, e.g. "Dr. Smith"
// or "U.S. policy". A candidate terminator is rejected if the token
// immediately preceding the period is one of these (case-sensitive, matching
// the source text's capitalization) or a single/double uppercase-letter
// initialism such as "U.S".
var commonAbbreviations = map[string]bool{
	"Dr": true, "Mr": true, "Mrs": true, "Ms": true, "Prof": true,
	"Sr": true, "Jr": true, "St": true, "vs": true, "etc": true,
	"Inc": true, "Ltd": true, "Co": true, "Gen": true, "Rep": true,
	"Sen": true, "Gov": true, "Capt": true, "Col": true, "Lt": true,
}

// TruncateAtBoundary returns a prefix of text of at most maxChars runes,
// ending at the best natural boundary found in the last boundaryWindowFraction
// of the window. It never splits inside a multi-byte codepoint.
func TruncateAtBoundary(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	window := runes[:maxChars]
	windowStr := string(window)

	searchStartRunes := int(float64(maxChars) * (1 - boundaryWindowFraction))
	if searchStartRunes < 0 {
		searchStartRunes = 0
	}
	// The boundary helpers work on byte offsets into windowStr.
	searchStart := len(string(window[:searchStartRunes]))

	if idx, ok := lastSentenceBoundary(windowStr, searchStart); ok {
		return windowStr[:idx]
	}
	if idx, ok := lastIndexInWindow(windowStr, "\n\n", searchStart); ok {
		return windowStr[:idx+2]
	}
	if idx, ok := lastHeadingBoundary(windowStr, searchStart); ok {
		return windowStr[:idx]
	}
	if idx, ok := lastIndexInWindow(windowStr, "\n", searchStart); ok {
		return windowStr[:idx+1]
	}
	if idx, ok := lastWordBoundary(windowStr, searchStart); ok {
		return windowStr[:idx]
	}
	// No natural boundary in the window: fall back to the full window,
	// which is already rune-safe since it was built from []rune.
	return windowStr
}

// lastSentenceBoundary finds the rightmost ". "/"! "/"? " in text[searchStart:]
// that does not follow a recognized abbreviation, returning the byte index
// just after the terminator+whitespace.
func lastSentenceBoundary(text string, searchStart int) (int, bool) {
	if searchStart > len(text) {
		searchStart = len(text)
	}
	matches := sentenceTerminator.FindAllStringIndex(text[searchStart:], -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start := matches[i][0] + searchStart
		end := matches[i][1] + searchStart
		if isAbbreviationBefore(text, start) {
			continue
		}
		return end, true
	}
	return 0, false
}

// isAbbreviationBefore reports whether the token ending right before the
// terminator at position idx is a recognized abbreviation, or a one/two
// uppercase-letter initialism (e.g. "U", "U.S").
func isAbbreviationBefore(text string, idx int) bool {
	// idx is the byte offset of the terminator rune ('.', '!', or '?').
	start := idx
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) {
			break
		}
		start -= size
	}
	token := text[start:idx]
	if token == "" {
		return false
	}
	if commonAbbreviations[token] {
		return true
	}
	if len(token) <= 2 && strings.ToUpper(token) == token {
		return true
	}
	return false
}

func lastIndexInWindow(text, sep string, searchStart int) (int, bool) {
	if searchStart > len(text) {
		searchStart = len(text)
	}
	idx := strings.LastIndex(text[searchStart:], sep)
	if idx < 0 {
		return 0, false
	}
	return idx + searchStart, true
}

// lastHeadingBoundary finds a newline immediately followed by "# " (a
// markdown-style heading line), returning the index of the newline.
func lastHeadingBoundary(text string, searchStart int) (int, bool) {
	if searchStart > len(text) {
		searchStart = len(text)
	}
	sub := text[searchStart:]
	best := -1
	for i := 0; i < len(sub); i++ {
		if sub[i] == '\n' && i+2 < len(sub) && sub[i+1] == '#' && sub[i+2] == ' ' {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return best + searchStart, true
}

func lastWordBoundary(text string, searchStart int) (int, bool) {
	if searchStart > len(text) {
		searchStart = len(text)
	}
	sub := text[searchStart:]
	idx := -1
	for i, r := range sub {
		if unicode.IsSpace(r) {
			idx = i
		}
	}
	if idx < 0 {
		return 0, false
	}
	return idx + searchStart, true
}

// ChunkText partitions text into overlapping chunks, each ending at a
// natural boundary per TruncateAtBoundary. Every character of input appears
// in at least one chunk; no chunk exceeds chunkSize plus boundary slack.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	pos := 0
	for pos < len(runes) {
		remaining := string(runes[pos:])
		chunk := TruncateAtBoundary(remaining, chunkSize)
		chunks = append(chunks, chunk)

		consumedRunes := utf8.RuneCountInString(chunk)
		nextPos := pos + consumedRunes
		if nextPos >= len(runes) {
			break
		}

		// Step back by `overlap` characters from the chosen end, then
		// advance to the next natural boundary to the right, so the next
		// chunk also starts cleanly.
		stepBack := consumedRunes - overlap
		if stepBack < 1 {
			stepBack = 1
		}
		candidateStart := pos + stepBack
		if candidateStart <= pos {
			candidateStart = pos + 1
		}
		pos = advanceToBoundary(runes, candidateStart)
		if pos <= 0 || pos > nextPos {
			pos = nextPos
		}
	}
	return chunks
}

// advanceToBoundary moves forward from `from` to the next whitespace rune
// (or end of input), so a chunk never starts mid-word.
func advanceToBoundary(runes []rune, from int) int {
	if from >= len(runes) {
		return len(runes)
	}
	for i := from; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return len(runes)
}
