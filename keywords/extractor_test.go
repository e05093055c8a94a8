package keywords

import "testing"

func TestExtract_Deterministic(t *testing.T) {
	text := `The mitochondrion is a membrane-bound organelle found in most eukaryotic
	cells. Mitochondria generate most of the cell's supply of adenosine
	triphosphate. The mitochondrion is often called the powerhouse of the
	cell. Neural network embedding models compute vector similarity using
	cosine distance between embedding vectors.`

	e := New()
	first := e.Extract(text)
	second := e.Extract(text)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic result length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic at index %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExtract_RespectsTopN(t *testing.T) {
	text := `alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu
	xi omicron pi rho sigma tau upsilon phi chi psi omega one two three four
	five six seven eight nine ten eleven twelve thirteen fourteen fifteen
	sixteen seventeen eighteen nineteen twenty twentyone twentytwo`

	e := New()
	candidates := e.Extract(text)
	if len(candidates) > topN {
		t.Fatalf("expected at most %d candidates, got %d", topN, len(candidates))
	}
}

func TestExtract_ScoresDescending(t *testing.T) {
	text := `mitochondrion mitochondrion mitochondrion organelle cell energy
	the a of in on mitochondrion powerhouse cell biology`

	e := New()
	candidates := e.Extract(text)
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Fatalf("candidates not sorted descending at index %d: %+v then %+v", i, candidates[i-1], candidates[i])
		}
	}
}

func TestExtract_EmptyTextYieldsNoCandidates(t *testing.T) {
	e := New()
	candidates := e.Extract("")
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates for empty text, got %d", len(candidates))
	}
}

func TestExtract_SkipsStopWordsAsStandaloneCandidates(t *testing.T) {
	e := New()
	candidates := e.Extract("the of and a in that have")
	for _, c := range candidates {
		if e.stopWords[c.Phrase] {
			t.Fatalf("stop word surfaced as candidate: %q", c.Phrase)
		}
	}
}
