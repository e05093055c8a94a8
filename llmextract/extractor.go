// Package llmextract turns raw text into scored concepts by prompting the
// model service, adapting single-shot vs. chunked MapReduce extraction to
// input length. Response parsing strips markdown code fences before
// json.Unmarshal, with a bullet/comma-list fallback for model output that
// ignores the JSON instruction.
package llmextract

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mindmap3d/domain/concept"
	"mindmap3d/keywords"
	"mindmap3d/pipelineerrors"
	"mindmap3d/textseg"
)

const (
	singleShotThreshold = 6000
	minContextWindow    = 4096
	contextDivisor      = 3
	contextOverhead     = 1024
	llmWeight           = 0.7
	nlpWeight           = 0.3
	defaultConcurrency  = 16
)

// ChatFn issues one chat completion call, with model name and options bound.
type ChatFn func(ctx context.Context, prompt, system string, numCtx int) (string, error)

// Extractor produces scored concepts from text via the model service.
type Extractor struct {
	chat        ChatFn
	concurrency int
}

// New creates an Extractor.
func New(chat ChatFn, concurrency int) *Extractor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Extractor{chat: chat, concurrency: concurrency}
}

type rawConcept struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// Extract returns the distinct, scored concepts found in text. candidates
// are the NLP keyword hints computed once by the caller (shared with the
// coordinator's parallel NLP-extraction step, not recomputed here).
// Importance is blended 0.7 LLM / 0.3 NLP-hint-or-LLM, clamped to [0,1].
func (e *Extractor) Extract(ctx context.Context, text string, candidates []keywords.Candidate) ([]Concept, error) {
	nlpScore := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		nlpScore[normalizeName(c.Phrase)] = c.Score
	}

	var raw []rawConcept
	var err error
	if len(text) < singleShotThreshold {
		raw, err = e.extractChunk(ctx, text, candidates)
	} else {
		raw, err = e.extractMapReduce(ctx, text, candidates)
	}
	if err != nil {
		return nil, err
	}

	merged := mergeByName(raw)
	if len(merged) == 0 {
		return nil, pipelineerrors.NoConceptsExtracted("model produced no usable concepts")
	}

	result := make([]Concept, 0, len(merged))
	for name, importance := range merged {
		nlp, hasNLP := nlpScore[name]
		blendInput := importance
		if hasNLP {
			blendInput = nlp
		}
		blended := clamp01(llmWeight*importance + nlpWeight*blendInput)
		result = append(result, Concept{Name: name, Importance: blended})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Importance != result[j].Importance {
			return result[i].Importance > result[j].Importance
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Concept is one extracted, deduplicated, scored concept.
type Concept struct {
	Name       string
	Importance float64
}

func (e *Extractor) extractChunk(ctx context.Context, text string, candidates []keywords.Candidate) ([]rawConcept, error) {
	numCtx := maxInt(minContextWindow, len(text)/contextDivisor+contextOverhead)
	system := buildSystemPrompt(candidates)

	response, err := e.chat(ctx, text, system, numCtx)
	if err != nil {
		return nil, pipelineerrors.ModelService("concept extraction chat call failed", err)
	}

	return parseConcepts(response), nil
}

func (e *Extractor) extractMapReduce(ctx context.Context, text string, candidates []keywords.Candidate) ([]rawConcept, error) {
	chunks := textseg.ChunkText(text, textseg.DefaultChunkSize, textseg.DefaultOverlap)

	results := make([][]rawConcept, len(chunks))
	sem := semaphore.NewWeighted(int64(e.concurrency))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return pipelineerrors.Cancelled(err.Error())
			}
			defer sem.Release(1)

			chunkConcepts, err := e.extractChunk(groupCtx, chunk, candidates)
			if err != nil {
				return err
			}
			results[i] = chunkConcepts
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, pipelineerrors.Cancelled(ctx.Err().Error())
		}
		return nil, err
	}

	var all []rawConcept
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func buildSystemPrompt(candidates []keywords.Candidate) string {
	var hints strings.Builder
	for _, c := range candidates {
		hints.WriteString("- ")
		hints.WriteString(c.Phrase)
		hints.WriteString("\n")
	}

	return fmt.Sprintf(`You are a concept extraction engine. Read the user's text and identify the
distinct substantive concepts it discusses. Output at least one concept if
any substantive topic exists. Prefer multi-word phrases over single words
where both convey the idea.

Candidate keyword hints from statistical analysis (use as guidance, not a
hard limit):
%s
Return a JSON array of objects, each with "name" (string) and "importance"
(a number in [0, 1]):
[{"name": "concept name", "importance": 0.8}]`, hints.String())
}

// parseConcepts parses the model's response leniently: first as JSON, then
// falling back to bullet-list or comma-separated recovery.
func parseConcepts(response string) []rawConcept {
	cleaned := stripCodeFence(response)

	var parsed []rawConcept
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && len(parsed) > 0 {
		return filterValid(parsed)
	}

	return filterValid(recoverFromText(cleaned))
}

func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}
	return response
}

func filterValid(concepts []rawConcept) []rawConcept {
	var valid []rawConcept
	for _, c := range concepts {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		c.Name = name
		c.Importance = clamp01(c.Importance)
		valid = append(valid, c)
	}
	return valid
}

// recoverFromText extracts concept names from bullet-list or
// comma-separated text when structured parsing fails, assigning a uniform
// default importance.
func recoverFromText(text string) []rawConcept {
	lines := strings.Split(text, "\n")
	var names []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "-")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, "•")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, ",") {
			for _, part := range strings.Split(line, ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					names = append(names, part)
				}
			}
			continue
		}
		names = append(names, line)
	}

	concepts := make([]rawConcept, len(names))
	for i, name := range names {
		concepts[i] = rawConcept{Name: name, Importance: 0.5}
	}
	return concepts
}

func mergeByName(raw []rawConcept) map[string]float64 {
	merged := make(map[string]float64)
	for _, c := range raw {
		name := normalizeName(c.Name)
		if name == "" {
			continue
		}
		if existing, ok := merged[name]; !ok || c.Importance > existing {
			merged[name] = c.Importance
		}
	}
	return merged
}

func normalizeName(name string) string {
	return concept.NormalizeName(name)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
