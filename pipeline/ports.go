// Package pipeline coordinates the text-to-3D-mindmap pipeline: scrape or
// accept text, extract concepts, embed, merge, lay out, and persist.
package pipeline

import (
	"context"

	"mindmap3d/domain/concept"
	"mindmap3d/keywords"
	"mindmap3d/llmextract"
	"mindmap3d/merge"
)

// Source is the tagged union the HTTP boundary parses a vectorize request
// into: either raw text or a URL to scrape, never both.
type Source struct {
	text string
	url  string
}

// NewTextSource builds a Source from raw text.
func NewTextSource(text string) Source { return Source{text: text} }

// NewURLSource builds a Source from a URL to scrape.
func NewURLSource(url string) Source { return Source{url: url} }

// IsURL reports whether this source is a URL to be scraped.
func (s Source) IsURL() bool { return s.url != "" }

// Text returns the raw text, if this is a text source.
func (s Source) Text() string { return s.text }

// URL returns the URL, if this is a URL source.
func (s Source) URL() string { return s.url }

// Scraper fetches and extracts the main content of a web page.
type Scraper interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// KeywordExtractor produces NLP keyword hints from full text.
type KeywordExtractor interface {
	Extract(text string) []keywords.Candidate
}

// ConceptExtractor turns text into scored, deduplicated concepts. candidates
// are the NLP keyword hints computed by the coordinator's parallel fan-out.
type ConceptExtractor interface {
	Extract(ctx context.Context, text string, candidates []keywords.Candidate) ([]llmextract.Concept, error)
}

// EmbeddingClient produces embedding vectors for a batch of concept names,
// preserving order.
type EmbeddingClient interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float64, error)
}

// SimilarityMerger clusters concepts by embedding similarity.
type SimilarityMerger interface {
	Merge(concepts []merge.ScoredConcept) ([]merge.Group, [][]float64)
}

// LayoutEngine projects group centroids into 3-D space.
type LayoutEngine interface {
	Layout(centroids [][]float64, similarity [][]float64) ([]concept.Position, error)
}

// Repository persists and queries texts and concepts.
type Repository interface {
	SaveTextReference(ctx context.Context, ref concept.TextReference) error
	SaveUserConcepts(ctx context.Context, userID string, concepts []concept.Concept) error
	LoadUserConcepts(ctx context.Context, userID string) ([]concept.Concept, error)
	FindTextsByConcept(ctx context.Context, userID, conceptName string) ([]concept.TextReference, error)
}

// CDN uploads text content and returns its public URL.
type CDN interface {
	UploadText(userID, filename, content string) (string, error)
}

// EventPublisher fires fire-and-forget lifecycle notifications.
type EventPublisher interface {
	PublishTextVectorized(ctx context.Context, textID, userID string, groupCount int)
}
