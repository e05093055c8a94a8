package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap3d/domain/concept"
	"mindmap3d/keywords"
	"mindmap3d/llmextract"
	"mindmap3d/merge"
	"mindmap3d/pipelineerrors"
)

type fakeScraper struct {
	body string
	err  error
}

func (f *fakeScraper) Fetch(ctx context.Context, url string) (string, error) {
	return f.body, f.err
}

type fakeKeywordExtractor struct{}

func (f *fakeKeywordExtractor) Extract(text string) []keywords.Candidate {
	return []keywords.Candidate{{Phrase: "mitochondrion", Score: 0.9}}
}

type fakeConceptExtractor struct {
	concepts []llmextract.Concept
	err      error
}

func (f *fakeConceptExtractor) Extract(ctx context.Context, text string, candidates []keywords.Candidate) ([]llmextract.Concept, error) {
	return f.concepts, f.err
}

type fakeEmbeddingClient struct {
	dims int
}

func (f *fakeEmbeddingClient) EmbedAll(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, f.dims)
		out[i][0] = float64(i + 1)
	}
	return out, nil
}

type fakeMerger struct{}

func (f *fakeMerger) Merge(concepts []merge.ScoredConcept) ([]merge.Group, [][]float64) {
	groups := make([]merge.Group, len(concepts))
	matrix := make([][]float64, len(concepts))
	for i, c := range concepts {
		groups[i] = merge.Group{
			Concepts:        []string{c.Name},
			Centroid:        c.Embedding,
			ImportanceScore: c.Importance,
		}
		matrix[i] = make([]float64, len(concepts))
	}
	return groups, matrix
}

type fakeLayoutEngine struct{}

func (f *fakeLayoutEngine) Layout(centroids [][]float64, similarity [][]float64) ([]concept.Position, error) {
	positions := make([]concept.Position, len(centroids))
	for i := range centroids {
		p, err := concept.NewPosition(float64(i), 0, 0)
		if err != nil {
			return nil, err
		}
		positions[i] = p
	}
	return positions, nil
}

type fakeRepository struct {
	savedText     []concept.TextReference
	savedConcepts []concept.Concept
	priorConcepts []concept.Concept
	textsByConcept []concept.TextReference
}

func (f *fakeRepository) SaveTextReference(ctx context.Context, ref concept.TextReference) error {
	f.savedText = append(f.savedText, ref)
	return nil
}

func (f *fakeRepository) SaveUserConcepts(ctx context.Context, userID string, concepts []concept.Concept) error {
	f.savedConcepts = concepts
	return nil
}

func (f *fakeRepository) LoadUserConcepts(ctx context.Context, userID string) ([]concept.Concept, error) {
	return f.priorConcepts, nil
}

func (f *fakeRepository) FindTextsByConcept(ctx context.Context, userID, conceptName string) ([]concept.TextReference, error) {
	return f.textsByConcept, nil
}

type fakeCDN struct {
	url string
}

func (f *fakeCDN) UploadText(userID, filename, content string) (string, error) {
	return f.url, nil
}

type fakeEventPublisher struct {
	published bool
}

func (f *fakeEventPublisher) PublishTextVectorized(ctx context.Context, textID, userID string, groupCount int) {
	f.published = true
}

func newTestCoordinator() (*Coordinator, *fakeRepository, *fakeEventPublisher) {
	repo := &fakeRepository{}
	events := &fakeEventPublisher{}
	c := New(
		&fakeScraper{body: "scraped article text"},
		&fakeKeywordExtractor{},
		&fakeConceptExtractor{concepts: []llmextract.Concept{
			{Name: "mitochondrion", Importance: 0.9},
			{Name: "cell", Importance: 0.5},
		}},
		&fakeEmbeddingClient{dims: 4},
		&fakeMerger{},
		&fakeLayoutEngine{},
		repo,
		&fakeCDN{url: "https://cdn.example.com/text.txt"},
		events,
	)
	return c, repo, events
}

func TestVectorize_TextSourceProducesGroupsAndPersists(t *testing.T) {
	c, repo, events := newTestCoordinator()

	groups, err := c.Vectorize(context.Background(), VectorizeInput{
		Source: NewTextSource("the mitochondrion is the powerhouse of the cell"),
		UserID: "user-1",
	})

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, repo.savedText, 1)
	assert.Equal(t, "https://cdn.example.com/text.txt", repo.savedText[0].CDNURL)
	assert.True(t, events.published)
}

func TestVectorize_URLSourceScrapesBeforeExtracting(t *testing.T) {
	c, repo, _ := newTestCoordinator()

	_, err := c.Vectorize(context.Background(), VectorizeInput{
		Source: NewURLSource("https://example.com/article"),
		UserID: "user-1",
	})

	require.NoError(t, err)
	require.Len(t, repo.savedText, 1)
	assert.Equal(t, "https://example.com/article", repo.savedText[0].SourceURL)
}

func TestVectorize_EmptyTextSourceFailsValidation(t *testing.T) {
	c, _, _ := newTestCoordinator()

	_, err := c.Vectorize(context.Background(), VectorizeInput{
		Source: NewTextSource(""),
		UserID: "user-1",
	})

	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindInvalidRequest))
}

func TestVectorize_ScraperFailurePropagates(t *testing.T) {
	repo := &fakeRepository{}
	c := New(
		&fakeScraper{err: pipelineerrors.UrlFetch("could not fetch", nil)},
		&fakeKeywordExtractor{},
		&fakeConceptExtractor{},
		&fakeEmbeddingClient{dims: 4},
		&fakeMerger{},
		&fakeLayoutEngine{},
		repo,
		&fakeCDN{},
		&fakeEventPublisher{},
	)

	_, err := c.Vectorize(context.Background(), VectorizeInput{
		Source: NewURLSource("https://example.com/broken"),
		UserID: "user-1",
	})

	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindUrlFetch))
	assert.Empty(t, repo.savedText)
}

func TestTextsByConcept_SortsNewestFirst(t *testing.T) {
	c, repo, _ := newTestCoordinator()
	older := concept.TextReference{TextID: "a"}
	newer := concept.TextReference{TextID: "b"}
	newer.UploadTimestamp = older.UploadTimestamp.Add(1)
	repo.textsByConcept = []concept.TextReference{older, newer}

	refs, err := c.TextsByConcept(context.Background(), "mitochondrion", "user-1")

	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "b", refs[0].TextID)
}
