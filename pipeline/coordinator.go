package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindmap3d/domain/concept"
	"mindmap3d/keywords"
	"mindmap3d/merge"
	"mindmap3d/pipelineerrors"
)

// VectorizeInput is one vectorize request.
type VectorizeInput struct {
	Source   Source
	UserID   string
	Filename string
}

// Coordinator fans out the pipeline's stages for one request: NLP keyword
// extraction and prior-concept loading in parallel, then concept
// extraction, embedding, merging, layout, and persistence in sequence.
type Coordinator struct {
	scraper     Scraper
	keywordExt  KeywordExtractor
	conceptExt  ConceptExtractor
	embedder    EmbeddingClient
	merger      SimilarityMerger
	layoutEng   LayoutEngine
	repo        Repository
	cdn         CDN
	events      EventPublisher
}

// New creates a Coordinator wiring every pipeline stage.
func New(
	scraper Scraper,
	keywordExt KeywordExtractor,
	conceptExt ConceptExtractor,
	embedder EmbeddingClient,
	merger SimilarityMerger,
	layoutEng LayoutEngine,
	repo Repository,
	cdn CDN,
	events EventPublisher,
) *Coordinator {
	return &Coordinator{
		scraper:    scraper,
		keywordExt: keywordExt,
		conceptExt: conceptExt,
		embedder:   embedder,
		merger:     merger,
		layoutEng:  layoutEng,
		repo:       repo,
		cdn:        cdn,
		events:     events,
	}
}

// Vectorize runs the full pipeline for one input and returns the resulting
// concept groups.
func (c *Coordinator) Vectorize(ctx context.Context, input VectorizeInput) ([]concept.ConceptGroup, error) {
	text, sourceURL, err := c.resolveText(ctx, input.Source)
	if err != nil {
		return nil, err
	}

	// NLP keyword extraction and prior-concept loading run in parallel;
	// neither depends on the other and both are pure reads.
	var nlpCandidates []keywords.Candidate
	var priorConcepts []concept.Concept
	var wg sync.WaitGroup
	var loadErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		nlpCandidates = c.keywordExt.Extract(text)
	}()
	go func() {
		defer wg.Done()
		priorConcepts, loadErr = c.repo.LoadUserConcepts(ctx, input.UserID)
	}()
	wg.Wait()
	if loadErr != nil {
		return nil, loadErr
	}

	extracted, err := c.conceptExt.Extract(ctx, text, nlpCandidates)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(extracted))
	for i, ec := range extracted {
		names[i] = ec.Name
	}

	vectors, err := c.embedder.EmbedAll(ctx, names)
	if err != nil {
		return nil, err
	}

	scored := make([]merge.ScoredConcept, len(extracted))
	for i, ec := range extracted {
		scored[i] = merge.ScoredConcept{Name: ec.Name, Importance: ec.Importance, Embedding: vectors[i]}
	}

	groups, matrix := c.merger.Merge(scored)

	centroids := make([][]float64, len(groups))
	for i, g := range groups {
		centroids[i] = g.Centroid
	}

	positions, err := c.layoutEng.Layout(centroids, matrix)
	if err != nil {
		return nil, err
	}

	conceptGroups := make([]concept.ConceptGroup, len(groups))
	for i, g := range groups {
		conceptGroups[i] = concept.ConceptGroup{
			GroupID:          i,
			Concepts:         g.Concepts,
			ReducedEmbedding: positions[i],
			Connections:      g.Connections,
			ImportanceScore:  g.ImportanceScore,
		}
	}

	if err := c.persist(ctx, input, text, sourceURL, conceptGroups, priorConcepts); err != nil {
		return nil, err
	}

	return conceptGroups, nil
}

func (c *Coordinator) resolveText(ctx context.Context, source Source) (text, sourceURL string, err error) {
	if source.IsURL() {
		body, err := c.scraper.Fetch(ctx, source.URL())
		if err != nil {
			return "", "", err
		}
		return body, source.URL(), nil
	}
	if source.Text() == "" {
		return "", "", pipelineerrors.InvalidRequest("text or url must be provided")
	}
	return source.Text(), "", nil
}

func (c *Coordinator) persist(
	ctx context.Context,
	input VectorizeInput,
	text, sourceURL string,
	groups []concept.ConceptGroup,
	priorConcepts []concept.Concept,
) error {
	filename := input.Filename
	if filename == "" {
		filename = fmt.Sprintf("text-%s.txt", uuid.New().String())
	}

	cdnURL, err := c.cdn.UploadText(input.UserID, filename, text)
	if err != nil {
		return pipelineerrors.Storage("failed to upload text to cdn", err)
	}

	var allConcepts []string
	newConcepts := make([]concept.Concept, 0, len(groups))
	for _, g := range groups {
		allConcepts = append(allConcepts, g.Concepts...)
		newConcepts = append(newConcepts, concept.Concept{Name: g.Concepts[0], Importance: g.ImportanceScore})
	}

	ref := concept.TextReference{
		TextID:          uuid.New().String(),
		UserID:          input.UserID,
		Filename:        filename,
		CDNURL:          cdnURL,
		SourceURL:       sourceURL,
		Concepts:        allConcepts,
		UploadTimestamp: time.Now().UTC(),
		FileSizeBytes:   int64(len(text)),
	}

	if err := c.repo.SaveTextReference(ctx, ref); err != nil {
		return err
	}

	merged := concept.DedupeConcepts(append(priorConcepts, newConcepts...))
	if err := c.repo.SaveUserConcepts(ctx, input.UserID, merged); err != nil {
		return err
	}

	if c.events != nil {
		c.events.PublishTextVectorized(ctx, ref.TextID, input.UserID, len(groups))
	}

	return nil
}

// TextsByConcept thinly delegates to the repository.
func (c *Coordinator) TextsByConcept(ctx context.Context, conceptName, userID string) ([]concept.TextReference, error) {
	refs, err := c.repo.FindTextsByConcept(ctx, userID, conceptName)
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].UploadTimestamp.After(refs[j].UploadTimestamp)
	})
	return refs, nil
}
