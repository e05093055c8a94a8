// Package httpapi exposes the mind-map pipeline over HTTP: a chi router,
// request validation, and uniform error-to-status mapping at the
// transport boundary.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap3d/pipeline"
	"mindmap3d/pipelineerrors"
)

var validate = validator.New()

// Handler serves the pipeline's HTTP surface.
type Handler struct {
	coordinator *pipeline.Coordinator
	logger      *zap.Logger
}

// NewHandler creates a Handler bound to coordinator.
func NewHandler(coordinator *pipeline.Coordinator, logger *zap.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: logger}
}

// Vectorize handles POST /api/vectorize.
func (h *Handler) Vectorize(w http.ResponseWriter, r *http.Request) {
	var req VectorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, pipelineerrors.InvalidRequest("malformed request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, h.logger, pipelineerrors.InvalidRequest(err.Error()))
		return
	}

	var source pipeline.Source
	if req.URL != "" {
		source = pipeline.NewURLSource(req.URL)
	} else {
		source = pipeline.NewTextSource(req.Text)
	}

	groups, err := h.coordinator.Vectorize(r.Context(), pipeline.VectorizeInput{
		Source:   source,
		UserID:   req.UserID,
		Filename: req.Filename,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data := make([]ConceptGroupResponse, len(groups))
	for i, g := range groups {
		data[i] = ConceptGroupResponse{
			Concepts:         g.Concepts,
			ReducedEmbedding: g.ReducedEmbedding.Array(),
			Connections:      g.Connections,
			ImportanceScore:  g.ImportanceScore,
			GroupID:          g.GroupID,
		}
	}
	writeJSON(w, http.StatusOK, VectorizeResponse{Success: true, Data: data})
}

// TextsByConcept handles GET /api/texts-by-concept?concept=...&user_id=...
func (h *Handler) TextsByConcept(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	conceptName := r.URL.Query().Get("concept")
	if userID == "" || conceptName == "" {
		writeError(w, r, h.logger, pipelineerrors.InvalidRequest("concept and user_id query parameters are required"))
		return
	}

	refs, err := h.coordinator.TextsByConcept(r.Context(), conceptName, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data := make([]TextReferenceResponse, len(refs))
	for i, ref := range refs {
		data[i] = TextReferenceResponse{
			TextID:          ref.TextID,
			UserID:          ref.UserID,
			Filename:        ref.Filename,
			URL:             ref.CDNURL,
			SourceURL:       ref.SourceURL,
			Concepts:        ref.Concepts,
			UploadTimestamp: ref.UploadTimestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
			FileSizeBytes:   ref.FileSizeBytes,
		}
	}
	writeJSON(w, http.StatusOK, TextsByConceptResponse{Success: true, Data: data})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
