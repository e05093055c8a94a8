package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"mindmap3d/pipelineerrors"
)

// writeError maps err to an HTTP status and body. A *pipelineerrors.PipelineError
// maps through its own HTTPStatus; anything else is an opaque 500. The body
// shape is exactly spec.md §6's error envelope:
// {"success": false, "error": {"kind", "message"}}.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var pe *pipelineerrors.PipelineError
	status := http.StatusInternalServerError
	kind := "Internal"
	message := "internal server error"

	if errors.As(err, &pe) {
		status = pe.HTTPStatus()
		kind = string(pe.Kind)
		message = pe.Message
	}

	if status >= 500 {
		logger.Error("request failed", zap.Error(err), zap.Int("status", status))
	} else {
		logger.Warn("request rejected", zap.Error(err), zap.Int("status", status))
	}

	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   ErrorBody{Kind: kind, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
