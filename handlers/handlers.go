// Package handlers provides the HTTP request handlers of the prescription API:
// document analysis, direct medicine queries and health checks, with JSON
// responses and error mapping.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/prescription-api/analyzer"
	"github.com/giygas/prescription-api/doctext"
	"github.com/giygas/prescription-api/knowledge"
	"github.com/giygas/prescription-api/logging"
	"github.com/giygas/prescription-api/normalizer"
	"github.com/go-chi/chi/v5/middleware"
)

// Error kinds sent in the "error" field of pipeline failures.
const (
	KindNoMedicines      = "no_medicines_found"
	KindUnreadable       = "unreadable_document"
	KindUnsupportedType  = "unsupported_document_type"
	KindKnowledgeSource  = "knowledge_source_error"
	KindInvalidKnowledge = "invalid_knowledge_response"
	KindKnowledgeTimeout = "knowledge_source_timeout"
	KindInternal         = "internal_error"
)

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	respondWithKind(w, code, http.StatusText(code), message)
}

func respondWithKind(w http.ResponseWriter, code int, kind, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   kind,
		"message": message,
		"code":    code,
	})
}

// respondWithPipelineError maps an analysis failure to a status code. Provider
// details and raw model output only go to the logs.
func respondWithPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		docErr   *analyzer.DocumentError
		reqErr   *knowledge.RequestError
		parseErr *normalizer.ParseError
	)
	requestID := middleware.GetReqID(r.Context())

	switch {
	case errors.Is(err, analyzer.ErrNoCandidates):
		respondWithKind(w, http.StatusNotFound, KindNoMedicines, "no medicines found")

	case errors.Is(err, context.DeadlineExceeded):
		logging.Warn("Knowledge source timed out", "request_id", requestID, "error", err)
		respondWithKind(w, http.StatusGatewayTimeout, KindKnowledgeTimeout, "the knowledge source did not answer in time")

	case errors.As(err, &docErr) && errors.Is(err, doctext.ErrUnsupportedType):
		respondWithKind(w, http.StatusUnsupportedMediaType, KindUnsupportedType, docErr.Error())

	case errors.As(err, &docErr):
		logging.Warn("Document could not be read", "request_id", requestID, "filename", docErr.Filename, "error", docErr.Err)
		respondWithKind(w, http.StatusUnprocessableEntity, KindUnreadable, "the document could not be read")

	case errors.As(err, &reqErr):
		logging.Error("Knowledge source request failed", "request_id", requestID,
			"provider", reqErr.Provider, "status", reqErr.Status, "detail", reqErr.Detail)
		respondWithKind(w, http.StatusBadGateway, KindKnowledgeSource, "the knowledge source is unavailable, try again later")

	case errors.As(err, &parseErr):
		respondWithKind(w, http.StatusBadGateway, KindInvalidKnowledge,
			fmt.Sprintf("the knowledge source returned an unusable response (%s)", parseErr.Reason))

	default:
		logging.Error("Analysis failed", "request_id", requestID, "error", err)
		respondWithKind(w, http.StatusInternalServerError, KindInternal, "internal error")
	}
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
