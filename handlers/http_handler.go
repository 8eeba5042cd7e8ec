package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/prescription-api/doctext"
	"github.com/giygas/prescription-api/interfaces"
	"github.com/giygas/prescription-api/logging"
	"github.com/giygas/prescription-api/validation"
	"github.com/go-chi/chi/v5/middleware"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// UploadField is the multipart field carrying the prescription document.
const UploadField = "file"

// FormOverhead is the share of the request body reserved for the multipart
// envelope around the uploaded document.
const FormOverhead = 64 * 1024

// MaxUploadSize returns the largest document that fits in a request body of
// maxRequestBody bytes once the multipart envelope is accounted for. Small
// limits reserve a quarter of the body instead of the full FormOverhead.
func MaxUploadSize(maxRequestBody int64) int64 {
	if maxRequestBody <= 0 {
		return 0
	}
	return maxRequestBody - min(FormOverhead, maxRequestBody/4)
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	analyzer       interfaces.Analyzer
	validator      interfaces.InputValidator
	healthChecker  interfaces.HealthChecker
	requestTimeout time.Duration
	maxRequestBody int64
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// requestTimeout bounds each pipeline run; zero disables it. maxRequestBody
// caps the whole upload request, envelope included.
func NewHTTPHandler(
	analyzer interfaces.Analyzer,
	validator interfaces.InputValidator,
	healthChecker interfaces.HealthChecker,
	requestTimeout time.Duration,
	maxRequestBody int64,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		analyzer:       analyzer,
		validator:      validator,
		healthChecker:  healthChecker,
		requestTimeout: requestTimeout,
		maxRequestBody: maxRequestBody,
	}
}

// QueryRequest is the body of POST /v1/medicines/query.
type QueryRequest struct {
	Medicines []string `json:"medicines"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

func (h *HTTPHandlerImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.requestTimeout)
}

// AnalyzePrescription reads the uploaded document, extracts the medicine
// names and describes them.
func (h *HTTPHandlerImpl) AnalyzePrescription(w http.ResponseWriter, r *http.Request) {
	if h.maxRequestBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBody)
	}

	if err := r.ParseMultipartForm(MaxUploadSize(h.maxRequestBody)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		RespondWithError(w, http.StatusBadRequest, "expected a multipart form with a \""+UploadField+"\" field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "missing \""+UploadField+"\" field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "could not read the uploaded document")
		return
	}

	doc := doctext.Document{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	}
	doc.MIMEType = doctext.DetectMIME(doc)

	if err := h.validator.ValidateUpload(doc.Filename, doc.MIMEType, int64(len(doc.Data))); err != nil {
		logging.Warn("Rejected upload", "request_id", middleware.GetReqID(r.Context()),
			"filename", doc.Filename, "mime_type", doc.MIMEType, "size", len(doc.Data), "error", err)
		switch {
		case errors.Is(err, validation.ErrFileTooLarge):
			RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
		case !validation.IsAllowedType(doc.MIMEType):
			RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			RespondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	analysis, err := h.analyzer.AnalyzeDocument(ctx, doc)
	if err != nil {
		respondWithPipelineError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, analysis)
}

// QueryMedicines describes the given medicine names without a document.
// GET takes a comma separated "names" parameter, POST a QueryRequest body.
func (h *HTTPHandlerImpl) QueryMedicines(w http.ResponseWriter, r *http.Request) {
	var names []string

	switch r.Method {
	case http.MethodGet:
		for _, value := range r.URL.Query()["names"] {
			names = append(names, strings.Split(value, ",")...)
		}
	default:
		var body QueryRequest
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			RespondWithError(w, http.StatusBadRequest, "invalid JSON body, expected {\"medicines\": [...]}")
			return
		}
		names = body.Medicines
	}

	names, err := h.validator.ValidateNames(names)
	if err != nil {
		logging.Warn("Unusual user input", "request_id", middleware.GetReqID(r.Context()), "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	analysis, err := h.analyzer.AnalyzeNames(ctx, names)
	if err != nil {
		respondWithPipelineError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, analysis)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.healthChecker.HealthCheck()

	uptime := ""
	if seconds, ok := data["uptime_seconds"].(float64); ok {
		uptime = formatUptimeHuman(time.Duration(seconds) * time.Second)
	}

	response := HealthResponse{
		Status: status,
		Uptime: uptime,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	RespondWithJSON(w, httpStatus, response)
}
