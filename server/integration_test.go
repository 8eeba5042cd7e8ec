package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/prescription-api/analyzer"
	"github.com/giygas/prescription-api/data"
	"github.com/giygas/prescription-api/doctext"
	"github.com/giygas/prescription-api/entities"
	"github.com/giygas/prescription-api/handlers"
	"github.com/giygas/prescription-api/health"
	"github.com/giygas/prescription-api/knowledge"
	"github.com/giygas/prescription-api/validation"
)

const modelAnswer = "```json\n" + `[
  {"medicine": "Amoxicillin", "description": "Penicillin antibiotic", "dosage": "500mg three times daily", "sideEffects": ["Nausea"], "precautions": ["Penicillin allergy"]},
  {"medicine": "Omeprazole", "description": "Proton pump inhibitor", "dosage": "20mg daily"}
]` + "\n```"

func newIntegrationServer(t *testing.T, completer knowledge.Completer) *Server {
	t.Helper()
	cfg := testConfig()
	cfg.MaxRequestBody = 64 * 1024

	pipeline := analyzer.New(completer, nil, analyzer.WithReader(doctext.MultiReader{Text: doctext.PlainTextReader{}}))
	store := data.NewStatusContainer()
	store.SetServerStartTime(time.Now())

	h := handlers.NewHTTPHandler(pipeline,
		validation.NewInputValidator(10, handlers.MaxUploadSize(cfg.MaxRequestBody)),
		health.NewHealthChecker(store, time.Minute),
		cfg.RequestTimeout, cfg.MaxRequestBody)
	return NewServer(cfg, h)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	var prompts atomic.Int32
	var lastPrompt atomic.Value
	completer := knowledge.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		prompts.Add(1)
		lastPrompt.Store(prompt)
		return modelAnswer, nil
	})
	s := newIntegrationServer(t, completer)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "rx.txt")
	_, _ = part.Write([]byte("Patient should take Amoxicillin 500mg and Omeprazole."))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, PathAnalyze, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := serve(s, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if prompts.Load() != 1 {
		t.Errorf("Expected exactly one knowledge request, got %d", prompts.Load())
	}
	if p := lastPrompt.Load().(string); !strings.HasSuffix(p, "Amoxicillin, Omeprazole") {
		t.Errorf("Prompt should end with the candidate names, got %q", p)
	}

	var analysis entities.Analysis
	if err := json.Unmarshal(rr.Body.Bytes(), &analysis); err != nil {
		t.Fatal(err)
	}
	if analysis.AnalysisID == "" {
		t.Error("Expected an analysis id")
	}
	if len(analysis.Medicines) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(analysis.Medicines))
	}
	omeprazole := analysis.Medicines[1]
	if len(omeprazole.SideEffects) != 1 || omeprazole.SideEffects[0] != entities.DefaultSideEffect {
		t.Errorf("Missing side effects should get the placeholder, got %q", omeprazole.SideEffects)
	}
	if len(omeprazole.Precautions) != 1 || omeprazole.Precautions[0] != entities.DefaultPrecaution {
		t.Errorf("Missing precautions should get the placeholder, got %q", omeprazole.Precautions)
	}
}

func TestQueryEndToEndFailures(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
		status int
	}{
		{"prose answer", "Sorry, I cannot help with that.", nil, http.StatusBadGateway},
		{"empty answer", "  ", nil, http.StatusBadGateway},
		{"provider down", "", &knowledge.RequestError{Provider: "gemini", Status: 503, Detail: "unavailable"}, http.StatusBadGateway},
		{"empty array", "[]", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newIntegrationServer(t, knowledge.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
				return tt.answer, tt.err
			}))

			req := httptest.NewRequest(http.MethodPost, PathQuery, strings.NewReader(`{"medicines":["Metformin"]}`))
			rr := serve(s, req)

			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHealthEndToEnd(t *testing.T) {
	s := newIntegrationServer(t, knowledge.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "[]", nil
	}))

	rr := serve(s, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp handlers.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "starting" {
		t.Errorf("Expected starting before the first probe, got %q", resp.Status)
	}
}

func uploadRequest(t *testing.T, doc []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "rx.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(doc); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, PathAnalyze, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeUploadSizeLimit(t *testing.T) {
	completer := knowledge.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return modelAnswer, nil
	})
	limit := handlers.MaxUploadSize(64 * 1024)
	text := []byte("Patient should take Amoxicillin 500mg and Omeprazole.\n")

	tests := []struct {
		name   string
		size   int64
		status int
	}{
		{"document at the upload limit", limit, http.StatusOK},
		{"document just over the upload limit", limit + 1, http.StatusRequestEntityTooLarge},
		{"request over the body limit", 64 * 1024, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := append([]byte{}, text...)
			doc = append(doc, bytes.Repeat([]byte("."), int(tt.size)-len(text))...)

			rr := serve(newIntegrationServer(t, completer), uploadRequest(t, doc))
			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}
