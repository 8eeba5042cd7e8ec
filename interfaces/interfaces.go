// Package interfaces defines the core abstractions of the prescription API
// so handlers, the scheduler and health checks can be tested with fakes.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/prescription-api/doctext"
	"github.com/giygas/prescription-api/entities"
)

// ProbeStatus is a snapshot of the knowledge source reachability checks.
type ProbeStatus struct {
	LastProbe   time.Time // zero until the first probe finishes
	LastSuccess time.Time
	LastError   string // empty when the last probe succeeded
	Probing     bool
	Probes      int64
	Failures    int64
}

// StatusStore keeps the probe results. Implementations are safe for
// concurrent use.
type StatusStore interface {
	// Probe bookkeeping
	BeginProbe() bool
	EndProbe()
	RecordProbe(at time.Time, err error)

	// Readers
	Status() ProbeStatus
	GetServerStartTime() time.Time
}

// Prober checks that the knowledge source is reachable without generating
// anything.
type Prober interface {
	Ping(ctx context.Context) error
}

// Scheduler defines the contract for background jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// Analyzer runs the prescription pipeline for the HTTP and CLI surfaces.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, doc doctext.Document) (*entities.Analysis, error)
	AnalyzeNames(ctx context.Context, names []string) (*entities.Analysis, error)
}

// HTTPHandler serves the public endpoints.
type HTTPHandler interface {
	AnalyzePrescription(w http.ResponseWriter, r *http.Request)
	QueryMedicines(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
}

// InputValidator checks caller input at the HTTP boundary. The pipeline
// itself never validates names.
type InputValidator interface {
	// ValidateUpload checks an uploaded document before it is read
	ValidateUpload(filename, mimeType string, size int64) error

	// ValidateNames trims names, drops blanks, and rejects oversized or
	// dangerous lists
	ValidateNames(names []string) ([]string, error)
}
