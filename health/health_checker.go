// Package health reports the health of the prescription API from the
// knowledge source probe results.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/prescription-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store         interfaces.StatusStore
	probeInterval time.Duration
	now           func() time.Time
}

// NewHealthChecker creates a health checker. probeInterval is the scheduler
// period, used to tell a stale probe from a recent one.
func NewHealthChecker(store interfaces.StatusStore, probeInterval time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:         store,
		probeInterval: probeInterval,
		now:           time.Now,
	}
}

// HealthCheck returns the status, the response data and the HTTP code.
//
// The service still answers when the knowledge source is down, so a failed
// or stale probe is "degraded" with 200; only a store that cannot be read
// at all is "unhealthy".
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	if h.store == nil {
		return "unhealthy", map[string]any{"error": "no status store"}, http.StatusServiceUnavailable
	}

	st := h.store.Status()
	now := h.now()
	uptime := now.Sub(h.store.GetServerStartTime())

	switch {
	case st.LastProbe.IsZero():
		status = "starting"
	case st.LastError != "":
		status = "degraded"
	case h.probeInterval > 0 && now.Sub(st.LastProbe) > 3*h.probeInterval:
		status = "degraded"
	default:
		status = "healthy"
	}
	httpStatus = http.StatusOK

	knowledge := map[string]any{
		"reachable":    st.LastError == "" && !st.LastProbe.IsZero(),
		"probes":       st.Probes,
		"failures":     st.Failures,
		"is_probing":   st.Probing,
		"last_probe":   formatTime(st.LastProbe),
		"last_success": formatTime(st.LastSuccess),
	}
	if st.LastError != "" {
		knowledge["last_error"] = st.LastError
	}
	if !st.LastProbe.IsZero() {
		knowledge["probe_age_minutes"] = math.Round(now.Sub(st.LastProbe).Minutes()*10) / 10
	}

	data = map[string]any{
		"uptime_seconds":   math.Round(uptime.Seconds()),
		"knowledge_source": knowledge,
	}
	return status, data, httpStatus
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
