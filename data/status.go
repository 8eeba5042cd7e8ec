// Package data holds the in-memory runtime state of the service: the result
// of the knowledge source probes read by /health. Values are swapped
// atomically so readers never block the probe.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/prescription-api/interfaces"
	"github.com/giygas/prescription-api/logging"
)

// Compile-time check to ensure StatusContainer implements StatusStore
var _ interfaces.StatusStore = (*StatusContainer)(nil)

// StatusContainer holds probe results with atomic fields.
type StatusContainer struct {
	lastProbe       atomic.Value // time.Time
	lastSuccess     atomic.Value // time.Time
	lastError       atomic.Value // string
	probing         atomic.Bool
	probes          atomic.Int64
	failures        atomic.Int64
	serverStartTime atomic.Value // time.Time
}

// NewStatusContainer creates a container with no probe recorded yet.
func NewStatusContainer() *StatusContainer {
	sc := &StatusContainer{}
	sc.lastProbe.Store(time.Time{})
	sc.lastSuccess.Store(time.Time{})
	sc.lastError.Store("")
	sc.serverStartTime.Store(time.Now())
	return sc
}

// BeginProbe marks a probe as running.
// Returns false if another probe is in progress
func (sc *StatusContainer) BeginProbe() bool {
	return sc.probing.CompareAndSwap(false, true)
}

// EndProbe marks the running probe as finished
func (sc *StatusContainer) EndProbe() {
	sc.probing.Store(false)
}

// RecordProbe stores the outcome of a probe that finished at.
func (sc *StatusContainer) RecordProbe(at time.Time, err error) {
	sc.probes.Add(1)
	sc.lastProbe.Store(at)
	if err != nil {
		sc.failures.Add(1)
		sc.lastError.Store(err.Error())
		return
	}
	sc.lastSuccess.Store(at)
	sc.lastError.Store("")
}

// Status returns a snapshot of the probe state.
func (sc *StatusContainer) Status() interfaces.ProbeStatus {
	return interfaces.ProbeStatus{
		LastProbe:   loadTime(&sc.lastProbe, "last probe"),
		LastSuccess: loadTime(&sc.lastSuccess, "last success"),
		LastError:   loadString(&sc.lastError),
		Probing:     sc.probing.Load(),
		Probes:      sc.probes.Load(),
		Failures:    sc.failures.Load(),
	}
}

// SetServerStartTime sets the server start time
func (sc *StatusContainer) SetServerStartTime(startTime time.Time) {
	sc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (sc *StatusContainer) GetServerStartTime() time.Time {
	return loadTime(&sc.serverStartTime, "server start time")
}

func loadTime(v *atomic.Value, name string) time.Time {
	if t, ok := v.Load().(time.Time); ok {
		return t
	}
	logging.Warn("Could not read time value", "field", name)
	return time.Time{}
}

func loadString(v *atomic.Value) string {
	s, _ := v.Load().(string)
	return s
}
