package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/prescription-api/data"
)

type fakeProber struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (f *fakeProber) Ping(ctx context.Context) error {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestStartRunsInitialProbe(t *testing.T) {
	store := data.NewStatusContainer()
	prober := &fakeProber{}

	s := NewScheduler(store, prober, time.Hour)
	if err := s.Start(); err != nil {
		t.Fatalf("Unexpected error during start: %v", err)
	}
	defer s.Stop()

	if got := prober.calls.Load(); got != 1 {
		t.Errorf("expected 1 probe at start, got %d", got)
	}
	st := store.Status()
	if st.LastProbe.IsZero() || st.LastError != "" {
		t.Errorf("expected a successful probe, got %+v", st)
	}
	if st.Probing {
		t.Error("probe flag should be released")
	}
}

func TestStartWithFailingProbe(t *testing.T) {
	store := data.NewStatusContainer()
	prober := &fakeProber{err: errors.New("API key not valid")}

	s := NewScheduler(store, prober, time.Hour)
	if err := s.Start(); err != nil {
		t.Fatalf("a failing probe must not fail Start: %v", err)
	}
	defer s.Stop()

	st := store.Status()
	if st.LastError != "API key not valid" || st.Failures != 1 {
		t.Errorf("expected recorded failure, got %+v", st)
	}
}

func TestStartRejectsBadInterval(t *testing.T) {
	s := NewScheduler(data.NewStatusContainer(), &fakeProber{}, 0)
	if err := s.Start(); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestProbeSkipsWhileRunning(t *testing.T) {
	store := data.NewStatusContainer()
	prober := &fakeProber{}
	s := NewScheduler(store, prober, time.Hour)

	if !store.BeginProbe() {
		t.Fatal("could not take the probe flag")
	}
	s.runProbe()
	store.EndProbe()

	if got := prober.calls.Load(); got != 0 {
		t.Errorf("probe should be skipped while another runs, got %d calls", got)
	}
}

func TestProbeTimeout(t *testing.T) {
	store := data.NewStatusContainer()
	prober := &fakeProber{block: make(chan struct{})}
	s := NewScheduler(store, prober, time.Hour)
	s.probeTimeout = 20 * time.Millisecond

	s.runProbe()

	if st := store.Status(); st.LastError == "" {
		t.Error("a timed out probe should be recorded as a failure")
	}
}
