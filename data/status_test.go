package data

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewStatusContainer(t *testing.T) {
	sc := NewStatusContainer()

	st := sc.Status()
	if !st.LastProbe.IsZero() || !st.LastSuccess.IsZero() {
		t.Error("new container should have no probe recorded")
	}
	if st.LastError != "" || st.Probing || st.Probes != 0 || st.Failures != 0 {
		t.Errorf("unexpected initial status: %+v", st)
	}
	if sc.GetServerStartTime().IsZero() {
		t.Error("server start time should be set")
	}
}

func TestZeroValueContainer(t *testing.T) {
	var sc StatusContainer

	st := sc.Status()
	if !st.LastProbe.IsZero() {
		t.Error("zero container should report zero times")
	}
	if !sc.GetServerStartTime().IsZero() {
		t.Error("zero container has no start time")
	}
}

func TestRecordProbe(t *testing.T) {
	sc := NewStatusContainer()
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	second := first.Add(15 * time.Minute)

	sc.RecordProbe(first, nil)
	st := sc.Status()
	if !st.LastProbe.Equal(first) || !st.LastSuccess.Equal(first) {
		t.Errorf("expected both times to be %v, got %+v", first, st)
	}

	sc.RecordProbe(second, errors.New("status 403: API key not valid"))
	st = sc.Status()
	if !st.LastProbe.Equal(second) {
		t.Errorf("expected last probe %v, got %v", second, st.LastProbe)
	}
	if !st.LastSuccess.Equal(first) {
		t.Errorf("failure must not move last success, got %v", st.LastSuccess)
	}
	if st.LastError != "status 403: API key not valid" {
		t.Errorf("unexpected last error %q", st.LastError)
	}
	if st.Probes != 2 || st.Failures != 1 {
		t.Errorf("expected 2 probes and 1 failure, got %d/%d", st.Probes, st.Failures)
	}

	sc.RecordProbe(second.Add(time.Minute), nil)
	if sc.Status().LastError != "" {
		t.Error("a success should clear the last error")
	}
}

func TestBeginEndProbe(t *testing.T) {
	sc := NewStatusContainer()

	if !sc.BeginProbe() {
		t.Fatal("first BeginProbe should succeed")
	}
	if sc.BeginProbe() {
		t.Error("second BeginProbe should fail while probing")
	}
	if !sc.Status().Probing {
		t.Error("status should report probing")
	}
	sc.EndProbe()
	if !sc.BeginProbe() {
		t.Error("BeginProbe should succeed after EndProbe")
	}
}

func TestConcurrentAccess(t *testing.T) {
	sc := NewStatusContainer()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = errors.New("down")
			}
			sc.RecordProbe(time.Now(), err)
		}(i)
		go func() {
			defer wg.Done()
			_ = sc.Status()
		}()
	}
	wg.Wait()

	st := sc.Status()
	if st.Probes != 50 || st.Failures != 25 {
		t.Errorf("expected 50 probes and 25 failures, got %d/%d", st.Probes, st.Failures)
	}
}
