package monitor

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)

func TestTickMonitorCounts(t *testing.T) {
	m := NewTickMonitor(3)

	m.RecordTick(20*time.Millisecond, t0)
	m.RecordTick(40*time.Millisecond, t0.Add(100*time.Millisecond))
	m.RecordContractViolation(errors.New("size changed"), t0)
	m.RecordSinkFailure(errors.New("disk full"), t0)

	if _, overran := m.RecordOverrun(90*time.Millisecond, 100*time.Millisecond, t0); overran {
		t.Error("a tick inside its interval is not an overrun")
	}
	response, overran := m.RecordOverrun(150*time.Millisecond, 100*time.Millisecond, t0)
	if !overran || response.Action != ActionContinue {
		t.Errorf("overrun = %v, response %+v", overran, response)
	}

	stats := m.Snapshot()
	if stats.Ticks != 2 || stats.ContractViolations != 1 || stats.SinkFailures != 1 || stats.Overruns != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.MaxTickDuration != 40*time.Millisecond || stats.LastTickDuration != 40*time.Millisecond {
		t.Errorf("durations = %+v", stats)
	}
	if stats.LastError != "disk full" || m.LastError().Error() != "disk full" {
		t.Errorf("last error = %q", stats.LastError)
	}

	m.Reset()
	if m.Snapshot().Ticks != 0 || m.LastError() != nil {
		t.Error("Reset should clear counters")
	}
}

func TestTickMonitorCaptureFailures(t *testing.T) {
	m := NewTickMonitor(3)

	for i := 0; i < 2; i++ {
		response := m.RecordCaptureFailure(errCapture, t0)
		if response.Action != ActionSkip {
			t.Fatalf("failure %d: action = %v", i+1, response.Action)
		}
	}
	if !m.Healthy() {
		t.Fatal("two failures should still be healthy")
	}

	// a completed tick resets the streak
	m.RecordTick(time.Millisecond, t0)
	if m.Snapshot().ConsecutiveCaptureFailures != 0 {
		t.Fatal("tick should reset consecutive failures")
	}

	var response ErrorResponse
	for i := 0; i < 3; i++ {
		response = m.RecordCaptureFailure(errCapture, t0)
	}
	if response.Action != ActionStop || m.Healthy() {
		t.Fatalf("third failure in a row should stop, got %+v healthy=%v", response, m.Healthy())
	}
	if m.Snapshot().CaptureFailures != 5 {
		t.Errorf("total failures = %d", m.Snapshot().CaptureFailures)
	}
}

func TestTickMonitorCustomHandler(t *testing.T) {
	m := NewTickMonitor(0)
	m.RegisterHandler(ErrorSink, func(event *ErrorEvent) ErrorResponse {
		return ErrorResponse{Handled: false, Action: ActionStop, Error: event.Err}
	})

	if response := m.RecordSinkFailure(errCapture, t0); response.Action != ActionStop {
		t.Fatalf("custom handler not used: %+v", response)
	}
}

func TestHealthCheckerStall(t *testing.T) {
	m := NewTickMonitor(3)
	hc := NewHealthChecker(m).WithStallTimeout(time.Second, 2)

	m.RecordTick(time.Millisecond, t0)

	if _, err := hc.Check(t0.Add(500 * time.Millisecond)); err != nil {
		t.Fatalf("fresh tick reported unhealthy: %v", err)
	}
	if _, err := hc.Check(t0.Add(2 * time.Second)); err != nil {
		t.Fatalf("first stale check should only count: %v", err)
	}
	reason, err := hc.Check(t0.Add(3 * time.Second))
	if err == nil || reason != "tick_stalled" {
		t.Fatalf("expected stall, got %q %v", reason, err)
	}

	// counter resets after reporting
	if _, err := hc.Check(t0.Add(4 * time.Second)); err != nil {
		t.Fatalf("stall should be re-armed: %v", err)
	}
}

func TestHealthCheckerCaptureFailing(t *testing.T) {
	m := NewTickMonitor(2)
	hc := NewHealthChecker(m)

	m.RecordCaptureFailure(errCapture, t0)
	m.RecordCaptureFailure(errCapture, t0)

	reason, err := hc.Check(t0)
	if reason != "capture_failing" || !errors.Is(err, errCapture) {
		t.Fatalf("got %q %v", reason, err)
	}
}

func TestHealthCheckerStartStop(t *testing.T) {
	m := NewTickMonitor(1)
	m.RecordCaptureFailure(errCapture, t0)

	reported := make(chan string, 8)
	hc := NewHealthChecker(m).
		WithCheckInterval(5 * time.Millisecond).
		WithUnhealthyCallback(func(reason string, err error) {
			select {
			case reported <- reason:
			default:
			}
		})

	hc.Start()
	defer hc.Stop()

	select {
	case reason := <-reported:
		if reason != "capture_failing" {
			t.Fatalf("reason = %q", reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}
