package monitor

import (
	"sync"
	"time"

	"jordanella.com/royale-coach/internal/logging"
)

// Stats is a point-in-time copy of the tick counters
type Stats struct {
	Ticks                      int64
	CaptureFailures            int64
	ContractViolations         int64
	SinkFailures               int64
	Overruns                   int64
	ConsecutiveCaptureFailures int
	LastTickAt                 time.Time
	LastTickDuration           time.Duration
	MaxTickDuration            time.Duration
	LastError                  string
	LastErrorAt                time.Time
}

// TickMonitor counts pipeline ticks and failures and decides, through its
// handlers, whether the runner skips, continues or stops.
type TickMonitor struct {
	maxCaptureFailures int
	handlers           map[ErrorType]ErrorHandlerFunc
	logger             *logging.Logger

	stats   Stats
	lastErr error

	mu sync.RWMutex
}

// NewTickMonitor creates a monitor that turns unhealthy after
// maxCaptureFailures capture failures in a row (0 disables the limit)
func NewTickMonitor(maxCaptureFailures int) *TickMonitor {
	m := &TickMonitor{
		maxCaptureFailures: maxCaptureFailures,
		handlers:           make(map[ErrorType]ErrorHandlerFunc),
		logger:             logging.NewLogger("Monitor"),
	}
	for _, t := range []ErrorType{ErrorCapture, ErrorContract, ErrorSink, ErrorOverrun, ErrorStalled} {
		m.handlers[t] = GetDefaultHandler(t, maxCaptureFailures)
	}
	return m
}

// RegisterHandler replaces the handler for one failure type
func (m *TickMonitor) RegisterHandler(t ErrorType, handler ErrorHandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[t] = handler
}

// SetLogger replaces the monitor's logger
func (m *TickMonitor) SetLogger(logger *logging.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// RecordTick records a tick that ran to completion
func (m *TickMonitor) RecordTick(took time.Duration, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Ticks++
	m.stats.ConsecutiveCaptureFailures = 0
	m.stats.LastTickAt = now
	m.stats.LastTickDuration = took
	m.stats.MaxTickDuration = max(m.stats.MaxTickDuration, took)
}

// RecordCaptureFailure records a failed capture
func (m *TickMonitor) RecordCaptureFailure(err error, now time.Time) ErrorResponse {
	m.mu.Lock()
	m.stats.CaptureFailures++
	m.stats.ConsecutiveCaptureFailures++
	consecutive := m.stats.ConsecutiveCaptureFailures
	m.mu.Unlock()

	return m.record(ErrorCapture, err, now, consecutive)
}

// RecordContractViolation records a frame that broke a detector precondition
func (m *TickMonitor) RecordContractViolation(err error, now time.Time) ErrorResponse {
	m.mu.Lock()
	m.stats.ContractViolations++
	m.mu.Unlock()

	return m.record(ErrorContract, err, now, 1)
}

// RecordSinkFailure records a sample that could not be written
func (m *TickMonitor) RecordSinkFailure(err error, now time.Time) ErrorResponse {
	m.mu.Lock()
	m.stats.SinkFailures++
	m.mu.Unlock()

	return m.record(ErrorSink, err, now, 1)
}

// RecordOverrun records a tick that took longer than interval.
// Returns false without recording when took fits the interval.
func (m *TickMonitor) RecordOverrun(took, interval time.Duration, now time.Time) (ErrorResponse, bool) {
	if interval <= 0 || took <= interval {
		return ErrorResponse{Handled: true, Action: ActionContinue}, false
	}

	m.mu.Lock()
	m.stats.Overruns++
	m.mu.Unlock()

	return m.handle(&ErrorEvent{
		Type:        ErrorOverrun,
		Severity:    severityFor(ErrorOverrun),
		DetectedAt:  now,
		Message:     ErrorOverrun.String(),
		Consecutive: 1,
	}), true
}

// Snapshot returns a copy of the counters
func (m *TickMonitor) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// LastError returns the most recent recorded error
func (m *TickMonitor) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Healthy is false once capture has failed maxCaptureFailures times in a row
func (m *TickMonitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxCaptureFailures <= 0 || m.stats.ConsecutiveCaptureFailures < m.maxCaptureFailures
}

// LastActivity returns when the last tick completed
func (m *TickMonitor) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.LastTickAt
}

// Reset zeroes every counter
func (m *TickMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = Stats{}
	m.lastErr = nil
}

func (m *TickMonitor) record(t ErrorType, err error, now time.Time, consecutive int) ErrorResponse {
	m.mu.Lock()
	m.lastErr = err
	if err != nil {
		m.stats.LastError = err.Error()
	}
	m.stats.LastErrorAt = now
	m.mu.Unlock()

	return m.handle(&ErrorEvent{
		Type:        t,
		Severity:    severityFor(t),
		Err:         err,
		DetectedAt:  now,
		Message:     t.String(),
		Consecutive: consecutive,
	})
}

func (m *TickMonitor) handle(event *ErrorEvent) ErrorResponse {
	m.mu.RLock()
	handler := m.handlers[event.Type]
	logger := m.logger
	m.mu.RUnlock()

	response := HandleWithCallback(event, handler)

	ctx := map[string]interface{}{
		"type":        event.Type.String(),
		"action":      response.Action.String(),
		"consecutive": event.Consecutive,
	}
	switch {
	case response.Action == ActionStop:
		logger.ErrorWithContext(response.Message, response.Error, ctx)
	case event.Severity <= SeverityMedium:
		if event.Err != nil {
			ctx["error"] = event.Err.Error()
		}
		logger.WarnWithContext(response.Message, ctx)
	default:
		logger.DebugWithContext(response.Message, ctx)
	}
	return response
}
