package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// UnhealthyCallback is called when the runner becomes unhealthy
type UnhealthyCallback func(reason string, err error)

// HealthChecker watches a TickMonitor from its own goroutine and reports
// a stalled loop or a failing frame source
type HealthChecker struct {
	monitor        *TickMonitor
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startedAt      time.Time
	stuckCount     int
	stuckThreshold int
	stuckTimeout   time.Duration
	checkInterval  time.Duration
	onUnhealthy    UnhealthyCallback
	mu             sync.Mutex
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(monitor *TickMonitor) *HealthChecker {
	ctx, cancel := context.WithCancel(context.Background())
	return &HealthChecker{
		monitor:        monitor,
		ctx:            ctx,
		cancel:         cancel,
		startedAt:      time.Now(),
		stuckThreshold: 3,
		stuckTimeout:   5 * time.Second,
		checkInterval:  time.Second,
	}
}

// WithUnhealthyCallback sets the callback for unhealthy events
func (hc *HealthChecker) WithUnhealthyCallback(callback UnhealthyCallback) *HealthChecker {
	hc.onUnhealthy = callback
	return hc
}

// WithCheckInterval sets the health check interval
func (hc *HealthChecker) WithCheckInterval(interval time.Duration) *HealthChecker {
	hc.checkInterval = interval
	return hc
}

// WithStallTimeout sets how long without a completed tick counts as stuck
func (hc *HealthChecker) WithStallTimeout(timeout time.Duration, threshold int) *HealthChecker {
	hc.stuckTimeout = timeout
	hc.stuckThreshold = max(1, threshold)
	return hc
}

// Start begins health monitoring
func (hc *HealthChecker) Start() {
	hc.mu.Lock()
	hc.startedAt = time.Now()
	hc.mu.Unlock()

	hc.wg.Add(1)
	go hc.monitorHealth()
}

// Stop stops health monitoring
func (hc *HealthChecker) Stop() {
	hc.cancel()
	hc.wg.Wait()
}

func (hc *HealthChecker) monitorHealth() {
	defer hc.wg.Done()

	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-hc.ctx.Done():
			return
		case now := <-ticker.C:
			if reason, err := hc.Check(now); err != nil && hc.onUnhealthy != nil {
				hc.onUnhealthy(reason, err)
			}
		}
	}
}

// Check runs one health check at now. A stall is only reported after
// stuckThreshold consecutive stale checks; the counter resets after reporting.
func (hc *HealthChecker) Check(now time.Time) (string, error) {
	if !hc.monitor.Healthy() {
		stats := hc.monitor.Snapshot()
		return "capture_failing", fmt.Errorf("capture failed %d times in a row: %w",
			stats.ConsecutiveCaptureFailures, hc.monitor.LastError())
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()

	last := hc.monitor.LastActivity()
	if last.IsZero() {
		last = hc.startedAt
	}

	idle := now.Sub(last)
	if idle <= hc.stuckTimeout {
		hc.stuckCount = 0
		return "", nil
	}

	hc.stuckCount++
	if hc.stuckCount < hc.stuckThreshold {
		return "", nil
	}
	hc.stuckCount = 0

	err := fmt.Errorf("no tick completed for %v", idle.Round(time.Millisecond))
	hc.monitor.record(ErrorStalled, err, now, hc.stuckThreshold)
	return "tick_stalled", err
}
