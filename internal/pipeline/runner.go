package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/logging"
	"jordanella.com/royale-coach/internal/monitor"
)

// FrameSource yields one frame per tick
type FrameSource interface {
	Next() (cv.FramePair, error)
}

// TickHandler receives every completed tick result
type TickHandler func(TickResult)

// Runner drives a pipeline from a frame source on a fixed interval.
// Ticks that fall due while one is still running are dropped by the ticker.
type Runner struct {
	pipeline *Pipeline
	source   FrameSource
	interval time.Duration
	monitor  *monitor.TickMonitor
	health   *monitor.HealthChecker
	bus      events.EventBus
	logger   *logging.Logger
	onTick   TickHandler

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	done      chan struct{}
	err       error
}

// NewRunner creates a runner ticking every interval
func NewRunner(p *Pipeline, source FrameSource, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Runner{
		pipeline: p,
		source:   source,
		interval: interval,
		monitor:  p.Monitor(),
		bus:      p.bus,
		logger:   logging.NewLogger("Runner"),
	}
}

// OnTick sets the callback for completed ticks. It runs on the runner goroutine.
func (r *Runner) OnTick(handler TickHandler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTick = handler
	return r
}

// Start begins ticking until ctx is cancelled, Stop is called or the
// monitor decides to stop
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("runner already running")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.err = nil
	r.isRunning = true

	stall := max(5*time.Second, 20*r.interval)
	r.health = monitor.NewHealthChecker(r.monitor).
		WithCheckInterval(max(time.Second, r.interval)).
		WithStallTimeout(stall, 3).
		WithUnhealthyCallback(r.unhealthy)
	r.health.Start()

	r.wg.Add(1)
	go r.run()

	r.logger.InfoWithContext("Runner started", map[string]interface{}{
		"interval_ms": r.interval.Milliseconds(),
	})
	return nil
}

// Stop gracefully shuts down the loop
func (r *Runner) Stop() {
	r.mu.RLock()
	running := r.isRunning
	cancel := r.cancel
	r.mu.RUnlock()

	if !running {
		return
	}

	cancel()
	r.wg.Wait()
}

// Done is closed when the loop exits
func (r *Runner) Done() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}

// Err returns why the loop stopped by itself, nil after Stop or a finished replay
func (r *Runner) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// IsRunning reports whether the loop is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRunning
}

func (r *Runner) run() {
	defer r.wg.Done()
	defer r.finish()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			err := r.Step(time.Now())
			switch {
			case err == nil:
			case errors.Is(err, cv.ErrReplayExhausted):
				r.logger.Info("Replay finished")
				return
			default:
				r.logger.Error("Runner stopping", err)
				r.mu.Lock()
				r.err = err
				r.mu.Unlock()
				return
			}
		}
	}
}

func (r *Runner) finish() {
	r.health.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.isRunning = false
	close(r.done)
}

// Step captures one frame and runs one tick at now. It returns an error
// only when the loop must stop.
func (r *Runner) Step(now time.Time) error {
	start := time.Now()

	pair, err := r.source.Next()
	if err != nil {
		if errors.Is(err, cv.ErrReplayExhausted) {
			return err
		}
		response := r.monitor.RecordCaptureFailure(err, now)
		r.publish(events.NewTickSkippedEvent("capture_failed", err, now))
		if monitor.ShouldStopRunner(response.Action) {
			return response.Error
		}
		return nil
	}

	result, err := r.pipeline.Tick(pair.Curr, now)
	if err != nil && pair.Curr == nil {
		r.monitor.RecordCaptureFailure(err, now)
		r.publish(events.NewTickSkippedEvent("empty_frame", err, now))
		return nil
	}

	took := time.Since(start)
	r.monitor.RecordTick(took, now)
	if _, overran := r.monitor.RecordOverrun(took, r.interval, now); overran {
		r.publish(events.NewTickOverrunEvent(took, r.interval, now))
	}

	r.mu.RLock()
	handler := r.onTick
	r.mu.RUnlock()
	if handler != nil {
		handler(result)
	}
	return nil
}

func (r *Runner) unhealthy(reason string, err error) {
	r.logger.WarnWithContext("Runner unhealthy", map[string]interface{}{
		"reason": reason,
		"error":  fmt.Sprint(err),
	})
	r.publish(events.NewErrorEvent("runner", "Runner", err, map[string]interface{}{"reason": reason}))
}

func (r *Runner) publish(event events.Event) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(event)
}
