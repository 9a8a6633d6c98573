package pipeline

import (
	"fmt"
	"image"
	"sync"
	"time"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/coach"
	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/dataset"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/game"
	"jordanella.com/royale-coach/internal/logging"
	"jordanella.com/royale-coach/internal/monitor"
	"jordanella.com/royale-coach/internal/tracking"
)

const component = "Pipeline"

// Detectors are the per-tick analyzers. Each instance belongs to exactly one pipeline.
type Detectors struct {
	Motion      *cv.MotionAnalyzer
	Elixir      *cv.ElixirEstimator
	Phase       *cv.PhaseEstimator
	Cards       *cv.CardRecognizer // nil reads every hand as empty
	HpBars      *cv.HpBarDetector
	Labels      *cv.LevelLabelDetector
	Spawns      *tracking.SpawnEventDetector
	Suggestions *coach.SuggestionEngine
	States      *dataset.StateBuilder
	Actions     *actions.Detector
}

// TickResult is everything one tick produced. Slices are owned by the result.
type TickResult struct {
	Time           time.Time
	FrameIndex     int64
	MatchElapsedMs int64
	Motion         game.MotionResult
	Elixir         game.ElixirResult
	Clock          game.MatchClockState
	Hand           game.HandState
	HpBars         cv.HpBarDetection
	Labels         []game.LevelLabelCandidate
	Spawns         []game.SpawnEvent
	Suggestion     game.Suggestion
	Stage          actions.Stage
	Action         *actions.ActionSnapshot // set on the tick a play was emitted
	Sample         *dataset.TrainingSample // set when the play was handed to the sinks
}

// Options carries the optional collaborators of a pipeline
type Options struct {
	Recording RecordingSettings
	Sink      dataset.Sink         // extra sink next to the JSONL recorder, e.g. the sample index
	Matches   MatchStore           // match start/end bookkeeping, may be nil
	Frames    *dataset.FrameSaver  // nil disables frame dumps
	Bus       events.EventBus      // may be nil
	Reporter  *logging.ErrorReporter
	Monitor   *monitor.TickMonitor // created when nil
}

// Pipeline runs the detectors over one frame at a time in a fixed order:
// motion, elixir, phase, hand, HP bars, level labels, spawn aggregator,
// suggestion engine, then state builder and action detector feeding the sinks.
//
// Tick and the match controls serialize on one lock; the detectors
// themselves are unguarded and must not be shared.
type Pipeline struct {
	d        Detectors
	bus      events.EventBus
	reporter *logging.ErrorReporter
	monitor  *monitor.TickMonitor
	logger   *logging.Logger

	recording *recording

	prev    *image.RGBA
	pending *pendingSample
	last    TickResult

	mu     sync.Mutex
	lastMu sync.RWMutex
}

// New creates a pipeline over d
func New(d Detectors, opts Options) (*Pipeline, error) {
	if d.Motion == nil || d.Elixir == nil || d.Phase == nil || d.HpBars == nil ||
		d.Labels == nil || d.Spawns == nil || d.Suggestions == nil || d.States == nil || d.Actions == nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", ErrMissingDetector)
	}

	mon := opts.Monitor
	if mon == nil {
		mon = monitor.NewTickMonitor(0)
	}

	p := &Pipeline{
		d:        d,
		bus:      opts.Bus,
		reporter: opts.Reporter,
		monitor:  mon,
		logger:   logging.NewLogger(component),
	}
	p.recording = newRecording(opts.Recording, opts.Sink, opts.Matches, opts.Frames)
	return p, nil
}

// Monitor returns the tick monitor the pipeline reports to
func (p *Pipeline) Monitor() *monitor.TickMonitor {
	return p.monitor
}

// Last returns the most recent tick result
func (p *Pipeline) Last() TickResult {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	return p.last
}

// Tick runs every detector over frame. A frame whose size differs from the
// previous one returns an error wrapping cv.ErrFrameSizeMismatch after the
// rest of the tick has run with zero motion; the new frame becomes the
// motion reference.
func (p *Pipeline) Tick(frame *image.RGBA, now time.Time) (TickResult, error) {
	if frame == nil {
		return TickResult{}, fmt.Errorf("failed to run tick: %w", cv.ErrNilFrame)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	result := TickResult{Time: now, Stage: p.d.Actions.Stage()}
	var tickErr error

	prev := p.prev
	if prev != nil {
		motion, err := p.d.Motion.Analyze(prev, frame)
		if err != nil {
			tickErr = fmt.Errorf("failed to analyze motion: %w", err)
			prev = nil
			p.contractViolation(tickErr, now)
		} else {
			result.Motion = motion
		}
	}
	p.prev = frame

	session := p.recording.session
	if session.IsRunning() {
		result.FrameIndex = session.NextFrame()
		result.MatchElapsedMs = session.ElapsedMs(now)
	}

	result.Elixir = p.d.Elixir.Estimate(frame)
	result.Clock = p.d.Phase.Estimate(frame)
	if p.d.Cards != nil {
		result.Hand = p.d.Cards.Recognize(frame)
	} else {
		result.Hand = game.EmptyHand()
	}
	result.HpBars = p.d.HpBars.Detect(frame)
	result.Labels = p.d.Labels.Detect(frame)
	result.Spawns = p.d.Spawns.Update(result.Labels, now)

	result.Suggestion = p.d.Suggestions.Update(result.Motion, result.Elixir, result.Hand, result.Spawns, now)
	if result.Suggestion.Has {
		cardID := ""
		if result.Suggestion.Selection != nil {
			cardID = result.Suggestion.Selection.CardID
		}
		p.publish(events.NewSuggestionEmittedEvent(result.Suggestion.Label, result.Suggestion.X, result.Suggestion.Y, cardID, now))
	}

	if session.IsRunning() {
		p.trackAction(&result, prev, frame)
	}
	result.Stage = p.d.Actions.Stage()

	p.lastMu.Lock()
	p.last = result
	p.lastMu.Unlock()

	return result, tickErr
}

// Reset drops every detector's history and the motion reference.
// A running match keeps running.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prev = nil
	p.pending = nil
	p.d.Elixir.Reset()
	p.d.Spawns.Reset()
	p.d.Suggestions.Reset()
	p.d.Actions.Reset()
}

func (p *Pipeline) contractViolation(err error, now time.Time) {
	p.monitor.RecordContractViolation(err, now)
	if p.reporter != nil {
		p.reporter.ReportError(logging.ErrorCategoryDetection, logging.ErrorSeverityMedium, component,
			"Frame size changed between ticks", err)
	}
}

func (p *Pipeline) publish(event events.Event) {
	if p.bus == nil {
		return
	}
	if event.Source == "" {
		event.Source = "pipeline"
	}
	p.bus.Publish(event)
}
