package pipeline

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/dataset"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/logging"
)

// ErrMissingDetector is returned when a required detector is nil
var ErrMissingDetector = errors.New("missing detector")

// MatchStore records match boundaries next to the samples
type MatchStore interface {
	StartMatch(id string, startedAt time.Time, datasetPath string) error
	EndMatch(id string, endedAt time.Time) error
}

// RecordingSettings controls where a match's samples go
type RecordingSettings struct {
	Enabled         bool // write a JSONL file per match
	OutputDir       string
	FileNamePattern string
}

// MatchStatus describes the current match for status views
type MatchStatus struct {
	Running     bool
	ID          string
	StartedAt   time.Time
	DatasetPath string
	Samples     int
	FrameIndex  int64
}

type recording struct {
	settings RecordingSettings
	session  *dataset.MatchSession
	recorder *dataset.Recorder
	sink     dataset.Sink
	matches  MatchStore
	frames   *dataset.FrameSaver

	matchDir  string
	matchPath string
	samples   int
}

func newRecording(settings RecordingSettings, extra dataset.Sink, matches MatchStore, frames *dataset.FrameSaver) *recording {
	r := &recording{
		settings: settings,
		session:  dataset.NewMatchSession(),
		recorder: dataset.NewRecorder(),
		matches:  matches,
		frames:   frames,
	}
	r.sink = dataset.MultiSink{r.recorder, extra}
	return r
}

// pendingSample is the state captured on the tick a play was committed,
// waiting for the resolver chain to emit the action
type pendingSample struct {
	state      dataset.StateSnapshot
	at         time.Time
	frameIndex int64
	elapsedMs  int64
	prev       *image.RGBA
	curr       *image.RGBA
}

// StartMatch begins a new match, ending any running one first, and
// returns its id. A dataset file that cannot be opened is reported and
// the match runs without one.
func (p *Pipeline) StartMatch(now time.Time) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.recording.session.IsRunning() {
		p.endMatchLocked(now)
	}

	rec := p.recording
	id := rec.session.Start(now)
	rec.samples = 0
	rec.matchDir, rec.matchPath = "", ""
	p.pending = nil
	p.d.Actions.Reset()

	var errs []error
	if rec.settings.Enabled {
		rec.matchDir = filepath.Join(rec.settings.OutputDir, id)
		path := filepath.Join(rec.matchDir, dataset.BuildFileName(rec.settings.FileNamePattern, now, id))
		if err := rec.recorder.Open(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to open dataset file: %w", err))
		} else {
			rec.matchPath = path
		}
	}

	if rec.matches != nil {
		if err := rec.matches.StartMatch(id, now, rec.matchPath); err != nil {
			errs = append(errs, fmt.Errorf("failed to index match: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		p.reportRecording("Match recording degraded", err, logging.ErrorSeverityHigh)
	}

	p.logger.InfoWithContext("Match started", map[string]interface{}{
		"match_id": id,
		"dataset":  rec.matchPath,
	})
	p.publish(events.NewMatchStartedEvent(id, rec.matchPath, now))
	return id, err
}

// EndMatch stops the running match. It is a no-op when none is running.
func (p *Pipeline) EndMatch(now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endMatchLocked(now)
}

func (p *Pipeline) endMatchLocked(now time.Time) error {
	rec := p.recording
	if !rec.session.IsRunning() {
		return nil
	}

	id := rec.session.ID()
	rec.session.End(now)
	p.pending = nil

	var errs []error
	if err := rec.recorder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close dataset file: %w", err))
	}
	if rec.matches != nil {
		if err := rec.matches.EndMatch(id, now); err != nil {
			errs = append(errs, fmt.Errorf("failed to close match index: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		p.reportRecording("Match could not be closed cleanly", err, logging.ErrorSeverityMedium)
	}

	elapsed := rec.session.ElapsedMs(now)
	p.logger.InfoWithContext("Match ended", map[string]interface{}{
		"match_id":   id,
		"samples":    rec.samples,
		"elapsed_ms": elapsed,
	})
	p.publish(events.NewMatchEndedEvent(id, rec.samples, elapsed, now))
	return err
}

// Match returns the current match status
func (p *Pipeline) Match() MatchStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.recording
	return MatchStatus{
		Running:     rec.session.IsRunning(),
		ID:          rec.session.ID(),
		StartedAt:   rec.session.StartTime(),
		DatasetPath: rec.matchPath,
		Samples:     rec.samples,
		FrameIndex:  rec.session.FrameIndex(),
	}
}

// Close ends the running match
func (p *Pipeline) Close(now time.Time) error {
	return p.EndMatch(now)
}

// trackAction feeds the action detector and turns an emitted play into a sample.
// The sample carries the state, frame index and frames of the commit tick.
func (p *Pipeline) trackAction(result *TickResult, prev, frame *image.RGBA) {
	ctx := actions.FrameContext{
		Now:    result.Time,
		Spawns: result.Spawns,
		Prev:   prev,
		Frame:  frame,
	}
	out := p.d.Actions.Update(result.Hand, result.Elixir.Elixir, ctx)

	if out.Committed {
		p.pending = p.snapshot(result, prev, frame)
	}
	if !out.Emitted {
		return
	}

	pending := p.pending
	p.pending = nil
	if pending == nil {
		pending = p.snapshot(result, prev, frame)
	}

	rec := p.recording
	sample := dataset.TrainingSample{
		Timestamp:      pending.at,
		State:          pending.state,
		Action:         out.Action,
		MatchID:        rec.session.ID(),
		MatchElapsedMs: pending.elapsedMs,
		FrameIndex:     pending.frameIndex,
	}
	p.attachFrames(&sample, pending)

	if err := rec.sink.Append(sample); err != nil {
		p.monitor.RecordSinkFailure(err, result.Time)
		p.reportRecording("Failed to record sample", err, logging.ErrorSeverityMedium)
	} else {
		rec.samples++
	}

	action := sample.Action
	result.Action = &action
	result.Sample = &sample

	p.publish(events.NewActionRecordedEvent(sample.MatchID, action.CardID, action.Lane.String(),
		out.Resolver, action.X, action.Y, sample.FrameIndex, result.Time))
}

func (p *Pipeline) snapshot(result *TickResult, prev, frame *image.RGBA) *pendingSample {
	return &pendingSample{
		state:      p.d.States.Build(result.Clock, result.Elixir, result.Spawns, result.Hand, result.Time),
		at:         result.Time,
		frameIndex: result.FrameIndex,
		elapsedMs:  result.MatchElapsedMs,
		prev:       prev,
		curr:       frame,
	}
}

func (p *Pipeline) attachFrames(sample *dataset.TrainingSample, pending *pendingSample) {
	rec := p.recording
	if rec.frames == nil || rec.matchDir == "" || pending.prev == nil || pending.curr == nil {
		return
	}

	saved, err := rec.frames.Save(pending.prev, pending.curr, rec.matchDir, pending.elapsedMs, pending.frameIndex)
	if err != nil {
		p.reportRecording("Failed to save frames", err, logging.ErrorSeverityLow)
		return
	}

	framesDir := rec.frames.FramesDir()
	sample.PrevFramePath = dataset.NormalizeToFramesRelative(rec.matchDir, saved.PrevPath, framesDir)
	sample.CurrFramePath = dataset.NormalizeToFramesRelative(rec.matchDir, saved.CurrPath, framesDir)
	if !saved.Crop.IsEmpty() {
		crop := saved.Crop
		sample.FrameCrop = &crop
	}
}

func (p *Pipeline) reportRecording(message string, err error, severity logging.ErrorSeverity) {
	if p.reporter != nil {
		p.reporter.ReportError(logging.ErrorCategoryRecording, severity, component, message, err)
		return
	}
	p.logger.Error(message, err)
}
