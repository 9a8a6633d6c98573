package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"
	"testing"
	"time"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/config"
	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/dataset"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/game"
	"jordanella.com/royale-coach/internal/monitor"
)

var t0 = time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func hand(slots ...string) game.HandState {
	catalog := game.DefaultCatalog()
	h := game.HandState{Slots: slots, Costs: make([]int, len(slots)), Confidences: make([]float32, len(slots))}
	for i, id := range slots {
		h.Costs[i] = -1
		if info, ok := catalog.Lookup(id); ok {
			h.Costs[i] = info.Cost
		}
	}
	return h
}

// recordingBus keeps published events in order
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Subscribe(events.EventType, events.EventHandler) events.SubscriptionID { return 0 }
func (b *recordingBus) Unsubscribe(events.SubscriptionID)                                    {}
func (b *recordingBus) PublishAsync(event events.Event)                                      { b.Publish(event) }
func (b *recordingBus) Stop()                                                                {}

func (b *recordingBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) types() []events.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.EventType, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

func (b *recordingBus) count(t events.EventType) int {
	n := 0
	for _, got := range b.types() {
		if got == t {
			n++
		}
	}
	return n
}

type fakeMatchStore struct {
	started []string
	ended   []string
	paths   []string
	failEnd error
}

func (s *fakeMatchStore) StartMatch(id string, _ time.Time, datasetPath string) error {
	s.started = append(s.started, id)
	s.paths = append(s.paths, datasetPath)
	return nil
}

func (s *fakeMatchStore) EndMatch(id string, _ time.Time) error {
	s.ended = append(s.ended, id)
	return s.failEnd
}

type failingSink struct{ err error }

func (s failingSink) Append(dataset.TrainingSample) error { return s.err }

// newTestPipeline builds a pipeline whose action detector commits
// without placement resolvers
func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	d := DetectorsFromSettings(config.Default(), nil, nil)
	d.Actions = actions.NewDetector(actions.DefaultDetectorSettings(), game.DefaultCatalog())

	p, err := New(d, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewRequiresDetectors(t *testing.T) {
	d := DetectorsFromSettings(config.Default(), nil, nil)
	d.Spawns = nil

	if _, err := New(d, Options{}); !errors.Is(err, ErrMissingDetector) {
		t.Fatalf("err = %v, want ErrMissingDetector", err)
	}
}

func TestDetectorsFromSettings(t *testing.T) {
	d := DetectorsFromSettings(config.Default(), nil, nil)
	if d.Cards != nil {
		t.Error("no templates should leave the card recognizer unset")
	}
	if _, err := New(d, Options{}); err != nil {
		t.Fatalf("default detectors rejected: %v", err)
	}

	s := config.Default()
	if RecordingFromSettings(s).FileNamePattern != s.Training.FileNamePattern {
		t.Error("recording pattern not copied")
	}
	s.Training.Frames.Save = false
	if FrameSaverFromSettings(s) != nil {
		t.Error("frame saver should be nil when frames are not saved")
	}
}

func TestTickRejectsNilFrame(t *testing.T) {
	p := newTestPipeline(t, Options{})
	if _, err := p.Tick(nil, t0); !errors.Is(err, cv.ErrNilFrame) {
		t.Fatalf("err = %v, want ErrNilFrame", err)
	}
}

func TestTickWithoutTemplatesReadsEmptyHand(t *testing.T) {
	p := newTestPipeline(t, Options{})

	result, err := p.Tick(solidFrame(90, 160, color.RGBA{60, 90, 60, 255}), t0)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !result.Time.Equal(t0) {
		t.Errorf("time = %v", result.Time)
	}
	if result.Hand.Len() != 0 {
		t.Errorf("hand = %+v, want empty", result.Hand)
	}
	if result.Action != nil || result.Sample != nil {
		t.Error("no match is running, nothing should be recorded")
	}
	if result.FrameIndex != 0 {
		t.Errorf("frame index = %d outside a match", result.FrameIndex)
	}
	if !p.Last().Time.Equal(t0) {
		t.Error("Last should hold the latest result")
	}
}

func TestTickFrameSizeChange(t *testing.T) {
	p := newTestPipeline(t, Options{})
	gray := color.RGBA{100, 100, 100, 255}

	if _, err := p.Tick(solidFrame(90, 160, gray), ms(0)); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	result, err := p.Tick(solidFrame(120, 200, gray), ms(100))
	if !errors.Is(err, cv.ErrFrameSizeMismatch) {
		t.Fatalf("err = %v, want ErrFrameSizeMismatch", err)
	}
	if result.Motion.Total() != 0 {
		t.Errorf("motion = %+v, want zero", result.Motion)
	}
	if p.Monitor().Snapshot().ContractViolations != 1 {
		t.Errorf("contract violations = %d", p.Monitor().Snapshot().ContractViolations)
	}

	// the new size becomes the reference
	if _, err := p.Tick(solidFrame(120, 200, gray), ms(200)); err != nil {
		t.Fatalf("tick after resize: %v", err)
	}
}

func TestMatchLifecycle(t *testing.T) {
	dir := t.TempDir()
	bus := &recordingBus{}
	store := &fakeMatchStore{}
	p := newTestPipeline(t, Options{
		Recording: RecordingSettings{Enabled: true, OutputDir: dir, FileNamePattern: "match_{matchId}.jsonl"},
		Matches:   store,
		Bus:       bus,
	})

	id, err := p.StartMatch(ms(0))
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	status := p.Match()
	if !status.Running || status.ID != id || status.DatasetPath == "" {
		t.Fatalf("status = %+v", status)
	}
	if _, err := os.Stat(status.DatasetPath); err != nil {
		t.Fatalf("dataset file not created: %v", err)
	}
	if len(store.started) != 1 || store.started[0] != id || store.paths[0] != status.DatasetPath {
		t.Fatalf("store = %+v", store)
	}

	frame := solidFrame(90, 160, color.RGBA{80, 80, 80, 255})
	first, _ := p.Tick(frame, ms(100))
	second, _ := p.Tick(frame, ms(200))
	if first.FrameIndex != 1 || second.FrameIndex != 2 {
		t.Errorf("frame indexes = %d, %d", first.FrameIndex, second.FrameIndex)
	}
	if second.MatchElapsedMs != 200 {
		t.Errorf("elapsed = %d, want 200", second.MatchElapsedMs)
	}

	if err := p.EndMatch(ms(300)); err != nil {
		t.Fatalf("EndMatch: %v", err)
	}
	if p.Match().Running {
		t.Fatal("match still running")
	}
	if err := p.EndMatch(ms(400)); err != nil {
		t.Fatalf("second EndMatch should be a no-op: %v", err)
	}
	if len(store.ended) != 1 {
		t.Errorf("ended = %v", store.ended)
	}

	if bus.count(events.EventTypeMatchStarted) != 1 || bus.count(events.EventTypeMatchEnded) != 1 {
		t.Errorf("events = %v", bus.types())
	}
}

func TestStartMatchEndsRunningMatch(t *testing.T) {
	store := &fakeMatchStore{}
	p := newTestPipeline(t, Options{Matches: store})

	first, _ := p.StartMatch(ms(0))
	second, _ := p.StartMatch(ms(1000))
	if first == second {
		t.Fatal("match ids must differ")
	}
	if len(store.ended) != 1 || store.ended[0] != first {
		t.Fatalf("ended = %v, want [%s]", store.ended, first)
	}
	if p.Match().ID != second {
		t.Errorf("current match = %s", p.Match().ID)
	}
}

func TestEndMatchJoinsStoreError(t *testing.T) {
	boom := errors.New("disk full")
	p := newTestPipeline(t, Options{Matches: &fakeMatchStore{failEnd: boom}})

	p.StartMatch(ms(0))
	if err := p.EndMatch(ms(100)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want store error", err)
	}
	if p.Match().Running {
		t.Error("match should end even when the store fails")
	}
}

func TestTrackActionRecordsSample(t *testing.T) {
	dir := t.TempDir()
	bus := &recordingBus{}
	p := newTestPipeline(t, Options{
		Recording: RecordingSettings{Enabled: true, OutputDir: dir},
		Bus:       bus,
	})

	id, err := p.StartMatch(ms(0))
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	steps := []struct {
		hand   game.HandState
		elixir int
	}{
		{hand("cannon", "hog", "log", "skeletons"), 7},
		{hand("ice_golem", "hog", "log", "skeletons"), 7},
		{hand("ice_golem", "hog", "log", "skeletons"), 4},
	}

	var last TickResult
	for i, step := range steps {
		last = TickResult{
			Time:           ms((i + 1) * 100),
			FrameIndex:     int64(i + 1),
			MatchElapsedMs: int64((i + 1) * 100),
			Hand:           step.hand,
			Elixir:         game.ElixirResult{Elixir: step.elixir},
		}
		p.trackAction(&last, nil, nil)
	}

	if last.Action == nil || last.Sample == nil {
		t.Fatal("third tick should emit the cannon play")
	}
	if last.Action.CardID != "cannon" {
		t.Errorf("card = %s", last.Action.CardID)
	}
	sample := last.Sample
	if sample.MatchID != id || sample.FrameIndex != 3 || sample.MatchElapsedMs != 300 {
		t.Errorf("sample = %+v", sample)
	}
	if sample.PrevFramePath != "" || sample.FrameCrop != nil {
		t.Error("frames were not saved, paths must be empty")
	}
	if p.Match().Samples != 1 {
		t.Errorf("samples = %d", p.Match().Samples)
	}
	if bus.count(events.EventTypeActionRecorded) != 1 {
		t.Errorf("events = %v", bus.types())
	}

	path := p.Match().DatasetPath
	if err := p.EndMatch(ms(500)); err != nil {
		t.Fatalf("EndMatch: %v", err)
	}
	written, err := dataset.ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if len(written) != 1 || written[0].Action.CardID != "cannon" || written[0].MatchID != id {
		t.Fatalf("written = %+v", written)
	}
}

func TestTrackActionSinkFailure(t *testing.T) {
	p := newTestPipeline(t, Options{Sink: failingSink{err: errors.New("index closed")}})
	p.StartMatch(ms(0))

	results := []TickResult{
		{Time: ms(100), Hand: hand("hog", "log"), Elixir: game.ElixirResult{Elixir: 8}},
		{Time: ms(200), Hand: hand("cannon", "log"), Elixir: game.ElixirResult{Elixir: 8}},
		{Time: ms(300), Hand: hand("cannon", "log"), Elixir: game.ElixirResult{Elixir: 4}},
	}
	for i := range results {
		p.trackAction(&results[i], nil, nil)
	}

	if results[2].Sample == nil {
		t.Fatal("sample should still be returned on sink failure")
	}
	if p.Match().Samples != 0 {
		t.Errorf("samples = %d, want 0", p.Match().Samples)
	}
	if p.Monitor().Snapshot().SinkFailures != 1 {
		t.Errorf("sink failures = %d", p.Monitor().Snapshot().SinkFailures)
	}
}

// scriptedSource replays a fixed list of capture outcomes
type scriptedSource struct {
	frames []*image.RGBA
	errs   []error
	i      int
}

func (s *scriptedSource) Next() (cv.FramePair, error) {
	if s.i >= len(s.frames) {
		return cv.FramePair{}, cv.ErrReplayExhausted
	}
	frame, err := s.frames[s.i], s.errs[s.i]
	s.i++
	if err != nil {
		return cv.FramePair{}, err
	}
	return cv.FramePair{Curr: frame}, nil
}

func TestRunnerStep(t *testing.T) {
	frame := solidFrame(90, 160, color.RGBA{70, 70, 70, 255})
	captureErr := errors.New("window gone")
	source := &scriptedSource{
		frames: []*image.RGBA{frame, nil, frame, nil, nil},
		errs:   []error{nil, captureErr, nil, captureErr, captureErr},
	}

	bus := &recordingBus{}
	p := newTestPipeline(t, Options{Bus: bus, Monitor: monitor.NewTickMonitor(2)})

	var ticks int
	runner := NewRunner(p, source, 50*time.Millisecond).OnTick(func(TickResult) { ticks++ })

	// ok, failure, ok: the streak resets in between
	for i := 0; i < 3; i++ {
		if err := runner.Step(ms(i * 50)); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if ticks != 2 {
		t.Fatalf("ticks = %d, want 2", ticks)
	}

	if err := runner.Step(ms(150)); err != nil {
		t.Fatalf("first failure of a streak should skip: %v", err)
	}
	err := runner.Step(ms(200))
	if err == nil || !errors.Is(err, captureErr) {
		t.Fatalf("err = %v, want the capture error after 2 failures", err)
	}

	if !errors.Is(runner.Step(ms(250)), cv.ErrReplayExhausted) {
		t.Fatal("exhausted source should be reported")
	}

	stats := p.Monitor().Snapshot()
	if stats.Ticks != 2 || stats.CaptureFailures != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if bus.count(events.EventTypeTickSkipped) != 3 {
		t.Errorf("events = %v", bus.types())
	}
}

func TestRunnerStopsWhenReplayEnds(t *testing.T) {
	frame := solidFrame(90, 160, color.RGBA{70, 70, 70, 255})
	source := &scriptedSource{frames: []*image.RGBA{frame, frame}, errs: []error{nil, nil}}
	p := newTestPipeline(t, Options{})

	runner := NewRunner(p, source, 5*time.Millisecond)
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := runner.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	select {
	case <-runner.Done():
	case <-time.After(5 * time.Second):
		runner.Stop()
		t.Fatal("runner did not stop at the end of the replay")
	}

	if runner.IsRunning() || runner.Err() != nil {
		t.Errorf("running = %v, err = %v", runner.IsRunning(), runner.Err())
	}
	if p.Monitor().Snapshot().Ticks != 2 {
		t.Errorf("ticks = %d", p.Monitor().Snapshot().Ticks)
	}
}
