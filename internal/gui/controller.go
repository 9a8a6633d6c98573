package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/logging"
	"jordanella.com/royale-coach/internal/pipeline"
)

const refreshInterval = time.Second

// StatusWindow is the read-only coach window. It mirrors the pipeline
// state and exposes match start and end.
type StatusWindow struct {
	app      fyne.App
	window   fyne.Window
	pipeline *pipeline.Pipeline
	logger   *logging.Logger

	data      *StatusData
	dashboard *DashboardTab
	logTab    *LogTab
	bridge    *EventBridge

	// Content area reference for tab switching
	contentArea *fyne.Container
	currentTab  int
	mu          sync.RWMutex

	stopRefresh chan struct{}
	stopOnce    sync.Once
}

// NewStatusWindow creates the window controller. bus may be nil.
func NewStatusWindow(app fyne.App, window fyne.Window, p *pipeline.Pipeline, bus events.EventBus) *StatusWindow {
	w := &StatusWindow{
		app:         app,
		window:      window,
		pipeline:    p,
		logger:      logging.NewLogger("GUI"),
		data:        NewStatusData(),
		logTab:      NewLogTab(500),
		stopRefresh: make(chan struct{}),
	}
	w.dashboard = NewDashboardTab(w, w.data)
	w.bridge = NewEventBridge(bus, w.logTab, w.refreshMatch)
	w.bridge.Start()

	go w.autoRefresh()
	return w
}

// BuildUI constructs the main UI with horizontal tabs
func (w *StatusWindow) BuildUI() fyne.CanvasObject {
	tabButtons := container.NewHBox(
		widget.NewButton("Status", func() { w.switchTab(0) }),
		widget.NewButton("Event Log", func() { w.switchTab(1) }),
	)

	w.contentArea = container.NewStack(
		w.dashboard.Build(),
		w.logTab.Build(w.window),
	)
	w.showTab(0)

	return container.NewBorder(tabButtons, nil, nil, nil, w.contentArea)
}

// OnTick receives runner results. Safe from any goroutine.
func (w *StatusWindow) OnTick(result pipeline.TickResult) {
	w.data.ApplyTick(result)
}

// StartMatch starts or restarts a match
func (w *StatusWindow) StartMatch() {
	id, err := w.pipeline.StartMatch(time.Now())
	w.refreshMatch()
	if err != nil {
		w.showError(fmt.Errorf("match %s started without full recording: %w", id, err))
	}
}

// EndMatch ends the running match
func (w *StatusWindow) EndMatch() {
	err := w.pipeline.EndMatch(time.Now())
	w.refreshMatch()
	if err != nil {
		w.showError(err)
	}
}

// ResetDetectors drops all detector history
func (w *StatusWindow) ResetDetectors() {
	w.pipeline.Reset()
	w.logTab.AddLog(LogEntry{
		Timestamp: time.Now(),
		Level:     LogLevelInfo,
		Source:    "gui",
		Message:   "Detectors reset",
	})
}

// Shutdown stops the refresh loop and the event subscriptions
func (w *StatusWindow) Shutdown() {
	w.stopOnce.Do(func() {
		close(w.stopRefresh)
		w.bridge.Stop()
	})
}

func (w *StatusWindow) switchTab(index int) {
	w.mu.Lock()
	w.currentTab = index
	w.mu.Unlock()

	w.showTab(index)
}

func (w *StatusWindow) showTab(index int) {
	if w.contentArea == nil {
		return
	}

	for i, obj := range w.contentArea.Objects {
		if i == index {
			obj.Show()
		} else {
			obj.Hide()
		}
	}
	w.contentArea.Refresh()
}

func (w *StatusWindow) refreshMatch() {
	w.data.ApplyMatch(w.pipeline.Match(), time.Now())
}

func (w *StatusWindow) refreshHealth() {
	mon := w.pipeline.Monitor()
	w.data.ApplyStats(mon.Snapshot(), mon.Healthy())
}

// autoRefresh updates the clock-driven lines; bindings are goroutine safe
func (w *StatusWindow) autoRefresh() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshMatch()
			w.refreshHealth()
		case <-w.stopRefresh:
			return
		}
	}
}

func (w *StatusWindow) showError(err error) {
	w.logger.Error("Match control failed", err)
	if w.window == nil {
		return
	}
	fyne.Do(func() {
		dialog.ShowError(err, w.window)
	})
}
