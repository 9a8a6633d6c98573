package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LogLevel orders event log entries by severity
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = []string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func parseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LogLevelDebug
}

// LogEntry is one line of the event log
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Source    string
	Message   string
}

func (e LogEntry) line() string {
	return fmt.Sprintf("%s [%s] %s: %s", e.Timestamp.Format("15:04:05"), e.Level, e.Source, e.Message)
}

// logFilter keeps entries at or above a level whose text contains a substring
type logFilter struct {
	minLevel LogLevel
	text     string
}

func (f logFilter) keep(e LogEntry) bool {
	if e.Level < f.minLevel {
		return false
	}
	if f.text == "" {
		return true
	}
	needle := strings.ToLower(f.text)
	return strings.Contains(strings.ToLower(e.Message), needle) ||
		strings.Contains(strings.ToLower(e.Source), needle)
}

func filterLogs(entries []LogEntry, f logFilter) []LogEntry {
	if f == (logFilter{}) {
		return entries
	}
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		if f.keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// LogTab shows bus events, newest last, in a bounded ring
type LogTab struct {
	mu      sync.RWMutex
	entries []LogEntry
	limit   int
	filter  logFilter
	follow  bool

	list   *widget.List
	window fyne.Window
}

// NewLogTab keeps at most limit entries, 500 when limit is not positive
func NewLogTab(limit int) *LogTab {
	if limit <= 0 {
		limit = 500
	}
	return &LogTab{
		entries: make([]LogEntry, 0, limit),
		limit:   limit,
		follow:  true,
	}
}

// Build constructs the event log view. window is used for clipboard access and may be nil.
func (l *LogTab) Build(window fyne.Window) fyne.CanvasObject {
	l.window = window

	level := widget.NewSelect(levelNames, func(s string) {
		l.setFilter(func(f *logFilter) { f.minLevel = parseLogLevel(s) })
	})
	level.SetSelected(LogLevelDebug.String())

	search := widget.NewEntry()
	search.SetPlaceHolder("Search")
	search.OnChanged = func(s string) {
		l.setFilter(func(f *logFilter) { f.text = strings.TrimSpace(s) })
	}

	follow := widget.NewCheck("Follow", func(on bool) {
		l.mu.Lock()
		l.follow = on
		l.mu.Unlock()
	})
	follow.SetChecked(true)

	l.list = widget.NewList(
		func() int { return len(l.Visible()) },
		func() fyne.CanvasObject {
			level := widget.NewLabel("ERROR")
			level.TextStyle = fyne.TextStyle{Monospace: true}
			return container.NewHBox(level, widget.NewLabel(""))
		},
		l.renderRow,
	)

	toolbar := container.NewHBox(
		widget.NewLabel("Level"), level,
		follow,
		widget.NewButton("Copy", l.copyVisible),
		widget.NewButton("Clear", l.ClearLogs),
	)
	return container.NewBorder(container.NewVBox(toolbar, search), nil, nil, nil, l.list)
}

func (l *LogTab) renderRow(id widget.ListItemID, obj fyne.CanvasObject) {
	visible := l.Visible()
	if id < 0 || id >= len(visible) {
		return
	}
	e := visible[id]
	row := obj.(*fyne.Container)

	badge := row.Objects[0].(*widget.Label)
	badge.SetText(e.Level.String())
	badge.Importance = importanceFor(e.Level)
	badge.Refresh()

	row.Objects[1].(*widget.Label).SetText(fmt.Sprintf("%s %s: %s", e.Timestamp.Format("15:04:05"), e.Source, e.Message))
}

func importanceFor(level LogLevel) widget.Importance {
	switch level {
	case LogLevelDebug:
		return widget.LowImportance
	case LogLevelWarn:
		return widget.WarningImportance
	case LogLevelError:
		return widget.DangerImportance
	}
	return widget.MediumImportance
}

// AddLog appends an entry, evicting the oldest past the limit. Safe off the UI goroutine.
func (l *LogTab) AddLog(entry LogEntry) {
	l.mu.Lock()
	if len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, entry)
	follow := l.follow
	l.mu.Unlock()

	l.refresh(follow)
}

// ClearLogs drops every entry
func (l *LogTab) ClearLogs() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()

	l.refresh(false)
}

// GetLogs returns a copy of every entry
func (l *LogTab) GetLogs() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LogEntry(nil), l.entries...)
}

// Visible returns the entries passing the current filter
func (l *LogTab) Visible() []LogEntry {
	l.mu.RLock()
	f := l.filter
	l.mu.RUnlock()
	return filterLogs(l.GetLogs(), f)
}

func (l *LogTab) setFilter(update func(*logFilter)) {
	l.mu.Lock()
	update(&l.filter)
	l.mu.Unlock()
	l.refresh(false)
}

func (l *LogTab) copyVisible() {
	if l.window == nil {
		return
	}
	var b strings.Builder
	for _, e := range l.Visible() {
		b.WriteString(e.line())
		b.WriteByte('\n')
	}
	l.window.Clipboard().SetContent(b.String())
}

func (l *LogTab) refresh(scroll bool) {
	if l.list == nil {
		return
	}
	fyne.Do(func() {
		l.list.Refresh()
		if scroll {
			l.list.ScrollToBottom()
		}
	})
}
