package logging

import (
	"sync"
	"time"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	ErrorCategoryCapture   ErrorCategory = "capture"
	ErrorCategoryDetection ErrorCategory = "detection"
	ErrorCategoryRecording ErrorCategory = "recording"
	ErrorCategoryStorage   ErrorCategory = "storage"
	ErrorCategoryConfig    ErrorCategory = "config"
	ErrorCategorySystem    ErrorCategory = "system"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// ErrorReport is one reported failure. Identical reports inside the
// repeat window are folded into the first one and counted in Repeats.
type ErrorReport struct {
	Timestamp   time.Time              `json:"timestamp"`
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Component   string                 `json:"component"`
	Message     string                 `json:"message"`
	Error       error                  `json:"error"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
	Repeats     int                    `json:"repeats,omitempty"`
}

// ErrorSummary counts the reports still in history
type ErrorSummary struct {
	Total      int
	Suppressed int // repeats folded into earlier reports
	BySeverity map[ErrorSeverity]int
	ByCategory map[ErrorCategory]int
	Last       *ErrorReport
}

// ErrorCallback is called when an error is reported
type ErrorCallback func(report *ErrorReport)

type severityCallback struct {
	min      ErrorSeverity
	callback ErrorCallback
}

type reportKey struct {
	category  ErrorCategory
	component string
	message   string
}

// ErrorReporter collects failures from the pipeline. Per-tick failures
// repeat at the tick rate, so identical reports are logged once per window.
type ErrorReporter struct {
	logger       *Logger
	history      []*ErrorReport
	lastByKey    map[reportKey]*ErrorReport
	maxHistory   int
	repeatWindow time.Duration
	suppressed   int
	now          func() time.Time
	mu           sync.RWMutex

	callbacks   []severityCallback
	callbacksMu sync.RWMutex
}

// NewErrorReporter creates a reporter keeping the last 200 reports
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{
		logger:       NewLogger("ErrorReporter"),
		lastByKey:    make(map[reportKey]*ErrorReport),
		maxHistory:   200,
		repeatWindow: 10 * time.Second,
		now:          time.Now,
	}
}

// SetLogger sets the logger for the error reporter
func (er *ErrorReporter) SetLogger(logger *Logger) {
	er.logger = logger
}

// SetRepeatWindow changes how long identical reports are folded. Zero disables folding.
func (er *ErrorReporter) SetRepeatWindow(window time.Duration) {
	er.mu.Lock()
	defer er.mu.Unlock()
	er.repeatWindow = window
}

// Report records a report. A zero timestamp is set to now; critical
// reports are never recoverable.
func (er *ErrorReporter) Report(report *ErrorReport) {
	if report.Timestamp.IsZero() {
		report.Timestamp = er.now()
	}
	if report.Severity == ErrorSeverityCritical {
		report.Recoverable = false
	}

	if er.fold(report) {
		return
	}

	er.logError(report)
	er.invokeCallbacks(report)
}

// ReportError reports a recoverable error
func (er *ErrorReporter) ReportError(category ErrorCategory, severity ErrorSeverity, component, message string, err error) {
	er.ReportErrorWithContext(category, severity, component, message, err, nil)
}

// ReportErrorWithContext reports a recoverable error with extra fields
func (er *ErrorReporter) ReportErrorWithContext(category ErrorCategory, severity ErrorSeverity, component, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    severity,
		Component:   component,
		Message:     message,
		Error:       err,
		Context:     context,
		Recoverable: true,
	})
}

// ReportCriticalError reports a failure the coach cannot continue from
func (er *ErrorReporter) ReportCriticalError(category ErrorCategory, component, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:  category,
		Severity:  ErrorSeverityCritical,
		Component: component,
		Message:   message,
		Error:     err,
		Context:   context,
	})
}

// fold counts report against an identical recent one, or stores it.
// It reports whether the report was folded.
func (er *ErrorReporter) fold(report *ErrorReport) bool {
	key := reportKey{report.Category, report.Component, report.Message}

	er.mu.Lock()
	defer er.mu.Unlock()

	if prev, ok := er.lastByKey[key]; ok && er.repeatWindow > 0 &&
		report.Timestamp.Sub(prev.Timestamp) < er.repeatWindow && severityRank(report.Severity) <= severityRank(prev.Severity) {
		prev.Repeats++
		er.suppressed++
		return true
	}

	er.lastByKey[key] = report
	er.history = append(er.history, report)
	if len(er.history) > er.maxHistory {
		dropped := er.history[:len(er.history)-er.maxHistory]
		for _, old := range dropped {
			oldKey := reportKey{old.Category, old.Component, old.Message}
			if er.lastByKey[oldKey] == old {
				delete(er.lastByKey, oldKey)
			}
		}
		er.history = er.history[len(er.history)-er.maxHistory:]
	}
	return false
}

func (er *ErrorReporter) logError(report *ErrorReport) {
	context := map[string]interface{}{
		"category":    string(report.Category),
		"component":   report.Component,
		"recoverable": report.Recoverable,
	}
	for k, v := range report.Context {
		context[k] = v
	}

	switch report.Severity {
	case ErrorSeverityCritical:
		er.logger.FatalWithContext(report.Message, report.Error, context)
	case ErrorSeverityHigh:
		er.logger.ErrorWithContext(report.Message, report.Error, context)
	case ErrorSeverityMedium:
		if report.Error != nil {
			context["error"] = report.Error.Error()
		}
		er.logger.WarnWithContext(report.Message, context)
	default:
		if report.Error != nil {
			context["error"] = report.Error.Error()
		}
		er.logger.InfoWithContext(report.Message, context)
	}
}

func (er *ErrorReporter) invokeCallbacks(report *ErrorReport) {
	er.callbacksMu.RLock()
	defer er.callbacksMu.RUnlock()

	rank := severityRank(report.Severity)
	for _, cb := range er.callbacks {
		if rank >= severityRank(cb.min) {
			go cb.callback(report)
		}
	}
}

// OnError registers a callback for reports at or above severity
func (er *ErrorReporter) OnError(severity ErrorSeverity, callback ErrorCallback) {
	er.callbacksMu.Lock()
	defer er.callbacksMu.Unlock()

	er.callbacks = append(er.callbacks, severityCallback{min: severity, callback: callback})
}

// Recent returns up to n of the newest reports, oldest first
func (er *ErrorReporter) Recent(n int) []*ErrorReport {
	er.mu.RLock()
	defer er.mu.RUnlock()

	n = min(max(n, 0), len(er.history))
	result := make([]*ErrorReport, n)
	copy(result, er.history[len(er.history)-n:])
	return result
}

// ByCategory returns up to limit reports of category, newest first
func (er *ErrorReporter) ByCategory(category ErrorCategory, limit int) []*ErrorReport {
	er.mu.RLock()
	defer er.mu.RUnlock()

	result := make([]*ErrorReport, 0)
	for i := len(er.history) - 1; i >= 0 && len(result) < limit; i-- {
		if er.history[i].Category == category {
			result = append(result, er.history[i])
		}
	}
	return result
}

// Summary counts the reports in history
func (er *ErrorReporter) Summary() ErrorSummary {
	er.mu.RLock()
	defer er.mu.RUnlock()

	summary := ErrorSummary{
		Total:      len(er.history),
		Suppressed: er.suppressed,
		BySeverity: make(map[ErrorSeverity]int),
		ByCategory: make(map[ErrorCategory]int),
	}
	for _, report := range er.history {
		summary.BySeverity[report.Severity]++
		summary.ByCategory[report.Category]++
	}
	if len(er.history) > 0 {
		summary.Last = er.history[len(er.history)-1]
	}
	return summary
}

// Clear drops the history and the repeat state
func (er *ErrorReporter) Clear() {
	er.mu.Lock()
	defer er.mu.Unlock()

	er.history = nil
	er.lastByKey = make(map[reportKey]*ErrorReport)
	er.suppressed = 0
}

func severityRank(s ErrorSeverity) int {
	switch s {
	case ErrorSeverityCritical:
		return 3
	case ErrorSeverityHigh:
		return 2
	case ErrorSeverityMedium:
		return 1
	default:
		return 0
	}
}
