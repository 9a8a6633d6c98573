package monitor

import "time"

// ErrorType represents the category of tick failure
type ErrorType int

const (
	ErrorCapture  ErrorType = iota // Frame source failed or returned nothing
	ErrorContract                  // Frame size changed between ticks
	ErrorSink                      // Dataset file or sample index write failed
	ErrorOverrun                   // Tick took longer than its interval
	ErrorStalled                   // No tick completed for too long
)

func (t ErrorType) String() string {
	switch t {
	case ErrorCapture:
		return "capture"
	case ErrorContract:
		return "contract"
	case ErrorSink:
		return "sink"
	case ErrorOverrun:
		return "overrun"
	case ErrorStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// ErrorSeverity determines how the error should be handled
type ErrorSeverity int

const (
	SeverityCritical ErrorSeverity = iota // Stop the runner
	SeverityHigh                          // Skip the tick
	SeverityMedium                        // Keep going, surface in the status view
	SeverityLow                           // Log only
)

// ErrorAction tells the runner what to do after error handling
type ErrorAction int

const (
	ActionContinue ErrorAction = iota // Keep processing the tick
	ActionSkip                        // Drop this tick, detectors untouched
	ActionStop                        // Stop the runner entirely
)

func (a ErrorAction) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionSkip:
		return "skip"
	case ActionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ErrorEvent describes one failure seen by the tick monitor
type ErrorEvent struct {
	Type        ErrorType
	Severity    ErrorSeverity
	Err         error
	DetectedAt  time.Time
	Message     string
	Consecutive int // Failures of this type in a row, including this one
}

// ErrorResponse is what a handler decided for an ErrorEvent
type ErrorResponse struct {
	Handled bool        // Whether the runner can carry on by itself
	Action  ErrorAction // What the runner does next
	Error   error       // Set when the failure is terminal
	Message string
}
