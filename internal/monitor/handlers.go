package monitor

// ErrorHandlerFunc is a function signature for error handling callbacks
type ErrorHandlerFunc func(event *ErrorEvent) ErrorResponse

// severityFor maps a failure type to how loudly it is reported
func severityFor(t ErrorType) ErrorSeverity {
	switch t {
	case ErrorCapture:
		return SeverityHigh
	case ErrorContract, ErrorStalled:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// HandleWithCallback runs handler, falling back to continue when none is registered
func HandleWithCallback(event *ErrorEvent, handler ErrorHandlerFunc) ErrorResponse {
	if event == nil {
		return ErrorResponse{Handled: true, Action: ActionContinue}
	}
	if handler == nil {
		return ErrorResponse{Handled: true, Action: ActionContinue, Message: event.Message}
	}
	return handler(event)
}

// ShouldSkipTick checks if the error action drops the current tick
func ShouldSkipTick(action ErrorAction) bool {
	return action == ActionSkip || action == ActionStop
}

// ShouldStopRunner checks if the error action requires stopping the runner entirely
func ShouldStopRunner(action ErrorAction) bool {
	return action == ActionStop
}
