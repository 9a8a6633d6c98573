package monitor

import (
	"fmt"
)

// DefaultErrorHandlers decide what the runner does for each failure type.
// Only repeated capture failures are terminal.

// HandleCaptureFailure skips the tick, stopping once maxConsecutive failures pile up
func HandleCaptureFailure(event *ErrorEvent, maxConsecutive int) ErrorResponse {
	if maxConsecutive > 0 && event.Consecutive >= maxConsecutive {
		return ErrorResponse{
			Handled: false,
			Action:  ActionStop,
			Error:   fmt.Errorf("capture failed %d times in a row: %w", event.Consecutive, event.Err),
			Message: "Frame source keeps failing - runner must stop",
		}
	}

	return ErrorResponse{
		Handled: true,
		Action:  ActionSkip,
		Message: "Capture failed - tick skipped, detectors untouched",
	}
}

// HandleContractViolation keeps going; the pipeline adopted the new frame as its reference
func HandleContractViolation(event *ErrorEvent) ErrorResponse {
	return ErrorResponse{
		Handled: true,
		Action:  ActionContinue,
		Message: "Frame size changed - motion reference reset",
	}
}

// HandleSinkFailure keeps going; a lost sample never aborts a tick
func HandleSinkFailure(event *ErrorEvent) ErrorResponse {
	return ErrorResponse{
		Handled: true,
		Action:  ActionContinue,
		Message: "Sample could not be written - dropped",
	}
}

// HandleOverrun keeps going; the ticker already dropped the missed ticks
func HandleOverrun(event *ErrorEvent) ErrorResponse {
	return ErrorResponse{
		Handled: true,
		Action:  ActionContinue,
		Message: "Tick overran its interval",
	}
}

// HandleStalled reports a frozen loop; there is nothing to retry from the watcher
func HandleStalled(event *ErrorEvent) ErrorResponse {
	return ErrorResponse{
		Handled: false,
		Action:  ActionContinue,
		Error:   event.Err,
		Message: "No tick completed recently",
	}
}

// GetDefaultHandler returns the appropriate default handler for an error type
func GetDefaultHandler(errorType ErrorType, maxCaptureFailures int) ErrorHandlerFunc {
	switch errorType {
	case ErrorCapture:
		return func(event *ErrorEvent) ErrorResponse {
			return HandleCaptureFailure(event, maxCaptureFailures)
		}
	case ErrorContract:
		return HandleContractViolation
	case ErrorSink:
		return HandleSinkFailure
	case ErrorOverrun:
		return HandleOverrun
	case ErrorStalled:
		return HandleStalled
	default:
		return nil
	}
}
