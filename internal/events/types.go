package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Match lifecycle
	EventTypeMatchStarted EventType = "match.started"
	EventTypeMatchEnded   EventType = "match.ended"

	// Coaching and recording
	EventTypeSuggestionEmitted EventType = "suggestion.emitted"
	EventTypeActionRecorded    EventType = "action.recorded"

	// Tick health
	EventTypeTickSkipped EventType = "tick.skipped"
	EventTypeTickOverrun EventType = "tick.overrun"

	// Error events
	EventTypeError EventType = "error"
)

// AllEventTypes lists every event type, for subscribers that want everything
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeMatchStarted,
		EventTypeMatchEnded,
		EventTypeSuggestionEmitted,
		EventTypeActionRecorded,
		EventTypeTickSkipped,
		EventTypeTickOverrun,
		EventTypeError,
	}
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "pipeline", "runner")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewMatchStartedEvent creates a match started event
func NewMatchStartedEvent(matchID, datasetPath string, at time.Time) Event {
	return Event{
		Type:      EventTypeMatchStarted,
		Source:    "pipeline",
		Timestamp: at,
		Data: map[string]interface{}{
			"match_id":     matchID,
			"dataset_path": datasetPath,
		},
	}
}

// NewMatchEndedEvent creates a match ended event
func NewMatchEndedEvent(matchID string, samples int, elapsedMs int64, at time.Time) Event {
	return Event{
		Type:      EventTypeMatchEnded,
		Source:    "pipeline",
		Timestamp: at,
		Data: map[string]interface{}{
			"match_id":   matchID,
			"samples":    samples,
			"elapsed_ms": elapsedMs,
		},
	}
}

// NewSuggestionEmittedEvent creates a suggestion event
func NewSuggestionEmittedEvent(label string, x, y float32, cardID string, at time.Time) Event {
	data := map[string]interface{}{
		"label": label,
		"x01":   x,
		"y01":   y,
	}
	if cardID != "" {
		data["card_id"] = cardID
	}

	return Event{
		Type:      EventTypeSuggestionEmitted,
		Source:    "coach",
		Timestamp: at,
		Data:      data,
	}
}

// NewActionRecordedEvent creates an event for a recorded card play.
// Position fields are present only when the placement was resolved.
func NewActionRecordedEvent(matchID, cardID, lane, resolver string, x, y *float32, frameIndex int64, at time.Time) Event {
	data := map[string]interface{}{
		"match_id":    matchID,
		"card_id":     cardID,
		"lane":        lane,
		"frame_index": frameIndex,
	}
	if resolver != "" {
		data["resolver"] = resolver
	}
	if x != nil && y != nil {
		data["x01"] = *x
		data["y01"] = *y
	}

	return Event{
		Type:      EventTypeActionRecorded,
		Source:    "pipeline",
		Timestamp: at,
		Data:      data,
	}
}

// NewTickSkippedEvent creates an event for a tick that produced no result
func NewTickSkippedEvent(reason string, err error, at time.Time) Event {
	data := map[string]interface{}{
		"reason": reason,
	}
	if err != nil {
		data["error"] = err.Error()
	}

	return Event{
		Type:      EventTypeTickSkipped,
		Source:    "runner",
		Timestamp: at,
		Data:      data,
	}
}

// NewTickOverrunEvent creates an event for a tick slower than the interval
func NewTickOverrunEvent(took, interval time.Duration, at time.Time) Event {
	return Event{
		Type:      EventTypeTickOverrun,
		Source:    "runner",
		Timestamp: at,
		Data: map[string]interface{}{
			"took_ms":     took.Milliseconds(),
			"interval_ms": interval.Milliseconds(),
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, component string, err error, metadata map[string]interface{}) Event {
	data := map[string]interface{}{
		"source":    source,
		"component": component,
		"error":     err.Error(),
	}

	// Merge metadata
	for k, v := range metadata {
		data[k] = v
	}

	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
