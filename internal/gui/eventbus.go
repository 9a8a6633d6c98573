package gui

import (
	"fmt"
	"sync"

	"jordanella.com/royale-coach/internal/events"
)

// bridgedTypes are the pipeline events shown in the log
var bridgedTypes = []events.EventType{
	events.EventTypeMatchStarted,
	events.EventTypeMatchEnded,
	events.EventTypeSuggestionEmitted,
	events.EventTypeActionRecorded,
	events.EventTypeTickSkipped,
	events.EventTypeTickOverrun,
	events.EventTypeError,
}

// EventBridge forwards pipeline events to the log tab and notifies the
// window of match boundaries. Handlers run on the bus goroutine.
type EventBridge struct {
	bus     events.EventBus
	logTab  *LogTab
	onMatch func()

	subs []events.SubscriptionID
	mu   sync.Mutex
}

// NewEventBridge creates a bridge; call Start to subscribe
func NewEventBridge(bus events.EventBus, logTab *LogTab, onMatch func()) *EventBridge {
	return &EventBridge{
		bus:     bus,
		logTab:  logTab,
		onMatch: onMatch,
	}
}

// Start subscribes to every bridged event type
func (b *EventBridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bus == nil || len(b.subs) > 0 {
		return
	}
	for _, eventType := range bridgedTypes {
		b.subs = append(b.subs, b.bus.Subscribe(eventType, b.handle))
	}
}

// Stop removes the subscriptions
func (b *EventBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range b.subs {
		b.bus.Unsubscribe(id)
	}
	b.subs = nil
}

func (b *EventBridge) handle(event events.Event) {
	if entry, ok := logEntryFor(event); ok && b.logTab != nil {
		b.logTab.AddLog(entry)
	}

	switch event.Type {
	case events.EventTypeMatchStarted, events.EventTypeMatchEnded:
		if b.onMatch != nil {
			b.onMatch()
		}
	}
}

// logEntryFor renders an event as a log line
func logEntryFor(event events.Event) (LogEntry, bool) {
	entry := LogEntry{
		Timestamp: event.Timestamp,
		Level:     LogLevelInfo,
		Source:    event.Source,
	}
	data := event.Data

	switch event.Type {
	case events.EventTypeMatchStarted:
		entry.Message = fmt.Sprintf("Match %v started", data["match_id"])
	case events.EventTypeMatchEnded:
		entry.Message = fmt.Sprintf("Match %v ended with %v samples", data["match_id"], data["samples"])
	case events.EventTypeSuggestionEmitted:
		entry.Level = LogLevelDebug
		entry.Message = fmt.Sprintf("Suggest %v at %.2f, %.2f", data["label"], data["x01"], data["y01"])
		if card, ok := data["card_id"]; ok {
			entry.Message += fmt.Sprintf(" with %v", card)
		}
	case events.EventTypeActionRecorded:
		entry.Message = fmt.Sprintf("Played %v (%v lane)", data["card_id"], data["lane"])
	case events.EventTypeTickSkipped:
		entry.Level = LogLevelWarn
		entry.Message = fmt.Sprintf("Tick skipped: %v", data["reason"])
		if err, ok := data["error"]; ok {
			entry.Message += fmt.Sprintf(" (%v)", err)
		}
	case events.EventTypeTickOverrun:
		entry.Level = LogLevelWarn
		entry.Message = fmt.Sprintf("Tick took %vms of %vms", data["took_ms"], data["interval_ms"])
	case events.EventTypeError:
		entry.Level = LogLevelError
		entry.Message = fmt.Sprintf("%v", data["error"])
		if reason, ok := data["reason"]; ok {
			entry.Message = fmt.Sprintf("%v: %s", reason, entry.Message)
		}
	default:
		return LogEntry{}, false
	}
	return entry, true
}
