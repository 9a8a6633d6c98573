package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPublishTimeout bounds how long Publish waits on a full queue
const DefaultPublishTimeout = 50 * time.Millisecond

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// BusStats counts traffic since the bus was created
type BusStats struct {
	Published int64
	Delivered int64 // handler invocations
	Dropped   int64 // events not queued: bus stopped or queue full past the timeout
	Panics    int64
}

// DefaultEventBus queues events and delivers them from one goroutine, so
// every subscriber sees events in publish order. A slow handler delays the
// rest; producers wait at most the publish timeout on a full queue.
type DefaultEventBus struct {
	subscribers map[EventType][]subscription
	mu          sync.RWMutex

	queue          chan Event
	publishTimeout time.Duration
	stopCh         chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup

	nextSubID atomic.Int64

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	panics    atomic.Int64
}

var _ EventBus = (*DefaultEventBus)(nil)

// NewEventBus creates a running bus with a queue of bufferSize events
func NewEventBus(bufferSize int) *DefaultEventBus {
	bus := &DefaultEventBus{
		subscribers:    make(map[EventType][]subscription),
		queue:          make(chan Event, max(bufferSize, 1)),
		publishTimeout: DefaultPublishTimeout,
		stopCh:         make(chan struct{}),
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// WithPublishTimeout changes how long Publish waits for queue space.
// Zero drops immediately when the queue is full.
func (eb *DefaultEventBus) WithPublishTimeout(timeout time.Duration) *DefaultEventBus {
	eb.publishTimeout = max(timeout, 0)
	return eb
}

// Subscribe registers a handler for a specific event type
func (eb *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	id := SubscriptionID(eb.nextSubID.Add(1))

	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription by ID
func (eb *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for eventType, subs := range eb.subscribers {
		for i, sub := range subs {
			if sub.id != id {
				continue
			}
			// copy so a dispatch holding the old slice is unaffected
			kept := make([]subscription, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			eb.subscribers[eventType] = append(kept, subs[i+1:]...)
			return
		}
	}
}

// Publish queues an event, waiting at most the publish timeout for space
func (eb *DefaultEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-eb.stopCh:
		eb.drop(event, "bus stopped")
		return
	default:
	}

	select {
	case eb.queue <- event:
		eb.published.Add(1)
		return
	default:
	}

	if eb.publishTimeout == 0 {
		eb.drop(event, "queue full")
		return
	}

	timer := time.NewTimer(eb.publishTimeout)
	defer timer.Stop()

	select {
	case eb.queue <- event:
		eb.published.Add(1)
	case <-eb.stopCh:
		eb.drop(event, "bus stopped")
	case <-timer.C:
		eb.drop(event, "queue full")
	}
}

// PublishAsync publishes from a new goroutine
func (eb *DefaultEventBus) PublishAsync(event Event) {
	go eb.Publish(event)
}

// Stop delivers the queued events and waits for the dispatcher.
// Safe to call more than once.
func (eb *DefaultEventBus) Stop() {
	eb.stopOnce.Do(func() {
		close(eb.stopCh)
	})
	eb.wg.Wait()
}

// Stats returns the traffic counters
func (eb *DefaultEventBus) Stats() BusStats {
	return BusStats{
		Published: eb.published.Load(),
		Delivered: eb.delivered.Load(),
		Dropped:   eb.dropped.Load(),
		Panics:    eb.panics.Load(),
	}
}

// SubscriberCount returns the number of subscribers for an event type
func (eb *DefaultEventBus) SubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[eventType])
}

// QueueSize returns the number of events waiting for delivery
func (eb *DefaultEventBus) QueueSize() int {
	return len(eb.queue)
}

func (eb *DefaultEventBus) drop(event Event, reason string) {
	eb.dropped.Add(1)
	log.Warn().Str("event", string(event.Type)).Str("reason", reason).Msg("Dropped event")
}

func (eb *DefaultEventBus) processEvents() {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.queue:
			eb.dispatch(event)

		case <-eb.stopCh:
			for {
				select {
				case event := <-eb.queue:
					eb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (eb *DefaultEventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := eb.subscribers[event.Type]
	eb.mu.RUnlock()

	for _, sub := range subs {
		eb.safeHandlerCall(sub.handler, event)
	}
}

func (eb *DefaultEventBus) safeHandlerCall(handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.panics.Add(1)
			log.Error().Str("event", string(event.Type)).Interface("panic", r).Msg("Event handler panicked")
		}
	}()

	handler(event)
	eb.delivered.Add(1)
}
