package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// EventType identifies what subscribers are listening for
type EventType int

// SubscriptionOptions configures the behavior of a subscription
type SubscriptionOptions struct {
	// If true, the bus blocks until the subscriber's channel accepts the event. Otherwise the event is dropped for
	// that subscriber when its channel is full.
	IsBlocking bool
}

// SubscriberID is returned by Subscribe and is required to Unsubscribe
type SubscriberID uint64

var nextSubscriberID uint64

// Event carries a typed payload. Event[A] and Event[B] are distinct types, so a subscriber only ever receives the
// payload type it asked for.
type Event[T any] struct {
	Type    EventType
	Payload T
}

func NewEvent[T any](eventType EventType, payload T) *Event[T] {
	return &Event[T]{
		Type:    eventType,
		Payload: payload,
	}
}

// subscriber erases the channel's element type so subscribers of every payload type fit in one registry. deliver
// and close are closures over the typed channel.
type subscriber struct {
	deliver func(eventType EventType, payload any) bool
	close   func()

	opts    SubscriptionOptions
	dropped atomic.Uint64
}

type message struct {
	eventType EventType
	payload   any
}

// Bus is a thread-safe publish/subscribe broker. Published events are queued and fanned out by a single goroutine,
// so each subscriber sees events in publish order.
type Bus struct {
	mu sync.RWMutex
	wg sync.WaitGroup

	registry map[EventType]map[SubscriberID]*subscriber
	queue    chan message
	closed   atomic.Bool

	logger logrus.FieldLogger
}

// NewBus starts a bus whose publish queue holds up to buffer events
func NewBus(buffer int, logger logrus.FieldLogger) *Bus {
	b := &Bus{
		registry: make(map[EventType]map[SubscriberID]*subscriber),
		queue:    make(chan message, buffer),
		logger:   logger,
	}

	b.wg.Add(1)
	go b.run()

	return b
}

// Subscribe registers ch for events of eventType. The caller owns the channel's buffer size; the bus closes the
// channel on Unsubscribe or Shutdown.
//
// Subscribe is a function rather than a method because Go methods cannot declare type parameters.
func Subscribe[T any](b *Bus, eventType EventType, ch chan *Event[T], opts SubscriptionOptions) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := SubscriberID(atomic.AddUint64(&nextSubscriberID, 1))

	sub := &subscriber{
		opts: opts,
		deliver: func(evType EventType, payload any) bool {
			typed, ok := payload.(T)
			if !ok {
				b.logger.Warnf("[BUS] Type mismatch for event %v: expected %T, got %T", evType, *new(T), payload)
				return false
			}

			event := &Event[T]{Type: evType, Payload: typed}
			if opts.IsBlocking {
				ch <- event
				return true
			}
			select {
			case ch <- event:
				return true
			default:
				return false
			}
		},
		close: func() {
			close(ch)
		},
	}

	if _, ok := b.registry[eventType]; !ok {
		b.registry[eventType] = make(map[SubscriberID]*subscriber)
	}
	b.registry[eventType][id] = sub

	return id
}

// Unsubscribe removes the subscription and closes its channel
func (b *Bus) Unsubscribe(eventType EventType, id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.registry[eventType]
	if !ok {
		return
	}
	sub, ok := subs[id]
	if !ok {
		return
	}

	delete(subs, id)
	sub.close()
	if len(subs) == 0 {
		delete(b.registry, eventType)
	}
	b.logger.Debugf("[BUS] Unsubscribed %d from event type %v", id, eventType)
}

// Publish queues event for delivery and never blocks. It reports false when the event was dropped, either because
// the bus is shut down or because the publish queue is full.
func Publish[T any](b *Bus, event *Event[T]) bool {
	// Holding the read lock keeps Shutdown from closing the queue between the check and the send
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed.Load() {
		b.logger.Warnf("[BUS] Dropping event %v published after shutdown", event.Type)
		return false
	}

	select {
	case b.queue <- message{eventType: event.Type, payload: event.Payload}:
		return true
	default:
		b.logger.Warnf("[BUS] Dropping event %v, publish queue is full", event.Type)
		return false
	}
}

// Shutdown stops accepting events, delivers everything already queued, closes every subscriber channel and waits
// for the fan-out goroutine to exit. It is safe to call more than once.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		b.wg.Wait()
		return
	}
	b.closed.Store(true)
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, subs := range b.registry {
		for _, sub := range subs {
			sub.close()
		}
		delete(b.registry, eventType)
	}
	b.logger.Debug("[BUS] Shut down")
}

// Dropped returns how many events subscriber id has missed because its channel was full
func (b *Bus) Dropped(eventType EventType, id SubscriberID) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if sub, ok := b.registry[eventType][id]; ok {
		return sub.dropped.Load()
	}
	return 0
}

func (b *Bus) run() {
	defer b.wg.Done()

	for msg := range b.queue {
		b.mu.RLock()
		for id, sub := range b.registry[msg.eventType] {
			if !sub.deliver(msg.eventType, msg.payload) && !sub.opts.IsBlocking {
				sub.dropped.Add(1)
				b.logger.Warnf("[BUS] Dropped event %v for subscriber %d (channel full)", msg.eventType, id)
			}
		}
		b.mu.RUnlock()
	}
}
