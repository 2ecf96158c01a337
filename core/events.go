package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/types"
)

// EventType identifies the kind of event published by the distributor.
type EventType string

const (
	EventBucketCreated    EventType = "bucket.created"
	EventClaimed          EventType = "claim.paid"
	EventHalted           EventType = "gate.halted"
	EventSwept            EventType = "gate.swept"
	EventReleasedImported EventType = "ledger.imported"
)

// BucketCreatedEvent is emitted when a bucket is registered.
type BucketCreatedEvent struct {
	Bucket *VestingBucket
}

// ClaimedEvent is emitted after a successful claim payout.
type ClaimedEvent struct {
	BucketID    types.Hash
	Beneficiary types.Address
	Paid        *uint256.Int
	Cumulative  *uint256.Int
}

// SweptEvent is emitted after a successful emergency sweep.
type SweptEvent struct {
	To     types.Address
	Amount *uint256.Int
}

// ReleasedImportedEvent is emitted after a migration import.
type ReleasedImportedEvent struct {
	BucketID types.Hash
	Entries  int
}

// Event is a message published on the event bus.
type Event struct {
	Type      EventType
	Data      interface{}
	Timestamp time.Time
}

// Subscription represents a subscription to one or more event types
// on the EventBus.
type Subscription struct {
	id     uint64
	types  map[EventType]struct{}
	ch     chan Event
	bus    *EventBus
	closed atomic.Bool
}

// Chan returns a read-only channel that receives events matching the
// subscription's event types.
func (s *Subscription) Chan() <-chan Event {
	return s.ch
}

// Unsubscribe removes this subscription from the event bus and closes
// the underlying channel. It is safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.Unsubscribe(s)
	}
}

// EventBus provides a publish/subscribe mechanism for observers of the
// distributor (RPC subscriptions, audit logging). All methods are safe
// for concurrent use.
type EventBus struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
}

// NewEventBus creates a new EventBus. bufferSize controls the channel
// buffer for each subscription; use 0 for unbuffered channels.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &EventBus{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe creates a subscription that receives events matching any of
// the given types.
func (eb *EventBus) Subscribe(types ...EventType) *Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		sub := &Subscription{
			ch:    make(chan Event),
			types: make(map[EventType]struct{}),
		}
		sub.closed.Store(true)
		close(sub.ch)
		return sub
	}

	eb.nextID++
	typeSet := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	sub := &Subscription{
		id:    eb.nextID,
		types: typeSet,
		ch:    make(chan Event, eb.bufferSize),
		bus:   eb,
	}
	eb.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the given subscription from the bus and closes
// its channel. Safe to call multiple times or with nil.
func (eb *EventBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}

	eb.mu.Lock()
	delete(eb.subs, sub.id)
	eb.mu.Unlock()

	close(sub.ch)
}

// Publish sends an event to all matching subscribers without blocking.
// If a subscriber's channel is full, the event is dropped for that
// subscriber; the distributor must never stall on a slow observer.
func (eb *EventBus) Publish(eventType EventType, data interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, sub := range eb.subs {
		if sub.closed.Load() {
			continue
		}
		if _, ok := sub.types[eventType]; ok {
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// Close shuts the bus down and closes all subscription channels.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return
	}
	eb.closed = true
	subs := make([]*Subscription, 0, len(eb.subs))
	for _, sub := range eb.subs {
		subs = append(subs, sub)
	}
	eb.subs = make(map[uint64]*Subscription)
	eb.mu.Unlock()

	for _, sub := range subs {
		if sub.closed.CompareAndSwap(false, true) {
			close(sub.ch)
		}
	}
}
