// Package events is the in-process publish/subscribe bus that decouples
// the sentence reader, the fix tracker, the zone monitor and the alert
// renderer.
//
// Producers Queue events from any goroutine without blocking; a single
// Run loop dispatches them to listeners in order.
package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

type Code int

const (
	// SentenceReceived carries one complete NMEA line in Event.Line.
	SentenceReceived Code = iota + 1
	// ReceptionChanged carries the new reception state in Param (1 or 0).
	ReceptionChanged
	// FixUpdated signals that the tracker holds a new active fix.
	FixUpdated
	// AlertTriggered carries the signed alert magnitude in Param.
	AlertTriggered
	// AlertReset clears any active alert.
	AlertReset
)

func (c Code) String() string {
	switch c {
	case SentenceReceived:
		return "sentence_received"
	case ReceptionChanged:
		return "reception_changed"
	case FixUpdated:
		return "fix_updated"
	case AlertTriggered:
		return "alert_triggered"
	case AlertReset:
		return "alert_reset"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

type Event struct {
	Code  Code
	Param int
	// Line is only set for SentenceReceived. Listeners must not retain it.
	Line []byte
}

// Handler is invoked on the dispatch goroutine.
type Handler func(Event)

// Queuer is the producer side of the bus.
type Queuer interface {
	Queue(ev Event) bool
}

const defaultQueueSize = 64

type Bus struct {
	mu        sync.RWMutex
	listeners map[Code][]Handler
	any       []Handler

	queue   chan Event
	dropped atomic.Uint64
}

func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Bus{
		listeners: make(map[Code][]Handler),
		queue:     make(chan Event, queueSize),
	}
}

// Subscribe registers h for one event code. Listeners run in
// registration order.
func (b *Bus) Subscribe(code Code, h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	b.listeners[code] = append(b.listeners[code], h)
	b.mu.Unlock()
}

// SubscribeAll registers h for every event code, after the code-specific
// listeners.
func (b *Bus) SubscribeAll(h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	b.any = append(b.any, h)
	b.mu.Unlock()
}

// Queue enqueues ev for the dispatch loop. It never blocks; when the
// queue is full the event is dropped and false is returned.
func (b *Bus) Queue(ev Event) bool {
	if b == nil {
		return false
	}
	select {
	case b.queue <- ev:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Dispatch delivers ev synchronously on the caller's goroutine.
func (b *Bus) Dispatch(ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.listeners[ev.Code]
	all := b.any
	b.mu.RUnlock()
	for _, h := range hs {
		h(ev)
	}
	for _, h := range all {
		h(ev)
	}
}

// Drain dispatches everything currently queued and returns the number of
// events handled. Events queued by listeners during the drain are handled
// too.
func (b *Bus) Drain() int {
	if b == nil {
		return 0
	}
	n := 0
	for {
		select {
		case ev := <-b.queue:
			b.Dispatch(ev)
			n++
		default:
			return n
		}
	}
}

// Run dispatches queued events until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	if b == nil {
		return fmt.Errorf("events: bus is nil")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-b.queue:
			b.Dispatch(ev)
		}
	}
}

// Dropped returns how many events were discarded because the queue was
// full.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}
