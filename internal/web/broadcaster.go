package web

import (
	"context"
	"sync"
	"time"

	"zonealert/internal/events"
)

// Broadcaster fans status snapshots out to websocket listeners. Bus events
// only mark the status dirty; a burst of events produces one snapshot.
type Broadcaster struct {
	status      *Status
	minInterval time.Duration

	kick chan struct{}

	mu     sync.RWMutex
	subs   map[int]chan StatusSnapshot
	nextID int
}

func NewBroadcaster(status *Status, minInterval time.Duration) *Broadcaster {
	if minInterval < 0 {
		minInterval = 0
	}
	return &Broadcaster{
		status:      status,
		minInterval: minInterval,
		kick:        make(chan struct{}, 1),
		subs:        make(map[int]chan StatusSnapshot),
	}
}

// Attach counts every bus event and schedules a push.
func (b *Broadcaster) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(events.Event) {
		b.status.MarkEvent()
		b.Notify()
	})
}

// Notify schedules a push without blocking.
func (b *Broadcaster) Notify() {
	select {
	case b.kick <- struct{}{}:
	default:
	}
}

func (b *Broadcaster) Subscribe(buffer int) (int, <-chan StatusSnapshot) {
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan StatusSnapshot, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish sends snap to every listener. Slow listeners miss snapshots.
func (b *Broadcaster) Publish(snap StatusSnapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Run publishes a fresh snapshot after each Notify, at most once per
// minInterval, until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.kick:
		}
		b.Publish(b.status.Snapshot(time.Now().UTC()))

		if b.minInterval > 0 {
			t := time.NewTimer(b.minInterval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
}
