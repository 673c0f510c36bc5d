package dispatch

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink receives every action the engine emits.
type Sink interface {
	Dispatch(kind Kind, payload any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(kind Kind, payload any)

// Dispatch calls f.
func (f SinkFunc) Dispatch(kind Kind, payload any) { f(kind, payload) }

// Dispatcher is an in-process Sink that fans actions out to prefix subscribers.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	prefix string
	ch     chan Action
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		subs: make(map[int]*subscription),
	}
}

// Dispatch stamps an action and publishes it.
func (d *Dispatcher) Dispatch(kind Kind, payload any) {
	d.Publish(Action{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Publish sends act to all subscribers whose prefix matches act.Kind.
func (d *Dispatcher) Publish(act Action) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subs {
		if strings.HasPrefix(string(act.Kind), sub.prefix) {
			select {
			case sub.ch <- act:
			default:
				// Subscriber is full; drop.
			}
		}
	}
}

// Subscribe returns a channel receiving actions whose kind starts with prefix.
// An empty prefix matches everything. The returned func unsubscribes.
func (d *Dispatcher) Subscribe(prefix string, bufSize int) (<-chan Action, func()) {
	ch := make(chan Action, bufSize)
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = &subscription{prefix: prefix, ch: ch}
	d.mu.Unlock()

	return ch, func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

var _ Sink = (*Dispatcher)(nil)
