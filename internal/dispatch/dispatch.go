// Package dispatch implements the fan-out primitive shared by the MQTT and
// AMQP clients: one stream of events broadcast to many subscribers, each of
// which can be created on demand and dropped independently.
package dispatch

import "sync"

// Listener is one subscriber's receive side of a Dispatcher. Close it when
// done; a closed listener is removed from the dispatcher no later than the
// next event delivery attempt.
type Listener[T any] struct {
	ch     chan T
	d      *Dispatcher[T]
	mu     sync.Mutex
	closed bool
}

// C returns the channel events arrive on.
func (l *Listener[T]) C() <-chan T {
	return l.ch
}

// Close removes l from its dispatcher and closes its channel. Safe to call
// more than once.
func (l *Listener[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.d.remove(l)
	close(l.ch)
}

func (l *Listener[T]) send(v T) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.mu.Unlock()

	select {
	case l.ch <- v:
		return true
	default:
		return false
	}
}

// Dispatcher owns a set of listeners behind one coarse mutex and copies each
// inbound event to every listener currently registered. A listener whose
// channel is full (depth 1, so this means the subscriber hasn't drained the
// previous event) or whose Close has been called is dropped from the set on
// the next delivery pass.
type Dispatcher[T any] struct {
	mu        sync.Mutex
	listeners []*Listener[T]
}

// New returns an empty dispatcher.
func New[T any]() *Dispatcher[T] {
	return &Dispatcher[T]{}
}

// Listen registers a new listener with a receive channel of depth 1.
func (d *Dispatcher[T]) Listen() *Listener[T] {
	l := &Listener[T]{ch: make(chan T, 1), d: d}

	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()

	return l
}

// Dispatch copies v to every live listener, dropping listeners that failed
// to receive it (full channel or already closed).
func (d *Dispatcher[T]) Dispatch(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var dead []int
	for i, l := range d.listeners {
		if !l.send(v) {
			dead = append(dead, i)
		}
	}
	for i := len(dead) - 1; i >= 0; i-- {
		idx := dead[i]
		d.listeners = append(d.listeners[:idx], d.listeners[idx+1:]...)
	}
}

// remove drops l from the listener set without closing its channel (the
// caller, Listener.Close, does that itself).
func (d *Dispatcher[T]) remove(l *Listener[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, candidate := range d.listeners {
		if candidate == l {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

// Len reports the current listener count; intended for tests and metrics.
func (d *Dispatcher[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// CloseAll closes every currently registered listener, draining the
// dispatcher. Called when the owning client shuts down.
func (d *Dispatcher[T]) CloseAll() {
	d.mu.Lock()
	listeners := d.listeners
	d.listeners = nil
	d.mu.Unlock()

	for _, l := range listeners {
		l.mu.Lock()
		already := l.closed
		l.closed = true
		l.mu.Unlock()
		if !already {
			close(l.ch)
		}
	}
}
