package events

import (
	"context"
	"sync"
)

// Dispatcher schedules fn to run on the single logical UI thread. Work that
// finishes on another goroutine (service calls, timers) must come back
// through a Dispatcher before touching the document.
type Dispatcher interface {
	Post(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Post calls f(fn).
func (f DispatcherFunc) Post(fn func()) { f(fn) }

// Loop is a Dispatcher backed by one goroutine draining an unbounded queue.
// It is the headless stand-in for a UI event loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// NewLoop returns a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. Posting to a stopped loop drops fn.
func (l *Loop) Post(fn func()) {
	l.post(fn)
}

func (l *Loop) post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(fn func()) {
	done := make(chan struct{})
	if !l.post(func() {
		defer close(done)
		fn()
	}) {
		return
	}
	<-done
}

// Run drains the queue until ctx is cancelled. Work still queued when the
// loop stops is run before Run returns so no Do caller is left waiting.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if l.drain() {
			continue
		}
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.mu.Unlock()
			l.drain()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() bool {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch) > 0
}
