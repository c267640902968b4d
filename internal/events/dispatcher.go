package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans complaint events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type routes map[EventType][]EventHandler

// localDispatcher calls handlers synchronously in subscription order. Publish reads an
// immutable routing table, so subscribers may be added while events are in flight.
type localDispatcher struct {
	writeMu sync.Mutex
	table   atomic.Pointer[routes]
	onError func(Event, error)
}

// NewInMemoryDispatcher creates a process-local dispatcher. onError, when set, is told about
// each failing or panicking handler.
func NewInMemoryDispatcher(onError func(Event, error)) Dispatcher {
	d := &localDispatcher{onError: onError}
	d.table.Store(&routes{})
	return d
}

// Publish runs every handler for event.Type. A failing handler does not stop the rest; the
// failures come back joined.
func (d *localDispatcher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range (*d.table.Load())[event.Type] {
		if err := d.call(ctx, handler, event); err != nil {
			if d.onError != nil {
				d.onError(event, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *localDispatcher) call(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v", event.Type, r)
		}
	}()
	return handler(ctx, event)
}

// Subscribe adds handler for eventType. Nil handlers are ignored.
func (d *localDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	current := *d.table.Load()
	next := make(routes, len(current)+1)
	for et, handlers := range current {
		next[et] = handlers
	}
	next[eventType] = append(append([]EventHandler(nil), current[eventType]...), handler)
	d.table.Store(&next)
}
