package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/events"
)

// EventHandler processes one queued event.
type EventHandler interface {
	EventTypes() []events.EventType
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves event handling off the request path. Events are queued by the
// dispatcher subscription and handled by a fixed number of goroutines.
type NotificationWorker struct {
	handler EventHandler
	logger  *zap.Logger
	queue   chan events.Event
	workers int
	wg      sync.WaitGroup
	once    sync.Once
}

// NewNotificationWorker builds a worker with the given queue size and concurrency.
func NewNotificationWorker(handler EventHandler, logger *zap.Logger, queueSize, workers int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &NotificationWorker{
		handler: handler,
		logger:  logger,
		queue:   make(chan events.Event, queueSize),
		workers: workers,
	}
}

// Subscribe registers the worker's enqueue function for every event the handler supports.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	if dispatcher == nil || w.handler == nil {
		return
	}
	for _, et := range w.handler.EventTypes() {
		dispatcher.Subscribe(et, w.enqueue)
	}
}

// Start launches the worker goroutines. They exit once Stop drains the queue.
func (w *NotificationWorker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Stop closes the queue and waits for in-flight events to finish or ctx to expire.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.once.Do(func() { close(w.queue) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue never blocks the publisher; a full queue drops the event.
func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) (err error) {
	defer func() {
		if recover() != nil {
			w.logger.Warn("notification worker stopped, event dropped", zap.String("event_id", event.ID))
			err = nil
		}
	}()
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, event dropped",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
		)
	}
	return nil
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		// request contexts are gone by now
		if err := w.handler.Handle(context.Background(), event); err != nil {
			w.logger.Warn("notification handling failed",
				zap.String("event_id", event.ID),
				zap.Int64("complaint_id", event.ComplaintID),
				zap.Error(err),
			)
		}
	}
}
