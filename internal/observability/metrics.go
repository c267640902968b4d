package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/complaint-portal/internal/events"
)

// Metrics provides in-memory counters for requests, errors and complaint events.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestMillis map[string]int64
	errorCount    map[string]int64
	eventCount    map[events.EventType]int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests         map[string]int64 `json:"requests"`
	RequestMillisSum map[string]int64 `json:"request_millis_sum"`
	Errors           map[string]int64 `json:"errors"`
	Events           map[string]int64 `json:"events"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		requestMillis: make(map[string]int64),
		errorCount:    make(map[string]int64),
		eventCount:    make(map[events.EventType]int64),
	}
}

// RecordRequest counts a finished request keyed by route, method and status.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := route + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError counts an error response keyed by route pattern, method and error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	key := route + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Subscribe counts every published complaint event.
func (m *Metrics) Subscribe(dispatcher events.Dispatcher, types ...events.EventType) {
	if m == nil || dispatcher == nil {
		return
	}
	for _, et := range types {
		dispatcher.Subscribe(et, m.recordEvent)
	}
}

func (m *Metrics) recordEvent(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[event.Type]++
	return nil
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Requests:         map[string]int64{},
		RequestMillisSum: map[string]int64{},
		Errors:           map[string]int64{},
		Events:           map[string]int64{},
	}
	if m == nil {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		s.Requests[k] = v
	}
	for k, v := range m.requestMillis {
		s.RequestMillisSum[k] = v
	}
	for k, v := range m.errorCount {
		s.Errors[k] = v
	}
	for k, v := range m.eventCount {
		s.Events[string(k)] = v
	}
	return s
}
