// Package notifier fans domain events out to best-effort sinks (email, Kafka,
// websocket) on background workers. Delivery failures are logged and counted,
// never returned to the code that raised the event.
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/certtrack/internal/pkg/metrics"
)

// Kind identifies an event type
type Kind string

const (
	KindStatusChanged Kind = "certificate.status_changed"
	KindWelcome       Kind = "user.welcome"
)

// Event is a notification-worthy occurrence
type Event struct {
	Kind            Kind      `json:"kind"`
	RequestID       int64     `json:"requestId,omitempty"`
	CertificateType string    `json:"certificateType,omitempty"`
	PreviousStatus  string    `json:"previousStatus,omitempty"`
	Status          string    `json:"status,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	UpdatedBy       string    `json:"updatedBy,omitempty"`
	UserID          int64     `json:"userId"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Sink delivers events to one destination
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Config controls queue depth, concurrency and per-delivery timeout
type Config struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Dispatcher is a bounded queue drained by a fixed set of workers
type Dispatcher struct {
	cfg     Config
	sinks   []Sink
	queue   chan Event
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start before enqueueing.
func NewDispatcher(cfg Config, log zerolog.Logger, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		cfg:     cfg,
		sinks:   sinks,
		queue:   make(chan Event, cfg.QueueSize),
		log:     log,
		metrics: m,
	}
}

// Start launches the workers. Extra calls are ignored.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.log.Info().
		Int("workers", d.cfg.Workers).
		Int("queueSize", d.cfg.QueueSize).
		Int("sinks", len(d.sinks)).
		Msg("Notification dispatcher started")
}

// Enqueue hands event to the workers without blocking. It returns false when
// the queue is full or the dispatcher is stopped; the event is then dropped.
func (d *Dispatcher) Enqueue(event Event) bool {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher stopped")
		return false
	}

	select {
	case d.queue <- event:
		return true
	default:
		d.drop(event, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(event Event, reason string) {
	d.metrics.NotificationDropped()
	d.log.Warn().
		Str("kind", string(event.Kind)).
		Int64("requestID", event.RequestID).
		Int64("userID", event.UserID).
		Str("reason", reason).
		Msg("Notification dropped")
}

// Stop refuses new events, lets the workers drain the queue and waits for
// them or for ctx, whichever comes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for event := range d.queue {
		d.dispatch(id, event)
	}
}

func (d *Dispatcher) dispatch(worker int, event Event) {
	for _, sink := range d.sinks {
		err := d.deliver(sink, event)
		d.metrics.NotificationDelivered(sink.Name(), err)
		if err != nil {
			d.log.Error().
				Err(err).
				Int("worker", worker).
				Str("sink", sink.Name()).
				Str("kind", string(event.Kind)).
				Int64("requestID", event.RequestID).
				Int64("userID", event.UserID).
				Msg("Notification delivery failed")
		}
	}
}

// deliver runs one sink with the configured timeout and turns a panic into an error.
func (d *Dispatcher) deliver(sink Sink, event Event) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return sink.Deliver(ctx, event)
}

type panicError struct{ value interface{} }

func (e *panicError) Error() string {
	return fmt.Sprintf("sink panicked: %v", e.value)
}
