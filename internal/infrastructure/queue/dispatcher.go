package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedlearn/seed-api/internal/api/metrics"
	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the principal, preserving per-principal event ordering.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	service ports.AuditService
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.AuditSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Shutdown has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its principal. It
// never blocks the caller: when the worker's buffer is full, or the
// dispatcher is shut down, the event is dropped and counted.
func (d *Dispatcher) Enqueue(event domain.AuthEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.AuditErrorsTotal.WithLabelValues("dropped").Inc()
		return
	}

	idx := d.shardIndex(shardKey(event))
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditErrorsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("event", string(event.Type)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// Shutdown stops accepting events and waits until queued ones are processed
// or ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardKey picks the most stable identifier the event carries.
func shardKey(event domain.AuthEvent) string {
	switch {
	case event.PrincipalID != 0:
		return string(event.Kind) + ":" + strconv.FormatInt(event.PrincipalID, 10)
	case event.Email != "":
		return event.Email
	default:
		return string(event.Type)
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.process(ctx, id, event)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, event domain.AuthEvent) {
	start := time.Now()

	if err := d.service.Process(ctx, event); err != nil {
		reason := "insert_failed"
		if errors.Is(err, domain.ErrInvalidInput) {
			reason = "invalid_event"
		}
		metrics.AuditErrorsTotal.WithLabelValues(reason).Inc()
		metrics.AuditProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		d.log.Error().Err(err).
			Str("event", string(event.Type)).
			Int64("principal_id", event.PrincipalID).
			Int("worker_id", id).
			Msg("audit event processing failed")
		return
	}

	role := string(event.Role)
	if role == "" {
		role = "none"
	}
	metrics.AuthEventsTotal.WithLabelValues(string(event.Type), role).Inc()
	if event.To != "" {
		metrics.SessionTransitionsTotal.WithLabelValues(string(event.From), string(event.To)).Inc()
	}
	metrics.AuditProcessingDuration.WithLabelValues(string(event.Type)).Observe(time.Since(start).Seconds())
}
