package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medora/hospital-system/internal/core/ports"
	"github.com/medora/hospital-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	deliverTimeout = 5 * time.Second
)

// Dispatcher delivers notifications on a fixed set of workers. Notifications
// for the same user always land on the same worker, so they are stored in the
// order they were enqueued.
type Dispatcher struct {
	workers []chan ports.NotificationInput
	service ports.NotificationService
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards closed. Enqueue holds the read lock while it sends, so once
	// closed is set nothing new reaches the channels and drain sees it all.
	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.NotificationService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.NotificationInput, numWorkers),
		service: service,
		log:     log,
		stopped: make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.NotificationInput, channelBuffer)
	}
	return d
}

// Start launches the workers. They drain their queues and exit once ctx is
// cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.stopped)
	}()
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands n to its user's worker. It never blocks the caller: when the
// worker queue is full, or the dispatcher has shut down, the notification is
// dropped and logged.
func (d *Dispatcher) Enqueue(n ports.NotificationInput) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("user_id", n.UserID).Msg("dispatcher stopped, dropping notification")
		return
	}
	select {
	case d.workers[d.shardIndex(n.UserID)] <- n:
		metrics.NotificationsTotal.WithLabelValues("queued").Inc()
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("user_id", n.UserID).Msg("notification queue full, dropping")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.NotificationInput) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			<-d.stopped
			d.drain(id, ch)
			return
		case n := <-ch:
			d.deliver(context.WithoutCancel(ctx), id, n)
		}
	}
}

// drain delivers whatever is still buffered after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan ports.NotificationInput) {
	for {
		select {
		case n := <-ch:
			d.deliver(context.Background(), id, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, n ports.NotificationInput) {
	ctx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()

	if err := d.service.Deliver(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("user_id", n.UserID).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("delivered").Inc()
}
