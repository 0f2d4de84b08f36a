package load

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
	"github.com/carlosvega/corpusetl/pkg/rotary"
)

// batch is one unit of work handed to an inner loader worker.
type batch struct {
	jobID      string
	records    []record.Record
	ackCounter *int64
	lastCall   bool
}

// LoadBalancer owns N inner Loaders and N bounded queues and
// distributes batches round-robin across them (spec.md §4.4). On the
// first Load call it spawns one worker per inner loader; the enqueue
// side tries each queue in rotary order with a short non-blocking
// timeout until one accepts. Flush trigger: the balancer's own local
// buffer reaches BufferSize, or LastCall is true.
type LoadBalancer struct {
	Inner          []Loader
	QueueCapacity  int
	BufferSize     int
	EnqueueTimeout time.Duration // how long enqueue sweeps with non-blocking puts before blocking
	Logger         *logrus.Logger

	guard  singleWriterGuard
	once   sync.Once
	queues []chan batch
	rot    *rotary.Rotary[int]
	wg     sync.WaitGroup
	closed atomic.Bool

	// pending accumulates whole Load/LoadWithAck calls (each keeping
	// its own ack counter) until BufferSize records have accrued
	// across them or lastCall fires; then every pending call is
	// enqueued as its own batch, preserving its ack counter.
	pending        []batch
	pendingRecords int
}

func (lb *LoadBalancer) start() error {
	if len(lb.Inner) < 2 {
		return etlerr.New(etlerr.CodeConfigInvalid, "load.balancer", "start",
			"at least two inner loaders are required", true)
	}
	if lb.QueueCapacity <= 0 {
		lb.QueueCapacity = 1000
	}
	if lb.BufferSize <= 0 {
		lb.BufferSize = 500
	}
	if lb.EnqueueTimeout <= 0 {
		lb.EnqueueTimeout = 10 * time.Millisecond
	}

	lb.queues = make([]chan batch, len(lb.Inner))
	indices := make([]int, len(lb.Inner))
	for i := range lb.Inner {
		lb.queues[i] = make(chan batch, lb.QueueCapacity)
		indices[i] = i
	}
	lb.rot = rotary.New(indices)

	lb.wg.Add(len(lb.Inner))
	for i := range lb.Inner {
		go lb.worker(i)
	}
	return nil
}

func (lb *LoadBalancer) worker(i int) {
	defer lb.wg.Done()
	inner := lb.Inner[i]
	q := lb.queues[i]

	for b := range q {
		if err := inner.LoadWithAck(context.Background(), b.jobID, b.records, b.ackCounter, b.lastCall); err != nil {
			if lb.Logger != nil {
				lb.Logger.WithError(err).WithFields(logrus.Fields{
					"loader_index": i, "job_id": b.jobID,
				}).Error("load_balancer: inner loader returned error")
			}
		}
	}
}

// enqueue sweeps the queues in rotary order with non-blocking puts
// until one accepts b; once EnqueueTimeout has elapsed without success
// it blocks on the next queue in rotation.
func (lb *LoadBalancer) enqueue(b batch) {
	deadline := time.Now().Add(lb.EnqueueTimeout)
	for {
		accepted := lb.rot.Each(func(idx int) bool {
			select {
			case lb.queues[idx] <- b:
				return true
			default:
				return false
			}
		})
		if accepted {
			return
		}
		if time.Now().After(deadline) {
			// Block on the next queue in rotation rather than drop;
			// bounded queues apply back-pressure, they never discard.
			idx := lb.rot.Next()
			lb.queues[idx] <- b
			return
		}
	}
}

// Load implements Loader: it buffers records locally and, once
// BufferSize is reached or lastCall fires, hands the accumulated
// batch to enqueue.
func (lb *LoadBalancer) Load(ctx context.Context, jobID string, records []record.Record, lastCall bool) error {
	return lb.LoadWithAck(ctx, jobID, records, nil, lastCall)
}

// LoadWithAck implements Loader.
func (lb *LoadBalancer) LoadWithAck(_ context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error {
	if err := lb.guard.enter("load.balancer"); err != nil {
		return err
	}
	defer lb.guard.exit()

	if lb.closed.Load() {
		return etlerr.New(etlerr.CodeConfigInvalid, "load.balancer", "load",
			"load called after last_call", true)
	}

	var startErr error
	lb.once.Do(func() { startErr = lb.start() })
	if startErr != nil {
		return startErr
	}

	lb.pending = append(lb.pending, batch{jobID: jobID, records: records, ackCounter: ackCounter, lastCall: lastCall})
	lb.pendingRecords += len(records)

	if lb.pendingRecords >= lb.BufferSize || lastCall {
		for _, b := range lb.pending {
			lb.enqueue(b)
		}
		lb.pending = nil
		lb.pendingRecords = 0
		if lastCall {
			lb.closed.Store(true)
		}
	}

	return nil
}

// Close implements Loader: flushes the balancer's own buffer, closes
// every queue so each worker exits once it has drained its queue,
// joins all workers, then closes every inner loader. A second Close
// returns nil.
func (lb *LoadBalancer) Close(ctx context.Context) error {
	if err := lb.guard.enter("load.balancer"); err != nil {
		return err
	}
	defer lb.guard.exit()

	if lb.queues == nil {
		return nil
	}

	for _, b := range lb.pending {
		b.lastCall = true
		lb.enqueue(b)
	}
	lb.pending = nil
	lb.pendingRecords = 0
	lb.closed.Store(true)

	for _, q := range lb.queues {
		close(q)
	}
	lb.wg.Wait()
	lb.queues = nil

	var firstErr error
	for _, inner := range lb.Inner {
		if err := inner.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// HasBufferedData implements Loader.
func (lb *LoadBalancer) HasBufferedData() bool {
	if len(lb.pending) > 0 {
		return true
	}
	for _, inner := range lb.Inner {
		if inner.HasBufferedData() {
			return true
		}
	}
	return false
}
