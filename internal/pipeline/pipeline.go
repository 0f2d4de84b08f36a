package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/internal/metrics"
	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/extract"
	"github.com/carlosvega/corpusetl/pkg/load"
	"github.com/carlosvega/corpusetl/pkg/record"
	"github.com/carlosvega/corpusetl/pkg/rotary"
	"github.com/carlosvega/corpusetl/pkg/transform"
)

// Pipeline wires one Extractor, a Transformer chain, and one or more
// Loaders into the queue topology of spec.md §4.5: K transformer
// input queues feeding K transformer workers, fanning out into L
// loader output queues feeding L loader workers. It is the
// generalization of the teacher's Dispatcher (one queue, N workers,
// N sinks) to a two-stage queue topology with explicit per-stage
// liveness counters instead of a single isRunning flag.
type Pipeline struct {
	cfg       Config
	extractor extract.Extractor
	chain     []transform.Transformer
	loaders   []load.Loader
	logger    *logrus.Logger
	id        string

	mu     sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc

	inQueues    []chan record.Record
	outQueues   []chan record.Record
	ackCounters []int64

	extractorFinished           atomic.Bool
	transformationPipelineAlive atomic.Int32
	loadersAlive                atomic.Int32
	pipelineStarted             atomic.Bool
	pipelineClosed              atomic.Bool
	interrupted                 atomic.Bool

	extractorWG    sync.WaitGroup
	transformersWG sync.WaitGroup
	loadersWG      sync.WaitGroup

	errMu    sync.Mutex
	firstErr error

	stats *statsCollector
	done  chan struct{}
}

// NewPipeline validates the fatal-configuration-error class of
// spec.md §7 (empty extractor/chain/loader list) and returns a
// Pipeline in state CREATED.
func NewPipeline(cfg Config, extractor extract.Extractor, chain []transform.Transformer, loaders []load.Loader, logger *logrus.Logger) (*Pipeline, error) {
	if extractor == nil {
		return nil, etlerr.New(etlerr.CodeConfigInvalid, "pipeline", "new", "extractor must not be nil", true)
	}
	if len(chain) == 0 {
		return nil, etlerr.New(etlerr.CodeConfigInvalid, "pipeline", "new", "transformer chain must not be empty", true)
	}
	if len(loaders) == 0 {
		return nil, etlerr.New(etlerr.CodeConfigInvalid, "pipeline", "new", "loader list must not be empty", true)
	}

	return &Pipeline{
		cfg:       cfg.withDefaults(),
		extractor: extractor,
		chain:     chain,
		loaders:   loaders,
		logger:    logger,
		id:        uuid.NewString(),
		stats:     newStatsCollector(),
		done:      make(chan struct{}),
	}, nil
}

// State reports the pipeline's current position in the state machine.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Stats returns a point-in-time copy of the pipeline's counters.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// Start spawns the extractor worker, the K transformer workers, the L
// loader workers, and the supervisor goroutine, then returns
// immediately. Call Join to block until the pipeline has fully
// drained. Start is not idempotent: calling it twice on the same
// Pipeline is a fatal configuration error.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StateCreated {
		return etlerr.New(etlerr.CodeConfigInvalid, "pipeline", "start", "pipeline already started", true)
	}
	p.setState(StateStarting)

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	k := p.cfg.MaxTransformationPipelines
	l := len(p.loaders)

	p.inQueues = make([]chan record.Record, k)
	for i := range p.inQueues {
		p.inQueues[i] = make(chan record.Record, p.cfg.TransInQueueMaxSize)
	}
	p.outQueues = make([]chan record.Record, l)
	p.ackCounters = make([]int64, l)
	for j := range p.outQueues {
		p.outQueues[j] = make(chan record.Record, k*p.cfg.TransInQueueMaxSize)
	}

	p.transformationPipelineAlive.Store(int32(k))
	p.loadersAlive.Store(int32(l))
	p.stats.update(func(s *Stats) { s.StartedAt = time.Now() })

	p.extractorWG.Add(1)
	go p.extractorWorker(runCtx)

	p.transformersWG.Add(k)
	for i := 0; i < k; i++ {
		go p.transformerWorker(runCtx, i)
	}

	p.loadersWG.Add(l)
	for j := 0; j < l; j++ {
		go p.loaderWorker(runCtx, j)
	}

	p.pipelineStarted.Store(true)
	p.setState(StateRunning)
	go p.supervise()

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"pipeline_id":         p.id,
			"transformer_workers": k,
			"loader_workers":      l,
			"queue_capacity":      p.cfg.TransInQueueMaxSize,
		}).Info("pipeline started")
	}

	return nil
}

// Join blocks until the pipeline reaches CLOSED, then returns the
// first fatal error observed by any worker, if any.
func (p *Pipeline) Join() error {
	<-p.done
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.firstErr
}

// Stop requests an external interrupt: it marks the pipeline closed,
// cancels every worker's context so they skip the drain and return
// immediately, then waits for the supervisor to finish under a
// one-second watchdog (spec.md §4.5's interrupt shutdown path).
func (p *Pipeline) Stop() error {
	if p.pipelineClosed.Swap(true) {
		<-p.done
		return nil
	}
	p.interrupted.Store(true)
	if p.cancel != nil {
		p.cancel()
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(time.Second):
		return etlerr.New(etlerr.CodeConfigInvalid, "pipeline", "stop",
			"graceful shutdown watchdog exceeded one second", false)
	}
}

// supervise waits on the extractor, transformer and loader worker
// groups in turn, in the order spec.md §4.5 prescribes, advancing the
// state machine as each stage drains, then raises pipelineClosed once
// every worker has joined.
func (p *Pipeline) supervise() {
	p.extractorWG.Wait()
	p.setState(StateDrainingExtractor)

	p.transformersWG.Wait()
	p.setState(StateDrainingTransformers)

	p.loadersWG.Wait()
	p.setState(StateDrainingLoaders)

	p.pipelineClosed.Store(true)
	if p.interrupted.Load() {
		p.setState(StateInterrupted)
	}
	p.setState(StateClosed)
	p.stats.update(func(s *Stats) { s.FinishedAt = time.Now() })

	if p.logger != nil {
		stats := p.stats.snapshot()
		p.logger.WithFields(logrus.Fields{
			"pipeline_id":         p.id,
			"records_extracted":   stats.RecordsExtracted,
			"records_transformed": stats.RecordsTransformed,
			"records_loaded":      stats.RecordsLoaded,
			"records_errored":     stats.RecordsErrored,
			"duration_ms":         stats.FinishedAt.Sub(stats.StartedAt).Milliseconds(),
			"interrupted":         p.interrupted.Load(),
		}).Info("pipeline closed")
	}

	close(p.done)
}

func (p *Pipeline) recordError(component string, err error) {
	p.stats.update(func(s *Stats) { s.RecordsErrored++ })

	p.errMu.Lock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.errMu.Unlock()

	if p.logger != nil {
		p.logger.WithError(err).WithField("component", component).Warn("pipeline: stage reported an error")
	}

	metrics.RecordError(component, string(etlerr.CodeOf(err)))
}

// extractorWorker drains the extractor's record and error channels
// until both are closed, round-robin enqueueing every record onto one
// of the K transformer input queues.
func (p *Pipeline) extractorWorker(ctx context.Context) {
	defer p.extractorWG.Done()
	defer p.extractorFinished.Store(true)

	indices := make([]int, len(p.inQueues))
	for i := range indices {
		indices[i] = i
	}
	rot := rotary.New(indices)

	records, errs := p.extractor.Extract(ctx)

	for records != nil || errs != nil {
		select {
		case r, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			if p.enqueueInput(rot, r) {
				metrics.RecordProcessed("extractor")
				p.stats.update(func(s *Stats) { s.RecordsExtracted++ })
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err == nil {
				continue
			}
			p.recordError("extractor", err)
			if etlerr.IsFatal(err) {
				p.pipelineClosed.Store(true)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// enqueueInput tries every input queue in rotary order with a short
// non-blocking attempt, retrying the full sweep until one accepts or
// the pipeline is closed mid-stream.
func (p *Pipeline) enqueueInput(rot *rotary.Rotary[int], r record.Record) bool {
	for !p.pipelineClosed.Load() {
		acceptedIdx := -1
		accepted := rot.Each(func(idx int) bool {
			select {
			case p.inQueues[idx] <- r:
				acceptedIdx = idx
				return true
			default:
				return false
			}
		})
		if accepted {
			metrics.SetQueueSize("transformer", fmt.Sprintf("in-%d", acceptedIdx), len(p.inQueues[acceptedIdx]), cap(p.inQueues[acceptedIdx]))
			return true
		}
		time.Sleep(p.cfg.QueueNoBlockTimeout)
	}
	return false
}

// transformerWorker dequeues records from its dedicated input queue,
// applies the transformer chain, and fans every surviving output
// record out to every loader's output queue.
func (p *Pipeline) transformerWorker(ctx context.Context, i int) {
	defer p.transformersWG.Done()

	in := p.inQueues[i]
	outIndices := make([]int, len(p.outQueues))
	for j := range outIndices {
		outIndices[j] = j
	}

	stage := fmt.Sprintf("in-%d", i)

	for {
		select {
		case r := <-in:
			metrics.SetQueueSize("transformer", stage, len(in), cap(in))
			p.processRecord(ctx, r, outIndices)

		case <-time.After(p.cfg.QueueBlockTimeout):
			if p.extractorFinished.Load() && p.pipelineStarted.Load() && len(in) == 0 {
				p.transformationPipelineAlive.Add(-1)
				return
			}

		case <-ctx.Done():
			p.transformationPipelineAlive.Add(-1)
			return
		}
	}
}

func (p *Pipeline) processRecord(ctx context.Context, r record.Record, outIndices []int) {
	ictx := transform.NewInputContext(r)
	outs, err := transform.FlatMapApply(ctx, ictx, p.chain, r)
	if err != nil {
		p.recordError("transformer", err)
		if etlerr.IsFatal(err) {
			p.pipelineClosed.Store(true)
		}
		return
	}
	if len(outs) == 0 && p.logger != nil {
		p.logger.WithField("pipeline_id", p.id).Debug("pipeline: transformer chain yielded no records for input")
	}

	metrics.RecordProcessed("transformer")
	p.stats.update(func(s *Stats) { s.RecordsTransformed += int64(len(outs)) })
	for _, out := range outs {
		p.fanOut(out, outIndices)
	}
}

// fanOut delivers r to every loader's output queue using a
// set-of-pending-indices loop: each sweep attempts a non-blocking put
// on every queue that has not yet accepted r, so a single slow sink
// never head-of-line-blocks delivery to the others.
func (p *Pipeline) fanOut(r record.Record, allIndices []int) {
	pending := make(map[int]struct{}, len(allIndices))
	for _, idx := range allIndices {
		pending[idx] = struct{}{}
	}

	for len(pending) > 0 {
		if p.pipelineClosed.Load() {
			return
		}
		for idx := range pending {
			select {
			case p.outQueues[idx] <- r:
				atomic.AddInt64(&p.ackCounters[idx], 1)
				metrics.SetQueueSize("loader", fmt.Sprintf("out-%d", idx), len(p.outQueues[idx]), cap(p.outQueues[idx]))
				delete(pending, idx)
			default:
			}
		}
		if len(pending) > 0 {
			time.Sleep(p.cfg.QueueNoBlockTimeout)
		}
	}
}

// loaderWorker dequeues records from its dedicated output queue and
// hands each one to its loader as a single-record LoadWithAck batch.
func (p *Pipeline) loaderWorker(ctx context.Context, j int) {
	defer p.loadersWG.Done()

	out := p.outQueues[j]
	loader := p.loaders[j]
	name := fmt.Sprintf("loader-%d", j)

	for {
		select {
		case r := <-out:
			metrics.SetQueueSize("loader", fmt.Sprintf("out-%d", j), len(out), cap(out))
			start := time.Now()
			err := loader.LoadWithAck(ctx, p.id, []record.Record{r}, &p.ackCounters[j], false)
			metrics.ObserveBatchDuration(name, time.Since(start))
			if err != nil {
				p.recordError("loader", err)
				if etlerr.IsFatal(err) {
					p.pipelineClosed.Store(true)
				}
				continue
			}
			metrics.RecordSent(name, 1)
			p.stats.update(func(s *Stats) { s.RecordsLoaded++ })

		case <-time.After(p.cfg.QueueBlockTimeout):
			// Drain -> last_call -> close: once upstream is done and the
			// queue is empty, the only way to flush a sub-BufferSize tail
			// still sitting in the loader's buffer is last_call itself, so
			// HasBufferedData must not gate this branch (it would deadlock
			// whenever the record count isn't an exact multiple of
			// BufferSize).
			if p.transformationPipelineAlive.Load() == 0 && len(out) == 0 &&
				atomic.LoadInt64(&p.ackCounters[j]) == 0 {
				if err := loader.LoadWithAck(ctx, p.id, nil, &p.ackCounters[j], true); err != nil {
					p.recordError("loader", err)
				}
				if err := loader.Close(ctx); err != nil {
					p.recordError("loader", err)
				}
				p.loadersAlive.Add(-1)
				return
			}

		case <-ctx.Done():
			_ = loader.Close(ctx)
			p.loadersAlive.Add(-1)
			return
		}
	}
}
