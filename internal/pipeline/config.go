// Package pipeline implements the Pipeline supervisor: it owns one
// Extractor, an ordered Transformer chain, and one or more Loaders,
// wires them together with bounded queues, and drives the extractor
// -> transformer -> loader stage topology to completion.
package pipeline

import "time"

// Config holds the tunables enumerated in spec.md §6. Zero values are
// clamped up to a sane minimum by NewPipeline rather than rejected,
// mirroring the teacher's DispatcherConfig defaulting style.
type Config struct {
	// MaxTransformationPipelines is K, the fan-out width: the number
	// of parallel transformer-chain workers. Clamped to >= 1.
	MaxTransformationPipelines int

	// TransInQueueMaxSize is the per-transformer-input queue capacity.
	// Clamped to >= 1000. Each loader's output queue is sized
	// K * TransInQueueMaxSize.
	TransInQueueMaxSize int

	// QueueBlockTimeout bounds how long a transformer/loader worker
	// blocks on an empty queue before re-checking shutdown state.
	// Clamped to >= 100ms.
	QueueBlockTimeout time.Duration

	// QueueNoBlockTimeout is how long the extractor worker's rotary
	// enqueue, and a transformer worker's fan-out, sleep after a sweep
	// of non-blocking puts in which no pending queue accepted the
	// record, before sweeping again. Clamped to >= 10ms.
	QueueNoBlockTimeout time.Duration
}

const (
	defaultTransInQueueMaxSize = 1000
	minQueueBlockTimeout       = 100 * time.Millisecond
	minQueueNoBlockTimeout     = 10 * time.Millisecond
)

// withDefaults returns a copy of c with every unset or out-of-range
// field clamped to its floor, exactly as spec.md §6 requires.
func (c Config) withDefaults() Config {
	if c.MaxTransformationPipelines < 1 {
		c.MaxTransformationPipelines = 1
	}
	if c.TransInQueueMaxSize < defaultTransInQueueMaxSize {
		c.TransInQueueMaxSize = defaultTransInQueueMaxSize
	}
	if c.QueueBlockTimeout < minQueueBlockTimeout {
		c.QueueBlockTimeout = minQueueBlockTimeout
	}
	if c.QueueNoBlockTimeout < minQueueNoBlockTimeout {
		c.QueueNoBlockTimeout = minQueueNoBlockTimeout
	}
	return c
}
