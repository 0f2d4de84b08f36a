// Package load implements the Loader contract: terminal consumers
// that buffer Records and flush them to an external sink in batches,
// plus the LoadBalancer that fans batches out across N inner Loaders.
package load

import (
	"context"
	"sync/atomic"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// ValuesPath addresses one column/field a Loader extracts from a
// Record. A record contributes zero rows iff any Required path
// resolves to absent (spec.md §4.3).
type ValuesPath struct {
	Title    string
	Path     record.KeyPath
	Required bool
}

// Loader is the terminal consumer in a pipeline. Every call to Load
// (or LoadWithAck) on a given instance must come from one worker at a
// time; a concurrent second caller is a fatal concurrency violation
// (spec.md §4.3, §7 class 7).
type Loader interface {
	// Load appends rows derived from records to the loader's internal
	// buffer, flushing when the buffer reaches its configured size or
	// lastCall is true.
	Load(ctx context.Context, jobID string, records []record.Record, lastCall bool) error
	// LoadWithAck behaves like Load and additionally decrements
	// ackCounter by len(records) once the records have been accounted
	// for (buffered or flushed), regardless of per-record skips.
	LoadWithAck(ctx context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error
	// Close flushes any remaining buffer and releases external
	// resources. Idempotent.
	Close(ctx context.Context) error
	// HasBufferedData reports whether unflushed rows remain.
	HasBufferedData() bool
}

// singleWriterGuard enforces the Loader single-writer invariant
// without depending on goroutine identity: only one call may be
// in-flight at a time on a given Loader.
type singleWriterGuard struct {
	inUse atomic.Bool
}

func (g *singleWriterGuard) enter(component string) error {
	if !g.inUse.CompareAndSwap(false, true) {
		return etlerr.New(etlerr.CodeConcurrencyViolation, component, "load",
			"concurrent writer detected on single-writer Loader", true)
	}
	return nil
}

func (g *singleWriterGuard) exit() {
	g.inUse.Store(false)
}

// rowFromRecord extracts one row (in ValuesPath order) from r. ok is
// false iff a Required path is absent, in which case the record
// contributes zero rows per spec.md §4.3.
func rowFromRecord(r record.Record, paths []ValuesPath) (row []any, ok bool) {
	row = make([]any, len(paths))
	for i, vp := range paths {
		v, present := record.DeepGet(r, vp.Path)
		if !present {
			if vp.Required {
				return nil, false
			}
			row[i] = nil
			continue
		}
		row[i] = v
	}
	return row, true
}

func decrementAck(ackCounter *int64, n int) {
	if ackCounter == nil {
		return
	}
	atomic.AddInt64(ackCounter, -int64(n))
}
