package load

import (
	"context"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// ConditionalLoader wraps another Loader and gates every method on a
// predicate. When gated off, the wrapped loader is never called, but
// LoadWithAck still decrements the ack counter so the pipeline's
// in-flight accounting stays correct (spec.md §4.3).
type ConditionalLoader struct {
	Inner     Loader
	Predicate func() bool
}

func (c *ConditionalLoader) allowed() bool {
	return c.Predicate == nil || c.Predicate()
}

// Load implements Loader.
func (c *ConditionalLoader) Load(ctx context.Context, jobID string, records []record.Record, lastCall bool) error {
	if !c.allowed() {
		return nil
	}
	return c.Inner.Load(ctx, jobID, records, lastCall)
}

// LoadWithAck implements Loader.
func (c *ConditionalLoader) LoadWithAck(ctx context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error {
	if !c.allowed() {
		decrementAck(ackCounter, len(records))
		return nil
	}
	return c.Inner.LoadWithAck(ctx, jobID, records, ackCounter, lastCall)
}

// Close implements Loader.
func (c *ConditionalLoader) Close(ctx context.Context) error {
	if !c.allowed() {
		return nil
	}
	return c.Inner.Close(ctx)
}

// HasBufferedData implements Loader.
func (c *ConditionalLoader) HasBufferedData() bool {
	if !c.allowed() {
		return false
	}
	return c.Inner.HasBufferedData()
}
