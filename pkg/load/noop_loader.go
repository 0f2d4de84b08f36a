package load

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// NoopLoader discards every record; useful for pipeline dry runs and
// tests. Debug logs the batch size when a Logger is configured.
type NoopLoader struct {
	Logger *logrus.Logger
	guard  singleWriterGuard
}

// Load implements Loader.
func (n *NoopLoader) Load(_ context.Context, jobID string, records []record.Record, lastCall bool) error {
	if err := n.guard.enter("load.noop"); err != nil {
		return err
	}
	defer n.guard.exit()

	if n.Logger != nil {
		n.Logger.WithFields(logrus.Fields{
			"job_id": jobID, "records": len(records), "last_call": lastCall,
		}).Debug("noop loader discarding batch")
	}
	return nil
}

// LoadWithAck implements Loader.
func (n *NoopLoader) LoadWithAck(ctx context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error {
	if err := n.Load(ctx, jobID, records, lastCall); err != nil {
		return err
	}
	decrementAck(ackCounter, len(records))
	return nil
}

// Close implements Loader.
func (n *NoopLoader) Close(_ context.Context) error { return nil }

// HasBufferedData implements Loader.
func (n *NoopLoader) HasBufferedData() bool { return false }
