// Package extract implements the Extractor contract: a finite lazy
// producer of Records that the pipeline drains exactly once.
package extract

import (
	"context"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// Extractor produces a finite sequence of Records. Extract is called
// exactly once per pipeline run; it must close any channel it returns
// once exhausted so the extractor worker can terminate.
type Extractor interface {
	// Extract returns a channel of Records and an error channel. The
	// record channel is closed when extraction is exhausted; a single
	// error (if any) is sent on the error channel before it is closed.
	// Extract must itself honor ctx cancellation and stop producing
	// promptly once ctx is done.
	Extract(ctx context.Context) (<-chan record.Record, <-chan error)
}
