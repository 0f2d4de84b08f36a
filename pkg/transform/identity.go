package transform

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// Identity passes every record through unchanged. It exists so a
// pipeline stage can be configured with an empty transformer chain
// without special-casing the zero-transformer case.
type Identity struct {
	Logger *logrus.Logger
}

// Transform implements Transformer.
func (t *Identity) Transform(_ context.Context, _ *InputContext, r record.Record) ([]record.Record, error) {
	if t.Logger != nil {
		t.Logger.WithField("component", "transform.identity").Debug("passthrough")
	}
	return []record.Record{r}, nil
}
