package transform

import (
	"context"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// Reducer folds one inner-chain output record into the running
// accumulator.
type Reducer func(acc any, r record.Record) (any, error)

// Reduce applies an inner transformer chain to the value at
// InputKeyPath, wrapped as {_: value}. Inner transformers reach that
// value by setting their own InputKeyPath to {"_"}; an inner
// transformer whose InputKeyPath is unset receives the whole wrapped
// record, not the value. Every inner output is then folded through
// Reducer starting from Init. It produces one
// output record with the final accumulator at OutputKey plus whatever
// OutputConfig copies over from the outer input.
type Reduce struct {
	InputKeyPath record.KeyPath
	Inner        []Transformer
	Init         any
	Reducer      Reducer
	OutputKey    record.KeyPath
	OutputConfig OutputConfig
}

// Transform implements Transformer.
func (rd *Reduce) Transform(ctx context.Context, ictx *InputContext, r record.Record) ([]record.Record, error) {
	v, ok := resolveInput(r, rd.InputKeyPath)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.reduce", "resolve_input",
			"input_key_path absent", true)
	}

	wrapped := record.New()
	wrapped = record.DeepSet(wrapped, record.KeyPath{"_"}, v)

	outs, err := FlatMapApply(ctx, ictx, rd.Inner, wrapped)
	if err != nil {
		return nil, err
	}

	acc := rd.Init
	for _, o := range outs {
		acc, err = rd.Reducer(acc, o)
		if err != nil {
			return nil, etlerr.Wrap(etlerr.CodeRecordIO, "transform.reduce", "fold", err, false)
		}
	}

	out := record.New()
	out = record.DeepSet(out, rd.OutputKey, acc)
	out = rd.OutputConfig.Apply(out, r)

	return []record.Record{out}, nil
}
