package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// MapperFunc transforms a single scalar value; used by AttributeMapper
// for both derived_values and trans_values chains.
type MapperFunc func(any) (any, error)

// StaticValue sets a fixed value at Path regardless of the input.
type StaticValue struct {
	Path  record.KeyPath
	Value any
}

// DerivedValue reads Src, folds it through Fns in order, and writes
// the result to Dst. Used for both derived_values (Src != Dst) and
// trans_values (Src == Dst, an in-place rewrite).
type DerivedValue struct {
	Src record.KeyPath
	Dst record.KeyPath
	Fns []MapperFunc
}

// AttributeMapper reshapes a record by setting static values, deriving
// new attributes from existing ones, and rewriting attributes in
// place. Spec.md §4.2: a missing Src at a derived/trans step is
// skipped, not an error; the static_values pass always runs first so
// later derived/trans steps can read what it set.
type AttributeMapper struct {
	Component string

	Static  []StaticValue
	Derived []DerivedValue
	Trans   []DerivedValue

	OutputConfig OutputConfig
}

// Transform implements Transformer.
func (m *AttributeMapper) Transform(_ context.Context, _ *InputContext, r record.Record) ([]record.Record, error) {
	out := record.Clone(r)

	for _, sv := range m.Static {
		out = record.DeepSet(out, sv.Path, sv.Value)
	}

	apply := func(step DerivedValue) error {
		v, ok := record.DeepGet(out, step.Src)
		if !ok {
			return nil
		}
		var err error
		for _, fn := range step.Fns {
			v, err = fn(v)
			if err != nil {
				return etlerr.Wrap(etlerr.CodeRecordIO, m.componentName(), "derive", err, false)
			}
		}
		out = record.DeepSet(out, step.Dst, v)
		return nil
	}

	for _, dv := range m.Derived {
		if err := apply(dv); err != nil {
			return nil, err
		}
	}
	for _, tv := range m.Trans {
		if err := apply(tv); err != nil {
			return nil, err
		}
	}

	out = m.OutputConfig.Apply(out, r)

	return []record.Record{out}, nil
}

func (m *AttributeMapper) componentName() string {
	if m.Component != "" {
		return m.Component
	}
	return "transform.attribute_mapper"
}

// Trim returns a MapperFunc that trims leading/trailing whitespace
// from a string value; errors on a non-string input.
func Trim() MapperFunc {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("trim: expected string, got %T", v)
		}
		return strings.TrimSpace(s), nil
	}
}
