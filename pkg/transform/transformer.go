// Package transform implements the Transformer algebra: the
// one-to-many record mapper, its depth-first flattening composition
// (FlatMapApply), and the concrete variants (Identity, AttributeMapper,
// FileToLines, FileToText, Tokenizer, Reduce, UniqueFilter).
package transform

import (
	"context"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// InputItemKey is the reserved InputContext key under which the
// original top-level input record is stashed for downstream reads.
const InputItemKey = "__input_item__"

// Transformer maps one input Record to zero or more output Records.
// A nil slice with a nil error means the record was dropped silently.
// A non-nil error aborts the surrounding FlatMapApply/pipeline.
type Transformer interface {
	Transform(ctx context.Context, ictx *InputContext, r record.Record) ([]record.Record, error)
}

// TransformerFunc adapts a plain function to the Transformer
// interface.
type TransformerFunc func(ctx context.Context, ictx *InputContext, r record.Record) ([]record.Record, error)

// Transform implements Transformer.
func (f TransformerFunc) Transform(ctx context.Context, ictx *InputContext, r record.Record) ([]record.Record, error) {
	return f(ctx, ictx, r)
}

// InputContext is a per-top-level-input mutable map threaded
// explicitly through a transformer chain. It is never shared across
// concurrent input records.
type InputContext struct {
	data map[string]any
}

// NewInputContext returns a context with the original input record
// stashed under InputItemKey.
func NewInputContext(original record.Record) *InputContext {
	ic := &InputContext{data: make(map[string]any)}
	ic.Set(InputItemKey, original)
	return ic
}

// Get retrieves a value stashed in the context.
func (ic *InputContext) Get(key string) (any, bool) {
	v, ok := ic.data[key]
	return v, ok
}

// Set stashes a value in the context under key.
func (ic *InputContext) Set(key string, value any) {
	ic.data[key] = value
}

// OriginalInput returns the record stashed under InputItemKey.
func (ic *InputContext) OriginalInput() (record.Record, bool) {
	v, ok := ic.Get(InputItemKey)
	if !ok {
		return nil, false
	}
	r, ok := v.(record.Record)
	return r, ok
}

// FlatMapApply composes a chain of Transformers by depth-first
// flattening: given [T1..Tn] and input r, the result is
// Tn(...(T2(x) for x in T1(r))...). A nil intermediate output list is
// dropped silently at each stage. The first transformer error aborts
// the whole application and is propagated to the caller.
func FlatMapApply(ctx context.Context, ictx *InputContext, chain []Transformer, r record.Record) ([]record.Record, error) {
	current := []record.Record{r}

	for _, t := range chain {
		var next []record.Record
		for _, in := range current {
			out, err := t.Transform(ctx, ictx, in)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		current = next
		if len(current) == 0 {
			break
		}
	}

	return current, nil
}

// resolveInput reads the configured input_key_path from r. An empty
// path means "whole record"; per spec.md §4.2, an absent value at a
// non-empty path is the caller's responsibility to treat as fatal.
func resolveInput(r record.Record, path record.KeyPath) (any, bool) {
	if len(path) == 0 {
		return r, true
	}
	return record.DeepGet(r, path)
}

// OutputConfig is the copy_values_key_paths / remove_key_paths shape
// shared by several transformer contracts (spec.md §3).
type OutputConfig struct {
	CopyValuesKeyPaths []record.CopyPair
	RemoveKeyPaths     []record.KeyPath
}

// Apply copies configured values from the original input into out,
// then strips the configured remove paths.
func (c OutputConfig) Apply(out, input record.Record) record.Record {
	out = record.CopyValues(out, input, c.CopyValuesKeyPaths)
	for _, p := range c.RemoveKeyPaths {
		out = record.DeepRemove(out, p)
	}
	return out
}
