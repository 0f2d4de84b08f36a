package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/record"
)

func dup(factor int) TransformerFunc {
	return func(_ context.Context, _ *InputContext, r record.Record) ([]record.Record, error) {
		out := make([]record.Record, factor)
		for i := range out {
			out[i] = record.Clone(r)
		}
		return out, nil
	}
}

func TestFlatMapApplyFlattensDepthFirst(t *testing.T) {
	chain := []Transformer{dup(2), dup(3)}
	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"x"}, 1)

	out, err := FlatMapApply(context.Background(), NewInputContext(r), chain, r)

	require.NoError(t, err)
	assert.Len(t, out, 6)
}

func TestFlatMapApplyStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := TransformerFunc(func(_ context.Context, _ *InputContext, _ record.Record) ([]record.Record, error) {
		return nil, boom
	})
	chain := []Transformer{dup(2), failing, dup(5)}

	r := record.New()
	out, err := FlatMapApply(context.Background(), NewInputContext(r), chain, r)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
}

func TestFlatMapApplyShortCircuitsOnEmptyOutput(t *testing.T) {
	dropAll := TransformerFunc(func(_ context.Context, _ *InputContext, _ record.Record) ([]record.Record, error) {
		return nil, nil
	})
	called := false
	neverCalled := TransformerFunc(func(_ context.Context, _ *InputContext, _ record.Record) ([]record.Record, error) {
		called = true
		return nil, nil
	})

	out, err := FlatMapApply(context.Background(), NewInputContext(record.New()), []Transformer{dropAll, neverCalled}, record.New())

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, called)
}

func TestInputContextOriginalInput(t *testing.T) {
	orig := record.New()
	orig = record.DeepSet(orig, record.KeyPath{"_"}, "/tmp/a.txt")

	ic := NewInputContext(orig)
	got, ok := ic.OriginalInput()

	require.True(t, ok)
	v, _ := record.DeepGet(got, record.KeyPath{"_"})
	assert.Equal(t, "/tmp/a.txt", v)
}
