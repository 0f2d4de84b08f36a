package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/record"
)

func upper() MapperFunc {
	return func(v any) (any, error) {
		s := v.(string)
		out := ""
		for _, r := range s {
			if r >= 'a' && r <= 'z' {
				r -= 32
			}
			out += string(r)
		}
		return out, nil
	}
}

func TestAttributeMapperStaticAndDerivedAndTrans(t *testing.T) {
	m := &AttributeMapper{
		Static: []StaticValue{
			{Path: record.KeyPath{"source"}, Value: "corpus"},
		},
		Derived: []DerivedValue{
			{Src: record.KeyPath{"word"}, Dst: record.KeyPath{"word_upper"}, Fns: []MapperFunc{upper()}},
		},
		Trans: []DerivedValue{
			{Src: record.KeyPath{"word"}, Dst: record.KeyPath{"word"}, Fns: []MapperFunc{Trim()}},
		},
	}

	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"word"}, "  hello  ")

	out, err := m.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	require.Len(t, out, 1)

	word, _ := record.DeepGet(out[0], record.KeyPath{"word"})
	wordUpper, _ := record.DeepGet(out[0], record.KeyPath{"word_upper"})
	source, _ := record.DeepGet(out[0], record.KeyPath{"source"})

	assert.Equal(t, "hello", word)
	assert.Equal(t, "  HELLO  ", wordUpper)
	assert.Equal(t, "corpus", source)
}

func TestAttributeMapperSkipsMissingSrc(t *testing.T) {
	m := &AttributeMapper{
		Derived: []DerivedValue{
			{Src: record.KeyPath{"absent"}, Dst: record.KeyPath{"derived"}, Fns: []MapperFunc{Trim()}},
		},
	}

	out, err := m.Transform(context.Background(), nil, record.New())

	require.NoError(t, err)
	require.Len(t, out, 1)
	_, ok := record.DeepGet(out[0], record.KeyPath{"derived"})
	assert.False(t, ok)
}

func TestAttributeMapperDoesNotMutateInput(t *testing.T) {
	m := &AttributeMapper{
		Static: []StaticValue{{Path: record.KeyPath{"added"}, Value: true}},
	}

	r := record.New()
	_, err := m.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	_, ok := record.DeepGet(r, record.KeyPath{"added"})
	assert.False(t, ok)
}
