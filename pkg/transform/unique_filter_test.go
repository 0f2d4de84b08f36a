package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/bag"
	"github.com/carlosvega/corpusetl/pkg/record"
)

func TestUniqueFilterYieldsOnlyFirstOccurrence(t *testing.T) {
	uf := &UniqueFilter{
		Bag:        bag.New(),
		BagKeyPath: record.KeyPath{"_"},
		Inner: []Transformer{
			&Tokenizer{InputKeyPath: record.KeyPath{"line"}},
		},
		UniqueKeyPath:          record.KeyPath{"word"},
		UniqueValueNormalizers: []func(string) string{strings.ToLower, strings.TrimSpace},
		YieldUniqueValues:      true,
	}

	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"_"}, "doc1")
	r = record.DeepSet(r, record.KeyPath{"line"}, "a A b  a")

	out, err := uf.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	var words []string
	for _, o := range out {
		w, _ := record.DeepGet(o, record.KeyPath{"word"})
		words = append(words, w.(string))
	}
	assert.Equal(t, []string{"a", "b"}, words)
}

func TestUniqueFilterYieldsOnlyDuplicates(t *testing.T) {
	uf := &UniqueFilter{
		Bag:        bag.New(),
		BagKeyPath: record.KeyPath{"_"},
		Inner: []Transformer{
			&Tokenizer{InputKeyPath: record.KeyPath{"line"}},
		},
		UniqueKeyPath:     record.KeyPath{"word"},
		YieldUniqueValues: false,
	}

	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"_"}, "doc1")
	r = record.DeepSet(r, record.KeyPath{"line"}, "a a b a")

	out, err := uf.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	require.Len(t, out, 2)
	w0, _ := record.DeepGet(out[0], record.KeyPath{"word"})
	w1, _ := record.DeepGet(out[1], record.KeyPath{"word"})
	assert.Equal(t, "a", w0)
	assert.Equal(t, "a", w1)
}

func TestUniqueFilterClearsBagBetweenInputsWithSameKey(t *testing.T) {
	b := bag.New()
	uf := &UniqueFilter{
		Bag:        b,
		BagKeyPath: record.KeyPath{"_"},
		Inner: []Transformer{
			&Tokenizer{InputKeyPath: record.KeyPath{"line"}},
		},
		UniqueKeyPath:     record.KeyPath{"word"},
		YieldUniqueValues: true,
	}

	r1 := record.New()
	r1 = record.DeepSet(r1, record.KeyPath{"_"}, "doc1")
	r1 = record.DeepSet(r1, record.KeyPath{"line"}, "a a")
	out1, err := uf.Transform(context.Background(), nil, r1)
	require.NoError(t, err)
	assert.Len(t, out1, 1)

	r2 := record.New()
	r2 = record.DeepSet(r2, record.KeyPath{"_"}, "doc1")
	r2 = record.DeepSet(r2, record.KeyPath{"line"}, "a a")
	out2, err := uf.Transform(context.Background(), nil, r2)
	require.NoError(t, err)
	assert.Len(t, out2, 1, "bag entry must be cleared after each outer input so a repeated key starts fresh")
}
