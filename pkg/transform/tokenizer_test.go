package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/record"
)

func TestTokenizerSplitsOnWhitespace(t *testing.T) {
	tok := &Tokenizer{InputKeyPath: record.KeyPath{"line"}}
	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"line"}, "the quick brown fox")

	out, err := tok.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	var words []string
	for _, o := range out {
		w, _ := record.DeepGet(o, record.KeyPath{"word"})
		words = append(words, w.(string))
	}
	assert.Equal(t, []string{"the", "quick", "brown", "fox"}, words)
}

func TestTokenizerNormalizesAndIgnores(t *testing.T) {
	tok := &Tokenizer{
		InputKeyPath: record.KeyPath{"line"},
		RemoveChars:  ".,",
		Normalizers:  []func(string) string{strings.ToLower},
		IgnoreWord:   func(w string) bool { return w == "the" },
	}
	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"line"}, "The Cat, sat. THE mat")

	out, err := tok.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	var words []string
	for _, o := range out {
		w, _ := record.DeepGet(o, record.KeyPath{"word"})
		words = append(words, w.(string))
	}
	assert.Equal(t, []string{"cat", "sat", "mat"}, words)
}

func TestTokenizerMissingInputIsFatal(t *testing.T) {
	tok := &Tokenizer{InputKeyPath: record.KeyPath{"line"}}

	_, err := tok.Transform(context.Background(), nil, record.New())

	assert.Error(t, err)
}
