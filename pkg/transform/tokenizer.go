package transform

import (
	"context"
	"regexp"
	"strings"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// defaultSplitPattern splits on runs of whitespace, mirroring strings.Fields.
var defaultSplitPattern = regexp.MustCompile(`\s+`)

// Tokenizer splits a string value into words and yields one record per
// surviving token under {word: ...}. A missing input value or a
// non-string input is fatal (spec.md §4.2).
type Tokenizer struct {
	InputKeyPath record.KeyPath
	// Split overrides the default whitespace splitter.
	Split func(string) []string
	// RemoveChars strips the given characters from each token before
	// it reaches Normalizers/IgnoreWord.
	RemoveChars string
	// Normalizers fold each token (e.g. lowercase) before emission.
	Normalizers []func(string) string
	// IgnoreWord drops a token when it returns true (e.g. stopword
	// list, empty-after-strip check).
	IgnoreWord   func(string) bool
	OutputConfig OutputConfig
}

// Transform implements Transformer.
func (t *Tokenizer) Transform(_ context.Context, _ *InputContext, r record.Record) ([]record.Record, error) {
	v, ok := resolveInput(r, t.InputKeyPath)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.tokenizer", "resolve_input",
			"input_key_path absent", true)
	}
	s, ok := v.(string)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.tokenizer", "resolve_input",
			"input_key_path value is not a string", true)
	}

	split := t.Split
	if split == nil {
		split = func(s string) []string { return defaultSplitPattern.Split(strings.TrimSpace(s), -1) }
	}

	var out []record.Record
	for _, word := range split(s) {
		if t.RemoveChars != "" {
			word = strings.Map(func(r rune) rune {
				if strings.ContainsRune(t.RemoveChars, r) {
					return -1
				}
				return r
			}, word)
		}
		for _, norm := range t.Normalizers {
			word = norm(word)
		}
		if word == "" {
			continue
		}
		if t.IgnoreWord != nil && t.IgnoreWord(word) {
			continue
		}

		rec := record.New()
		rec = record.DeepSet(rec, record.KeyPath{"word"}, word)
		rec = t.OutputConfig.Apply(rec, r)
		out = append(out, rec)
	}

	return out, nil
}
