package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/record"
)

func TestFileToTextEmitsWholeContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld"), 0o644))

	ft := &FileToText{InputKeyPath: record.KeyPath{"_"}}
	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"_"}, path)

	out, err := ft.Transform(context.Background(), nil, r)

	require.NoError(t, err)
	require.Len(t, out, 1)
	content, _ := record.DeepGet(out[0], record.KeyPath{"content"})
	assert.Equal(t, "hello\nworld", content)
}

func TestFileToTextTypeMismatchIsFatal(t *testing.T) {
	ft := &FileToText{InputKeyPath: record.KeyPath{"_"}}
	r := record.New()
	r = record.DeepSet(r, record.KeyPath{"_"}, 42)

	_, err := ft.Transform(context.Background(), nil, r)

	assert.Error(t, err)
}
