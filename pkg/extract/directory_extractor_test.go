package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/record"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		full := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
}

func drainPaths(t *testing.T, out <-chan record.Record, errc <-chan error, outputKey string) []string {
	t.Helper()
	var paths []string
	for out != nil || errc != nil {
		select {
		case r, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			v, _ := record.DeepGet(r, record.KeyPath{outputKey})
			paths = append(paths, v.(string))
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			require.NoError(t, err)
		}
	}
	return paths
}

func TestDirectoryExtractorNonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "sub/c.txt")

	ext := &DirectoryExtractor{InputDir: dir, OutputKey: "_", FilePattern: "*.txt"}
	out, errc := ext.Extract(context.Background())

	paths := drainPaths(t, out, errc, "_")
	assert.Len(t, paths, 2)
}

func TestDirectoryExtractorRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "sub/c.txt", "sub/deeper/d.txt")

	ext := &DirectoryExtractor{InputDir: dir, OutputKey: "_", FilePattern: "*.txt", Recursive: true}
	out, errc := ext.Extract(context.Background())

	paths := drainPaths(t, out, errc, "_")
	assert.Len(t, paths, 3)
}

func TestDirectoryExtractorExcludesHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", ".hidden.txt", "b.bin")

	ext := &DirectoryExtractor{InputDir: dir, OutputKey: "_", FilePattern: "*"}
	out, errc := ext.Extract(context.Background())

	paths := drainPaths(t, out, errc, "_")
	assert.Len(t, paths, 2)
	for _, p := range paths {
		assert.NotContains(t, p, ".hidden.txt")
	}
}

func TestDirectoryExtractorMaxFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "c.txt")

	ext := &DirectoryExtractor{InputDir: dir, OutputKey: "_", FilePattern: "*.txt", MaxFiles: 2}
	out, errc := ext.Extract(context.Background())

	paths := drainPaths(t, out, errc, "_")
	assert.Len(t, paths, 2)
}

func TestDirectoryExtractorExcludeDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "vendor/b.txt")

	ext := &DirectoryExtractor{
		InputDir: dir, OutputKey: "_", FilePattern: "*.txt",
		Recursive: true, ExcludeDirectories: []string{"vendor"},
	}
	out, errc := ext.Extract(context.Background())

	paths := drainPaths(t, out, errc, "_")
	assert.Len(t, paths, 1)
}

func TestMultiDirectoryExtractorConcatenatesRoots(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	writeFiles(t, dirA, "a.txt")
	writeFiles(t, dirB, "b.txt", "c.txt")

	m := &MultiDirectoryExtractor{Roots: []*DirectoryExtractor{
		{InputDir: dirA, OutputKey: "_", FilePattern: "*.txt"},
		{InputDir: dirB, OutputKey: "_", FilePattern: "*.txt"},
	}}
	out, errc := m.Extract(context.Background())

	paths := drainPaths(t, out, errc, "_")
	assert.Len(t, paths, 3)
}
