package extract

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// DirectoryExtractor walks a single directory root and emits one
// Record per matching file, each carrying the file's absolute path
// under OutputKey (spec.md §6: "the concrete filesystem walker takes
// (input_dir, file_pattern, output_key) and emits {output_key:
// absolute_path} for every matching file in the recursive walk").
type DirectoryExtractor struct {
	InputDir  string
	OutputKey string

	// FilePattern is a filepath.Match shell pattern matched against
	// the base name; empty matches everything.
	FilePattern string
	// ExcludePatterns matched the same way; a match excludes the file
	// even if FilePattern also matched.
	ExcludePatterns []string
	// ExcludeDirectories are directory base names skipped entirely
	// during the recursive walk.
	ExcludeDirectories []string

	Recursive     bool
	IncludeHidden bool
	// MaxFiles caps the number of Records emitted; zero means
	// unbounded.
	MaxFiles int
	// MaxFileSize skips files larger than this many bytes; zero means
	// unbounded.
	MaxFileSize int64

	Logger *logrus.Logger
}

// Extract implements Extractor.
func (d *DirectoryExtractor) Extract(ctx context.Context) (<-chan record.Record, <-chan error) {
	out := make(chan record.Record)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		emitted := 0
		walkErr := filepath.WalkDir(d.InputDir, func(path string, de fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				if d.Logger != nil {
					d.Logger.WithError(err).WithField("path", path).Warn("directory_extractor: walk error, continuing")
				}
				return nil
			}

			name := de.Name()

			if de.IsDir() {
				if path != d.InputDir {
					if !d.IncludeHidden && isHidden(name) {
						return fs.SkipDir
					}
					for _, ex := range d.ExcludeDirectories {
						if name == ex {
							return fs.SkipDir
						}
					}
				}
				if !d.Recursive && path != d.InputDir {
					return fs.SkipDir
				}
				return nil
			}

			if !d.IncludeHidden && isHidden(name) {
				return nil
			}
			if d.FilePattern != "" && !matchPattern(d.FilePattern, name) {
				return nil
			}
			if matchAny(d.ExcludePatterns, name) {
				return nil
			}
			if d.MaxFileSize > 0 {
				if info, err := de.Info(); err == nil && info.Size() > d.MaxFileSize {
					return nil
				}
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}

			rec := record.New()
			rec = record.DeepSet(rec, record.KeyPath{d.OutputKey}, abs)

			select {
			case out <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}

			emitted++
			if d.MaxFiles > 0 && emitted >= d.MaxFiles {
				return filepath.SkipAll
			}
			return nil
		})

		if walkErr != nil && walkErr != filepath.SkipAll && walkErr != ctx.Err() {
			errc <- walkErr
		}
	}()

	return out, errc
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

func matchPattern(pattern, name string) bool {
	ok, _ := filepath.Match(pattern, name)
	return ok
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if matchPattern(p, name) {
			return true
		}
	}
	return false
}
