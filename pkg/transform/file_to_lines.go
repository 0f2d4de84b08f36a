package transform

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// FileToLines reads the text file addressed by InputKeyPath and emits
// one record per non-empty, trimmed line under {line: ...}. A missing
// input value or a type mismatch is fatal (spec.md §4.2); an unopenable
// file is a per-record I/O error and the input is skipped.
type FileToLines struct {
	InputKeyPath record.KeyPath
	// FileExtensions, when non-empty, restricts processing to files
	// whose extension (including the dot) appears in the list; other
	// files are skipped with a log line, not an error.
	FileExtensions []string
	OutputConfig   OutputConfig
	Logger         *logrus.Logger
}

// Transform implements Transformer.
func (t *FileToLines) Transform(_ context.Context, _ *InputContext, r record.Record) ([]record.Record, error) {
	v, ok := resolveInput(r, t.InputKeyPath)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.file_to_lines", "resolve_input",
			"input_key_path absent", true)
	}
	path, ok := v.(string)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.file_to_lines", "resolve_input",
			"input_key_path value is not a string", true)
	}

	if len(t.FileExtensions) > 0 && !extensionAllowed(path, t.FileExtensions) {
		if t.Logger != nil {
			t.Logger.WithField("path", path).Debug("file_to_lines: skipping file with unmatched extension")
		}
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if t.Logger != nil {
			t.Logger.WithError(err).WithField("path", path).Warn("file_to_lines: unable to open file, skipping")
		}
		return nil, nil
	}
	defer f.Close()

	var out []record.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec := record.New()
		rec = record.DeepSet(rec, record.KeyPath{"line"}, line)
		rec = t.OutputConfig.Apply(rec, r)
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		if t.Logger != nil {
			t.Logger.WithError(err).WithField("path", path).Warn("file_to_lines: scan error, partial output kept")
		}
	}

	return out, nil
}

func extensionAllowed(path string, allowed []string) bool {
	ext := filepath.Ext(path)
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}
