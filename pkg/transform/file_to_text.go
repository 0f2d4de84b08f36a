package transform

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// FileToText reads the whole text file addressed by InputKeyPath and
// emits a single record with its contents under {content: ...}. Same
// failure contract as FileToLines: schema errors fatal, I/O errors
// skip the record.
type FileToText struct {
	InputKeyPath   record.KeyPath
	FileExtensions []string
	OutputConfig   OutputConfig
	Logger         *logrus.Logger
}

// Transform implements Transformer.
func (t *FileToText) Transform(_ context.Context, _ *InputContext, r record.Record) ([]record.Record, error) {
	v, ok := resolveInput(r, t.InputKeyPath)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.file_to_text", "resolve_input",
			"input_key_path absent", true)
	}
	path, ok := v.(string)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.file_to_text", "resolve_input",
			"input_key_path value is not a string", true)
	}

	if len(t.FileExtensions) > 0 && !extensionAllowed(path, t.FileExtensions) {
		if t.Logger != nil {
			t.Logger.WithField("path", path).Debug("file_to_text: skipping file with unmatched extension")
		}
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if t.Logger != nil {
			t.Logger.WithError(err).WithField("path", path).Warn("file_to_text: unable to read file, skipping")
		}
		return nil, nil
	}

	rec := record.New()
	rec = record.DeepSet(rec, record.KeyPath{"content"}, string(data))
	rec = t.OutputConfig.Apply(rec, r)

	return []record.Record{rec}, nil
}
