package load

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/compress"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// CSVLoader appends joined rows to a single append-only UTF-8 file,
// one file per loader instance, named "{prefix}_{uuid}.{ext}"
// (spec.md §6). Rows are terminated by "\n"; there is no header. When
// Compression is set, the whole file is a single compressed stream
// rather than plain CSV text.
type CSVLoader struct {
	Dir         string
	Prefix      string
	Extension   string
	Separator   string // defaults to ";"
	ValuesPaths []ValuesPath
	BufferSize  int // flush once len(buffer) >= BufferSize
	Compression compress.Algorithm
	Logger      *logrus.Logger

	guard  singleWriterGuard
	file   *os.File
	bw     *bufio.Writer
	stream io.WriteCloser // stream wraps bw with Compression, opened once
	buffer [][]any
	path   string
	opened bool
	closed bool
}

func (c *CSVLoader) ensureOpen() error {
	if c.opened {
		return nil
	}
	if c.Extension == "" {
		c.Extension = "csv"
	}
	if c.Separator == "" {
		c.Separator = ";"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 500
	}

	name := fmt.Sprintf("%s_%s.%s", c.Prefix, uuid.NewString(), c.Extension)
	c.path = filepath.Join(c.Dir, name)

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	c.file = f
	c.bw = bufio.NewWriter(f)

	stream, err := compress.NewWriter(c.Compression, c.bw)
	if err != nil {
		f.Close()
		return err
	}
	c.stream = stream
	c.opened = true
	return nil
}

// Load implements Loader.
func (c *CSVLoader) Load(_ context.Context, jobID string, records []record.Record, lastCall bool) error {
	if err := c.guard.enter("load.csv"); err != nil {
		return err
	}
	defer c.guard.exit()

	if err := c.ensureOpen(); err != nil {
		return err
	}

	for _, r := range records {
		row, ok := rowFromRecord(r, c.ValuesPaths)
		if !ok {
			continue
		}
		c.buffer = append(c.buffer, row)
	}

	if len(c.buffer) >= c.BufferSize || lastCall {
		return c.flush(jobID)
	}
	return nil
}

func (c *CSVLoader) flush(jobID string) error {
	if len(c.buffer) == 0 {
		return nil
	}

	for _, row := range c.buffer {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		line := strings.Join(cells, c.Separator) + "\n"
		if _, err := c.stream.Write([]byte(line)); err != nil {
			if c.Logger != nil {
				c.Logger.WithError(err).WithField("job_id", jobID).Error("csv_loader: write failed")
			}
			return err
		}
	}

	c.buffer = c.buffer[:0]
	return c.bw.Flush()
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// LoadWithAck implements Loader.
func (c *CSVLoader) LoadWithAck(ctx context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error {
	err := c.Load(ctx, jobID, records, lastCall)
	decrementAck(ackCounter, len(records))
	return err
}

// Close implements Loader.
func (c *CSVLoader) Close(_ context.Context) error {
	if err := c.guard.enter("load.csv"); err != nil {
		return err
	}
	defer c.guard.exit()

	if c.closed {
		return nil
	}
	c.closed = true

	if !c.opened {
		return nil
	}
	if err := c.flush("close"); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	if err := c.bw.Flush(); err != nil {
		return err
	}
	return c.file.Close()
}

// HasBufferedData implements Loader.
func (c *CSVLoader) HasBufferedData() bool {
	return len(c.buffer) > 0
}
