// Package compress provides pluggable stream compression for
// CSVLoader's output file (one compressed stream per file), trimmed
// from the teacher's
// multi-algorithm HTTP compressor down to a single streaming
// io.WriteCloser per algorithm.
package compress

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm names a supported stream compression codec.
type Algorithm string

const (
	AlgorithmNone   Algorithm = "none"
	AlgorithmGzip   Algorithm = "gzip"
	AlgorithmZstd   Algorithm = "zstd"
	AlgorithmLZ4    Algorithm = "lz4"
	AlgorithmSnappy Algorithm = "snappy"
)

// NewWriter wraps w with a streaming compressor for algo. Closing the
// returned writer flushes and closes the compression stream but not
// the underlying w.
func NewWriter(algo Algorithm, w io.Writer) (io.WriteCloser, error) {
	switch algo {
	case "", AlgorithmNone:
		return nopCloser{w}, nil
	case AlgorithmGzip:
		return gzip.NewWriter(w), nil
	case AlgorithmZstd:
		return zstd.NewWriter(w)
	case AlgorithmLZ4:
		return lz4.NewWriter(w), nil
	case AlgorithmSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("compress: unsupported algorithm %q", algo)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
