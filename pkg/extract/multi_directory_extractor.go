package extract

import (
	"context"

	"github.com/carlosvega/corpusetl/pkg/record"
)

// MultiDirectoryExtractor runs a DirectoryExtractor per root in turn
// and concatenates their outputs into a single finite sequence
// (spec.md §6: "a multi-directory variant takes a list of roots").
type MultiDirectoryExtractor struct {
	Roots []*DirectoryExtractor
}

// Extract implements Extractor.
func (m *MultiDirectoryExtractor) Extract(ctx context.Context) (<-chan record.Record, <-chan error) {
	out := make(chan record.Record)
	errc := make(chan error, len(m.Roots))

	go func() {
		defer close(out)
		defer close(errc)

		for _, root := range m.Roots {
			rootOut, rootErr := root.Extract(ctx)

			for rootOut != nil || rootErr != nil {
				select {
				case r, ok := <-rootOut:
					if !ok {
						rootOut = nil
						continue
					}
					select {
					case out <- r:
					case <-ctx.Done():
						errc <- ctx.Err()
						return
					}
				case err, ok := <-rootErr:
					if !ok {
						rootErr = nil
						continue
					}
					if err != nil {
						errc <- err
					}
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
		}
	}()

	return out, errc
}
