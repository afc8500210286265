package parser

import (
	"context"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/xenolexia/xenolexia-go/model"
)

// Result is the outcome of parsing one file in a batch.
type Result struct {
	Path string
	Book *model.ParsedBook
	Err  error
}

// ParseAll parses paths concurrently, at most limit at a time (limit < 1
// means one per path). A failed book does not stop the others; results are
// returned in the order of paths.
func ParseAll(ctx context.Context, fs afero.Fs, paths []string, limit int, opts ...Option) []Result {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		g.Go(func() error {
			book, err := ParseBook(ctx, fs, p, opts...)
			results[i] = Result{Path: p, Book: book, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
