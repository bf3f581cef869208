package storage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"pharma-catalog/internal/imaging"
)

// UploadAll prepares and uploads files concurrently and returns the URLs in
// input order. The first failure fails the whole batch; uploads that already
// finished are not rolled back.
func UploadAll(ctx context.Context, up Uploader, files []imaging.File, maxBytes int64) ([]string, error) {
	urls := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := up.Upload(ctx, imaging.Prepare(f, maxBytes))
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
