package mindtct

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"minview/internal/codec"
	"minview/internal/imageio"
)

// DefaultJobs is the batch concurrency used when none is given
const DefaultJobs = 4

// Result is the outcome of extracting one image in a batch
type Result struct {
	Image    string
	Output   string
	Minutiae int
	Err      error
}

// OutputPath returns the .min path written next to an image
func OutputPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + codec.NBIST.Ext()
}

// ExtractAll runs the extractor over every image with at most limit runs
// in flight, writing <image>.min next to each input. Failures are
// reported per image and do not stop the batch; the returned error is only
// set when the context is cancelled.
func (e *Extractor) ExtractAll(ctx context.Context, paths []string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultJobs
	}
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	failed := 0

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := e.extractFile(ctx, path)
			results[i] = res
			if res.Err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				log.Printf("[Extract] %s: %v", path, res.Err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	log.Printf("[Extract] Batch complete: %d images, %d failed", len(paths), failed)
	return results, nil
}

func (e *Extractor) extractFile(ctx context.Context, path string) Result {
	res := Result{Image: path, Output: OutputPath(path)}

	img, err := imageio.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	c, err := e.Extract(ctx, img)
	if err != nil {
		res.Err = err
		return res
	}
	if err := codec.WriteFile(res.Output, c, img.Bounds().Size()); err != nil {
		res.Err = fmt.Errorf("failed to write %s: %w", res.Output, err)
		return res
	}
	res.Minutiae = c.Len()
	return res
}
