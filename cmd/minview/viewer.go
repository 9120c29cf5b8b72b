package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"minview/internal/config"
	"minview/internal/mindtct"
	"minview/internal/modules"
	"minview/internal/remote"
	"minview/internal/session"
)

// viewerOptions selects what a new viewer session starts with
type viewerOptions struct {
	ImagePath    string
	MinutiaePath string
	// MinutiaeOptional tolerates a missing minutiae file. Set when the path
	// was derived from the image rather than given explicitly.
	MinutiaeOptional bool
}

// newViewer builds a session with the configured modules and loads the
// image and minutiae named in opts
func newViewer(ctx context.Context, cfg *config.Config, st *storage, opts viewerOptions) (*session.Session, error) {
	registry, _, err := modules.Default(cfg.MindtctSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to build modules: %w", err)
	}
	s, err := session.New(session.Options{
		Registry:   registry,
		MarkerSize: float64(cfg.Display.MarkerSize),
	})
	if err != nil {
		return nil, err
	}

	if opts.ImagePath == "" {
		return s, nil
	}
	img, err := st.LoadImage(ctx, opts.ImagePath)
	if err != nil {
		return nil, err
	}
	s.LoadImage(img)

	if opts.MinutiaePath == "" {
		return s, nil
	}
	c, err := st.LoadMinutiae(ctx, opts.MinutiaePath)
	if err != nil {
		if opts.MinutiaeOptional && isMissing(err) {
			log.Printf("[Viewer] No minutiae at %s, starting empty", opts.MinutiaePath)
			return s, nil
		}
		return nil, err
	}
	s.SetMinutiae(c)
	return s, nil
}

// minutiaePathFor returns the explicit minutiae path, or the .min file
// next to the image
func minutiaePathFor(imagePath string, args []string) (string, bool) {
	if len(args) > 0 && args[0] != "" {
		return args[0], false
	}
	return mindtct.OutputPath(imagePath), true
}

// extractorFactory returns a constructor for configured extractors with the
// algorithm overridden per run
func extractorFactory(cfg *config.Config) func(mindtct.Algorithm) session.Extractor {
	return func(a mindtct.Algorithm) session.Extractor {
		ex := cfg.Mindtct.Extractor()
		ex.Algorithm = a
		return ex
	}
}

func isMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, remote.ErrNotFound)
}
