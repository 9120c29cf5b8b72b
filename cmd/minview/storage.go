package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"minview/internal/codec"
	"minview/internal/imageio"
	"minview/internal/minutiae"
	"minview/internal/remote"
)

// storage reads and writes local files and s3:// objects alike
type storage struct {
	cfg    remote.Config
	client *remote.Client
}

func newStorage(cfg remote.Config) *storage {
	return &storage{cfg: cfg}
}

// remote returns the object store client, creating it on first use
func (s *storage) remote() (*remote.Client, error) {
	if s.client == nil {
		c, err := remote.New(s.cfg)
		if err != nil {
			return nil, err
		}
		s.client = c
	}
	return s.client, nil
}

// Read returns the contents of a local file or remote object
func (s *storage) Read(ctx context.Context, path string) ([]byte, error) {
	if !remote.IsURL(path) {
		return os.ReadFile(path)
	}
	c, err := s.remote()
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, path)
}

// Write stores data at a local path or remote object
func (s *storage) Write(ctx context.Context, path string, data []byte) error {
	if !remote.IsURL(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		return os.WriteFile(path, data, 0644)
	}
	c, err := s.remote()
	if err != nil {
		return err
	}
	return c.Put(ctx, path, data, "")
}

// LoadImage decodes the image at path
func (s *storage) LoadImage(ctx context.Context, path string) (image.Image, error) {
	data, err := s.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := imageio.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadMinutiae decodes the minutiae file at path by its extension
func (s *storage) LoadMinutiae(ctx context.Context, path string) (*minutiae.Collection, error) {
	f, err := codec.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := s.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read minutiae file: %w", err)
	}
	return codec.Decode(f, string(data))
}

// SaveMinutiae encodes c by the extension of path and stores it. Local
// files are written atomically.
func (s *storage) SaveMinutiae(ctx context.Context, path string, c *minutiae.Collection, dims image.Point) error {
	if !remote.IsURL(path) {
		return codec.WriteFile(path, c, dims)
	}
	f, err := codec.FormatForPath(path)
	if err != nil {
		return err
	}
	text, err := codec.Encode(f, c, dims)
	if err != nil {
		return err
	}
	return s.Write(ctx, path, []byte(text))
}
