package codec

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"minview/internal/minutiae"
)

// ReadFile decodes a minutiae file, choosing the format from its extension
func ReadFile(path string) (*minutiae.Collection, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read minutiae file: %w", err)
	}
	return Decode(f, string(data))
}

// WriteFile encodes the collection in the format chosen by the path's
// extension and writes it atomically. The format is resolved and the text
// encoded before the filesystem is touched, so an unknown extension or an
// unencodable minutia leaves no file behind.
func WriteFile(path string, c *minutiae.Collection, dims image.Point) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	text, err := Encode(f, c, dims)
	if err != nil {
		return err
	}
	return writeAtomic(path, []byte(text))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write minutiae file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close minutiae file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move minutiae file into place: %w", err)
	}
	return nil
}
