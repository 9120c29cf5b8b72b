// Package mindtct runs the NBIS mindtct minutiae detector as an external
// process and reads its NBIST output back into a collection.
package mindtct

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"minview/internal/codec"
	"minview/internal/imageio"
	"minview/internal/minutiae"
)

// Algorithm selects the mindtct output convention
type Algorithm string

const (
	AlgorithmM1    Algorithm = "m1"    // ANSI INCITS 378 (-m1)
	AlgorithmIAFIS Algorithm = "iafis" // NIST internal convention
)

// String returns the display name of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmM1:
		return "M1"
	case AlgorithmIAFIS:
		return "IAFIS"
	default:
		return string(a)
	}
}

// IsValid returns true if the algorithm is known
func (a Algorithm) IsValid() bool {
	return a == AlgorithmM1 || a == AlgorithmIAFIS
}

// Toggle returns the other algorithm
func (a Algorithm) Toggle() Algorithm {
	if a == AlgorithmIAFIS {
		return AlgorithmM1
	}
	return AlgorithmIAFIS
}

// ParseAlgorithm parses an algorithm name, case-insensitively
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if !a.IsValid() {
		return "", fmt.Errorf("unknown mindtct algorithm %q (expected m1 or iafis)", name)
	}
	return a, nil
}

// DefaultTimeout bounds a single mindtct run
const DefaultTimeout = 2 * time.Minute

// Extractor runs mindtct on images
type Extractor struct {
	// Path to the mindtct binary. Empty searches next to the running
	// executable and then PATH.
	Path string
	// Algorithm defaults to AlgorithmM1
	Algorithm Algorithm
	// Timeout per run; zero uses DefaultTimeout
	Timeout time.Duration
	// TempDir is the parent of the per-run working directory; empty uses
	// the system default.
	TempDir string
}

// binaryName returns the platform's mindtct file name
func binaryName() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return "mindtct.exe", nil
	case "linux", "darwin":
		return "mindtct", nil
	default:
		return "", fmt.Errorf("%s is a platform that is currently unsupported", runtime.GOOS)
	}
}

// Resolve returns the path of the mindtct binary that Extract would run
func (e *Extractor) Resolve() (string, error) {
	name, err := binaryName()
	if err != nil {
		return "", &ExtractionToolError{Op: "resolve", Err: err}
	}
	if e.Path != "" {
		if _, err := os.Stat(e.Path); err != nil {
			return "", &ExtractionToolError{Op: "resolve", Err: err}
		}
		return e.Path, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", &ExtractionToolError{Op: "resolve", Err: err}
	}
	return path, nil
}

// Args returns the command line arguments for one run
func (e *Extractor) Args(imagePath, outputPrefix string) []string {
	var args []string
	if e.algorithm() == AlgorithmM1 {
		args = append(args, "-m1")
	}
	return append(args, imagePath, outputPrefix)
}

func (e *Extractor) algorithm() Algorithm {
	if e.Algorithm == "" {
		return AlgorithmM1
	}
	return e.Algorithm
}

func (e *Extractor) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

// Extract writes img as an 8-bit grayscale PNG into a fresh working
// directory, runs mindtct on it and decodes the resulting .min file. The
// working directory is removed whether or not the run succeeds.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*minutiae.Collection, error) {
	if img == nil {
		return nil, &ExtractionToolError{Op: "prepare", Err: errors.New("no image loaded")}
	}
	tool, err := e.Resolve()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.TempDir, "minview_")
	if err != nil {
		return nil, &ExtractionToolError{Op: "prepare", Err: err}
	}
	defer os.RemoveAll(dir)

	imagePath := filepath.Join(dir, "image.png")
	if err := imageio.SavePNG(imagePath, imageio.Gray(img)); err != nil {
		return nil, &ExtractionToolError{Op: "prepare", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	outputPrefix := filepath.Join(dir, "out")
	cmd := exec.CommandContext(ctx, tool, e.Args(imagePath, outputPrefix)...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second

	log.Printf("[Extract] Running %s", strings.Join(cmd.Args, " "))
	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %v", e.timeout())
		}
		return nil, &ExtractionToolError{Op: "run", Err: err, Output: strings.TrimSpace(string(output))}
	}

	data, err := os.ReadFile(outputPrefix + ".min")
	if err != nil {
		return nil, &ExtractionToolError{Op: "read", Err: err}
	}
	c, err := codec.Decode(codec.MINDTCT, string(data))
	if err != nil {
		return nil, &ExtractionToolError{Op: "read", Err: err}
	}

	log.Printf("[Extract] Detected %d minutiae in %v", c.Len(), time.Since(start).Round(time.Millisecond))
	return c, nil
}
