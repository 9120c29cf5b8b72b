package backup

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Restore extracts a backup archive to the locations recorded in its
// manifest, or to the overrides in opts
func Restore(opts RestoreOptions) (*RestoreResult, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	manifest, err := readManifest(opts.BackupPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := ValidateManifest(manifest); err != nil {
		return nil, fmt.Errorf("invalid backup: %w", err)
	}

	result := &RestoreResult{Components: manifest.Components}

	if opts.DryRun {
		return dryRun(manifest, opts, result)
	}

	if !opts.Force {
		fmt.Fprintln(opts.Out, "WARNING: Stop any running 'minview serve' before restoring a backup.")
		fmt.Fprintln(opts.Out, "This will overwrite existing files at the target locations.")
		fmt.Fprintf(opts.Out, "Backup from: %s (minview %s)\n", manifest.Timestamp.Format("2006-01-02 15:04:05 UTC"), manifest.MinviewVersion)
		fmt.Fprintf(opts.Out, "Components: %s\n", manifest.Components)
		fmt.Fprint(opts.Out, "\nContinue? [y/N] ")

		answer, _ := bufio.NewReader(opts.In).ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			return nil, fmt.Errorf("restore cancelled by user")
		}
	}

	err = walkArchive(opts.BackupPath, func(hdr *tar.Header, r io.Reader) error {
		dest, skip := destination(hdr.Name, manifest, opts)
		if skip {
			result.FilesSkipped++
			if opts.Verbose {
				result.Warnings = append(result.Warnings, fmt.Sprintf("skipped: %s", hdr.Name))
			}
			return nil
		}
		if dest == "" {
			return nil
		}

		if err := extractFile(r, hdr, dest); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to restore %s: %v", hdr.Name, err))
			result.FilesSkipped++
			return nil
		}
		result.FilesRestored++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// destination determines the on-disk path for an archive entry. An empty
// path with skip=false means the entry is ignored silently.
func destination(name string, m *Manifest, opts RestoreOptions) (string, bool) {
	switch {
	case name == manifestName:
		return "", false

	case name == catalogEntry:
		if opts.CatalogPath != "" {
			return opts.CatalogPath, false
		}
		return m.OriginalPaths.Catalog, false

	case strings.HasPrefix(name, "config/"):
		if opts.SkipConfig {
			return "", true
		}
		if opts.ConfigPath != "" {
			return opts.ConfigPath, false
		}
		return m.OriginalPaths.Config, false

	case strings.HasPrefix(name, "ssh/"):
		if !opts.RestoreSSHKeys {
			return "", true
		}
		switch strings.TrimPrefix(name, "ssh/") {
		case hostKeyFile:
			return m.OriginalPaths.SSHHostKey, m.OriginalPaths.SSHHostKey == ""
		case authorizedFile:
			return m.OriginalPaths.SSHAuthKeys, m.OriginalPaths.SSHAuthKeys == ""
		}
		return "", true

	case strings.HasPrefix(name, "exports/"):
		rel := filepath.FromSlash(strings.TrimPrefix(name, "exports/"))
		if !filepath.IsLocal(rel) {
			return "", true
		}
		baseDir := m.OriginalPaths.ExportDir
		if opts.ExportDir != "" {
			baseDir = opts.ExportDir
		}
		if baseDir == "" {
			return "", true
		}
		return filepath.Join(baseDir, rel), false

	default:
		return "", false
	}
}

// extractFile writes an archive entry to disk, creating parent directories
func extractFile(r io.Reader, hdr *tar.Header, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	mode := os.FileMode(hdr.Mode).Perm()
	if mode == 0 {
		mode = 0644
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Close()
}

// dryRun reports what would be restored without writing any files
func dryRun(m *Manifest, opts RestoreOptions, result *RestoreResult) (*RestoreResult, error) {
	fmt.Fprintf(opts.Out, "Dry-run restore of: %s\n", opts.BackupPath)
	fmt.Fprintf(opts.Out, "Backup from: %s (minview %s)\n", m.Timestamp.Format("2006-01-02 15:04:05 UTC"), m.MinviewVersion)
	fmt.Fprintf(opts.Out, "Components: %s\n\n", m.Components)

	err := walkArchive(opts.BackupPath, func(hdr *tar.Header, _ io.Reader) error {
		dest, skip := destination(hdr.Name, m, opts)
		if skip {
			fmt.Fprintf(opts.Out, "  SKIP  %s\n", hdr.Name)
			result.FilesSkipped++
			return nil
		}
		if dest == "" {
			return nil
		}
		fmt.Fprintf(opts.Out, "  WRITE %s -> %s\n", hdr.Name, dest)
		result.FilesRestored++
		return nil
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(opts.Out, "\nWould restore %d files, skip %d files\n", result.FilesRestored, result.FilesSkipped)
	return result, nil
}

// walkArchive calls fn for every regular entry of a .tar.gz archive
func walkArchive(path string, fn func(hdr *tar.Header, r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

// readManifest extracts manifest.json from an archive
func readManifest(path string) (*Manifest, error) {
	var m *Manifest
	err := walkArchive(path, func(hdr *tar.Header, r io.Reader) error {
		if hdr.Name != manifestName || m != nil {
			return nil
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		m, err = unmarshalManifest(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%s not found in archive", manifestName)
	}
	return m, nil
}
