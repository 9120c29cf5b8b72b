package backup

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// List inspects a backup archive and returns its contents
func List(opts ListOptions) (*ListResult, error) {
	result := &ListResult{}
	var manifestFound bool

	err := walkArchive(opts.BackupPath, func(hdr *tar.Header, r io.Reader) error {
		if hdr.Name == manifestName {
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			m, err := unmarshalManifest(data)
			if err != nil {
				return fmt.Errorf("parse manifest: %w", err)
			}
			result.Manifest = *m
			manifestFound = true
		}

		result.Files = append(result.Files, FileEntry{
			Path: hdr.Name,
			Size: hdr.Size,
			Mode: fmt.Sprintf("%04o", hdr.Mode),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !manifestFound {
		return nil, fmt.Errorf("%s not found in archive", manifestName)
	}
	return result, nil
}

// PrintListResult writes the listing in human-readable or JSON form
func PrintListResult(out io.Writer, result *ListResult, opts ListOptions) error {
	if opts.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	m := result.Manifest
	fmt.Fprintf(out, "Backup: %s\n", opts.BackupPath)
	fmt.Fprintf(out, "Created: %s\n", m.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(out, "minview version: %s\n", m.MinviewVersion)
	fmt.Fprintf(out, "Components: %s\n", m.Components)
	fmt.Fprintf(out, "Catalog size: %s\n", FormatBytes(m.CatalogInfo.Size))
	fmt.Fprintf(out, "Minutiae sets: %d\n", m.CatalogInfo.SetCount)
	fmt.Fprintf(out, "Files: %d\n", len(result.Files))

	if opts.Verbose {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODE\tSIZE\tPATH")
		fmt.Fprintln(w, "----\t----\t----")
		for _, f := range result.Files {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Mode, FormatBytes(f.Size), f.Path)
		}
		return w.Flush()
	}

	return nil
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(b int64) string {
	switch {
	case b >= 1024*1024*1024:
		return fmt.Sprintf("%.1f GB", float64(b)/(1024*1024*1024))
	case b >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(b)/(1024*1024))
	case b >= 1024:
		return fmt.Sprintf("%.1f KB", float64(b)/1024)
	default:
		return fmt.Sprintf("%d B", b)
	}
}
