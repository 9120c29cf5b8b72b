// Package backup archives and restores the data minview keeps on disk: the
// catalog database, the config file, SSH keys and exported minutiae.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"minview/internal/config"
	"minview/internal/datadir"
)

const (
	manifestName   = "manifest.json"
	catalogEntry   = "catalog/catalog.db"
	hostKeyFile    = "ssh_host_key"
	authorizedFile = "authorized_keys"
)

// Create produces a .tar.gz archive of the data named by the config at
// opts.ConfigPath
func Create(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if _, err := os.Stat(opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	dd, err := datadir.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	absConfigPath, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	result := &Result{Components: ComponentConfig}
	paths := OriginalPaths{
		Config:  absConfigPath,
		Catalog: cfg.CatalogPath(dd),
	}

	tmpDir, err := os.MkdirTemp("", "minview-backup-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// Snapshot the catalog when there is one
	var info CatalogInfo
	snapshotPath := filepath.Join(tmpDir, "catalog.db")
	if _, err := os.Stat(paths.Catalog); err == nil {
		info, err = snapshotCatalog(ctx, paths.Catalog, snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("snapshot catalog: %w", err)
		}
		result.Components |= ComponentCatalog
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("catalog not found: %s", paths.Catalog))
	}

	if opts.IncludeSSHKeys {
		paths.SSHHostKey = cfg.SSH.HostKeyPath
		if paths.SSHHostKey == "" {
			paths.SSHHostKey = dd.SSHFilePath(hostKeyFile)
		}
		paths.SSHAuthKeys = cfg.SSH.AuthorizedKeysPath
		if paths.SSHAuthKeys == "" {
			paths.SSHAuthKeys = dd.SSHFilePath(authorizedFile)
		}
		result.Components |= ComponentSSHKeys
	}
	if opts.IncludeExports {
		paths.ExportDir = dd.ExportDir()
		result.Components |= ComponentExports
	}

	manifest := NewManifest(result.Components, paths, info)

	outPath := opts.OutputPath
	if outPath == "" {
		outPath = fmt.Sprintf("minview-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}
	outPath, err = filepath.Abs(outPath)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	result.ArchivePath = outPath

	outFile, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	defer outFile.Close()

	gw := gzip.NewWriter(outFile)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	// 1. Manifest
	manifestData, err := marshalManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeTarBytes(tw, manifestName, manifestData); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	result.FileCount++

	// 2. Catalog snapshot
	if result.Components.Has(ComponentCatalog) {
		if err := writeTarFile(tw, catalogEntry, snapshotPath); err != nil {
			return nil, fmt.Errorf("write catalog: %w", err)
		}
		result.FileCount++
	}

	// 3. Config file
	if err := writeTarFile(tw, "config/"+filepath.Base(absConfigPath), absConfigPath); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}
	result.FileCount++

	// 4. SSH keys
	if opts.IncludeSSHKeys {
		n, warnings := writeSSHKeys(tw, paths)
		result.FileCount += n
		result.Warnings = append(result.Warnings, warnings...)
	}

	// 5. Exports
	if opts.IncludeExports {
		if stat, err := os.Stat(paths.ExportDir); err == nil && stat.IsDir() {
			n, err := writeTarDir(tw, "exports", paths.ExportDir)
			if err != nil {
				return nil, fmt.Errorf("write exports: %w", err)
			}
			result.FileCount += n
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("export dir not found: %s", paths.ExportDir))
		}
	}

	// Close writers to flush and get final size
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	if stat, err := os.Stat(outPath); err == nil {
		result.TotalSize = stat.Size()
	}
	result.Duration = time.Since(start)

	return result, nil
}

// snapshotCatalog creates a clean snapshot via VACUUM INTO, falling back to
// a file copy
func snapshotCatalog(ctx context.Context, srcPath, dstPath string) (CatalogInfo, error) {
	info := CatalogInfo{}

	stat, err := os.Stat(srcPath)
	if err != nil {
		return info, fmt.Errorf("stat catalog: %w", err)
	}
	info.Size = stat.Size()

	db, err := sql.Open("sqlite", srcPath+"?mode=ro")
	if err == nil {
		defer db.Close()

		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM minutiae_sets").Scan(&count); err == nil {
			info.SetCount = count
		}

		_, vacErr := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(dstPath, "'", "''")))
		if vacErr == nil {
			return info, nil
		}
	}

	if err := copyFile(srcPath, dstPath); err != nil {
		return info, fmt.Errorf("copy catalog: %w", err)
	}
	return info, nil
}

// writeTarBytes writes in-memory data as a tar entry
func writeTarBytes(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// writeTarFile adds a file from disk to the tar archive
func writeTarFile(tw *tar.Writer, archivePath, diskPath string) error {
	fi, err := os.Stat(diskPath)
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name:    archivePath,
		Mode:    int64(fi.Mode().Perm()),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(diskPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// writeTarDir recursively adds a directory to the tar archive and returns
// the number of files written
func writeTarDir(tw *tar.Writer, prefix, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		archivePath := prefix + "/" + filepath.ToSlash(rel)

		if err := writeTarFile(tw, archivePath, path); err != nil {
			return fmt.Errorf("write %s: %w", archivePath, err)
		}
		count++
		return nil
	})
	return count, err
}

// writeSSHKeys adds the SSH key files that exist
func writeSSHKeys(tw *tar.Writer, paths OriginalPaths) (int, []string) {
	count := 0
	var warnings []string

	if err := writeTarFile(tw, "ssh/"+hostKeyFile, paths.SSHHostKey); err != nil {
		warnings = append(warnings, fmt.Sprintf("SSH host key not found: %v", err))
	} else {
		count++
	}

	if err := writeTarFile(tw, "ssh/"+authorizedFile, paths.SSHAuthKeys); err != nil {
		warnings = append(warnings, fmt.Sprintf("SSH authorized keys not found: %v", err))
	} else {
		count++
	}

	return count, warnings
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
