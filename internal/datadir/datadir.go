// Package datadir resolves the directory minview keeps its configuration,
// SSH keys and catalog database in.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default data directory name under $HOME.
	DefaultDirName = ".minview"

	// EnvVar is the environment variable that overrides the data directory.
	EnvVar = "MINVIEW_DATA_DIR"

	configSubdir   = "config"
	sshSubdir      = "ssh"
	databaseSubdir = "data"
	exportSubdir   = "exports"

	// ConfigFileName is the config file looked up inside the root
	ConfigFileName = "config.yaml"
)

// DataDir provides the paths inside the data directory. Use New to
// construct one; it does not touch the filesystem until EnsureDirs.
type DataDir struct {
	root string
}

// New returns a DataDir rooted at the resolved data directory.
//
// Resolution priority:
//  1. MINVIEW_DATA_DIR environment variable
//  2. configValue argument (from the config file's data_dir field)
//  3. ~/.minview/
func New(configValue string) (*DataDir, error) {
	root, err := resolveRoot(configValue)
	if err != nil {
		return nil, err
	}
	return &DataDir{root: root}, nil
}

// Root returns the base data directory path.
func (d *DataDir) Root() string { return d.root }

// ConfigDir returns {root}/config/.
func (d *DataDir) ConfigDir() string { return filepath.Join(d.root, configSubdir) }

// SSHDir returns {root}/ssh/.
func (d *DataDir) SSHDir() string { return filepath.Join(d.root, sshSubdir) }

// DatabaseDir returns {root}/data/.
func (d *DataDir) DatabaseDir() string { return filepath.Join(d.root, databaseSubdir) }

// ExportDir returns {root}/exports/, where catalog exports are written by default.
func (d *DataDir) ExportDir() string { return filepath.Join(d.root, exportSubdir) }

// ConfigPath returns the default config file path.
func (d *DataDir) ConfigPath() string { return filepath.Join(d.root, ConfigFileName) }

// CatalogPath returns the default catalog database path.
func (d *DataDir) CatalogPath() string { return filepath.Join(d.DatabaseDir(), "catalog.db") }

// SSHFilePath returns the full path to a file inside the ssh subdirectory.
func (d *DataDir) SSHFilePath(filename string) string {
	return filepath.Join(d.SSHDir(), filename)
}

func (d *DataDir) subdirectories() []string {
	return []string{
		d.ConfigDir(),
		d.SSHDir(),
		d.DatabaseDir(),
		d.ExportDir(),
	}
}

// EnsureDirs creates the root and all subdirectories with 0700 permissions.
func (d *DataDir) EnsureDirs() error {
	dirs := append([]string{d.root}, d.subdirectories()...)
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve returns the data directory path, creating it with 0700
// permissions if it doesn't already exist.
func Resolve(configValue string) (string, error) {
	root, err := resolveRoot(configValue)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", root, err)
	}
	return root, nil
}

// resolveRoot determines the root path without creating it.
func resolveRoot(configValue string) (string, error) {
	dir := os.Getenv(EnvVar)
	if dir == "" {
		dir = configValue
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDirName)
	}
	return dir, nil
}
