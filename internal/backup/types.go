package backup

import (
	"io"
	"strings"
	"time"
)

// Components is a bitmask of what a backup contains
type Components uint32

const (
	ComponentCatalog Components = 1 << iota
	ComponentConfig
	ComponentSSHKeys
	ComponentExports
)

func (c Components) Has(flag Components) bool {
	return c&flag != 0
}

func (c Components) String() string {
	var parts []string
	if c.Has(ComponentCatalog) {
		parts = append(parts, "catalog")
	}
	if c.Has(ComponentConfig) {
		parts = append(parts, "config")
	}
	if c.Has(ComponentSSHKeys) {
		parts = append(parts, "ssh_keys")
	}
	if c.Has(ComponentExports) {
		parts = append(parts, "exports")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// Manifest describes the contents and origin of a backup archive
type Manifest struct {
	Version        string        `json:"version"`
	Timestamp      time.Time     `json:"timestamp"`
	MinviewVersion string        `json:"minview_version"`
	Components     Components    `json:"components"`
	OriginalPaths  OriginalPaths `json:"original_paths"`
	CatalogInfo    CatalogInfo   `json:"catalog_info"`
}

// OriginalPaths records where files were located on the source system
type OriginalPaths struct {
	Config      string `json:"config"`
	Catalog     string `json:"catalog"`
	ExportDir   string `json:"export_dir,omitempty"`
	SSHHostKey  string `json:"ssh_host_key,omitempty"`
	SSHAuthKeys string `json:"ssh_authorized_keys,omitempty"`
}

// CatalogInfo records basic catalog metadata
type CatalogInfo struct {
	Size     int64 `json:"size"`
	SetCount int   `json:"set_count"`
}

// Options configures backup creation
type Options struct {
	ConfigPath     string
	OutputPath     string
	IncludeSSHKeys bool
	IncludeExports bool
}

// RestoreOptions configures backup restoration
type RestoreOptions struct {
	BackupPath     string
	DryRun         bool
	Force          bool
	SkipConfig     bool
	RestoreSSHKeys bool
	ConfigPath     string
	CatalogPath    string
	ExportDir      string
	Verbose        bool

	// In answers the confirmation prompt and Out receives the prompt and
	// dry-run report. They default to stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// ListOptions configures backup inspection
type ListOptions struct {
	BackupPath string
	JSONOutput bool
	Verbose    bool
}

// Result is returned by Create
type Result struct {
	ArchivePath string        `json:"archive_path"`
	FileCount   int           `json:"file_count"`
	TotalSize   int64         `json:"total_size"`
	Components  Components    `json:"components"`
	Duration    time.Duration `json:"duration"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// RestoreResult is returned by Restore
type RestoreResult struct {
	FilesRestored int        `json:"files_restored"`
	FilesSkipped  int        `json:"files_skipped"`
	Components    Components `json:"components"`
	Warnings      []string   `json:"warnings,omitempty"`
}

// ListResult is returned by List
type ListResult struct {
	Manifest Manifest    `json:"manifest"`
	Files    []FileEntry `json:"files"`
}

// FileEntry describes a single file in the backup archive
type FileEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	Mode string `json:"mode"`
}
