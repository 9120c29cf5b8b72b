package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"minview/internal/datadir"
	"minview/internal/maintenance"
	"minview/internal/remote"
)

// Config represents the minview configuration
type Config struct {
	// DataDir is the base directory for config, ssh keys and the catalog.
	// Defaults to ~/.minview/ if empty. MINVIEW_DATA_DIR env var takes precedence.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`

	// SecretsFile is a KEY=VALUE file loaded into the environment before
	// ${ENV_VAR} expansion. Useful for remote storage credentials.
	SecretsFile string `json:"secrets_file,omitempty" yaml:"secrets_file,omitempty"`

	Mindtct MindtctConfig `json:"mindtct" yaml:"mindtct"`
	Display DisplayConfig `json:"display" yaml:"display"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	SSH     SSHConfig     `json:"ssh" yaml:"ssh"`
	Remote  remote.Config `json:"remote" yaml:"remote"`

	Maintenance maintenance.Config `json:"maintenance" yaml:"maintenance"`
}

// CatalogConfig contains catalog database settings
type CatalogConfig struct {
	// Path to the sqlite file. Empty uses <data_dir>/data/catalog.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// SSHConfig contains SSH server settings
type SSHConfig struct {
	Enabled            bool   `json:"enabled" yaml:"enabled"`
	ListenAddr         string `json:"listen_addr" yaml:"listen_addr"`
	HostKeyPath        string `json:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeysPath string `json:"authorized_keys_path" yaml:"authorized_keys_path"`
	// SessionsPerMinute limits new sessions per remote host; zero disables
	SessionsPerMinute int `json:"sessions_per_minute" yaml:"sessions_per_minute"`

	// Image and Minutiae are loaded into every new SSH session
	Image    string `json:"image,omitempty" yaml:"image,omitempty"`
	Minutiae string `json:"minutiae,omitempty" yaml:"minutiae,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Mindtct: DefaultMindtctConfig(),
		Display: DefaultDisplayConfig(),
		SSH: SSHConfig{
			ListenAddr:        ":2222",
			SessionsPerMinute: 10,
		},
		Maintenance: maintenance.DefaultConfig(),
	}
}

// CatalogPath returns the configured catalog database path, or the
// default inside the data directory
func (c *Config) CatalogPath(dd *datadir.DataDir) string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return dd.CatalogPath()
}

// isJSON reports whether path should be read and written as JSON.
// Everything else is YAML.
func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Check if file exists, create default if not
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		fmt.Printf("Created default configuration at %s\n", path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand tilde in path fields before anything else so that
	// secrets_file can reference ~/... paths.
	cfg.expandTilde()

	// Load secrets file (KEY=VALUE) into the environment before
	// expanding ${ENV_VAR} placeholders in the config.
	if err := cfg.loadSecretsFile(); err != nil {
		return nil, fmt.Errorf("failed to load secrets file: %w", err)
	}

	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a file, as JSON for .json paths and
// YAML otherwise
func (c *Config) Save(path string) error {
	var data []byte
	var err error
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandEnvVars expands ${ENV_VAR} placeholders in path and credential fields
func (c *Config) expandEnvVars() {
	c.DataDir = os.ExpandEnv(c.DataDir)
	c.Mindtct.Path = os.ExpandEnv(c.Mindtct.Path)
	c.Catalog.Path = os.ExpandEnv(c.Catalog.Path)
	c.SSH.HostKeyPath = os.ExpandEnv(c.SSH.HostKeyPath)
	c.SSH.AuthorizedKeysPath = os.ExpandEnv(c.SSH.AuthorizedKeysPath)
	c.SSH.Image = os.ExpandEnv(c.SSH.Image)
	c.SSH.Minutiae = os.ExpandEnv(c.SSH.Minutiae)

	c.Remote.Endpoint = os.ExpandEnv(c.Remote.Endpoint)
	c.Remote.AccessKey = os.ExpandEnv(c.Remote.AccessKey)
	c.Remote.SecretKey = os.ExpandEnv(c.Remote.SecretKey)
	c.Remote.Region = os.ExpandEnv(c.Remote.Region)
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Mindtct.Validate(); err != nil {
		return fmt.Errorf("invalid mindtct configuration: %w", err)
	}
	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("invalid display configuration: %w", err)
	}
	if c.SSH.Enabled && c.SSH.ListenAddr == "" {
		return fmt.Errorf("ssh.listen_addr is required when ssh is enabled")
	}
	if c.SSH.SessionsPerMinute < 0 {
		return fmt.Errorf("ssh.sessions_per_minute cannot be negative")
	}
	if c.Maintenance.Enabled {
		if err := maintenance.ValidateSchedule(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("invalid maintenance configuration: %w", err)
		}
	}
	if c.Remote.Endpoint != "" && strings.Contains(c.Remote.Endpoint, "://") {
		return fmt.Errorf("remote.endpoint must be host[:port] without a scheme, got %q", c.Remote.Endpoint)
	}
	return nil
}

// expandTilde replaces a leading "~/" with the user's home directory in
// path-valued config fields. Called before env-var expansion so that
// both "~/foo" and "${SOME_PATH}" work.
func (c *Config) expandTilde() {
	home, err := os.UserHomeDir()
	if err != nil {
		return // can't expand, leave as-is
	}
	expand := func(p string) string {
		if p == "~" {
			return home
		}
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return p
	}

	c.DataDir = expand(c.DataDir)
	c.SecretsFile = expand(c.SecretsFile)
	c.Mindtct.Path = expand(c.Mindtct.Path)
	c.Catalog.Path = expand(c.Catalog.Path)
	c.SSH.HostKeyPath = expand(c.SSH.HostKeyPath)
	c.SSH.AuthorizedKeysPath = expand(c.SSH.AuthorizedKeysPath)
	c.SSH.Image = expand(c.SSH.Image)
	c.SSH.Minutiae = expand(c.SSH.Minutiae)
}

// loadSecretsFile exports the KEY=VALUE pairs of SecretsFile. Existing
// environment variables win; an unset or missing file is a no-op.
func (c *Config) loadSecretsFile() error {
	if c.SecretsFile == "" {
		return nil
	}
	if _, err := datadir.LoadEnvFile(c.SecretsFile); err != nil {
		return fmt.Errorf("cannot load secrets file %s: %w", c.SecretsFile, err)
	}
	return nil
}
