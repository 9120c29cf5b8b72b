package ssh

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmssh "github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"

	"minview/internal/datadir"
)

// DataDirConfig holds the optional config value for the data directory.
// Set this before calling SSH key functions so the config-level
// data_dir override is respected.
var DataDirConfig string

const (
	hostKeyFile        = "ssh_host_key"
	authorizedKeysFile = "authorized_keys"
)

// ErrKeyNotFound is returned when removing a fingerprint that is not listed
var ErrKeyNotFound = errors.New("key not found")

// KeyEntry represents an authorized public key with metadata
type KeyEntry struct {
	PublicKey   charmssh.PublicKey
	Comment     string
	Fingerprint string
}

// sshFilePath returns a file inside the data directory's ssh subdirectory
func sshFilePath(name string) (string, error) {
	dd, err := datadir.New(DataDirConfig)
	if err != nil {
		return "", err
	}
	return dd.SSHFilePath(name), nil
}

// DefaultHostKeyPath returns where the host key lives when none is configured
func DefaultHostKeyPath() (string, error) {
	return sshFilePath(hostKeyFile)
}

// DefaultAuthorizedKeysPath returns where authorized_keys lives when none is configured
func DefaultAuthorizedKeysPath() (string, error) {
	return sshFilePath(authorizedKeysFile)
}

func resolveAuthorizedKeysPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	path, err := DefaultAuthorizedKeysPath()
	if err != nil {
		return "", fmt.Errorf("no authorized keys path available: %w", err)
	}
	return path, nil
}

// LoadAuthorizedKeys loads SSH public keys from an authorized_keys file
func LoadAuthorizedKeys(path string) ([]charmssh.PublicKey, error) {
	entries, err := ListAuthorizedKeys(path)
	if err != nil {
		return nil, err
	}
	keys := make([]charmssh.PublicKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.PublicKey)
	}
	return keys, nil
}

// ListAuthorizedKeys returns all authorized keys with fingerprints.
// Comment lines and lines that do not parse are skipped.
func ListAuthorizedKeys(path string) ([]KeyEntry, error) {
	path, err := resolveAuthorizedKeysPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open authorized keys: %w", err)
	}
	defer f.Close()

	var entries []KeyEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pubKey, comment, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			continue
		}

		entries = append(entries, KeyEntry{
			PublicKey:   pubKey,
			Comment:     comment,
			Fingerprint: gossh.FingerprintSHA256(pubKey),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading authorized keys: %w", err)
	}

	return entries, nil
}

// AddAuthorizedKey appends a public key to the authorized_keys file and
// returns its fingerprint
func AddAuthorizedKey(path string, keyData string) (string, error) {
	path, err := resolveAuthorizedKeysPath(path)
	if err != nil {
		return "", err
	}

	keyData = strings.TrimSpace(keyData)
	pubKey, _, _, _, err := gossh.ParseAuthorizedKey([]byte(keyData))
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	fingerprint := gossh.FingerprintSHA256(pubKey)

	if existing, err := ListAuthorizedKeys(path); err == nil {
		for _, e := range existing {
			if e.Fingerprint == fingerprint {
				return "", fmt.Errorf("key %s is already authorized", fingerprint)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to open authorized keys: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(keyData + "\n"); err != nil {
		return "", fmt.Errorf("failed to write key: %w", err)
	}

	return fingerprint, nil
}

// RemoveAuthorizedKey removes a key by fingerprint from the authorized_keys
// file. Comments and unparsable lines are kept as they are.
func RemoveAuthorizedKey(path string, fingerprint string) error {
	path, err := resolveAuthorizedKeysPath(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open authorized keys: %w", err)
	}

	var lines []string
	found := false
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			pubKey, _, _, _, err := gossh.ParseAuthorizedKey([]byte(trimmed))
			if err == nil && gossh.FingerprintSHA256(pubKey) == fingerprint {
				found = true
				continue
			}
		}
		lines = append(lines, line)
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, fingerprint)
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600)
}

// InitSSHKeys creates an empty authorized_keys file and returns the host
// key and authorized_keys paths in use. The host key itself is generated
// by wish the first time the server starts.
func InitSSHKeys(hostKeyPath, authorizedKeysPath string) (string, string, error) {
	var err error
	if hostKeyPath == "" {
		if hostKeyPath, err = DefaultHostKeyPath(); err != nil {
			return "", "", err
		}
	}
	if authorizedKeysPath, err = resolveAuthorizedKeysPath(authorizedKeysPath); err != nil {
		return "", "", err
	}

	if _, err := os.Stat(authorizedKeysPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(authorizedKeysPath), 0700); err != nil {
			return "", "", fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(authorizedKeysPath, []byte("# minview authorized SSH keys\n"), 0600); err != nil {
			return "", "", fmt.Errorf("failed to create authorized_keys: %w", err)
		}
	}

	return hostKeyPath, authorizedKeysPath, nil
}
