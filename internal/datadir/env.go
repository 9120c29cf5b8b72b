package datadir

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnvFileName is the dotenv file kept in the data directory. Its variables
// fill ${VAR} placeholders in the config, usually remote storage credentials.
const EnvFileName = ".env"

// EnvPath returns {root}/.env.
func (d *DataDir) EnvPath() string { return filepath.Join(d.root, EnvFileName) }

// LoadEnv exports the variables of the data directory's .env file and
// returns the names it set.
func (d *DataDir) LoadEnv() ([]string, error) {
	return LoadEnvFile(d.EnvPath())
}

// LoadEnvFile exports the variables defined in path and returns the names
// it set, sorted. Variables already in the environment are left alone so
// the shell or service manager wins. A missing file sets nothing.
func LoadEnvFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars, err := ParseEnv(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var set []string
	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return set, fmt.Errorf("failed to set %s: %w", key, err)
		}
		set = append(set, key)
	}
	sort.Strings(set)
	return set, nil
}

// ParseEnv reads KEY=VALUE lines. Blank lines, # comments and lines
// without a key are skipped. An "export " prefix and matching quotes
// around the value are stripped. A repeated key keeps its last value.
func ParseEnv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(value))
	}
	return vars, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
