package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the single JSON file under the config dir. LedgerPath is
// filled in and written back on first use so later runs (and the user)
// can see where the ranking lives.
type Config struct {
	// LiveBaseURL is the base URL of the task service.
	LiveBaseURL string `json:"liveBaseURL"`

	// TaskList is the title of the list to rank.
	TaskList string `json:"taskList"`

	// LedgerPath is the SQLite file holding the ranked rows.
	LedgerPath string `json:"ledgerPath,omitempty"`

	// CategoriesSeed populates the category vocabulary on init.
	CategoriesSeed []string `json:"categoriesSeed,omitempty"`
}

// NotInitializedError means no config file exists yet; `stackrank init`
// creates one.
type NotInitializedError struct {
	Path string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("no config at %s (run `stackrank init`)", e.Path)
}

func Default() *Config {
	return &Config{
		LiveBaseURL:    "http://localhost:8080",
		TaskList:       "My Tasks",
		CategoriesSeed: []string{"home", "work", "errands", "someday"},
	}
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.stackrank).
	if v := strings.TrimSpace(os.Getenv("STACKRANK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stackrank"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotInitializedError{Path: path}
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep a copy of the previous config; recovery beats purity here.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// EnsureLedgerPath defaults LedgerPath next to the config file and
// reports whether the config changed (the caller writes it back).
func (c *Config) EnsureLedgerPath() (bool, error) {
	if strings.TrimSpace(c.LedgerPath) != "" {
		return false, nil
	}
	dir, err := Dir()
	if err != nil {
		return false, err
	}
	c.LedgerPath = filepath.Join(dir, "ledger.db")
	return true, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
