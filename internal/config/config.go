// Package config handles the application configuration of the crownix tool.
// It names the configuration root under which the vault pointer, backup slot
// and settings live, plus a few behavioural knobs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppDirName is the per-user directory under the OS config dir.
	AppDirName = "crownix-vault"
	// FileName is the application config file inside AppDirName.
	FileName = "crownix.yaml"
	// DefaultVaultFileName is the vault file created in a picked folder.
	DefaultVaultFileName = "CrownixVault.cxv"
	// DefaultVaultExtension is the extension the file chooser filters on.
	DefaultVaultExtension = "cxv"
	// DefaultKDFIterations matches the PBKDF2 cost of vaults written by the desktop app.
	DefaultKDFIterations = 200_000
)

// Config represents the application configuration
type Config struct {
	ConfigRoot       string        `yaml:"config_root"`
	VaultFileName    string        `yaml:"vault_file_name"`
	VaultExtension   string        `yaml:"vault_extension"`
	ClipboardTTL     time.Duration `yaml:"clipboard_ttl"`
	LockTimeout      time.Duration `yaml:"lock_timeout"`
	LogLevel         string        `yaml:"log_level"`
	OpenExportFolder bool          `yaml:"open_export_folder"`
	KDFIterations    int           `yaml:"kdf_iterations"`
}

// DefaultDir returns the per-user application directory.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppDirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), FileName)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ConfigRoot:       DefaultDir(),
		VaultFileName:    DefaultVaultFileName,
		VaultExtension:   DefaultVaultExtension,
		ClipboardTTL:     30 * time.Second,
		LockTimeout:      10 * time.Second,
		LogLevel:         "warn",
		OpenExportFolder: true,
		KDFIterations:    DefaultKDFIterations,
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ConfigRoot) == "" {
		errs = append(errs, errors.New("config_root must not be empty"))
	}
	if c.VaultFileName == "" || filepath.Base(c.VaultFileName) != c.VaultFileName {
		errs = append(errs, fmt.Errorf("vault_file_name must be a bare file name, got %q", c.VaultFileName))
	}
	if c.VaultExtension == "" || strings.ContainsAny(c.VaultExtension, `./\`) {
		errs = append(errs, fmt.Errorf("vault_extension must be an extension without a dot, got %q", c.VaultExtension))
	}
	if c.ClipboardTTL <= 0 {
		errs = append(errs, errors.New("clipboard_ttl must be positive"))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, errors.New("lock_timeout must be positive"))
	}
	if c.KDFIterations < 1 {
		errs = append(errs, errors.New("kdf_iterations must be at least 1"))
	}

	return errors.Join(errs...)
}

// LoadConfig loads configuration from file or returns default. A missing file
// is created with the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(configPath)

	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		if err := SaveConfig(cfg, cleanPath); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", cleanPath, err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, configPath string) error {
	cleanPath := filepath.Clean(configPath)

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the string form of a single configuration key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "config_root":
		return c.ConfigRoot, nil
	case "vault_file_name":
		return c.VaultFileName, nil
	case "vault_extension":
		return c.VaultExtension, nil
	case "clipboard_ttl":
		return c.ClipboardTTL.String(), nil
	case "lock_timeout":
		return c.LockTimeout.String(), nil
	case "log_level":
		return c.LogLevel, nil
	case "open_export_folder":
		return fmt.Sprintf("%t", c.OpenExportFolder), nil
	case "kdf_iterations":
		return fmt.Sprintf("%d", c.KDFIterations), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Keys lists every configuration key in display order.
func Keys() []string {
	return []string{
		"config_root",
		"vault_file_name",
		"vault_extension",
		"clipboard_ttl",
		"lock_timeout",
		"log_level",
		"open_export_folder",
		"kdf_iterations",
	}
}
