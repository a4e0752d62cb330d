// Package config provides configuration loading for repogov.
//
// Configuration is loaded from an optional YAML file, then overridden by
// environment variables. Precedence (highest to lowest):
//
//  1. Environment variables (GITHUB_TOKEN, MESH_HOOK_URL, VAULT_ADDR, ...)
//  2. YAML config file (.repogov.yaml in the repository root)
//  3. Hardcoded defaults
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrConfig marks a fatal configuration problem: a required document or
// setting is missing or malformed beyond repair. Callers abort the whole
// invocation when they see it.
var ErrConfig = errors.New("configuration error")

// Config holds the complete repogov configuration.
type Config struct {
	Paths   PathsConfig   `koanf:"paths"`
	GitHub  GitHubConfig  `koanf:"github"`
	Mesh    MeshConfig    `koanf:"mesh"`
	Vault   VaultConfig   `koanf:"vault"`
	Google  GoogleConfig  `koanf:"google"`
	Logging LoggingConfig `koanf:"logging"`
}

// PathsConfig locates the governance documents inside the repository checkout.
type PathsConfig struct {
	Root             string `koanf:"root"`
	State            string `koanf:"state"`
	History          string `koanf:"history"`
	ValidationReport string `koanf:"validation_report"`
	MemoryRegistry   string `koanf:"memory_registry"`
	TechRegistry     string `koanf:"tech_registry"`
}

// GitHubConfig holds GitHub API access and admin control-plane settings.
type GitHubConfig struct {
	Token        Secret `koanf:"token"`
	Org          string `koanf:"org"`
	Repo         string `koanf:"repo"`
	AdminRepo    string `koanf:"admin_repo"`
	RegistryPath string `koanf:"registry_path"`
}

// MeshConfig configures the outbound webhook dispatcher.
type MeshConfig struct {
	HookURL    string   `koanf:"hook_url"`
	HookSecret Secret   `koanf:"hook_secret"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
}

// VaultConfig configures the secret-store connector.
type VaultConfig struct {
	Addr    string   `koanf:"addr"`
	Token   Secret   `koanf:"token"`
	KVPath  string   `koanf:"kv_path"`
	Timeout Duration `koanf:"timeout"`
}

// GoogleConfig configures the workspace notification connector.
type GoogleConfig struct {
	OAuthToken Secret `koanf:"oauth_token"`
	Recipient  string `koanf:"recipient"`
	SheetID    string `koanf:"sheet_id"`
	DriveDir   string `koanf:"drive_dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Abs resolves a document path against the configured repository root.
// Absolute paths pass through unchanged.
func (c *Config) Abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

// Validate checks the configuration for internally inconsistent values.
// Missing credentials are not errors: connectors degrade to no-ops.
func (c *Config) Validate() error {
	if c.Paths.State == "" {
		return fmt.Errorf("%w: paths.state must not be empty", ErrConfig)
	}
	if c.Paths.History == "" {
		return fmt.Errorf("%w: paths.history must not be empty", ErrConfig)
	}
	if c.Mesh.MaxRetries < 0 {
		return fmt.Errorf("%w: mesh.max_retries must be >= 0", ErrConfig)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: logging.format must be json or console", ErrConfig)
	}
	return nil
}

// applyDefaults fills in defaults for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Paths.Root == "" {
		cfg.Paths.Root = "."
	}
	if cfg.Paths.State == "" {
		cfg.Paths.State = "singularity/_STATE/state.json"
	}
	if cfg.Paths.History == "" {
		cfg.Paths.History = "singularity/_STATE/history.json"
	}
	if cfg.Paths.ValidationReport == "" {
		cfg.Paths.ValidationReport = "singularity/evolution/validation_report.json"
	}
	if cfg.Paths.MemoryRegistry == "" {
		cfg.Paths.MemoryRegistry = "singularity/evolution/memory_registry.json"
	}
	if cfg.Paths.TechRegistry == "" {
		cfg.Paths.TechRegistry = "singularity/evolution/tech_registry.json"
	}
	if cfg.GitHub.AdminRepo == "" {
		cfg.GitHub.AdminRepo = "infinity-admin-control-plane"
	}
	if cfg.GitHub.RegistryPath == "" {
		cfg.GitHub.RegistryPath = "registry/repos.json"
	}
	if cfg.Mesh.Timeout == 0 {
		cfg.Mesh.Timeout = Duration(30 * time.Second)
	}
	if cfg.Mesh.MaxRetries == 0 {
		cfg.Mesh.MaxRetries = 3
	}
	if cfg.Vault.KVPath == "" {
		cfg.Vault.KVPath = "secret/singularity"
	}
	if cfg.Vault.Timeout == 0 {
		cfg.Vault.Timeout = Duration(30 * time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}
