package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "singularity/_STATE/state.json", cfg.Paths.State)
	assert.Equal(t, "singularity/_STATE/history.json", cfg.Paths.History)
	assert.Equal(t, "singularity/evolution/validation_report.json", cfg.Paths.ValidationReport)
	assert.Equal(t, "singularity/evolution/memory_registry.json", cfg.Paths.MemoryRegistry)
	assert.Equal(t, "infinity-admin-control-plane", cfg.GitHub.AdminRepo)
	assert.Equal(t, "registry/repos.json", cfg.GitHub.RegistryPath)
	assert.Equal(t, 30*time.Second, cfg.Mesh.Timeout.Std())
	assert.Equal(t, 3, cfg.Mesh.MaxRetries)
	assert.Equal(t, "secret/singularity", cfg.Vault.KVPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repogov.yaml")
	content := `
paths:
  state: custom/_STATE/state.json
github:
  org: example-org
  repo: example-repo
mesh:
  hook_url: https://mesh.example.com/hook
  timeout: 5s
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom/_STATE/state.json", cfg.Paths.State)
	assert.Equal(t, "example-org", cfg.GitHub.Org)
	assert.Equal(t, "https://mesh.example.com/hook", cfg.Mesh.HookURL)
	assert.Equal(t, 5*time.Second, cfg.Mesh.Timeout.Std())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Unset fields still get defaults
	assert.Equal(t, "singularity/_STATE/history.json", cfg.Paths.History)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MESH_HOOK_URL", "https://env.example.com/hook")
	t.Setenv("GITHUB_ORG", "env-org")
	t.Setenv("VAULT_KV_PATH", "secret/custom")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/hook", cfg.Mesh.HookURL)
	assert.Equal(t, "env-org", cfg.GitHub.Org)
	assert.Equal(t, "secret/custom", cfg.Vault.KVPath)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults pass", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty state path", mutate: func(c *Config) { c.Paths.State = "" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Mesh.MaxRetries = -1 }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("ghp_supersecrettoken123456")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "Secret([REDACTED])", s.GoString())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "ghp_supersecrettoken123456", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "mesh.hook_url", envTransform("MESH_HOOK_URL"))
	assert.Equal(t, "github.token", envTransform("GITHUB_TOKEN"))
	assert.Equal(t, "paths.state", envTransform("PATHS_STATE"))
	assert.Equal(t, "home", envTransform("HOME"))
}
