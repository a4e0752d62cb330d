package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigFile is looked for in the repository root.
	DefaultConfigFile = ".repogov.yaml"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration from the YAML file at configPath (if it exists),
// then overrides with environment variables, applies defaults and validates.
//
// Environment variables use underscore separator and are uppercased, with
// the first underscore splitting section from field:
//
//	GITHUB_TOKEN    -> github.token
//	MESH_HOOK_URL   -> mesh.hook_url
//	VAULT_KV_PATH   -> vault.kv_path
//	PATHS_STATE     -> paths.state
//
// An empty configPath means "use DefaultConfigFile"; a missing file is not
// an error, only a malformed one is.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		configPath = DefaultConfigFile
	}

	if f, err := os.Open(configPath); err == nil {
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %v", ErrConfig, configPath, err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("%w: config file %s exceeds %d bytes", ErrConfig, configPath, maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, configPath, err)
		}

		// rawbytes provider avoids re-opening the file after validation
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConfig, configPath, err)
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("%w: load environment: %v", ErrConfig, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrConfig, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envTransform maps an environment variable name to a koanf key.
// Split on the first underscore only (section.field_name pattern).
func envTransform(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
