package secrets

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// Config configures the scanner.
type Config struct {
	// Enabled controls whether scanning is active (default: true)
	Enabled bool `koanf:"enabled"`

	// Rules defines the detection rules
	Rules []Rule `koanf:"rules"`

	// Extensions restricts scanning to configuration-like files
	Extensions []string `koanf:"extensions"`

	// SkipDirs are directory names excluded from the walk
	SkipDirs []string `koanf:"skip_dirs"`

	// ExcludePaths are files skipped by absolute-path comparison,
	// so pattern sources never flag themselves
	ExcludePaths []string `koanf:"exclude_paths"`

	// AllowList contains regex patterns whose matches are never flagged
	AllowList []string `koanf:"allow_list"`

	// MaxFileSize is the largest file in bytes the scanner will read
	MaxFileSize int64 `koanf:"max_file_size"`

	// compiled patterns (populated by Validate)
	compiledRules     []*compiledRule
	compiledAllowList []*regexp.Regexp
	excludeAbs        map[string]bool
}

// Rule defines one secret detection rule, matched per line.
type Rule struct {
	// ID is the unique identifier for this rule
	ID string `koanf:"id"`

	// Description explains what this rule detects
	Description string `koanf:"description"`

	// Pattern is the regex matched against each line
	Pattern string `koanf:"pattern"`

	// Severity indicates the importance (high, medium, low)
	Severity string `koanf:"severity"`
}

// compiledRule holds a compiled rule.
type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// DefaultConfig returns a configuration with the standard assignment
// heuristic rules and walk exclusions.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Rules:       DefaultRules(),
		Extensions:  []string{".json", ".yml", ".yaml", ".env", ".sh", ".ps1", ".tfvars", ".properties", ".ini", ".toml"},
		SkipDirs:    []string{".git", ".svn", ".hg", "node_modules", "vendor", "__pycache__", ".venv", "venv", "dist", "build", "target", ".idea", ".vscode"},
		MaxFileSize: 1 << 20,
	}
}

// Validate validates and compiles the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 1 << 20
	}

	c.compiledRules = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d: ID is required", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("rule %s: pattern is required", rule.ID)
		}

		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: invalid pattern: %w", rule.ID, err)
		}
		c.compiledRules = append(c.compiledRules, &compiledRule{Rule: rule, pattern: pattern})
	}

	c.compiledAllowList = make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, pattern := range c.AllowList {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("allow_list %d: invalid pattern: %w", i, err)
		}
		c.compiledAllowList = append(c.compiledAllowList, compiled)
	}

	c.excludeAbs = make(map[string]bool, len(c.ExcludePaths))
	for _, p := range c.ExcludePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("exclude_paths %q: %w", p, err)
		}
		c.excludeAbs[abs] = true
	}

	return nil
}
