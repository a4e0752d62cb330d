package secrets

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Scanner walks a file tree and matches each line of every
// configuration-like file against the configured rules.
type Scanner struct {
	config *Config
}

// New creates a Scanner with the given configuration.
// If cfg is nil, DefaultConfig() is used.
func New(cfg *Config) (*Scanner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{config: cfg}, nil
}

// MustNew creates a Scanner, panicking on error.
func MustNew(cfg *Config) *Scanner {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// ScanTree scans every eligible file under root and returns all findings.
// The walk is read-only; unreadable files are skipped, not errors.
func (s *Scanner) ScanTree(root string) (*Result, error) {
	start := time.Now()
	result := &Result{
		Findings: make([]Finding, 0),
		ByRule:   make(map[string]int),
	}

	if !s.config.Enabled {
		result.Duration = time.Since(start)
		return result, nil
	}

	skip := make(map[string]bool, len(s.config.SkipDirs))
	for _, d := range s.config.SkipDirs {
		skip[d] = true
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.eligible(path, d) {
			return nil
		}

		rel := path
		if r, relErr := filepath.Rel(root, path); relErr == nil {
			rel = r
		}
		findings := s.scanFile(path, rel)
		for _, f := range findings {
			result.ByRule[f.RuleID]++
		}
		result.Findings = append(result.Findings, findings...)
		result.FilesScanned++
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

// eligible applies the extension filter, size limit and the
// absolute-path exclusion list.
func (s *Scanner) eligible(path string, d fs.DirEntry) bool {
	name := d.Name()
	ext := strings.ToLower(filepath.Ext(name))
	matched := false
	for _, e := range s.config.Extensions {
		if ext == e {
			matched = true
			break
		}
	}
	// dotenv variants like ".env.local" carry the marker mid-name
	if !matched && !strings.Contains(name, ".env") {
		return false
	}

	if abs, err := filepath.Abs(path); err == nil && s.config.excludeAbs[abs] {
		return false
	}

	info, err := d.Info()
	if err != nil || info.Size() > s.config.MaxFileSize {
		return false
	}
	return true
}

// scanFile matches every line of one file against all rules.
func (s *Scanner) scanFile(path, rel string) []Finding {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var findings []Finding
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, rule := range s.config.compiledRules {
			match := rule.pattern.FindString(line)
			if match == "" {
				continue
			}
			if s.isAllowed(match) {
				continue
			}
			findings = append(findings, Finding{
				RuleID:      rule.ID,
				Description: rule.Description,
				Severity:    rule.Severity,
				Path:        rel,
				Line:        lineNo,
			})
		}
	}
	return findings
}

// isAllowed checks a match against the allow list.
func (s *Scanner) isAllowed(match string) bool {
	for _, allowed := range s.config.compiledAllowList {
		if allowed.MatchString(match) {
			return true
		}
	}
	return false
}
